package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mamadbah2/stockdesk/internal/domain/models"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock indicates a conditional decrement matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockConflict indicates the stock kept changing underneath a compare-and-swap.
	ErrStockConflict = errors.New("stock changed concurrently")
	// ErrReferenceViolation indicates a foreign key pointed at a missing row or
	// a delete was blocked by dependent rows.
	ErrReferenceViolation = errors.New("reference violation")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

// Postgres SQLSTATE codes surfaced by both adapters.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// StoreError is a failure reported by the data store itself.
type StoreError struct {
	Op      string
	Code    string
	Message string
	Status  int
	Err     error
}

// NewStoreError classifies a store-reported failure by its SQLSTATE code.
func NewStoreError(op, code, message string, status int) *StoreError {
	e := &StoreError{Op: op, Code: code, Message: message, Status: status}
	switch code {
	case codeForeignKeyViolation:
		e.Err = ErrReferenceViolation
	case codeUniqueViolation:
		e.Err = ErrDuplicate
	}
	return e
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Message
}

func (e *StoreError) Unwrap() error { return e.Err }

// PublicMessage is the store's message, passed through to API clients.
func (e *StoreError) PublicMessage() string { return e.Message }

// LogFilter narrows a sale log query. Zero values mean "no constraint".
type LogFilter struct {
	Action models.LogAction
	// Since is inclusive, Until exclusive.
	Since time.Time
	Until time.Time
	Limit int
	// Ascending orders oldest first; the default is newest first.
	Ascending bool
	// Unstructured keeps only rows missing quantity or order_number.
	Unstructured bool
}

// ItemStore manages items and their stock.
type ItemStore interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	CreateItem(ctx context.Context, item models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, id string, item models.Item) (*models.Item, error)
	DeleteItem(ctx context.Context, id string) error
	// DecrementStock atomically subtracts qty when amount >= qty and returns the
	// updated item, or ErrInsufficientStock when the guard fails.
	DecrementStock(ctx context.Context, id string, qty int) (*models.Item, error)
}

// CatalogStore exposes reference data.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	CountCustomers(ctx context.Context) (int, error)
}

// LogStore manages sale logs.
type LogStore interface {
	ListLogs(ctx context.Context, filter LogFilter) ([]models.SaleLog, error)
	GetLog(ctx context.Context, id string) (*models.SaleLog, error)
	InsertLog(ctx context.Context, log models.SaleLog) (*models.SaleLog, error)
	UpdateLogSale(ctx context.Context, id string, quantity int, orderNumber string) error
}

// StatusStore manages the order status table.
type StatusStore interface {
	ListOrderStatuses(ctx context.Context) (map[string]models.OrderStatus, error)
	UpsertOrderStatus(ctx context.Context, logID string, status models.OrderStatus) (*models.OrderStatusRecord, error)
}

// UserStore reads and edits operator accounts.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	// UpdateUserProfile writes email, username and fullname and returns the stored user.
	UpdateUserProfile(ctx context.Context, id string, profile models.ProfileUpdate) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// Store is the remote data store consumed by the services.
type Store interface {
	ItemStore
	CatalogStore
	LogStore
	StatusStore
	UserStore
	Close() error
}
