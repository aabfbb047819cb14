package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository"
	"github.com/mamadbah2/stockdesk/internal/service/export"
)

// ExportHeader is the first row of the orders CSV.
var ExportHeader = []string{"Order Number", "Date", "Product", "Quantity", "Unit Price", "Total Amount", "Status"}

// Store is the data the order service reads and writes.
type Store interface {
	GetItem(ctx context.Context, id string) (*models.Item, error)
	DecrementStock(ctx context.Context, id string, qty int) (*models.Item, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	ListLogs(ctx context.Context, filter repository.LogFilter) ([]models.SaleLog, error)
	GetLog(ctx context.Context, id string) (*models.SaleLog, error)
	InsertLog(ctx context.Context, log models.SaleLog) (*models.SaleLog, error)
	ListOrderStatuses(ctx context.Context) (map[string]models.OrderStatus, error)
	UpsertOrderStatus(ctx context.Context, logID string, status models.OrderStatus) (*models.OrderStatusRecord, error)
}

// Options tunes the service.
type Options struct {
	Location *time.Location
	Parser   models.DetailsParser
	// OrderNumber generates the number of a new order.
	OrderNumber func() int
	Now         func() time.Time
}

// Service reconstructs orders from sale logs and places new ones.
type Service struct {
	store       Store
	parser      models.DetailsParser
	loc         *time.Location
	orderNumber func() int
	now         func() time.Time
	logger      *zap.Logger
}

// NewService wires a new order service instance.
func NewService(store Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Parser == nil {
		opts.Parser = models.LegacyDetailsParser{}
	}
	if opts.OrderNumber == nil {
		opts.OrderNumber = randomOrderNumber
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:       store,
		parser:      opts.Parser,
		loc:         opts.Location,
		orderNumber: opts.OrderNumber,
		now:         opts.Now,
		logger:      logger,
	}
}

// randomOrderNumber returns a value in [1000, 9999].
func randomOrderNumber() int {
	return 1000 + rand.IntN(9000)
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]models.OrderView, error) {
	logs, err := s.store.ListLogs(ctx, repository.LogFilter{Action: models.ActionStockOut})
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	statuses, err := s.store.ListOrderStatuses(ctx)
	if err != nil {
		return nil, apperr.Upstream(err)
	}

	views := make([]models.OrderView, 0, len(logs))
	for _, log := range logs {
		views = append(views, models.BuildOrderView(log, s.parser, models.StatusOf(statuses, log.ID), s.loc))
	}
	return views, nil
}

// Create places an order: the stock is decremented atomically, then the sale
// log is written. A failed log insert does not give the stock back.
func (s *Service) Create(ctx context.Context, req models.CreateOrderRequest) (*models.OrderView, error) {
	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" {
		return nil, apperr.Validation("item_id is required")
	}
	if req.Quantity < 1 {
		return nil, apperr.Validation("Quantity must be at least 1")
	}

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, "Item not found")
	}

	var customer *models.Customer
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID != "" {
		customer, err = s.store.GetCustomer(ctx, customerID)
		if err != nil {
			return nil, notFoundOr(err, "Customer not found")
		}
	}

	if req.Quantity > item.Amount {
		return nil, insufficientStock(item.Amount)
	}

	updated, err := s.store.DecrementStock(ctx, itemID, req.Quantity)
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		available := 0
		if latest, getErr := s.store.GetItem(ctx, itemID); getErr == nil {
			available = latest.Amount
		}
		return nil, insufficientStock(available)
	case errors.Is(err, repository.ErrStockConflict):
		return nil, apperr.Conflict("Stock changed while placing the order, please retry", err)
	case err != nil:
		return nil, notFoundOr(err, "Item not found")
	}

	orderNumber := strconv.Itoa(s.orderNumber())
	quantity := req.Quantity
	log := models.SaleLog{
		ItemID:      itemID,
		Action:      models.ActionStockOut,
		Timestamp:   s.now().UTC(),
		Details:     models.FormatSaleDetails(quantity, orderNumber),
		Quantity:    &quantity,
		OrderNumber: &orderNumber,
	}
	if customer != nil {
		log.CustomerID = &customer.ID
	}

	saved, err := s.store.InsertLog(ctx, log)
	if err != nil {
		s.logger.Error("sale log insert failed after stock decrement",
			zap.String("item_id", itemID),
			zap.Int("quantity", quantity),
			zap.String("order_number", orderNumber),
			zap.Error(err))
		return nil, apperr.Upstream(err)
	}

	saved.Item = updated
	saved.Customer = customer
	view := models.BuildOrderView(*saved, s.parser, models.DefaultOrderStatus, s.loc)

	s.logger.Info("order created",
		zap.String("order_number", orderNumber),
		zap.String("item_id", itemID),
		zap.Int("quantity", quantity),
		zap.Int("stock_left", updated.Amount))

	return &view, nil
}

// UpdateStatus sets the status of the order derived from logID. The last writer wins.
func (s *Service) UpdateStatus(ctx context.Context, logID, raw string) (models.OrderStatus, error) {
	status, ok := models.ParseOrderStatus(raw)
	if !ok {
		return "", invalidStatus()
	}

	log, err := s.store.GetLog(ctx, logID)
	if err != nil {
		return "", notFoundOr(err, "Order not found")
	}
	if log.Action != models.ActionStockOut {
		return "", apperr.NotFound("Order not found")
	}

	record, err := s.store.UpsertOrderStatus(ctx, logID, status)
	if err != nil {
		return "", apperr.Upstream(err)
	}

	s.logger.Info("order status updated", zap.String("log_id", logID), zap.String("status", string(record.Status)))
	return record.Status, nil
}

// ExportCSV writes orders filtered by status; empty or "all" exports everything.
func (s *Service) ExportCSV(ctx context.Context, rawStatus string, w io.Writer) error {
	var filter models.OrderStatus
	if raw := strings.TrimSpace(rawStatus); raw != "" && !strings.EqualFold(raw, "all") {
		status, ok := models.ParseOrderStatus(raw)
		if !ok {
			return invalidStatus()
		}
		filter = status
	}

	views, err := s.List(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		if filter != "" && v.Status != filter {
			continue
		}
		rows = append(rows, []string{
			v.OrderNumber,
			v.Date,
			v.Product,
			strconv.Itoa(v.Quantity),
			export.Money(v.UnitPrice),
			export.Money(v.TotalAmount),
			string(v.Status),
		})
	}

	if err := export.WriteCSV(w, ExportHeader, rows); err != nil {
		return fmt.Errorf("export orders: %w", err)
	}
	return nil
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(message)
	}
	return apperr.Upstream(err)
}

func insufficientStock(available int) error {
	return apperr.Validation(fmt.Sprintf("Insufficient stock. Available: %d", available))
}

func invalidStatus() error {
	names := make([]string, len(models.OrderStatuses))
	for i, st := range models.OrderStatuses {
		names[i] = string(st)
	}
	return apperr.Validation("Invalid status. Must be one of: " + strings.Join(names, ", "))
}
