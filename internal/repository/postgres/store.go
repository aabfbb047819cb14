package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository"
)

// Store implements repository.Store directly against Postgres through gorm.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ repository.Store = (*Store)(nil)

// Open connects to Postgres using the pgx-backed gorm driver.
func Open(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return New(db, logger), nil
}

// New wraps an existing gorm handle. Tests pass a SQLite handle here.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Brand{},
		&models.Customer{},
		&models.Item{},
		&models.SaleLog{},
		&models.OrderStatusRecord{},
		&models.User{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for migrations and seeding.
func (s *Store) DB() *gorm.DB { return s.db }

// translate maps gorm and Postgres failures onto the repository errors.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return repository.NewStoreError(op, pgErr.Code, pgErr.Message, 0)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) items(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Category").Preload("Brand")
}

func (s *Store) logs(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Item.Category").
		Preload("Item.Brand").
		Preload("Customer")
}

// ListItems returns every item with its category and brand, sorted by name.
func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := s.items(ctx).Order("name asc").Find(&items).Error; err != nil {
		return nil, translate("list items", err)
	}
	return items, nil
}

// GetItem fetches one item with its joins.
func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	if err := s.items(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate("get item "+id, err)
	}
	return &item, nil
}

// CreateItem inserts an item and reloads it with its joins.
func (s *Store) CreateItem(ctx context.Context, item models.Item) (*models.Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.Category, item.Brand = nil, nil

	omit := []string{clause.Associations}
	if item.DateAdded == "" {
		omit = append(omit, "DateAdded")
	}
	if err := s.db.WithContext(ctx).Omit(omit...).Create(&item).Error; err != nil {
		return nil, translate("create item", err)
	}
	return s.GetItem(ctx, item.ID)
}

// UpdateItem replaces the editable fields of an item, including zero values.
func (s *Store) UpdateItem(ctx context.Context, id string, item models.Item) (*models.Item, error) {
	fields := map[string]any{
		"name":           item.Name,
		"model":          item.Model,
		"specifications": item.Specifications,
		"warranty":       item.Warranty,
		"price":          item.Price,
		"amount":         item.Amount,
		"category_id":    item.CategoryID,
		"brand_id":       item.BrandID,
	}
	if item.DateAdded != "" {
		fields["date_added"] = item.DateAdded
	}

	res := s.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, translate("update item "+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update item %s: %w", id, repository.ErrNotFound)
	}
	return s.GetItem(ctx, id)
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", id)
	if res.Error != nil {
		return translate("delete item "+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete item %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// DecrementStock subtracts qty in one guarded UPDATE so concurrent orders can
// never take the amount below zero.
func (s *Store) DecrementStock(ctx context.Context, id string, qty int) (*models.Item, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND amount >= ?", id, qty).
		Update("amount", gorm.Expr("amount - ?", qty))
	if res.Error != nil {
		return nil, translate("decrement item "+id, res.Error)
	}

	if res.RowsAffected == 0 {
		if _, err := s.GetItem(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("decrement item %s: %w", id, repository.ErrInsufficientStock)
	}

	return s.GetItem(ctx, id)
}

// ListCategories returns categories sorted by name.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, translate("list categories", err)
	}
	return categories, nil
}

// ListBrands returns brands sorted by name.
func (s *Store) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := s.db.WithContext(ctx).Order("name asc").Find(&brands).Error; err != nil {
		return nil, translate("list brands", err)
	}
	return brands, nil
}

// GetCustomer fetches one customer.
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, translate("get customer "+id, err)
	}
	return &customer, nil
}

// CountCustomers counts customer rows.
func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).Count(&n).Error; err != nil {
		return 0, translate("count customers", err)
	}
	return int(n), nil
}

// ListLogs queries sale logs with their item, category, brand and customer.
func (s *Store) ListLogs(ctx context.Context, filter repository.LogFilter) ([]models.SaleLog, error) {
	q := s.logs(ctx)
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where(`"timestamp" >= ?`, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		q = q.Where(`"timestamp" < ?`, filter.Until.UTC())
	}
	if filter.Unstructured {
		q = q.Where("quantity IS NULL OR order_number IS NULL")
	}
	if filter.Ascending {
		q = q.Order(`"timestamp" asc`)
	} else {
		q = q.Order(`"timestamp" desc`)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var logs []models.SaleLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, translate("list logs", err)
	}
	return logs, nil
}

// GetLog fetches one sale log with its joins.
func (s *Store) GetLog(ctx context.Context, id string) (*models.SaleLog, error) {
	var log models.SaleLog
	if err := s.logs(ctx).First(&log, "id = ?", id).Error; err != nil {
		return nil, translate("get log "+id, err)
	}
	return &log, nil
}

// InsertLog appends a sale log.
func (s *Store) InsertLog(ctx context.Context, log models.SaleLog) (*models.SaleLog, error) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	log.Timestamp = log.Timestamp.UTC()
	log.Item, log.Customer = nil, nil

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&log).Error; err != nil {
		return nil, translate("insert log", err)
	}
	return &log, nil
}

// UpdateLogSale writes the structured sale fields of a log.
func (s *Store) UpdateLogSale(ctx context.Context, id string, quantity int, orderNumber string) error {
	res := s.db.WithContext(ctx).
		Model(&models.SaleLog{}).
		Where("id = ?", id).
		Updates(map[string]any{"quantity": quantity, "order_number": orderNumber})
	if res.Error != nil {
		return translate("update log sale "+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update log sale %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// ListOrderStatuses returns every stored status keyed by log id.
func (s *Store) ListOrderStatuses(ctx context.Context) (map[string]models.OrderStatus, error) {
	var records []models.OrderStatusRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, translate("list order statuses", err)
	}

	statuses := make(map[string]models.OrderStatus, len(records))
	for _, r := range records {
		statuses[r.LogID] = r.Status
	}
	return statuses, nil
}

// UpsertOrderStatus writes the status for a log; the last writer wins.
func (s *Store) UpsertOrderStatus(ctx context.Context, logID string, status models.OrderStatus) (*models.OrderStatusRecord, error) {
	record := models.OrderStatusRecord{LogID: logID, Status: status, UpdatedAt: time.Now().UTC()}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "log_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return nil, translate("upsert order status", err)
	}
	return &record, nil
}

// GetUser fetches one account, password hash included.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate("get user "+id, err)
	}
	return &user, nil
}

// UpdateUserProfile writes the self-editable fields of an account.
func (s *Store) UpdateUserProfile(ctx context.Context, id string, profile models.ProfileUpdate) (*models.User, error) {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"email":    profile.Email,
			"username": profile.Username,
			"fullname": profile.Fullname,
		})
	if res.Error != nil {
		return nil, translate("update user "+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update user %s: %w", id, repository.ErrNotFound)
	}
	return s.GetUser(ctx, id)
}

// UpdateUserPassword stores a new password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password", passwordHash)
	if res.Error != nil {
		return translate("update user password "+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update user password %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
