package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository"
)

// Store is the data the inventory service manages.
type Store interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	CreateItem(ctx context.Context, item models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, id string, item models.Item) (*models.Item, error)
	DeleteItem(ctx context.Context, id string) error
	InsertLog(ctx context.Context, log models.SaleLog) (*models.SaleLog, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)
}

// Service manages the item catalogue. Stock increases are recorded as
// stock_in logs so the activity feed sees them.
type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService wires a new inventory service instance.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, now: time.Now, logger: logger}
}

// ListItems returns the catalogue.
func (s *Service) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	return items, nil
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return item, nil
}

// CreateItem validates and stores a new item.
func (s *Service) CreateItem(ctx context.Context, in models.ItemInput) (*models.Item, error) {
	item, err := fromInput(in)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateItem(ctx, item)
	if err != nil {
		return nil, classify(err)
	}

	if created.Amount > 0 {
		if err := s.recordStockIn(ctx, created.ID, created.Amount); err != nil {
			return nil, err
		}
	}

	s.logger.Info("item created", zap.String("item_id", created.ID), zap.Int("amount", created.Amount))
	return created, nil
}

// UpdateItem replaces an item. A higher amount is logged as a restock.
func (s *Service) UpdateItem(ctx context.Context, id string, in models.ItemInput) (*models.Item, error) {
	item, err := fromInput(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, classify(err)
	}

	updated, err := s.store.UpdateItem(ctx, id, item)
	if err != nil {
		return nil, classify(err)
	}

	if added := updated.Amount - existing.Amount; added > 0 {
		if err := s.recordStockIn(ctx, id, added); err != nil {
			return nil, err
		}
	}

	s.logger.Info("item updated", zap.String("item_id", id), zap.Int("amount", updated.Amount))
	return updated, nil
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.store.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenceViolation) {
			return apperr.Conflict("Item has recorded sales and cannot be deleted", err)
		}
		return classify(err)
	}
	s.logger.Info("item deleted", zap.String("item_id", id))
	return nil
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	return categories, nil
}

// ListBrands returns every brand.
func (s *Service) ListBrands(ctx context.Context) ([]models.Brand, error) {
	brands, err := s.store.ListBrands(ctx)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	return brands, nil
}

func (s *Service) recordStockIn(ctx context.Context, itemID string, quantity int) error {
	_, err := s.store.InsertLog(ctx, models.SaleLog{
		ItemID:    itemID,
		Action:    models.ActionStockIn,
		Timestamp: s.now().UTC(),
		Details:   models.FormatRestockDetails(quantity),
		Quantity:  &quantity,
	})
	if err != nil {
		s.logger.Error("stock_in log insert failed", zap.String("item_id", itemID), zap.Int("quantity", quantity), zap.Error(err))
		return apperr.Upstream(err)
	}
	return nil
}

func fromInput(in models.ItemInput) (models.Item, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return models.Item{}, apperr.Validation("Name is required")
	case in.Price < 0:
		return models.Item{}, apperr.Validation("Price must not be negative")
	case in.Amount < 0:
		return models.Item{}, apperr.Validation("Amount must not be negative")
	}

	return models.Item{
		Name:           name,
		Model:          strings.TrimSpace(in.Model),
		Specifications: strings.TrimSpace(in.Specifications),
		Warranty:       strings.TrimSpace(in.Warranty),
		Price:          in.Price,
		Amount:         in.Amount,
		CategoryID:     optional(in.CategoryID),
		BrandID:        optional(in.BrandID),
		DateAdded:      strings.TrimSpace(in.DateAdded),
	}, nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func classify(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("Item not found")
	case errors.Is(err, repository.ErrReferenceViolation):
		return apperr.Validation("Unknown category or brand")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("Item already exists", err)
	default:
		return apperr.Upstream(err)
	}
}
