package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository"
)

const activityLimit = 10

// Store is the data the dashboard reads.
type Store interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	ListLogs(ctx context.Context, filter repository.LogFilter) ([]models.SaleLog, error)
	ListOrderStatuses(ctx context.Context) (map[string]models.OrderStatus, error)
	CountCustomers(ctx context.Context) (int, error)
}

// Service builds the dashboard cards and activity feed.
type Service struct {
	store  Store
	parser models.DetailsParser
	logger *zap.Logger
}

// NewService wires a new dashboard service instance.
func NewService(store Store, parser models.DetailsParser, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parser == nil {
		parser = models.LegacyDetailsParser{}
	}
	return &Service{store: store, parser: parser, logger: logger}
}

// Get returns the stats cards and the latest activities.
func (s *Service) Get(ctx context.Context) (*models.Dashboard, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	sales, err := s.store.ListLogs(ctx, repository.LogFilter{Action: models.ActionStockOut})
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	statuses, err := s.store.ListOrderStatuses(ctx)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	customers, err := s.store.CountCustomers(ctx)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	recent, err := s.store.ListLogs(ctx, repository.LogFilter{Limit: activityLimit})
	if err != nil {
		return nil, apperr.Upstream(err)
	}

	revenue := decimal.Zero
	active := 0
	for _, log := range sales {
		sale := log.Sale(s.parser)
		revenue = revenue.Add(models.LineTotal(log.UnitPrice(), sale.Quantity))
		if models.StatusOf(statuses, log.ID).Active() {
			active++
		}
	}

	activities := make([]models.Activity, 0, len(recent))
	for _, log := range recent {
		activities = append(activities, s.activity(log))
	}

	return &models.Dashboard{
		Stats: []models.StatCard{
			{Title: "Total Products", Value: len(items), Icon: "package", Color: "#f59e0b"},
			{Title: "Total Sales", Value: FormatCurrency(revenue), Icon: "badge-dollar-sign", Color: "#10b981"},
			{Title: "Active Orders", Value: active, Icon: "shopping-cart", Color: "#3b82f6"},
			{Title: "Customers", Value: customers, Icon: "users", Color: "#8b5cf6"},
		},
		Activities: activities,
	}, nil
}

func (s *Service) activity(log models.SaleLog) models.Activity {
	a := models.Activity{ID: log.ID, Timestamp: log.Timestamp}

	switch log.Action {
	case models.ActionStockOut:
		sale := log.Sale(s.parser)
		a.Type = "order"
		a.Description = fmt.Sprintf("New order %s: %d x %s", sale.DisplayOrderNumber(), sale.Quantity, log.ProductName())
	default:
		a.Type = "inventory"
		a.Description = log.ProductName() + " restocked"
		if details := strings.TrimSpace(log.Details); details != "" {
			a.Description += " (" + details + ")"
		}
	}
	return a
}

// FormatCurrency renders whole dollars with thousands separators, e.g. $45,231.
func FormatCurrency(amount decimal.Decimal) string {
	digits := amount.Abs().Round(0).StringFixed(0)

	var b strings.Builder
	if amount.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
