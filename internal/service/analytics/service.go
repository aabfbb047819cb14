package analytics

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository"
	"github.com/mamadbah2/stockdesk/internal/service/export"
)

const (
	recentTransactionsLimit = 5
	noTopProduct            = "N/A"
)

// ExportHeader is the first row of the analytics CSV.
var ExportHeader = []string{"Date", "Product", "Brand", "Category", "Quantity", "Unit Price", "Total", "Order ID"}

// Store is the data the analytics service reads.
type Store interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	ListLogs(ctx context.Context, filter repository.LogFilter) ([]models.SaleLog, error)
	ListOrderStatuses(ctx context.Context) (map[string]models.OrderStatus, error)
}

// Options tunes the service.
type Options struct {
	LowStockThreshold int
	Location          *time.Location
	Parser            models.DetailsParser
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service computes analytics reports, CSV exports and daily snapshots.
type Service struct {
	store     Store
	agg       Aggregator
	threshold int
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewService wires a new analytics service instance.
func NewService(store Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:     store,
		agg:       NewAggregator(opts.Parser, opts.Location),
		threshold: opts.LowStockThreshold,
		loc:       opts.Location,
		now:       opts.Now,
		logger:    logger,
	}
}

func (s *Service) sales(ctx context.Context, since, until time.Time) ([]models.SaleLog, error) {
	logs, err := s.store.ListLogs(ctx, repository.LogFilter{
		Action: models.ActionStockOut,
		Since:  since,
		Until:  until,
	})
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	return logs, nil
}

// Report builds the analytics page for the period. Recent transactions are
// only included for admins. Any store failure aborts the whole report.
func (s *Service) Report(ctx context.Context, period models.Period, viewer models.Viewer) (*models.AnalyticsReport, error) {
	now := s.now()
	start, end := period.Window(now)
	prevStart, prevEnd := period.PreviousWindow(now)

	current, err := s.sales(ctx, start, end)
	if err != nil {
		return nil, err
	}
	previous, err := s.sales(ctx, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, apperr.Upstream(err)
	}

	totals := s.agg.Totals(current)
	prevTotals := s.agg.Totals(previous)
	top := s.agg.TopProducts(current, previous)

	report := &models.AnalyticsReport{
		Summary: models.AnalyticsSummary{
			TotalRevenue:      totals.Revenue.Round(2).InexactFloat64(),
			TotalOrders:       totals.Orders,
			AverageOrderValue: totals.AverageOrderValue().Round(2).InexactFloat64(),
			TopSellingProduct: topName(top),
			LowStockItems:     LowStockCount(items, s.threshold),
			RevenueGrowth:     Growth(totals.Revenue, prevTotals.Revenue),
		},
		RevenueChart:       s.agg.RevenueChart(period, current, now),
		CategoryChart:      CategoryDistribution(items),
		TopProducts:        top,
		RecentTransactions: []models.Transaction{},
	}

	if viewer.IsAdmin {
		statuses, err := s.store.ListOrderStatuses(ctx)
		if err != nil {
			return nil, apperr.Upstream(err)
		}
		report.RecentTransactions = s.agg.RecentTransactions(current, statuses, recentTransactionsLimit)
	}

	s.logger.Debug("analytics report computed",
		zap.String("period", string(period)),
		zap.Int("orders", totals.Orders),
		zap.Bool("admin", viewer.IsAdmin))

	return report, nil
}

// ExportCSV writes every sale of the period, newest first.
func (s *Service) ExportCSV(ctx context.Context, period models.Period, w io.Writer) error {
	start, end := period.Window(s.now())
	logs, err := s.sales(ctx, start, end)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(logs))
	for _, log := range logs {
		sale := log.Sale(s.agg.parser)
		unit := log.UnitPrice()
		var brand, category string
		if log.Item != nil {
			brand, category = log.Item.BrandName(), log.Item.CategoryName()
		}
		rows = append(rows, []string{
			log.Timestamp.In(s.loc).Format(models.DateLayout),
			log.ProductName(),
			brand,
			category,
			strconv.Itoa(sale.Quantity),
			export.Money(unit),
			export.Money(models.LineTotal(unit, sale.Quantity).InexactFloat64()),
			sale.DisplayOrderNumber(),
		})
	}

	if err := export.WriteCSV(w, ExportHeader, rows); err != nil {
		return fmt.Errorf("export analytics: %w", err)
	}
	return nil
}

// DailySnapshot summarizes the calendar day containing day, in the configured timezone.
func (s *Service) DailySnapshot(ctx context.Context, day time.Time) (models.DailySnapshot, error) {
	local := day.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	logs, err := s.sales(ctx, start, end)
	if err != nil {
		return models.DailySnapshot{}, err
	}
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return models.DailySnapshot{}, apperr.Upstream(err)
	}

	totals := s.agg.Totals(logs)
	return models.DailySnapshot{
		Date:              start,
		Revenue:           totals.Revenue.Round(2).InexactFloat64(),
		Orders:            totals.Orders,
		UnitsSold:         totals.Units,
		AverageOrderValue: totals.AverageOrderValue().Round(2).InexactFloat64(),
		TopProduct:        topName(s.agg.TopProducts(logs, nil)),
		LowStockItems:     LowStockCount(items, s.threshold),
		CreatedAt:         s.now().UTC(),
	}, nil
}

func topName(top []models.TopProduct) string {
	if len(top) == 0 {
		return noTopProduct
	}
	return top[0].Name
}
