package backfill

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository"
)

// Store is the slice of the log store the backfill needs.
type Store interface {
	ListLogs(ctx context.Context, filter repository.LogFilter) ([]models.SaleLog, error)
	UpdateLogSale(ctx context.Context, id string, quantity int, orderNumber string) error
}

// Options controls a backfill run.
type Options struct {
	DryRun bool
	// Limit caps the number of logs scanned; zero means all.
	Limit int
}

// Result counts what a run did.
type Result struct {
	Scanned int
	Updated int
	// Defaulted counts logs whose details carried no order number and got a TRX- reference.
	Defaulted int
	Failed    int
}

// Service copies quantity and order number out of legacy details text into
// the structured columns.
type Service struct {
	store  Store
	parser models.DetailsParser
	logger *zap.Logger
}

// NewService wires a new backfill service instance.
func NewService(store Store, parser models.DetailsParser, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parser == nil {
		parser = models.LegacyDetailsParser{}
	}
	return &Service{store: store, parser: parser, logger: logger}
}

// Run scans stock_out logs missing structured fields, oldest first. A failed
// update is logged and counted; the run carries on with the next log.
func (s *Service) Run(ctx context.Context, opts Options) (Result, error) {
	logs, err := s.store.ListLogs(ctx, repository.LogFilter{
		Action:       models.ActionStockOut,
		Unstructured: true,
		Ascending:    true,
		Limit:        opts.Limit,
	})
	if err != nil {
		return Result{}, fmt.Errorf("list unstructured logs: %w", err)
	}

	var res Result
	for _, log := range logs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Scanned++

		sale := log.Sale(s.parser)
		orderNumber := sale.OrderNumber
		if orderNumber == "" {
			orderNumber = sale.Fallback
			res.Defaulted++
		}

		if opts.DryRun {
			s.logger.Info("would update log",
				zap.String("log_id", log.ID),
				zap.Int("quantity", sale.Quantity),
				zap.String("order_number", orderNumber))
			continue
		}

		if err := s.store.UpdateLogSale(ctx, log.ID, sale.Quantity, orderNumber); err != nil {
			res.Failed++
			s.logger.Error("failed to update log", zap.String("log_id", log.ID), zap.Error(err))
			continue
		}
		res.Updated++
	}

	s.logger.Info("backfill finished",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("scanned", res.Scanned),
		zap.Int("updated", res.Updated),
		zap.Int("defaulted", res.Defaulted),
		zap.Int("failed", res.Failed))

	return res, nil
}
