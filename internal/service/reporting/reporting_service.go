package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository/mongodb"
	"github.com/mamadbah2/stockdesk/internal/repository/sheets"
	"github.com/mamadbah2/stockdesk/pkg/clients/whatsapp"
)

// SnapshotSource computes the summary of one day.
type SnapshotSource interface {
	DailySnapshot(ctx context.Context, day time.Time) (models.DailySnapshot, error)
}

// Sinks are the optional destinations of a snapshot. Nil sinks are skipped.
type Sinks struct {
	Archive    mongodb.SnapshotRepository
	Sheet      sheets.Repository
	Messenger  whatsapp.Client
	Recipients []string
}

// Service computes the daily snapshot and fans it out to the configured sinks.
type Service struct {
	source SnapshotSource
	sinks  Sinks
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(source SnapshotSource, sinks Sinks, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sinks.Recipients) == 0 {
		sinks.Messenger = nil
	}
	return &Service{source: source, sinks: sinks, logger: logger}
}

// RunDaily builds the snapshot for day and delivers it. Only the snapshot
// computation can fail the run; sink failures are logged.
func (s *Service) RunDaily(ctx context.Context, day time.Time) (models.DailySnapshot, error) {
	snapshot, err := s.source.DailySnapshot(ctx, day)
	if err != nil {
		return models.DailySnapshot{}, fmt.Errorf("compute daily snapshot: %w", err)
	}

	date := snapshot.Date.Format(models.DateLayout)

	if s.sinks.Archive != nil {
		if err := s.sinks.Archive.SaveDailySnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to archive snapshot", zap.String("date", date), zap.Error(err))
		} else {
			s.logger.Info("snapshot archived", zap.String("date", date))
		}
	}

	if s.sinks.Sheet != nil {
		if err := s.sinks.Sheet.AppendSnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to export snapshot to sheet", zap.String("date", date), zap.Error(err))
		}
	}

	if s.sinks.Messenger != nil {
		s.notify(ctx, date, FormatSnapshotMessage(snapshot))
	}

	return snapshot, nil
}

// notify sends the summary to every recipient; one failed number does not
// stop the others.
func (s *Service) notify(ctx context.Context, date, body string) {
	sent := 0
	for _, to := range s.sinks.Recipients {
		id, err := s.sinks.Messenger.SendText(ctx, to, body)
		if err != nil {
			fields := []zap.Field{zap.String("date", date), zap.String("to", to), zap.Error(err)}
			var apiErr *whatsapp.APIError
			if errors.As(err, &apiErr) {
				fields = append(fields, zap.Int("status", apiErr.Status), zap.String("fbtrace_id", apiErr.TraceID))
			}
			s.logger.Error("failed to send snapshot message", fields...)
			continue
		}
		sent++
		s.logger.Debug("snapshot message sent", zap.String("to", to), zap.String("message_id", id))
	}
	s.logger.Info("snapshot messages delivered", zap.String("date", date),
		zap.Int("sent", sent), zap.Int("recipients", len(s.sinks.Recipients)))
}

// FormatSnapshotMessage renders the text sent to the report recipient.
func FormatSnapshotMessage(s models.DailySnapshot) string {
	date := s.Date.Format(models.DateLayout)
	if s.Orders == 0 {
		return fmt.Sprintf("Daily summary (%s): no sales recorded. %d item(s) low on stock.", date, s.LowStockItems)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Daily summary (%s)\n", date)
	fmt.Fprintf(&b, "Revenue: %.2f\n", s.Revenue)
	fmt.Fprintf(&b, "Orders: %d (%d units)\n", s.Orders, s.UnitsSold)
	fmt.Fprintf(&b, "Average order: %.2f\n", s.AverageOrderValue)
	fmt.Fprintf(&b, "Top product: %s\n", s.TopProduct)
	fmt.Fprintf(&b, "Low stock items: %d", s.LowStockItems)
	return b.String()
}
