package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/config"
)

const jobTimeout = 2 * time.Minute

// DailyReporter runs the daily snapshot.
type DailyReporter interface {
	RunDaily(ctx context.Context, day time.Time) error
}

// ReporterFunc adapts a function to DailyReporter.
type ReporterFunc func(ctx context.Context, day time.Time) error

// RunDaily implements DailyReporter.
func (f ReporterFunc) RunDaily(ctx context.Context, day time.Time) error { return f(ctx, day) }

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	loc      *time.Location
	reporter DailyReporter
	logger   *zap.Logger
}

// NewScheduler creates a scheduler that fires in the configured timezone.
// The schedule uses the standard 5-field cron format.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, reporter DailyReporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: cfg.CronSchedule,
		loc:      loc,
		reporter: reporter,
		logger:   logger,
	}
}

// Start registers the daily snapshot job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDailySnapshot); err != nil {
		return fmt.Errorf("schedule daily snapshot %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.loc.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailySnapshot() {
	s.logger.Info("generating daily snapshot")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.reporter.RunDaily(ctx, time.Now().In(s.loc)); err != nil {
		s.logger.Error("failed to generate daily snapshot", zap.Error(err))
		return
	}
	s.logger.Info("daily snapshot completed")
}
