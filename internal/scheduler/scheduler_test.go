package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockdesk/internal/config"
)

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler(config.ReportingConfig{CronSchedule: "not a schedule"}, nil, ReporterFunc(func(context.Context, time.Time) error { return nil }), nil)
	assert.Error(t, s.Start())
}

func TestRunDailySnapshotUsesLocation(t *testing.T) {
	loc := time.FixedZone("GMT+2", 2*60*60)
	var got time.Time
	s := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * *"}, loc, ReporterFunc(func(ctx context.Context, day time.Time) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		got = day
		return errors.New("ignored")
	}), nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	s.runDailySnapshot()
	assert.Equal(t, loc, got.Location())
}
