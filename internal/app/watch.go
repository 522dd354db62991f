package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/ternarybob/chatprobe/internal/models"
)

// scheduleParser accepts standard 5-field cron expressions
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a watch schedule without starting anything
func ValidateSchedule(schedule string) error {
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}
	return nil
}

// RunFunc executes one scheduled run
type RunFunc func(ctx context.Context) (*models.SessionReport, error)

// Watch runs fn on the schedule until ctx is cancelled. A tick that fires
// while the previous run is still going is skipped. Returns the number of
// runs started.
func (a *App) Watch(ctx context.Context, schedule string, immediate bool, fn RunFunc) (int, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return 0, err
	}

	var started int64
	job := func() {
		atomic.AddInt64(&started, 1)
		result, err := fn(ctx)
		a.logWatchRun(result, err)
	}

	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(schedule, job); err != nil {
		return 0, fmt.Errorf("failed to schedule watch: %w", err)
	}

	a.Logger.Info().
		Str("schedule", schedule).
		Bool("immediate", immediate).
		Msg("Watch started")

	if immediate {
		job()
	}

	c.Start()
	<-ctx.Done()
	// Wait for an in-flight run to observe the cancellation
	<-c.Stop().Done()

	a.Logger.Info().
		Int64("runs", atomic.LoadInt64(&started)).
		Msg("Watch stopped")

	return int(atomic.LoadInt64(&started)), nil
}

func (a *App) logWatchRun(result *models.SessionReport, err error) {
	if result == nil {
		a.Logger.Error().Err(err).Msg("Scheduled run could not start")
		return
	}

	event := a.Logger.Info()
	if result.Aborted() || result.FailedCount() > 0 {
		event = a.Logger.Warn()
	}
	event.
		Str("run_id", result.RunID).
		Str("status", result.Status()).
		Int("passed", result.PassedCount()).
		Int("failed", result.FailedCount()).
		Msg("Scheduled run finished")
}
