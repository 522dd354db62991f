// Package settle decides when a page is stable enough to sample after an
// interaction. FixedDelay waits a per-kind duration; Polling samples the
// page until it stops changing, bounded by the same per-kind durations.
package settle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/common"
	"github.com/ternarybob/chatprobe/internal/interfaces"
	"github.com/ternarybob/chatprobe/internal/models"
)

// Strategy names accepted in [settle] strategy
const (
	StrategyFixed = "fixed"
	StrategyPoll  = "poll"
)

// Default waits per interaction kind
const (
	DefaultNavigation  = 3 * time.Second
	DefaultChat        = 8 * time.Second
	DefaultAggregation = 12 * time.Second
)

// Durations maps each settle kind to its wait (fixed) or upper bound (poll)
type Durations map[models.SettleKind]time.Duration

// DurationsFromConfig parses the per-kind durations, falling back to the defaults
func DurationsFromConfig(config common.SettleConfig) Durations {
	return Durations{
		models.SettleNavigation:  common.ParseDuration(config.Navigation, DefaultNavigation),
		models.SettleChat:        common.ParseDuration(config.Chat, DefaultChat),
		models.SettleAggregation: common.ParseDuration(config.Aggregation, DefaultAggregation),
	}
}

// For returns the duration of kind; unknown kinds get the longest configured wait
func (d Durations) For(kind models.SettleKind) time.Duration {
	if duration, ok := d[kind]; ok {
		return duration
	}
	var longest time.Duration
	for _, duration := range d {
		if duration > longest {
			longest = duration
		}
	}
	return longest
}

// New selects the strategy named in config. source is only read by the polling strategy.
func New(config common.SettleConfig, source interfaces.ContentSource, logger arbor.ILogger) (interfaces.SettleStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(config.Strategy)) {
	case "", StrategyFixed:
		return NewFixedDelay(config, logger), nil
	case StrategyPoll, "polling":
		if source == nil {
			return nil, fmt.Errorf("settle strategy %q needs a content source", config.Strategy)
		}
		return NewPolling(config, source, logger), nil
	default:
		return nil, fmt.Errorf("unknown settle strategy %q (expected %q or %q)", config.Strategy, StrategyFixed, StrategyPoll)
	}
}

// FixedDelay blocks for a fixed duration per interaction kind
type FixedDelay struct {
	durations Durations
	logger    arbor.ILogger
}

// NewFixedDelay creates a fixed-delay strategy from config
func NewFixedDelay(config common.SettleConfig, logger arbor.ILogger) *FixedDelay {
	return &FixedDelay{
		durations: DurationsFromConfig(config),
		logger:    logger,
	}
}

// Name identifies the strategy in logs and reports
func (f *FixedDelay) Name() string {
	return StrategyFixed
}

// Delay returns the wait used for kind
func (f *FixedDelay) Delay(kind models.SettleKind) time.Duration {
	return f.durations.For(kind)
}

// AwaitSettled sleeps for the kind's duration; only ctx cancellation ends it early
func (f *FixedDelay) AwaitSettled(ctx context.Context, kind models.SettleKind) error {
	delay := f.Delay(kind)

	f.logger.Debug().
		Str("kind", string(kind)).
		Dur("delay", delay).
		Msg("Waiting for page to settle")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
