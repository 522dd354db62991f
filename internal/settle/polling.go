package settle

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/chatprobe/internal/common"
	"github.com/ternarybob/chatprobe/internal/interfaces"
	"github.com/ternarybob/chatprobe/internal/models"
)

const defaultPollInterval = 500 * time.Millisecond

// Polling samples page content until the response looks complete: ready text
// present, busy text absent, and the markup unchanged for StableRounds
// consecutive samples. The per-kind duration is an upper bound; reaching it
// is not an error.
type Polling struct {
	source       interfaces.ContentSource
	bounds       Durations
	interval     time.Duration
	stableRounds int
	ready        []string
	busy         []string
	logger       arbor.ILogger
}

// NewPolling creates a polling strategy reading from source
func NewPolling(config common.SettleConfig, source interfaces.ContentSource, logger arbor.ILogger) *Polling {
	stableRounds := config.StableRounds
	if stableRounds < 1 {
		stableRounds = 1
	}
	interval := common.ParseDuration(config.PollInterval, defaultPollInterval)
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Polling{
		source:       source,
		bounds:       DurationsFromConfig(config),
		interval:     interval,
		stableRounds: stableRounds,
		ready:        lowered(config.ReadyText),
		busy:         lowered(config.BusyText),
		logger:       logger,
	}
}

// Name identifies the strategy in logs and reports
func (p *Polling) Name() string {
	return StrategyPoll
}

// AwaitSettled samples until the page is complete and stable or the kind's bound elapses.
// It returns an error only when ctx itself is cancelled.
func (p *Polling) AwaitSettled(ctx context.Context, kind models.SettleKind) error {
	bound := p.bounds.For(kind)
	boundCtx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(p.interval), 1)
	startTime := time.Now()

	var previous string
	stable := 0
	samples := 0

	for {
		if err := limiter.Wait(boundCtx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Debug().
				Str("kind", string(kind)).
				Dur("bound", bound).
				Int("samples", samples).
				Msg("Settle bound reached before page was stable")
			return nil
		}

		snap, err := p.source.Content()
		samples++
		if err != nil {
			p.logger.Debug().Err(err).Msg("Settle sample failed")
			stable = 0
			previous = ""
			continue
		}

		current := snap.Lower()
		if stable > 0 && current == previous {
			stable++
		} else {
			stable = 1
		}
		previous = current

		if stable >= p.stableRounds && p.complete(current) {
			p.logger.Debug().
				Str("kind", string(kind)).
				Int("samples", samples).
				Dur("elapsed", time.Since(startTime)).
				Msg("Page settled")
			return nil
		}
	}
}

// complete applies the ready/busy markers to lowercased content
func (p *Polling) complete(content string) bool {
	for _, marker := range p.busy {
		if strings.Contains(content, marker) {
			return false
		}
	}
	if len(p.ready) == 0 {
		return true
	}
	for _, marker := range p.ready {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

func lowered(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}
