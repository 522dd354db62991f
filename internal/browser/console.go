package browser

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/models"
)

// ConsoleRecorder accumulates console messages for the lifetime of one session.
// Append is called from chromedp's event goroutine while the runner is blocked
// in a settle wait, so every access holds the mutex.
type ConsoleRecorder struct {
	mu      sync.Mutex
	entries []models.ConsoleEntry
	logger  arbor.ILogger
	now     func() time.Time
}

// NewConsoleRecorder creates an empty recorder
func NewConsoleRecorder(logger arbor.ILogger) *ConsoleRecorder {
	return &ConsoleRecorder{
		entries: make([]models.ConsoleEntry, 0, 64),
		logger:  logger,
		now:     time.Now,
	}
}

// Attach subscribes the recorder to the page's console and exception events.
// The subscription ends when ctx is done.
func (r *ConsoleRecorder) Attach(ctx context.Context) {
	chromedp.ListenTarget(ctx, r.handleEvent)
}

func (r *ConsoleRecorder) handleEvent(ev interface{}) {
	entry, ok := entryFromEvent(ev, r.now())
	if !ok {
		return
	}
	r.Append(entry)
}

// Append records one entry in arrival order
func (r *ConsoleRecorder) Append(entry models.ConsoleEntry) {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	if entry.IsError() && r.logger != nil {
		r.logger.Debug().
			Str("type", entry.Type).
			Str("message", entry.Message).
			Msg("Browser console error")
	}
}

// Entries returns a copy of everything recorded so far
func (r *ConsoleRecorder) Entries() []models.ConsoleEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ConsoleEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of console API messages recorded
func (r *ConsoleRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, entry := range r.entries {
		if !entry.IsException() {
			n++
		}
	}
	return n
}

// Exceptions returns the number of uncaught exceptions recorded
func (r *ConsoleRecorder) Exceptions() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, entry := range r.entries {
		if entry.IsException() {
			n++
		}
	}
	return n
}

// Errors returns the first limit error entries and the total number of error entries.
// A limit <= 0 returns every error entry.
func (r *ConsoleRecorder) Errors(limit int) ([]models.ConsoleEntry, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []models.ConsoleEntry
	total := 0
	for _, entry := range r.entries {
		if !entry.IsError() {
			continue
		}
		total++
		if limit <= 0 || len(errs) < limit {
			errs = append(errs, entry)
		}
	}
	return errs, total
}

// Reset discards all entries; the session calls it on close
func (r *ConsoleRecorder) Reset() {
	r.mu.Lock()
	r.entries = r.entries[:0]
	r.mu.Unlock()
}

// entryFromEvent converts console API calls and uncaught exceptions.
// Other events are ignored.
func entryFromEvent(ev interface{}, at time.Time) (models.ConsoleEntry, bool) {
	switch e := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		return models.ConsoleEntry{
			Level:   levelForAPIType(e.Type),
			Type:    string(e.Type),
			Message: formatArgs(e.Args),
			At:      at,
		}, true

	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails == nil {
			return models.ConsoleEntry{}, false
		}
		message := e.ExceptionDetails.Text
		if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
			message = e.ExceptionDetails.Exception.Description
		}
		return models.ConsoleEntry{
			Level:   log.ErrorLevel,
			Type:    models.ConsoleTypeException,
			Message: message,
			At:      at,
		}, true
	}
	return models.ConsoleEntry{}, false
}

func levelForAPIType(t runtime.APIType) log.Level {
	switch t {
	case runtime.APITypeError, runtime.APITypeAssert:
		return log.ErrorLevel
	case runtime.APITypeWarning:
		return log.WarnLevel
	case runtime.APITypeDebug:
		return log.DebugLevel
	case runtime.APITypeTrace:
		return log.TraceLevel
	default:
		return log.InfoLevel
	}
}

// formatArgs renders console arguments the way DevTools prints them:
// strings unquoted, other primitives as JSON, objects by description.
func formatArgs(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		switch {
		case len(arg.Value) > 0:
			var s string
			if err := json.Unmarshal(arg.Value, &s); err == nil {
				parts = append(parts, s)
			} else {
				parts = append(parts, string(arg.Value))
			}
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, string(arg.Type))
		}
	}
	return strings.Join(parts, " ")
}
