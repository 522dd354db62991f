package models

import "time"

// Run status values
const (
	RunStatusPassed  = "passed"
	RunStatusFailed  = "failed"
	RunStatusAborted = "aborted"
)

// AbortInfo records the scenario during which the session failed.
// Ordinal 0 marks an abort before the first scenario; Name is then the stage.
type AbortInfo struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Error   string `json:"error"`
}

// SessionReport aggregates one run against a single browser session
type SessionReport struct {
	RunID             string           `json:"run_id" badgerhold:"key"`
	BaseURL           string           `json:"base_url"`
	StartedAt         time.Time        `json:"started_at" badgerhold:"index"`
	FinishedAt        time.Time        `json:"finished_at"`
	Results           []ScenarioResult `json:"results"`
	Abort             *AbortInfo       `json:"abort,omitempty"`
	NotRun            []ScenarioRef    `json:"not_run,omitempty"` // Declared after the aborted scenario
	ConsoleTotal      int              `json:"console_total"` // Console API messages only
	ConsoleExceptions int              `json:"console_exceptions,omitempty"`
	ConsoleErrors     []ConsoleEntry   `json:"console_errors,omitempty"` // Capped at the display limit
	ConsoleErrorCount int              `json:"console_error_count"`      // Uncapped
}

// Aborted reports whether the run ended on an unrecoverable session failure
func (r *SessionReport) Aborted() bool {
	return r.Abort != nil
}

// PassedCount returns the number of executed scenarios whose verdict is true
func (r *SessionReport) PassedCount() int {
	count := 0
	for _, result := range r.Results {
		if result.Passed {
			count++
		}
	}
	return count
}

// FailedCount returns the number of executed scenarios whose verdict is false
func (r *SessionReport) FailedCount() int {
	return len(r.Results) - r.PassedCount()
}

// Status derives the overall status string
func (r *SessionReport) Status() string {
	if r.Aborted() {
		return RunStatusAborted
	}
	if r.FailedCount() > 0 {
		return RunStatusFailed
	}
	return RunStatusPassed
}

// Duration returns the wall-clock duration of the run
func (r *SessionReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
