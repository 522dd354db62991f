// Package runner executes an ordered scenario sequence against one browser
// session and aggregates the outcomes into a SessionReport.
//
// State machine: Idle -> Running(i) -> Completed, or Aborted(err) when the
// session itself fails. An abort keeps every result collected before it.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/browser"
	"github.com/ternarybob/chatprobe/internal/common"
	"github.com/ternarybob/chatprobe/internal/indicators"
	"github.com/ternarybob/chatprobe/internal/interfaces"
	"github.com/ternarybob/chatprobe/internal/models"
)

// State of a run
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Dependencies are the collaborators a runner borrows for one session
type Dependencies struct {
	Page      interfaces.Page
	Driver    interfaces.ChatDriver
	Settle    interfaces.SettleStrategy
	Artifacts interfaces.ArtifactCapture
	Console   interfaces.ConsoleLog // Optional
}

// Options tune evaluation and reporting
type Options struct {
	BaseURL           string
	ConsoleErrorLimit int
	ExcerptLength     int
}

// Runner is the only caller of the page it is given.
// A Runner executes one sequence at a time.
type Runner struct {
	deps      Dependencies
	options   Options
	evaluator indicators.Evaluator
	logger    arbor.ILogger
	now       func() time.Time

	mu      sync.Mutex
	state   State
	current int
	err     error
}

// New creates an idle runner
func New(deps Dependencies, options Options, logger arbor.ILogger) *Runner {
	return &Runner{
		deps:      deps,
		options:   options,
		evaluator: indicators.NewEvaluator(options.ExcerptLength),
		logger:    logger,
		now:       time.Now,
		state:     StateIdle,
		current:   -1,
	}
}

// State returns the current state, the index of the scenario being run and
// the abort error, if any
func (r *Runner) State() (State, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.current, r.err
}

func (r *Runner) transition(state State, index int, err error) {
	r.mu.Lock()
	r.state = state
	r.current = index
	r.err = err
	r.mu.Unlock()
}

// Run executes scenarios in declared order. It returns the report in every
// case; the error is non-nil only when the run aborted, and then the report
// holds the results of the scenarios before the failing one.
func (r *Runner) Run(ctx context.Context, scenarios []models.Scenario) (*models.SessionReport, error) {
	report := &models.SessionReport{
		RunID:     common.NewRunID(),
		BaseURL:   r.options.BaseURL,
		StartedAt: r.now(),
		Results:   make([]models.ScenarioResult, 0, len(scenarios)),
	}

	r.logger.Info().
		Str("run_id", report.RunID).
		Int("scenarios", len(scenarios)).
		Str("settle", r.deps.Settle.Name()).
		Msg("Scenario run started")

	for i, scenario := range scenarios {
		r.transition(StateRunning, i, nil)

		result, err := r.runScenario(ctx, scenario)
		if err != nil {
			r.abort(report, scenarios, i, err)
			return report, err
		}

		report.Results = append(report.Results, result)
		r.logResult(result)
	}

	r.transition(StateCompleted, len(scenarios), nil)
	r.finish(report)

	r.logger.Info().
		Str("run_id", report.RunID).
		Int("passed", report.PassedCount()).
		Int("failed", report.FailedCount()).
		Dur("duration", report.Duration()).
		Msg("Scenario run completed")

	return report, nil
}

func (r *Runner) abort(report *models.SessionReport, scenarios []models.Scenario, index int, err error) {
	failed := scenarios[index]
	report.Abort = &models.AbortInfo{
		Ordinal: failed.Ordinal,
		Name:    failed.Name,
		Title:   failed.Title,
		Error:   err.Error(),
	}
	for _, rest := range scenarios[index+1:] {
		report.NotRun = append(report.NotRun, rest.Ref())
	}

	r.transition(StateAborted, index, err)
	r.finish(report)

	r.logger.Error().
		Str("run_id", report.RunID).
		Int("ordinal", failed.Ordinal).
		Str("scenario", failed.Name).
		Int("completed", len(report.Results)).
		Int("not_run", len(report.NotRun)).
		Err(err).
		Msg("Scenario run aborted")
}

func (r *Runner) finish(report *models.SessionReport) {
	report.FinishedAt = r.now()
	if r.deps.Console == nil {
		return
	}
	report.ConsoleTotal = r.deps.Console.Len()
	report.ConsoleExceptions = r.deps.Console.Exceptions()
	report.ConsoleErrors, report.ConsoleErrorCount = r.deps.Console.Errors(r.options.ConsoleErrorLimit)
}

// runScenario performs one Running(i) step. A non-nil error is unrecoverable
// and aborts the run; scenario-level failures come back as a failed result.
func (r *Runner) runScenario(ctx context.Context, scenario models.Scenario) (models.ScenarioResult, error) {
	start := r.now()

	r.logger.Info().
		Int("ordinal", scenario.Ordinal).
		Str("scenario", scenario.Name).
		Str("title", scenario.Title).
		Msg("Running scenario")

	if scenario.Navigates() {
		if err := r.deps.Page.Navigate(r.resolve(scenario.Path)); err != nil {
			return models.ScenarioResult{}, err
		}
		// A chat query after the page load settles on its own kind below
		kind := scenario.Settle
		if scenario.Interacts() {
			kind = models.SettleNavigation
		}
		if err := r.deps.Settle.AwaitSettled(ctx, kind); err != nil {
			return models.ScenarioResult{}, err
		}
	}

	if scenario.Interacts() {
		if err := r.deps.Driver.Submit(ctx, scenario.Input); err != nil {
			if ctx.Err() != nil || browser.IsSessionError(err) {
				return models.ScenarioResult{}, err
			}
			return r.failScenario(scenario, start, err), nil
		}
		if err := r.deps.Settle.AwaitSettled(ctx, scenario.Settle); err != nil {
			return models.ScenarioResult{}, err
		}
	}

	if !scenario.Navigates() && !scenario.Interacts() {
		if err := r.deps.Settle.AwaitSettled(ctx, scenario.Settle); err != nil {
			return models.ScenarioResult{}, err
		}
	}

	artifactPath := r.deps.Artifacts.Capture(scenario, r.deps.Page)

	snap, err := r.deps.Page.Content()
	if err != nil {
		return models.ScenarioResult{}, err
	}

	result := r.evaluator.Evaluate(scenario, snap)
	result.ArtifactPath = artifactPath
	result.SnapshotPath = r.deps.Artifacts.DumpSnapshot(scenario, snap)
	result.Duration = r.now().Sub(start)
	return result, nil
}

// failScenario records a scenario that could not be evaluated.
// The screenshot still shows what the page looked like.
func (r *Runner) failScenario(scenario models.Scenario, start time.Time, err error) models.ScenarioResult {
	r.logger.Warn().
		Int("ordinal", scenario.Ordinal).
		Str("scenario", scenario.Name).
		Err(err).
		Msg("Scenario failed before evaluation")

	result := models.FailedResult(scenario, err)
	result.ArtifactPath = r.deps.Artifacts.Capture(scenario, r.deps.Page)
	result.Duration = r.now().Sub(start)
	return result
}

func (r *Runner) logResult(result models.ScenarioResult) {
	matched := make([]string, 0, len(result.Groups))
	for _, group := range result.Groups {
		if group.Passed {
			matched = append(matched, group.Label)
		}
	}

	event := r.logger.Info()
	if !result.Passed {
		event = r.logger.Warn()
	}
	event.
		Int("ordinal", result.Ordinal).
		Str("scenario", result.Name).
		Bool("passed", result.Passed).
		Strs("groups_passed", matched).
		Str("artifact", result.ArtifactPath).
		Dur("duration", result.Duration).
		Msg("Scenario finished")
}

func (r *Runner) resolve(path string) string {
	return common.ResolveURL(r.options.BaseURL, path)
}
