package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/artifacts"
	"github.com/ternarybob/chatprobe/internal/browser"
	"github.com/ternarybob/chatprobe/internal/common"
	"github.com/ternarybob/chatprobe/internal/interfaces"
	"github.com/ternarybob/chatprobe/internal/models"
	"github.com/ternarybob/chatprobe/internal/preflight"
	"github.com/ternarybob/chatprobe/internal/report"
	"github.com/ternarybob/chatprobe/internal/runner"
	"github.com/ternarybob/chatprobe/internal/scenarios"
	"github.com/ternarybob/chatprobe/internal/settle"
	"github.com/ternarybob/chatprobe/internal/storage"
)

// ErrHistoryDisabled is returned by history operations when [storage] is off
var ErrHistoryDisabled = errors.New("run history is disabled ([storage] enabled = false)")

// App holds the resolved configuration and the long-lived components shared
// by every run: the logger and run history storage.
type App struct {
	Config  *common.Config
	Logger  arbor.ILogger
	History interfaces.RunStorage // nil when history is disabled
}

// New initializes the application components
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	history, err := storage.NewRunStorage(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}

	return &App{
		Config:  config,
		Logger:  logger,
		History: history,
	}, nil
}

// Close releases run history storage
func (a *App) Close() error {
	if a.History == nil {
		return nil
	}
	return a.History.Close()
}

// Scenarios resolves the catalog: scenario files when configured, otherwise
// the built-in multi-platform catalog, narrowed to names when given.
func (a *App) Scenarios(names []string) ([]models.Scenario, error) {
	all := scenarios.Builtin()
	if len(a.Config.Scenarios.Files) > 0 {
		loaded, err := scenarios.LoadFiles(a.Config.Scenarios.Files...)
		if err != nil {
			return nil, err
		}
		all = loaded
	}

	if unknown := unknownNames(all, names); len(unknown) > 0 {
		return nil, fmt.Errorf("unknown scenario: %s", strings.Join(unknown, ", "))
	}

	selected := scenarios.Select(all, names)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no scenarios to run")
	}

	return scenarios.WithArtifactTemplate(selected, a.Config.Artifacts.Template), nil
}

// Preflight probes the target. The error is non-nil only when preflight is
// required and a probe failed.
func (a *App) Preflight(ctx context.Context) (*preflight.Result, error) {
	if !a.Config.Preflight.Enabled {
		return nil, nil
	}

	result := preflight.NewChecker(a.Config.Target, a.Config.Preflight, a.Logger).Check(ctx)
	if !result.OK() && a.Config.Preflight.Required {
		failed := result.Failed()
		names := make([]string, len(failed))
		for i, probe := range failed {
			names[i] = probe.Name
		}
		return result, fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
	}
	return result, nil
}

// RunOnce opens a fresh browser session, executes the scenarios and records
// the report. The report is always returned, together with the abort error
// if the run aborted.
func (a *App) RunOnce(ctx context.Context, selected []models.Scenario) (*models.SessionReport, error) {
	recorder := browser.NewConsoleRecorder(a.Logger)

	session, err := browser.Open(ctx, a.Config.Browser, recorder, a.Logger)
	if err != nil {
		return a.AbortBeforeStart(StageBrowser, selected, err), err
	}
	defer session.Close()

	strategy, err := settle.New(a.Config.Settle, session, a.Logger)
	if err != nil {
		return a.AbortBeforeStart(StageSettle, selected, err), err
	}

	r := runner.New(runner.Dependencies{
		Page:      session,
		Driver:    browser.NewDriver(session, a.Config.Driver, a.Logger),
		Settle:    strategy,
		Artifacts: artifacts.NewCapture(a.Config.Artifacts, a.Config.Target.BaseURL, a.Logger),
		Console:   recorder,
	}, runner.Options{
		BaseURL:           a.Config.Target.BaseURL,
		ConsoleErrorLimit: a.Config.Report.ConsoleErrorLimit,
		ExcerptLength:     a.Config.Report.ExcerptLength,
	}, a.Logger)

	result, runErr := r.Run(ctx, selected)
	a.Record(context.Background(), result)
	return result, runErr
}

// Stages that can abort a run before its first scenario
const (
	StagePreflight = "preflight"
	StageBrowser   = "browser"
	StageSettle    = "settle"
)

// AbortBeforeStart records a run that never reached its first scenario:
// the abort names the stage and every scenario is reported as not run.
func (a *App) AbortBeforeStart(stage string, selected []models.Scenario, err error) *models.SessionReport {
	now := time.Now()
	result := &models.SessionReport{
		RunID:      common.NewRunID(),
		BaseURL:    a.Config.Target.BaseURL,
		StartedAt:  now,
		FinishedAt: now,
		Results:    []models.ScenarioResult{},
		Abort:      &models.AbortInfo{Name: stage, Error: err.Error()},
	}
	for _, scenario := range selected {
		result.NotRun = append(result.NotRun, scenario.Ref())
	}

	a.Logger.Error().
		Str("stage", stage).
		Int("not_run", len(result.NotRun)).
		Err(err).
		Msg("Run aborted before the first scenario")

	a.Record(context.Background(), result)
	return result
}

// Record writes the configured exports and saves the report to history.
// Both are best effort: a run's verdict never depends on them.
func (a *App) Record(ctx context.Context, result *models.SessionReport) {
	if result == nil {
		return
	}

	report.WriteExports(result, a.Config.Report, a.Logger)

	if a.History == nil {
		return
	}
	if err := a.History.SaveReport(ctx, result); err != nil {
		a.Logger.Warn().
			Str("run_id", result.RunID).
			Err(err).
			Msg("Failed to save run to history")
	}
}

// DeleteRun removes a stored run from history
func (a *App) DeleteRun(ctx context.Context, runID string) error {
	if a.History == nil {
		return ErrHistoryDisabled
	}
	if err := a.History.DeleteReport(ctx, runID); err != nil {
		return err
	}
	a.Logger.Info().
		Str("run_id", runID).
		Msg("Run deleted from history")
	return nil
}

// Summary renders the text report with the configured options
func (a *App) Summary(result *models.SessionReport) string {
	return report.Summarize(result, report.OptionsFromConfig(a.Config.Report))
}

// ExitCode maps a report to the process exit status: 1 when the run aborted,
// or when strict and any scenario failed.
func ExitCode(result *models.SessionReport, strict bool) int {
	if result == nil || result.Aborted() {
		return 1
	}
	if strict && result.FailedCount() > 0 {
		return 1
	}
	return 0
}

func unknownNames(all []models.Scenario, names []string) []string {
	known := make(map[string]bool, len(all))
	for _, scenario := range all {
		known[scenario.Name] = true
	}

	var unknown []string
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}
