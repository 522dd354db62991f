// Package report renders a SessionReport: the deterministic text summary
// printed at the end of every run, and Markdown, HTML, PDF and JSON exports.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/chatprobe/internal/models"
)

// Scenario markers. NOT RUN distinguishes scenarios an abort skipped from
// scenarios that ran and failed.
const (
	MarkPass    = "✓ PASS"
	MarkFail    = "✗ FAIL"
	MarkAborted = "! ABORTED"
	MarkNotRun  = "- NOT RUN"
)

const (
	DefaultTitle             = "MULTI-PLATFORM E2E TESTS"
	DefaultConsoleErrorLimit = 5
	ruleWidth                = 80
)

// Options control the rendering; zero values use the defaults
type Options struct {
	Title             string
	ConsoleErrorLimit int
}

func (o Options) title() string {
	if o.Title == "" {
		return DefaultTitle
	}
	return o.Title
}

func (o Options) consoleErrorLimit() int {
	if o.ConsoleErrorLimit <= 0 {
		return DefaultConsoleErrorLimit
	}
	return o.ConsoleErrorLimit
}

// Line is one scenario row in execution order, including aborted and not-run scenarios
type Line struct {
	Ordinal int
	Name    string
	Title   string
	Mark    string
	Detail  string
	Result  *models.ScenarioResult
}

// Lines lists every scenario the run knows about: results, the aborted
// scenario, then the scenarios never reached.
func Lines(report *models.SessionReport) []Line {
	lines := make([]Line, 0, len(report.Results)+len(report.NotRun)+1)

	for i := range report.Results {
		result := &report.Results[i]
		line := Line{Ordinal: result.Ordinal, Name: result.Name, Title: result.Title, Result: result, Mark: MarkFail}
		if result.Passed {
			line.Mark = MarkPass
		}
		line.Detail = resultDetail(result)
		lines = append(lines, line)
	}

	if report.Abort != nil {
		lines = append(lines, Line{
			Ordinal: report.Abort.Ordinal,
			Name:    report.Abort.Name,
			Title:   report.Abort.Title,
			Mark:    MarkAborted,
			Detail:  report.Abort.Error,
		})
	}

	for _, ref := range report.NotRun {
		lines = append(lines, Line{
			Ordinal: ref.Ordinal,
			Name:    ref.Name,
			Title:   ref.Title,
			Mark:    MarkNotRun,
			Detail:  "skipped after abort",
		})
	}

	return lines
}

func resultDetail(result *models.ScenarioResult) string {
	if result.Error != "" {
		return result.Error
	}

	passed := make([]string, 0, len(result.Groups))
	for _, group := range result.Groups {
		if group.Passed {
			passed = append(passed, group.Label)
		}
	}
	if len(passed) == 0 {
		return fmt.Sprintf("0/%d indicator groups matched", len(result.Groups))
	}
	return fmt.Sprintf("%d/%d indicator groups matched: %s", len(passed), len(result.Groups), strings.Join(passed, ", "))
}

// Summarize renders the text report. The output depends only on the report
// and options.
func Summarize(report *models.SessionReport, opts Options) string {
	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, opts.title())
	fmt.Fprintln(&b, rule)
	if report.BaseURL != "" {
		fmt.Fprintf(&b, "Target: %s\n", report.BaseURL)
	}
	if report.RunID != "" {
		fmt.Fprintf(&b, "Run:    %s\n", report.RunID)
	}

	for _, line := range Lines(report) {
		fmt.Fprintln(&b)
		if line.Ordinal == 0 {
			fmt.Fprintf(&b, "[%s]\n", lineTitle(line))
		} else {
			fmt.Fprintf(&b, "[Test %d] %s\n", line.Ordinal, lineTitle(line))
		}
		fmt.Fprintf(&b, "  %s  %s\n", line.Mark, line.Detail)
		if line.Result != nil && line.Result.ArtifactPath != "" {
			fmt.Fprintf(&b, "  screenshot: %s\n", line.Result.ArtifactPath)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "TEST SUMMARY")
	fmt.Fprintln(&b, rule)

	executed := len(report.Results)
	declared := executed + len(report.NotRun)
	if report.Abort != nil && report.Abort.Ordinal > 0 {
		declared++
	}
	fmt.Fprintf(&b, "Passed: %d  Failed: %d  Not run: %d  (of %d)\n",
		report.PassedCount(), report.FailedCount(), declared-executed, declared)
	if d := report.Duration(); d > 0 {
		fmt.Fprintf(&b, "Duration: %s\n", d.Round(100*time.Millisecond))
	}

	fmt.Fprintf(&b, "\nConsole logs: %d messages\n", report.ConsoleTotal)
	if report.ConsoleExceptions > 0 {
		fmt.Fprintf(&b, "Uncaught exceptions: %d (included in console errors)\n", report.ConsoleExceptions)
	}
	errs := report.ConsoleErrors
	limit := opts.consoleErrorLimit()
	if len(errs) > limit {
		errs = errs[:limit]
	}
	if report.ConsoleErrorCount > 0 || len(errs) > 0 {
		count := report.ConsoleErrorCount
		if count < len(errs) {
			count = len(errs)
		}
		fmt.Fprintf(&b, "\n⚠ Console errors detected (%d, showing first %d):\n", count, len(errs))
		for _, entry := range errs {
			fmt.Fprintf(&b, "  %s\n", entry.String())
		}
	} else {
		fmt.Fprintln(&b, "✓ No console errors detected")
	}

	fmt.Fprintf(&b, "\nSTATUS: %s\n", strings.ToUpper(report.Status()))
	return b.String()
}

func lineTitle(line Line) string {
	if line.Title != "" {
		return line.Title
	}
	return line.Name
}
