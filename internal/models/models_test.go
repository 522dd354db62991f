package models

import (
	"errors"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
)

type literal string

func (l literal) Match(snap Snapshot) bool { return snap.Lower() == string(l) }
func (l literal) String() string           { return string(l) }

func TestScenarioArtifactName(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		want     string
	}{
		{"default template", Scenario{Ordinal: 1, Name: "facebook_products"}, "test1_facebook_products.png"},
		{"custom template", Scenario{Ordinal: 4, Name: "media_buys", ArtifactTemplate: "{name}-{ordinal}.png"}, "media_buys-4.png"},
		{"template without placeholders", Scenario{Ordinal: 2, Name: "x", ArtifactTemplate: "fixed.png"}, "fixed.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scenario.ArtifactName())
		})
	}
}

func TestScenarioValidate(t *testing.T) {
	group := IndicatorGroup{Label: "brand", Predicates: []Predicate{literal("x")}}

	valid := Scenario{Ordinal: 1, Name: "ok", Settle: SettleChat, Groups: []IndicatorGroup{group}}
	assert.NoError(t, valid.Validate())

	noGroups := valid
	noGroups.Groups = nil
	assert.Error(t, noGroups.Validate())

	emptyGroup := valid
	emptyGroup.Groups = []IndicatorGroup{{Label: "empty"}}
	assert.Error(t, emptyGroup.Validate())

	badSettle := valid
	badSettle.Settle = "eventually"
	assert.Error(t, badSettle.Validate())

	noName := valid
	noName.Name = ""
	assert.Error(t, noName.Validate())
}

func TestSnapshotLowercasesOnce(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := NewSnapshot("<p>News Feed</p>", at)

	assert.Equal(t, "<p>News Feed</p>", snap.Markup())
	assert.Equal(t, "<p>news feed</p>", snap.Lower())
	assert.Equal(t, at, snap.CapturedAt())
	assert.False(t, snap.Empty())
	assert.True(t, NewSnapshot("", at).Empty())
}

func TestConsoleEntryIsError(t *testing.T) {
	tests := []struct {
		name  string
		entry ConsoleEntry
		want  bool
	}{
		{"error level", ConsoleEntry{Level: log.ErrorLevel, Type: "error", Message: "boom"}, true},
		{"warning mentioning error", ConsoleEntry{Level: log.WarnLevel, Type: "warning", Message: "Network Error retrying"}, true},
		{"plain log", ConsoleEntry{Level: log.InfoLevel, Type: "log", Message: "connected"}, false},
		{"warning", ConsoleEntry{Level: log.WarnLevel, Type: "warning", Message: "deprecated API"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.IsError())
		})
	}

	assert.Equal(t, "[error] boom", tests[0].entry.String())
}

func TestFailedResult(t *testing.T) {
	scenario := Scenario{
		Ordinal: 2,
		Name:    "google_performance",
		Title:   "Google Ads",
		Groups: []IndicatorGroup{
			{Label: "platform", Predicates: []Predicate{literal("a")}},
			{Label: "metrics", Predicates: []Predicate{literal("b")}},
		},
	}

	result := FailedResult(scenario, errors.New("chat input not found"))

	assert.False(t, result.Passed)
	assert.Equal(t, "chat input not found", result.Error)
	assert.Len(t, result.Groups, 2)
	for _, group := range result.Groups {
		assert.False(t, group.Passed)
	}
	assert.Equal(t, ScenarioRef{Ordinal: 2, Name: "google_performance", Title: "Google Ads"}, result.Ref())
}

func TestSessionReportStatus(t *testing.T) {
	passed := ScenarioResult{Passed: true}
	failed := ScenarioResult{Passed: false}

	tests := []struct {
		name   string
		report SessionReport
		want   string
	}{
		{"all passed", SessionReport{Results: []ScenarioResult{passed, passed}}, RunStatusPassed},
		{"empty run passes", SessionReport{}, RunStatusPassed},
		{"one failed", SessionReport{Results: []ScenarioResult{passed, failed}}, RunStatusFailed},
		{"aborted wins", SessionReport{Results: []ScenarioResult{passed}, Abort: &AbortInfo{Ordinal: 2}}, RunStatusAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.Status())
		})
	}

	report := SessionReport{Results: []ScenarioResult{passed, failed, failed}}
	assert.Equal(t, 1, report.PassedCount())
	assert.Equal(t, 2, report.FailedCount())
}

func TestSessionReportDuration(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	report := SessionReport{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, report.Duration())

	report.FinishedAt = time.Time{}
	assert.Equal(t, time.Duration(0), report.Duration())
}
