package models

import "time"

// GroupVerdict is the outcome of one indicator group
type GroupVerdict struct {
	Label   string   `json:"label"`
	Passed  bool     `json:"passed"`
	Matched []string `json:"matched,omitempty"` // Predicates that held, in declaration order
}

// ScenarioResult is the outcome of one executed scenario
type ScenarioResult struct {
	Ordinal      int            `json:"ordinal"`
	Name         string         `json:"name"`
	Title        string         `json:"title,omitempty"`
	Groups       []GroupVerdict `json:"groups"`
	Passed       bool           `json:"passed"`
	ArtifactPath string         `json:"artifact_path,omitempty"` // Empty when capture failed
	SnapshotPath string         `json:"snapshot_path,omitempty"`
	Excerpt      string         `json:"excerpt,omitempty"`
	Error        string         `json:"error,omitempty"` // Scenario-level failure (e.g. missing chat control)
	Duration     time.Duration  `json:"duration"`
}

// Ref returns the identity of the scenario this result belongs to
func (r ScenarioResult) Ref() ScenarioRef {
	return ScenarioRef{Ordinal: r.Ordinal, Name: r.Name, Title: r.Title}
}

// FailedResult builds the result recorded when a scenario could not be evaluated:
// every group false, overall false.
func FailedResult(scenario Scenario, err error) ScenarioResult {
	groups := make([]GroupVerdict, len(scenario.Groups))
	for i, group := range scenario.Groups {
		groups[i] = GroupVerdict{Label: group.Label}
	}
	result := ScenarioResult{
		Ordinal: scenario.Ordinal,
		Name:    scenario.Name,
		Title:   scenario.Title,
		Groups:  groups,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
