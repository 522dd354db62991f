package models

import (
	"fmt"
	"strconv"
	"strings"
)

// SettleKind names the interaction whose latency a settle step waits out
type SettleKind string

const (
	SettleNavigation  SettleKind = "navigation"
	SettleChat        SettleKind = "chat"
	SettleAggregation SettleKind = "aggregation"
)

// DefaultArtifactTemplate renders names like test1_facebook_products.png
const DefaultArtifactTemplate = "test{ordinal}_{name}.png"

// Predicate is a pure check against a page snapshot.
// Implementations must not hold or mutate session state.
type Predicate interface {
	Match(snap Snapshot) bool
	String() string
}

// IndicatorGroup is one independent signal: it passes when any predicate matches
type IndicatorGroup struct {
	Label      string
	Predicates []Predicate
}

// Scenario is one declared step: an optional navigation, an optional chat input,
// and the indicator groups checked against the settled page.
type Scenario struct {
	Ordinal          int
	Name             string
	Title            string
	Path             string // Empty = reuse current page
	Input            string // Empty = navigate and inspect only
	Settle           SettleKind
	Groups           []IndicatorGroup
	ArtifactTemplate string
}

// Ref returns the scenario identity
func (s Scenario) Ref() ScenarioRef {
	return ScenarioRef{Ordinal: s.Ordinal, Name: s.Name, Title: s.Title}
}

// Navigates reports whether the scenario loads a route before interacting
func (s Scenario) Navigates() bool {
	return s.Path != ""
}

// Interacts reports whether the scenario submits a chat message
func (s Scenario) Interacts() bool {
	return s.Input != ""
}

// ArtifactName expands the artifact template with the scenario identity
func (s Scenario) ArtifactName() string {
	template := s.ArtifactTemplate
	if template == "" {
		template = DefaultArtifactTemplate
	}
	return strings.NewReplacer(
		"{ordinal}", strconv.Itoa(s.Ordinal),
		"{name}", s.Name,
	).Replace(template)
}

// Validate checks that the scenario is well formed
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario %d: name is required", s.Ordinal)
	}
	if len(s.Groups) == 0 {
		return fmt.Errorf("scenario %d (%s): at least one indicator group is required", s.Ordinal, s.Name)
	}
	for _, group := range s.Groups {
		if len(group.Predicates) == 0 {
			return fmt.Errorf("scenario %d (%s): indicator group %q has no predicates", s.Ordinal, s.Name, group.Label)
		}
	}
	switch s.Settle {
	case SettleNavigation, SettleChat, SettleAggregation:
	default:
		return fmt.Errorf("scenario %d (%s): unknown settle kind %q", s.Ordinal, s.Name, s.Settle)
	}
	return nil
}

// ScenarioRef identifies a scenario without its predicates
type ScenarioRef struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
}
