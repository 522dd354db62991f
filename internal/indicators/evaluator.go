package indicators

import "github.com/ternarybob/chatprobe/internal/models"

// DefaultExcerptLength bounds the diagnostic excerpt kept on a result
const DefaultExcerptLength = 240

// Evaluator turns a snapshot into a scenario verdict.
// It holds configuration only; Evaluate has no side effects.
type Evaluator struct {
	ExcerptLength int
}

// NewEvaluator creates an evaluator with the given excerpt length (<= 0 uses the default)
func NewEvaluator(excerptLength int) Evaluator {
	if excerptLength <= 0 {
		excerptLength = DefaultExcerptLength
	}
	return Evaluator{ExcerptLength: excerptLength}
}

// Evaluate computes each group verdict (OR of its predicates) and the
// overall verdict (OR of the groups).
func (e Evaluator) Evaluate(scenario models.Scenario, snap models.Snapshot) models.ScenarioResult {
	result := models.ScenarioResult{
		Ordinal: scenario.Ordinal,
		Name:    scenario.Name,
		Title:   scenario.Title,
		Groups:  make([]models.GroupVerdict, 0, len(scenario.Groups)),
	}

	for _, group := range scenario.Groups {
		verdict := EvaluateGroup(group, snap)
		if verdict.Passed {
			result.Passed = true
		}
		result.Groups = append(result.Groups, verdict)
	}

	result.Excerpt = Excerpt(snap.Markup(), e.ExcerptLength)
	return result
}

// Evaluate runs the default evaluator
func Evaluate(scenario models.Scenario, snap models.Snapshot) models.ScenarioResult {
	return NewEvaluator(DefaultExcerptLength).Evaluate(scenario, snap)
}

// EvaluateGroup evaluates every predicate so the verdict lists all matches,
// not only the first.
func EvaluateGroup(group models.IndicatorGroup, snap models.Snapshot) models.GroupVerdict {
	verdict := models.GroupVerdict{Label: group.Label}
	for _, predicate := range group.Predicates {
		if predicate.Match(snap) {
			verdict.Passed = true
			verdict.Matched = append(verdict.Matched, predicate.String())
		}
	}
	return verdict
}
