// Package indicators evaluates indicator groups against page snapshots.
//
// Every predicate compares lowercased text, so "Facebook" in the markup
// matches Contains("facebook") and vice versa. Predicates are values with
// no references to the browser; evaluation is a pure function of the
// scenario and the snapshot.
package indicators

import (
	"fmt"
	"strings"

	"github.com/ternarybob/chatprobe/internal/models"
)

// Predicate types accepted in scenario files
const (
	TypeContains    = "contains"
	TypeContainsAny = "contains_any"
	TypeContainsAll = "contains_all"
	TypeMinCount    = "min_count"
	TypeNotContains = "not_contains"
)

type containsPredicate struct {
	needle string
}

// Contains holds when the snapshot contains text
func Contains(text string) models.Predicate {
	return containsPredicate{needle: strings.ToLower(text)}
}

func (p containsPredicate) Match(snap models.Snapshot) bool {
	return strings.Contains(snap.Lower(), p.needle)
}

func (p containsPredicate) String() string {
	return fmt.Sprintf("contains(%q)", p.needle)
}

type containsAnyPredicate struct {
	needles []string
}

// ContainsAny holds when the snapshot contains at least one keyword
func ContainsAny(keywords ...string) models.Predicate {
	return containsAnyPredicate{needles: lowerAll(keywords)}
}

func (p containsAnyPredicate) Match(snap models.Snapshot) bool {
	for _, needle := range p.needles {
		if strings.Contains(snap.Lower(), needle) {
			return true
		}
	}
	return false
}

func (p containsAnyPredicate) String() string {
	return fmt.Sprintf("any(%s)", quoteAll(p.needles))
}

type containsAllPredicate struct {
	needles []string
}

// ContainsAll holds when the snapshot contains every keyword
func ContainsAll(keywords ...string) models.Predicate {
	return containsAllPredicate{needles: lowerAll(keywords)}
}

func (p containsAllPredicate) Match(snap models.Snapshot) bool {
	if len(p.needles) == 0 {
		return false
	}
	for _, needle := range p.needles {
		if !strings.Contains(snap.Lower(), needle) {
			return false
		}
	}
	return true
}

func (p containsAllPredicate) String() string {
	return fmt.Sprintf("all(%s)", quoteAll(p.needles))
}

type minCountPredicate struct {
	needle string
	min    int
}

// MinCount holds when text occurs at least min times (non-overlapping)
func MinCount(text string, min int) models.Predicate {
	return minCountPredicate{needle: strings.ToLower(text), min: min}
}

func (p minCountPredicate) Match(snap models.Snapshot) bool {
	if p.needle == "" {
		return false
	}
	return strings.Count(snap.Lower(), p.needle) >= p.min
}

func (p minCountPredicate) String() string {
	return fmt.Sprintf("count(%q)>=%d", p.needle, p.min)
}

type notPredicate struct {
	inner models.Predicate
}

// Not inverts a predicate
func Not(inner models.Predicate) models.Predicate {
	return notPredicate{inner: inner}
}

func (p notPredicate) Match(snap models.Snapshot) bool {
	return !p.inner.Match(snap)
}

func (p notPredicate) String() string {
	return "not(" + p.inner.String() + ")"
}

// Build constructs a predicate from its declarative form
func Build(kind string, values []string, count int) (models.Predicate, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("predicate %s: at least one value is required", kind)
	}

	switch kind {
	case TypeContains:
		if len(values) != 1 {
			return nil, fmt.Errorf("predicate %s: expects exactly one value, got %d", kind, len(values))
		}
		return Contains(values[0]), nil
	case TypeContainsAny:
		return ContainsAny(values...), nil
	case TypeContainsAll:
		return ContainsAll(values...), nil
	case TypeMinCount:
		if len(values) != 1 {
			return nil, fmt.Errorf("predicate %s: expects exactly one value, got %d", kind, len(values))
		}
		if count < 1 {
			return nil, fmt.Errorf("predicate %s: count must be at least 1", kind)
		}
		return MinCount(values[0], count), nil
	case TypeNotContains:
		return Not(ContainsAny(values...)), nil
	default:
		return nil, fmt.Errorf("unknown predicate type %q", kind)
	}
}

func lowerAll(values []string) []string {
	lowered := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		lowered = append(lowered, strings.ToLower(v))
	}
	return lowered
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
