package models

import (
	"strings"
	"time"
)

// Snapshot is an immutable capture of the page markup at one instant.
// The lowercased form is computed once so predicates compare case-insensitively.
type Snapshot struct {
	markup     string
	lower      string
	capturedAt time.Time
}

// NewSnapshot captures markup taken at the given instant
func NewSnapshot(markup string, capturedAt time.Time) Snapshot {
	return Snapshot{
		markup:     markup,
		lower:      strings.ToLower(markup),
		capturedAt: capturedAt,
	}
}

// Markup returns the captured markup as taken from the page
func (s Snapshot) Markup() string {
	return s.markup
}

// Lower returns the lowercased markup
func (s Snapshot) Lower() string {
	return s.lower
}

func (s Snapshot) CapturedAt() time.Time {
	return s.capturedAt
}

func (s Snapshot) Empty() bool {
	return s.markup == ""
}
