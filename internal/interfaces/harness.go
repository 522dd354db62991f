package interfaces

import (
	"context"

	"github.com/ternarybob/chatprobe/internal/models"
)

// Page is the browser surface the runner drives
type Page interface {
	Navigate(url string) error
	Content() (models.Snapshot, error)
	Screenshot() ([]byte, error)
}

// ChatDriver submits a message through the page's chat controls
type ChatDriver interface {
	Submit(ctx context.Context, text string) error
}

// SettleStrategy decides when the page is stable enough to sample after an interaction
type SettleStrategy interface {
	AwaitSettled(ctx context.Context, kind models.SettleKind) error
	Name() string
}

// ContentSource supplies snapshots to strategies that poll the page
type ContentSource interface {
	Content() (models.Snapshot, error)
}

// ArtifactCapture persists per-scenario diagnostics.
// Failures are logged by the implementation; an empty path means nothing was written.
type ArtifactCapture interface {
	Capture(scenario models.Scenario, page Page) string
	DumpSnapshot(scenario models.Scenario, snap models.Snapshot) string
}

// ConsoleLog is the read side of the session's console recorder
type ConsoleLog interface {
	Len() int
	Exceptions() int
	Errors(limit int) ([]models.ConsoleEntry, int)
}

// RunStorage persists session reports
type RunStorage interface {
	SaveReport(ctx context.Context, report *models.SessionReport) error
	GetReport(ctx context.Context, runID string) (*models.SessionReport, error)
	ListReports(ctx context.Context, limit int) ([]*models.SessionReport, error)
	DeleteReport(ctx context.Context, runID string) error
	Close() error
}
