package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/chatprobe/internal/common"
	"github.com/ternarybob/chatprobe/internal/interfaces"
	"github.com/ternarybob/chatprobe/internal/models"
)

// ErrRunNotFound is returned when no report is stored under a run ID
var ErrRunNotFound = errors.New("run not found")

// RunStorage keeps session reports keyed by run ID
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.RunStorage = (*RunStorage)(nil)

// NewRunStorage wraps an open database
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) *RunStorage {
	return &RunStorage{db: db, logger: logger}
}

// OpenRunStorage opens the database at the configured path
func OpenRunStorage(logger arbor.ILogger, config *common.BadgerConfig) (*RunStorage, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}
	return NewRunStorage(db, logger), nil
}

func (s *RunStorage) SaveReport(ctx context.Context, report *models.SessionReport) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}
	if report.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	if err := s.db.Store().Upsert(report.RunID, report); err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.RunID, err)
	}

	s.logger.Debug().
		Str("run_id", report.RunID).
		Str("status", report.Status()).
		Msg("Run report saved")
	return nil
}

func (s *RunStorage) GetReport(ctx context.Context, runID string) (*models.SessionReport, error) {
	var report models.SessionReport
	if err := s.db.Store().Get(runID, &report); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get report %s: %w", runID, err)
	}
	return &report, nil
}

// ListReports returns the most recent reports first. A limit of zero or
// less returns every stored report.
func (s *RunStorage) ListReports(ctx context.Context, limit int) ([]*models.SessionReport, error) {
	query := (&badgerhold.Query{}).SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []models.SessionReport
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	result := make([]*models.SessionReport, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}

func (s *RunStorage) DeleteReport(ctx context.Context, runID string) error {
	if err := s.db.Store().Delete(runID, &models.SessionReport{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("failed to delete report %s: %w", runID, err)
	}
	return nil
}

func (s *RunStorage) Close() error {
	return s.db.Close()
}
