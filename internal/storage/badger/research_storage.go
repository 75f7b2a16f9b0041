package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ResearchStorage implements the ResearchStore interface for Badger
type ResearchStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	mu     sync.Mutex // serializes read-modify-write on AppendStep
}

// NewResearchStorage creates a new ResearchStorage instance
func NewResearchStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResearchStore {
	return &ResearchStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ResearchStorage) UpsertRun(ctx context.Context, run *models.ResearchRun) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save research run: %w", err)
	}
	return nil
}

// AppendStep records a step on a run. A step whose ID already exists on
// the run replaces the stored step, so a stage can persist its step at
// start (in_progress) and again when final.
func (s *ResearchStorage) AppendStep(ctx context.Context, runID string, step models.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.getRun(runID)
	if err != nil {
		return err
	}

	replaced := false
	for i := range run.Steps {
		if run.Steps[i].ID == step.ID {
			run.Steps[i] = step
			replaced = true
			break
		}
	}
	if !replaced {
		run.Steps = append(run.Steps, step)
	}

	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}
	return nil
}

func (s *ResearchStorage) GetRun(ctx context.Context, runID string) (*models.ResearchRun, error) {
	return s.getRun(runID)
}

func (s *ResearchStorage) getRun(runID string) (*models.ResearchRun, error) {
	var run models.ResearchRun
	if err := s.db.Store().Get(runID, &run); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get research run: %w", err)
	}
	return &run, nil
}

func (s *ResearchStorage) ListRuns(ctx context.Context) ([]*models.ResearchRun, error) {
	var runs []models.ResearchRun
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list research runs: %w", err)
	}

	result := make([]*models.ResearchRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

func (s *ResearchStorage) DeleteRun(ctx context.Context, runID string) error {
	if err := s.db.Store().Delete(runID, &models.ResearchRun{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return interfaces.ErrRunNotFound
		}
		return fmt.Errorf("failed to delete research run: %w", err)
	}

	s.logger.Debug().Str("run_id", runID).Msg("Research run deleted")
	return nil
}

func (s *ResearchStorage) DeleteAllRuns(ctx context.Context) (int, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, run := range runs {
		if err := s.db.Store().Delete(run.ID, &models.ResearchRun{}); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return deleted, fmt.Errorf("failed to delete research run %s: %w", run.ID, err)
		}
		deleted++
	}

	s.logger.Debug().Int("count", deleted).Msg("All research runs deleted")
	return deleted, nil
}
