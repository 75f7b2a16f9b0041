package interfaces

import (
	"context"

	"github.com/ternarybob/scrutor/internal/models"
)

// ResearchStore persists research runs and their step records
type ResearchStore interface {
	// UpsertRun creates or replaces a run
	UpsertRun(ctx context.Context, run *models.ResearchRun) error

	// AppendStep records a step on a run. A step with an ID already
	// present on the run replaces the stored step, so a stage can
	// persist its step at start and again when final.
	AppendStep(ctx context.Context, runID string, step models.Step) error

	// GetRun returns a run by ID, or ErrRunNotFound
	GetRun(ctx context.Context, runID string) (*models.ResearchRun, error)

	// ListRuns returns all runs, newest first
	ListRuns(ctx context.Context) ([]*models.ResearchRun, error)

	// DeleteRun removes a run by ID, or ErrRunNotFound
	DeleteRun(ctx context.Context, runID string) error

	// DeleteAllRuns removes every run and returns the count deleted
	DeleteAllRuns(ctx context.Context) (int, error)
}
