package interfaces

import (
	"context"

	"github.com/ternarybob/scrutor/internal/models"
)

// SchedulerService manages the asynchronous job lifecycle around
// pipeline runs: start, poll, cancel, delete.
type SchedulerService interface {
	// Start launches a pipeline run for the topic and returns the job ID
	// (which is also the run ID). Returns ErrInvalidTopic without
	// creating a job when the topic is empty after trimming.
	Start(ctx context.Context, topic string) (string, error)

	// Status returns the current snapshot for a job, combining the
	// in-memory lifecycle with the persisted run. ErrJobNotFound when
	// the ID is unknown.
	Status(jobID string) (*models.JobSnapshot, error)

	// Cancel requests cancellation of a job. Cancelling a terminal job
	// is a no-op reporting the terminal status. ErrJobNotFound when the
	// ID is unknown.
	Cancel(jobID string) (*models.CancelResult, error)

	// Delete removes a job and its persisted run. ErrJobNotFound when
	// neither exists.
	Delete(jobID string) error

	// DeleteAll removes all jobs and runs, returning the run count deleted
	DeleteAll() (int, error)

	// Stop cancels running jobs and waits for them to drain, bounded by ctx
	Stop(ctx context.Context)
}
