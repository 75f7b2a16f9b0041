// Package scheduler manages the asynchronous job lifecycle around
// pipeline runs: start, poll, cancel, delete, and retention of finished
// jobs.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/pipeline"
)

const totalPipelineSteps = 5

// jobEntry pairs the in-memory job with its cancel handle.
type jobEntry struct {
	job    *models.Job
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler implements the SchedulerService interface. Jobs run as
// goroutines bounded by a concurrency semaphore; the persisted run is
// the source of truth for a finished job's outcome.
type Scheduler struct {
	store      interfaces.ResearchStore
	engine     *pipeline.Engine
	logger     arbor.ILogger
	jobTimeout time.Duration

	baseCtx    context.Context
	baseCancel context.CancelFunc
	sem        chan struct{}
	wg         sync.WaitGroup

	mu   sync.Mutex
	jobs map[string]*jobEntry
}

// Compile-time assertion
var _ interfaces.SchedulerService = (*Scheduler)(nil)

// NewScheduler creates a scheduler running at most maxConcurrent
// pipelines at once. jobTimeout bounds each run's wall clock; zero
// disables the bound.
func NewScheduler(
	store interfaces.ResearchStore,
	engine *pipeline.Engine,
	maxConcurrent int,
	jobTimeout time.Duration,
	logger arbor.ILogger,
) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:      store,
		engine:     engine,
		logger:     logger,
		jobTimeout: jobTimeout,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		sem:        make(chan struct{}, maxConcurrent),
		jobs:       make(map[string]*jobEntry),
	}
}

// Start launches a pipeline run for the topic and returns the job ID.
func (s *Scheduler) Start(ctx context.Context, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", interfaces.ErrInvalidTopic
	}

	runID := common.NewRunID()
	run := models.NewResearchRun(runID, topic)

	job := &models.Job{
		ID:        runID,
		Topic:     topic,
		Status:    models.ResearchStatusPending,
		CreatedAt: time.Now(),
	}

	jobCtx, cancel := context.WithCancel(s.baseCtx)

	entry := &jobEntry{
		job:    job,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[runID] = entry
	s.mu.Unlock()

	s.logger.Info().
		Str("job_id", runID).
		Str("topic", topic).
		Msg("Research job queued")

	s.wg.Add(1)
	go s.execute(jobCtx, entry, run)

	return runID, nil
}

// execute runs the pipeline for a job and reconciles the job to the
// run's persisted terminal status when it finishes.
func (s *Scheduler) execute(ctx context.Context, entry *jobEntry, run *models.ResearchRun) {
	defer s.wg.Done()
	defer close(entry.done)
	defer entry.cancel()

	// Respect the concurrency bound; a cancel while queued still
	// produces a cancelled run record.
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
	}

	if s.jobTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, s.jobTimeout)
		defer timeoutCancel()
	}

	s.mu.Lock()
	if entry.job.Status == models.ResearchStatusPending {
		entry.job.Status = models.ResearchStatusInProgress
	}
	s.mu.Unlock()

	if err := s.engine.Execute(ctx, run); err != nil {
		s.logger.Error().
			Err(err).
			Str("job_id", run.ID).
			Msg("Pipeline execution failed")
	}

	// The run's terminal status wins over any optimistic cancel mark.
	s.mu.Lock()
	entry.job.Status = run.Status
	entry.job.CompletedAt = run.CompletedAt
	if run.Status == models.ResearchStatusFailed {
		entry.job.Error = firstStepError(run)
	}
	s.mu.Unlock()
}

func firstStepError(run *models.ResearchRun) string {
	for _, step := range run.Steps {
		if step.Status == models.ResearchStatusFailed && step.ErrorMessage != "" {
			return step.ErrorMessage
		}
	}
	return ""
}

// Status returns the current snapshot for a job.
func (s *Scheduler) Status(jobID string) (*models.JobSnapshot, error) {
	s.mu.Lock()
	entry, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return nil, interfaces.ErrJobNotFound
	}
	job := *entry.job
	s.mu.Unlock()

	snapshot := &models.JobSnapshot{
		Job: job,
		Progress: models.Progress{
			Total: totalPipelineSteps,
		},
	}

	run, err := s.store.GetRun(context.Background(), jobID)
	if err == nil {
		snapshot.Run = run
		current := len(run.Steps)
		if current > totalPipelineSteps {
			current = totalPipelineSteps
		}
		snapshot.Progress.Current = current
		snapshot.Progress.Percent = float64(current) / float64(totalPipelineSteps) * 100
	}

	return snapshot, nil
}

// Cancel requests cancellation of a job. Cancelling a terminal job is a
// no-op reporting the terminal status.
func (s *Scheduler) Cancel(jobID string) (*models.CancelResult, error) {
	s.mu.Lock()
	entry, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return nil, interfaces.ErrJobNotFound
	}

	if entry.job.Status.IsTerminal() {
		result := &models.CancelResult{Cancelled: false, Status: entry.job.Status}
		s.mu.Unlock()
		return result, nil
	}

	// Optimistic mark; the pipeline goroutine reconciles to the run's
	// actual terminal status when it finishes.
	entry.job.CancelRequested = true
	entry.job.Status = models.ResearchStatusCancelled
	s.mu.Unlock()

	entry.cancel()

	s.logger.Info().Str("job_id", jobID).Msg("Research job cancellation requested")

	return &models.CancelResult{Cancelled: true, Status: models.ResearchStatusCancelled}, nil
}

// Delete removes a job and its persisted run.
func (s *Scheduler) Delete(jobID string) error {
	s.mu.Lock()
	entry, hadJob := s.jobs[jobID]
	if hadJob {
		delete(s.jobs, jobID)
	}
	s.mu.Unlock()

	if hadJob {
		entry.cancel()
		<-entry.done
	}

	err := s.store.DeleteRun(context.Background(), jobID)
	if err != nil && err != interfaces.ErrRunNotFound {
		return err
	}
	if !hadJob && err == interfaces.ErrRunNotFound {
		return interfaces.ErrJobNotFound
	}

	s.logger.Info().Str("job_id", jobID).Msg("Research job deleted")
	return nil
}

// DeleteAll removes all jobs and runs, returning the run count deleted.
func (s *Scheduler) DeleteAll() (int, error) {
	s.mu.Lock()
	entries := make([]*jobEntry, 0, len(s.jobs))
	for _, entry := range s.jobs {
		entries = append(entries, entry)
	}
	s.jobs = make(map[string]*jobEntry)
	s.mu.Unlock()

	for _, entry := range entries {
		entry.cancel()
		<-entry.done
	}

	count, err := s.store.DeleteAllRuns(context.Background())
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int("count", count).Msg("All research jobs deleted")
	return count, nil
}

// Stop cancels running jobs and waits for them to drain, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info().Msg("Stopping scheduler")
	s.baseCancel()

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		s.logger.Info().Msg("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn().Msg("Scheduler stop timed out waiting for jobs")
	}
}

// pruneTerminal drops terminal jobs older than age from the in-memory
// registry. Persisted runs are kept; only the poll-status handle goes.
func (s *Scheduler) pruneTerminal(age time.Duration) int {
	cutoff := time.Now().Add(-age)

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, entry := range s.jobs {
		if !entry.job.Status.IsTerminal() {
			continue
		}
		completed := entry.job.CompletedAt
		if completed != nil && completed.Before(cutoff) {
			delete(s.jobs, id)
			pruned++
		}
	}

	if pruned > 0 {
		s.logger.Debug().Int("count", pruned).Msg("Pruned terminal jobs")
	}
	return pruned
}
