// Package pipeline implements the five-stage research workflow: input
// parsing, data gathering, processing, result persistence, and frontend
// delivery.
//
// Stages run strictly in order. A failed input stage ends the run; a
// failure in any later stage records the failed step and lets the
// remaining stages run against whatever the blackboard holds, so a run
// always carries the full record of what was attempted.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

// Options tunes the processing stage limits.
type Options struct {
	TopArticles int // Articles selected for processing (default 5)
	TopKeywords int // Aggregate keywords reported (default 10)
}

// Engine executes the research workflow for a single run.
type Engine struct {
	store     interfaces.ResearchStore
	sources   []interfaces.ArticleSource
	fallback  interfaces.ArticleSource
	processor interfaces.ContentProcessor
	logger    arbor.ILogger
	opts      Options
}

// NewEngine creates a pipeline engine. The fallback source is queried
// only when every primary source returns nothing; it may be nil.
func NewEngine(
	store interfaces.ResearchStore,
	articleSources []interfaces.ArticleSource,
	fallback interfaces.ArticleSource,
	contentProcessor interfaces.ContentProcessor,
	logger arbor.ILogger,
	opts Options,
) *Engine {
	if opts.TopArticles <= 0 {
		opts.TopArticles = 5
	}
	if opts.TopKeywords <= 0 {
		opts.TopKeywords = 10
	}
	return &Engine{
		store:     store,
		sources:   articleSources,
		fallback:  fallback,
		processor: contentProcessor,
		logger:    logger,
		opts:      opts,
	}
}

// Execute runs the five-stage workflow for the run, persisting the run
// and its steps as they progress. The run always reaches a terminal
// status: completed, failed (any step failed), or cancelled.
func (e *Engine) Execute(ctx context.Context, run *models.ResearchRun) (err error) {
	e.logger.Info().
		Str("run_id", run.ID).
		Str("topic", run.Topic).
		Msg("Starting 5-step research workflow")

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("run_id", run.ID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Research workflow panicked")
			run.AppendTrace(fmt.Sprintf("ERROR: %v", r))
			now := time.Now()
			run.CompletedAt = &now
			run.Status = models.ResearchStatusFailed
			err = e.persistRun(ctx, run)
		}
	}()

	run.Status = models.ResearchStatusInProgress
	if err := e.persistRun(ctx, run); err != nil {
		return err
	}

	inputOK := e.runStage(ctx, run, 1, models.StepKindInput,
		fmt.Sprintf("Step 1: Input Parsing - Validating topic: %s", run.Topic),
		e.stageInput)

	// A run that fails validation has nothing for later stages to work
	// with; it ends with the single failed step.
	if inputOK {
		e.runStage(ctx, run, 2, models.StepKindGather,
			fmt.Sprintf("Step 2: Data Gathering - Fetching articles for: %s", run.Topic),
			e.stageGather)
		e.runStage(ctx, run, 3, models.StepKindProcess,
			fmt.Sprintf("Step 3: Processing - Analyzing articles for: %s", run.Topic),
			e.stageProcess)
		e.runStage(ctx, run, 4, models.StepKindPersist,
			fmt.Sprintf("Step 4: Result Persistence - Saving results for: %s", run.Topic),
			e.stagePersist)
		e.runStage(ctx, run, 5, models.StepKindDeliver,
			fmt.Sprintf("Step 5: Return to Frontend - Preparing results for: %s", run.Topic),
			e.stageDeliver)
	}

	if ctx.Err() != nil {
		run.AppendTrace(fmt.Sprintf("ERROR: %v", ctx.Err()))
		run.MarkCancelled()
	} else {
		run.MarkCompleted()
	}

	if err := e.persistRun(context.WithoutCancel(ctx), run); err != nil {
		return err
	}

	e.logger.Info().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("steps", len(run.Steps)).
		Msg("Research workflow finished")

	return nil
}

// stageFunc performs one stage against the run's blackboard. It returns
// the step's output data, or an error that fails the step.
type stageFunc func(ctx context.Context, run *models.ResearchRun, stepNumber int) (map[string]interface{}, error)

// runStage records the step, executes the stage, and finalizes the step
// record. Returns false when the stage failed or the run is cancelled.
func (e *Engine) runStage(ctx context.Context, run *models.ResearchRun, stepNumber int, kind models.StepKind, description string, fn stageFunc) bool {
	if ctx.Err() != nil {
		return false
	}

	step := models.Step{
		ID:          common.NewStepID(),
		Kind:        kind,
		Description: description,
		Status:      models.ResearchStatusInProgress,
		Timestamp:   time.Now(),
	}
	run.Steps = append(run.Steps, step)
	e.persistStep(ctx, run.ID, step)

	e.logger.Debug().
		Str("run_id", run.ID).
		Str("step", string(kind)).
		Msg("Executing pipeline stage")

	started := time.Now()
	output, err := fn(ctx, run, stepNumber)
	duration := time.Since(started)

	// The step slice may have been reallocated by a stage persisting the
	// run, so locate the record by ID before finalizing it.
	final := e.stepByID(run, step.ID)
	if err != nil {
		final.MarkFailed(err.Error(), duration)
		run.AppendTrace(fmt.Sprintf("STEP %d ERROR: %s", stepNumber, err.Error()))
		e.logger.Warn().
			Str("run_id", run.ID).
			Str("step", string(kind)).
			Str("error", err.Error()).
			Msg("Pipeline stage failed")
	} else {
		final.MarkCompleted(output, duration)
	}
	e.persistStep(ctx, run.ID, *final)

	return err == nil
}

func (e *Engine) stepByID(run *models.ResearchRun, stepID string) *models.Step {
	for i := range run.Steps {
		if run.Steps[i].ID == stepID {
			return &run.Steps[i]
		}
	}
	// Unreachable: the step was appended by runStage
	return &models.Step{ID: stepID}
}

// persistStep saves a step record, logging rather than failing the run
// on storage errors.
func (e *Engine) persistStep(ctx context.Context, runID string, step models.Step) {
	if err := e.store.AppendStep(context.WithoutCancel(ctx), runID, step); err != nil {
		e.logger.Warn().
			Err(err).
			Str("run_id", runID).
			Str("step_id", step.ID).
			Msg("Failed to persist step")
	}
}

func (e *Engine) persistRun(ctx context.Context, run *models.ResearchRun) error {
	if err := e.store.UpsertRun(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("failed to persist run %s: %w", run.ID, err)
	}
	return nil
}
