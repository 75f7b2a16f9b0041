package models

import (
	"time"
)

// WorkflowVersion identifies the pipeline shape a run was produced by.
const WorkflowVersion = "5-step-v1.0"

// ResearchStatus represents the lifecycle state of a run or step
type ResearchStatus string

const (
	ResearchStatusPending    ResearchStatus = "pending"
	ResearchStatusInProgress ResearchStatus = "in_progress"
	ResearchStatusCompleted  ResearchStatus = "completed"
	ResearchStatusFailed     ResearchStatus = "failed"
	ResearchStatusCancelled  ResearchStatus = "cancelled"
)

// IsValid checks if the status is a valid research status
func (s ResearchStatus) IsValid() bool {
	switch s {
	case ResearchStatusPending, ResearchStatusInProgress, ResearchStatusCompleted,
		ResearchStatusFailed, ResearchStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if the status represents a finished state
func (s ResearchStatus) IsTerminal() bool {
	switch s {
	case ResearchStatusCompleted, ResearchStatusFailed, ResearchStatusCancelled:
		return true
	}
	return false
}

// StepKind identifies which pipeline stage produced a step
type StepKind string

const (
	StepKindInput   StepKind = "input"
	StepKindGather  StepKind = "gather"
	StepKindProcess StepKind = "process"
	StepKindPersist StepKind = "persist"
	StepKindDeliver StepKind = "deliver"
)

// IsValid checks if the step kind is one of the five pipeline stages
func (k StepKind) IsValid() bool {
	switch k {
	case StepKindInput, StepKindGather, StepKindProcess, StepKindPersist, StepKindDeliver:
		return true
	}
	return false
}

// Article is a raw search result gathered from one of the sources
type Article struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Snippet        string  `json:"snippet"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ProcessedArticle is an article after ranking, summarization and
// keyword extraction
type ProcessedArticle struct {
	Rank           int      `json:"rank"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Source         string   `json:"source"`
	RelevanceScore float64  `json:"relevance_score"`
	Snippet        string   `json:"snippet"`
	Summary        string   `json:"summary"`
	Keywords       []string `json:"keywords"`
}

// KeywordCount pairs an aggregate keyword with its frequency across
// all processed articles
type KeywordCount struct {
	Keyword   string `json:"keyword"`
	Frequency int    `json:"frequency"`
}

// WorkflowStep is the rendered view of a step record carried in the
// frontend payload
type WorkflowStep struct {
	StepNumber      int                    `json:"step_number"`
	StepID          string                 `json:"step_id"`
	Kind            StepKind               `json:"kind"`
	Description     string                 `json:"description"`
	Status          ResearchStatus         `json:"status"`
	DurationSeconds *float64               `json:"duration_seconds,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
	OutputData      map[string]interface{} `json:"output_data,omitempty"`
	ErrorMessage    string                 `json:"error_message,omitempty"`
}

// FrontendResults is the delivery-shaped view of a completed run
type FrontendResults struct {
	ResearchID             string             `json:"research_id"`
	Topic                  string             `json:"topic"`
	Status                 string             `json:"status"`
	TotalArticles          int                `json:"total_articles"`
	SourceCounts           map[string]int     `json:"source_counts"`
	Articles               []ProcessedArticle `json:"articles"`
	TopKeywords            []KeywordCount     `json:"top_keywords"`
	WorkflowSteps          []WorkflowStep     `json:"workflow_steps"`
	TraceLog               []string           `json:"trace_log"`
	TotalArticlesProcessed int                `json:"total_articles_processed"`
	WorkflowCompleted      bool               `json:"workflow_completed"`
	WorkflowVersion        string             `json:"workflow_version"`
	CompletedAt            *time.Time         `json:"completed_at,omitempty"`
}

// ResultSet is the blackboard the pipeline stages accumulate results on.
// Each stage reads what earlier stages produced and writes its own fields;
// a starved stage finds zero values and degrades instead of panicking.
type ResultSet struct {
	RawArticles         []Article          `json:"raw_articles,omitempty"`
	SourceCounts        map[string]int     `json:"source_counts,omitempty"`
	TotalArticles       int                `json:"total_articles"`
	ProcessedArticles   []ProcessedArticle `json:"processed_articles,omitempty"`
	TopKeywords         []KeywordCount     `json:"top_keywords,omitempty"`
	ProcessingCompleted bool               `json:"processing_completed"`
	Frontend            *FrontendResults   `json:"frontend,omitempty"`
	FrontendReady       bool               `json:"frontend_ready"`
}

// Step records one pipeline stage execution for a run. InputData and
// OutputData hold only scalar summary values; full payloads live on
// the ResultSet.
type Step struct {
	ID              string                 `json:"id"`
	Kind            StepKind               `json:"kind"`
	Description     string                 `json:"description"`
	Status          ResearchStatus         `json:"status"`
	InputData       map[string]interface{} `json:"input_data,omitempty"`
	OutputData      map[string]interface{} `json:"output_data,omitempty"`
	ErrorMessage    string                 `json:"error_message,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
	DurationSeconds *float64               `json:"duration_seconds,omitempty"`
}

// MarkCompleted finalizes the step as completed with its output data
func (s *Step) MarkCompleted(output map[string]interface{}, duration time.Duration) {
	s.Status = ResearchStatusCompleted
	s.OutputData = output
	secs := duration.Seconds()
	s.DurationSeconds = &secs
}

// MarkFailed finalizes the step as failed with an error message
func (s *Step) MarkFailed(message string, duration time.Duration) {
	s.Status = ResearchStatusFailed
	s.ErrorMessage = message
	secs := duration.Seconds()
	s.DurationSeconds = &secs
}

// ResearchRun is the persisted record of one research pipeline execution
type ResearchRun struct {
	ID          string         `json:"id" badgerhold:"key"`
	Topic       string         `json:"topic"`
	Status      ResearchStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Steps       []Step         `json:"steps"`
	Results     ResultSet      `json:"results"`
	TraceLog    []string       `json:"trace_log"`
}

// NewResearchRun creates a pending run for the given topic
func NewResearchRun(id, topic string) *ResearchRun {
	return &ResearchRun{
		ID:        id,
		Topic:     topic,
		Status:    ResearchStatusPending,
		CreatedAt: time.Now(),
		Steps:     []Step{},
		TraceLog:  []string{},
	}
}

// AppendTrace appends a line to the run's trace log
func (r *ResearchRun) AppendTrace(line string) {
	r.TraceLog = append(r.TraceLog, line)
}

// HasFailedStep reports whether any recorded step failed
func (r *ResearchRun) HasFailedStep() bool {
	for _, step := range r.Steps {
		if step.Status == ResearchStatusFailed {
			return true
		}
	}
	return false
}

// MarkCompleted transitions the run to its terminal status. A run with
// any failed step finishes failed even when later stages recovered.
func (r *ResearchRun) MarkCompleted() {
	now := time.Now()
	r.CompletedAt = &now
	if r.HasFailedStep() {
		r.Status = ResearchStatusFailed
	} else {
		r.Status = ResearchStatusCompleted
	}
}

// MarkCancelled transitions the run to the cancelled terminal status
func (r *ResearchRun) MarkCancelled() {
	now := time.Now()
	r.CompletedAt = &now
	r.Status = ResearchStatusCancelled
}

// StepByKind returns the recorded step for a stage, or nil
func (r *ResearchRun) StepByKind(kind StepKind) *Step {
	for i := range r.Steps {
		if r.Steps[i].Kind == kind {
			return &r.Steps[i]
		}
	}
	return nil
}
