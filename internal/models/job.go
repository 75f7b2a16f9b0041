package models

import (
	"time"
)

// Job is the in-memory lifecycle record the scheduler keeps for a run.
// It shares the run's ID; the persisted ResearchRun remains the source
// of truth for the final outcome.
type Job struct {
	ID              string         `json:"id"`
	Topic           string         `json:"topic"`
	Status          ResearchStatus `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	Error           string         `json:"error,omitempty"`
	CancelRequested bool           `json:"cancel_requested"`
}

// Progress reports how far a job's pipeline has advanced
type Progress struct {
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// JobSnapshot is the poll-status view of a job, combining the in-memory
// lifecycle with the persisted run when one exists
type JobSnapshot struct {
	Job      Job          `json:"job"`
	Progress Progress     `json:"progress"`
	Run      *ResearchRun `json:"run,omitempty"`
}

// CancelResult reports the outcome of a cancel request
type CancelResult struct {
	Cancelled bool           `json:"cancelled"`
	Status    ResearchStatus `json:"status"`
}
