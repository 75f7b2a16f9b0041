package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Janitor prunes terminal jobs from the scheduler on a cron schedule.
type Janitor struct {
	scheduler *Scheduler
	cron      *cron.Cron
	age       time.Duration
	logger    arbor.ILogger
}

// NewJanitor creates a janitor that removes terminal jobs older than
// age on the given cron schedule (standard 5-field format).
func NewJanitor(scheduler *Scheduler, schedule string, age time.Duration, logger arbor.ILogger) (*Janitor, error) {
	j := &Janitor{
		scheduler: scheduler,
		cron:      cron.New(),
		age:       age,
		logger:    logger,
	}

	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid retention schedule '%s': %w", schedule, err)
	}

	logger.Debug().
		Str("schedule", schedule).
		Dur("age", age).
		Msg("Retention janitor configured")

	return j, nil
}

// Start begins the cron schedule.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the cron schedule, waiting for a running prune to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) run() {
	pruned := j.scheduler.pruneTerminal(j.age)
	if pruned > 0 {
		j.logger.Info().Int("count", pruned).Msg("Retention janitor pruned terminal jobs")
	}
}
