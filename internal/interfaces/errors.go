package interfaces

import "errors"

var (
	// ErrRunNotFound is returned when a research run does not exist in storage
	ErrRunNotFound = errors.New("research run not found")

	// ErrJobNotFound is returned when a job ID is unknown to the scheduler
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidTopic is returned when a research topic fails validation
	ErrInvalidTopic = errors.New("topic must be at least 3 characters long")
)
