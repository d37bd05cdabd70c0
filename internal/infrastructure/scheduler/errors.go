package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrRunInProgress is returned when a run is requested while one is executing
	ErrRunInProgress = errors.New("reconciliation run already in progress")
)
