package runner

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start while a run is active.
var ErrAlreadyRunning = errors.New("a conversion is already running")

// ErrNotRunning is returned by Pause, Resume and Stop when there is
// nothing to act on.
var ErrNotRunning = errors.New("no conversion is running")

// ConfigError rejects Start because a required setting is missing. No
// state changes when it is returned.
type ConfigError struct {
	// Field names the missing setting: "engine", "voice", "speaker_wav"
	// or "destination".
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cannot start conversion: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// JobError records the step at which a single job failed.
type JobError struct {
	// Stage is one of "extract", "synthesize", "write", "encode" or
	// "finalize".
	Stage string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
