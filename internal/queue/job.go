package queue

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Status is the processing state of a single Job.
type Status int

const (
	// StatusPending marks a job that has not been processed yet.
	StatusPending Status = iota
	// StatusProcessing marks the job the runner is working on.
	StatusProcessing
	// StatusComplete marks a job whose output file was written.
	StatusComplete
	// StatusError marks a job whose last attempt failed.
	StatusError
)

// String returns the display name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusProcessing:
		return "Processing"
	case StatusComplete:
		return "Complete"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ParseStatus converts a display name back into a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return StatusPending, nil
	case "processing":
		return StatusProcessing, nil
	case "complete":
		return StatusComplete, nil
	case "error":
		return StatusError, nil
	}
	return StatusPending, fmt.Errorf("unknown job status %q", s)
}

// MarshalJSON encodes the status as its display name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status display name.
func (s *Status) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	st, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Job is one unit of conversion work: a source document turned into one
// audio file.
type Job struct {
	Status      Status `json:"status"`
	SourcePath  string `json:"path"`
	DisplayName string `json:"filename"`
	OutputPath  string `json:"output,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewJob returns a pending job for path, named after its base name.
func NewJob(path string) Job {
	return Job{
		Status:      StatusPending,
		SourcePath:  path,
		DisplayName: filepath.Base(path),
	}
}
