package runner

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nomis52/goblink/logging"
)

// RunState represents the current state of a run.
type RunState int

const (
	// RunStateIdle indicates no job is running.
	RunStateIdle RunState = iota
	// RunStateRunning indicates a job is in progress.
	RunStateRunning
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s RunState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *RunState) UnmarshalJSON(b []byte) error {
	str, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("run state must be a string: %w", err)
	}
	switch str {
	case "idle":
		*s = RunStateIdle
	case "running":
		*s = RunStateRunning
	default:
		return fmt.Errorf("unknown run state %q", str)
	}
	return nil
}

// RunStatus contains information about the current or last run.
type RunStatus struct {
	// ID numbers runs from 1 in the order they started. Zero if no run has occurred.
	ID    int      `json:"id,omitempty"`
	State RunState `json:"state"`
	// Job describes what was run.
	Job string `json:"job,omitempty"`
	// StartedAt is when the run started. Nil if no run has occurred.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// EndedAt is when the run ended. Nil if run is in progress or no run has occurred.
	EndedAt *time.Time `json:"ended_at,omitempty"`
	// Outcome is success or failure once the job has finished.
	Outcome string `json:"outcome,omitempty"`
	// ExitCode is the job's exit status.
	ExitCode int `json:"exit_code"`
	// Error contains the job's error message. Empty on success.
	Error string `json:"error,omitempty"`
	// IndicatorError is set when the device could not show the run.
	IndicatorError string `json:"indicator_error,omitempty"`
	// Logs holds the records logged while the run was in progress.
	Logs []logging.LogEntry `json:"logs,omitempty"`
}

// Duration returns how long the run took, or has taken so far.
func (s RunStatus) Duration() time.Duration {
	if s.StartedAt == nil {
		return 0
	}
	if s.EndedAt == nil {
		return time.Since(*s.StartedAt)
	}
	return s.EndedAt.Sub(*s.StartedAt)
}
