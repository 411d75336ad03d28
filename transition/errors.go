package transition

import (
	"errors"
	"fmt"

	"github.com/nomis52/goblink/display"
)

var (
	// ErrEmptySequence is returned when a pending sequence has no steps.
	ErrEmptySequence = errors.New("pending sequence must contain at least one step")

	// ErrAlreadyStarted is returned by Start when the Transition has already
	// handed its display to an engine.
	ErrAlreadyStarted = errors.New("transition already started")

	// ErrNotification is returned when an outcome cannot be delivered because
	// the engine is no longer listening.
	ErrNotification = errors.New("cannot notify engine")

	// ErrNotifierUsed is returned when a Notifier is used a second time.
	ErrNotifierUsed = errors.New("notifier already used")

	// ErrAbandoned is the run result when the engine stopped without ever
	// receiving an outcome, either because its timeout expired or because it
	// was cancelled.
	ErrAbandoned = errors.New("transition abandoned before an outcome was reported")
)

// Phase names the part of a run a step was rendered in.
type Phase string

const (
	PhasePending  Phase = "pending"
	PhaseSuccess  Phase = "success"
	PhaseFailure  Phase = "failure"
	PhaseIndicate Phase = "indicate"
)

// phaseFor returns the terminal phase for an outcome.
func phaseFor(o Outcome) Phase {
	if o == Failure {
		return PhaseFailure
	}
	return PhaseSuccess
}

// RenderError reports a step the display failed to render. A render failure
// ends the run.
type RenderError struct {
	Phase Phase
	Step  display.Step
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s step %s: %v", e.Phase, e.Step.Color, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// CrashError reports an engine goroutine that panicked instead of returning.
// It indicates a defect, not an expected failure mode.
type CrashError struct {
	Value any
	Stack []byte
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("transition engine crashed: %v", e.Value)
}
