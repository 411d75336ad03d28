package transition

import (
	"fmt"
	"time"

	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/display"
)

var (
	defaultSuccessColor = color.Green
	defaultFailureColor = color.Red
)

// DefaultPendingColors returns the pending colours used by WithDefaultSteps.
func DefaultPendingColors() []color.Color {
	return []color.Color{color.Blue, color.Blank}
}

// PendingSequence is the ordered list of steps replayed while work is
// pending. Every pass renders the steps from the first to the last.
type PendingSequence []display.Step

// NewPendingSequence builds a sequence with one step per colour.
func NewPendingSequence(colors []color.Color, fade, hold time.Duration) (PendingSequence, error) {
	if len(colors) == 0 {
		return nil, ErrEmptySequence
	}
	seq := make(PendingSequence, len(colors))
	for i, c := range colors {
		seq[i] = display.Step{Color: c, Fade: fade, Hold: hold}
	}
	return seq, nil
}

// Duration is the time one pass takes, ignoring rendering latency.
func (p PendingSequence) Duration() time.Duration {
	var d time.Duration
	for _, step := range p {
		d += step.Hold
	}
	return d
}

// OutcomeAction is the step rendered once an outcome is known.
type OutcomeAction struct {
	Outcome Outcome
	Step    display.Step
}

// Config is everything an engine renders: a pending sequence and one action
// per outcome.
type Config struct {
	Pending PendingSequence
	Success OutcomeAction
	Failure OutcomeAction
}

// Validate checks that the config can drive an engine.
func (c Config) Validate() error {
	if len(c.Pending) == 0 {
		return ErrEmptySequence
	}
	if c.Success.Outcome != Success {
		return fmt.Errorf("success action bound to %s", c.Success.Outcome)
	}
	if c.Failure.Outcome != Failure {
		return fmt.Errorf("failure action bound to %s", c.Failure.Outcome)
	}
	return nil
}

// Action returns the action bound to o.
func (c Config) Action(o Outcome) OutcomeAction {
	if o == Failure {
		return c.Failure
	}
	return c.Success
}

// clone copies the pending steps so the engine owns its config outright.
func (c Config) clone() Config {
	pending := make(PendingSequence, len(c.Pending))
	copy(pending, c.Pending)
	c.Pending = pending
	return c
}
