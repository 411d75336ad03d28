// Package display defines what goblink needs from an indicator device and
// provides the implementations it ships with.
//
// A Display renders one Step at a time. Displays are obtained from an
// Acquirer, which fails with ErrDeviceUnavailable when no device can be
// reached. A Display returned by Acquire is owned by a single caller; devices
// are not assumed to tolerate concurrent senders, so callers that need to
// render independently acquire their own.
package display

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nomis52/goblink/color"
)

const (
	// DefaultFade is how long a device takes to fade into a step's colour.
	DefaultFade = 500 * time.Millisecond
	// DefaultHold is how long a step is shown before the next one starts.
	DefaultHold = 500 * time.Millisecond
)

// ErrDeviceUnavailable is returned when the indicator device cannot be found
// or contacted.
var ErrDeviceUnavailable = errors.New("indicator device unavailable")

// Step is a single rendering instruction: fade to Color over Fade, then keep
// it for Hold before anything else is rendered.
type Step struct {
	Color color.Color
	Fade  time.Duration
	Hold  time.Duration
}

// NewStep returns a Step for c using the default fade and hold durations.
func NewStep(c color.Color) Step {
	return Step{Color: c, Fade: DefaultFade, Hold: DefaultHold}
}

// String implements fmt.Stringer.
func (s Step) String() string {
	return fmt.Sprintf("%s (fade %s, hold %s)", s.Color, s.Fade, s.Hold)
}

// Display renders steps on an indicator.
type Display interface {
	// Render starts showing step. It returns once the device has accepted the
	// instruction; holding the colour is the caller's concern.
	Render(ctx context.Context, step Step) error
}

// Acquirer finds and opens an indicator.
type Acquirer interface {
	// Acquire returns a Display ready for rendering, or an error wrapping
	// ErrDeviceUnavailable when no device is present.
	Acquire(ctx context.Context) (Display, error)
}

// AcquireFunc adapts a function to the Acquirer interface.
type AcquireFunc func(ctx context.Context) (Display, error)

// Acquire calls f(ctx).
func (f AcquireFunc) Acquire(ctx context.Context) (Display, error) {
	return f(ctx)
}
