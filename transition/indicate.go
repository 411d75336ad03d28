package transition

import (
	"context"
	"fmt"

	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/display"
)

// Indicate acquires its own display from acq and shows c once, without any
// pending sequence. It is meant for setting the indicator outside of a
// Transition, for example to show the result of work whose progress was not
// tracked. The hold duration is not waited for.
func Indicate(ctx context.Context, acq display.Acquirer, c color.Color, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d, err := acq.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring display: %w", err)
	}

	step := display.Step{Color: c, Fade: o.fade, Hold: o.hold}
	err = d.Render(ctx, step)
	o.metrics.rendered(PhaseIndicate, err)
	if err != nil {
		return &RenderError{Phase: PhaseIndicate, Step: step, Err: err}
	}
	o.logger.Debug("indicator set", "color", c)
	return nil
}
