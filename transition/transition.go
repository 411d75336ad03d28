// Package transition shows the lifecycle of a unit of work on an indicator.
//
// A Transition replays a pending colour sequence on a background goroutine
// until the caller reports an outcome, then shows the colour bound to that
// outcome once and stops.
//
// # Example
//
//	t, err := transition.New(blink1, []color.Color{color.Blue, color.Blank})
//	if err != nil {
//	    return err
//	}
//	n, err := t.OnSuccess(color.Green).OnFailure(color.Red).Start(ctx)
//	if err != nil {
//	    return err
//	}
//
//	if err := doWork(); err != nil {
//	    return errors.Join(err, n.NotifyFailure())
//	}
//	return n.NotifySuccess()
//
// The engine checks for an outcome between passes over the pending sequence,
// so a notification can take up to one full pass to become visible (see
// WithStepPolling). An engine that is never notified keeps running until its
// context is cancelled or its timeout (WithTimeout) expires; without either,
// the goroutine is never released.
package transition

import (
	"context"
	"fmt"

	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/display"
)

// Transition assembles an engine configuration and starts the engine. It
// holds the acquired display until Start hands it over, after which the
// Transition cannot be started again.
type Transition struct {
	display display.Display
	cfg     Config
	opts    options
}

// New acquires a display from acq and configures a pending sequence with one
// step per colour. Success shows green and failure red until overridden.
// The returned error wraps display.ErrDeviceUnavailable when no device could
// be acquired.
func New(acq display.Acquirer, colors []color.Color, opts ...Option) (*Transition, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	pending, err := NewPendingSequence(colors, o.fade, o.hold)
	if err != nil {
		return nil, err
	}

	d, err := acq.Acquire(context.Background())
	if err != nil {
		return nil, fmt.Errorf("acquiring display: %w", err)
	}

	t := &Transition{
		display: d,
		opts:    o,
		cfg: Config{
			Pending: pending,
		},
	}
	t.OnSuccess(defaultSuccessColor)
	t.OnFailure(defaultFailureColor)
	return t, nil
}

// WithDefaultSteps is New with the default pending sequence (blue, blank).
func WithDefaultSteps(acq display.Acquirer, opts ...Option) (*Transition, error) {
	return New(acq, DefaultPendingColors(), opts...)
}

// OnSuccess sets the colour shown when success is reported.
func (t *Transition) OnSuccess(c color.Color) *Transition {
	t.cfg.Success = OutcomeAction{Outcome: Success, Step: t.step(c)}
	return t
}

// OnFailure sets the colour shown when failure is reported.
func (t *Transition) OnFailure(c color.Color) *Transition {
	t.cfg.Failure = OutcomeAction{Outcome: Failure, Step: t.step(c)}
	return t
}

// Config returns a copy of the configuration the engine will run.
func (t *Transition) Config() Config {
	return t.cfg.clone()
}

func (t *Transition) step(c color.Color) display.Step {
	return display.Step{Color: c, Fade: t.opts.fade, Hold: t.opts.hold}
}

// Start launches the engine on its own goroutine and returns the Notifier
// used to report the outcome. The engine owns the display from here on.
//
// Cancelling ctx abandons the run: the engine stops without rendering an
// outcome and the Notifier reports ErrAbandoned.
func (t *Transition) Start(ctx context.Context) (*Notifier, error) {
	if t.display == nil {
		return nil, ErrAlreadyStarted
	}
	if err := t.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transition config: %w", err)
	}

	d := t.display
	t.display = nil

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if t.opts.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, t.opts.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	// Capacity 1: the single outcome never blocks the sender, even when the
	// engine is mid-pass.
	signal := make(chan Outcome, 1)
	done := make(chan struct{})

	e := &engine{
		cfg:          t.cfg.clone(),
		display:      d,
		signal:       signal,
		logger:       t.opts.logger,
		metrics:      t.opts.metrics,
		pollEachStep: t.opts.pollEachStep,
	}
	n := &Notifier{
		signal: signal,
		done:   done,
		cancel: cancel,
		logger: t.opts.logger,
	}

	t.opts.logger.Debug("starting transition",
		"pending", len(e.cfg.Pending),
		"success", e.cfg.Success.Step.Color,
		"failure", e.cfg.Failure.Step.Color,
		"timeout", t.opts.timeout,
	)

	go func() {
		defer close(done)
		defer cancel()
		n.result = e.safeRun(runCtx)
	}()

	return n, nil
}
