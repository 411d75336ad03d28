package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/nomis52/goblink/display"
)

// engine replays the pending sequence until an outcome arrives on signal,
// then renders the matching action once. Each engine runs exactly once.
type engine struct {
	cfg          Config
	display      display.Display
	signal       <-chan Outcome
	logger       *slog.Logger
	metrics      *Metrics
	pollEachStep bool

	outcome  Outcome
	notified bool
}

// safeRun runs the engine, turning a panic into a CrashError.
func (e *engine) safeRun(ctx context.Context) (err error) {
	start := time.Now()
	e.metrics.started()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("transition engine crashed", "panic", r)
			err = &CrashError{Value: r, Stack: debug.Stack()}
		}
		e.metrics.finished(e.resultLabel(err), time.Since(start))
	}()
	return e.run(ctx)
}

func (e *engine) run(ctx context.Context) error {
	for pass := 1; ; pass++ {
		if o, ok := e.poll(); ok {
			return e.finish(ctx, o)
		}
		if ctx.Err() != nil {
			return e.abandon(ctx)
		}

		e.logger.Debug("rendering pending sequence", "pass", pass)
		for _, step := range e.cfg.Pending {
			if err := e.render(ctx, PhasePending, step); err != nil {
				if ctx.Err() != nil {
					return e.abandon(ctx)
				}
				return err
			}
			if !e.hold(ctx, step.Hold) {
				return e.abandon(ctx)
			}
			if e.pollEachStep {
				if o, ok := e.poll(); ok {
					return e.finish(ctx, o)
				}
			}
		}
		e.metrics.pass()
	}
}

// poll checks for an outcome without blocking.
func (e *engine) poll() (Outcome, bool) {
	select {
	case o := <-e.signal:
		return o, true
	default:
		return 0, false
	}
}

// finish renders the action for o. Once an outcome has been accepted the
// terminal step is always attempted, even if ctx has since been cancelled.
func (e *engine) finish(ctx context.Context, o Outcome) error {
	e.outcome = o
	e.notified = true

	action := e.cfg.Action(o)
	e.logger.Info("outcome received", "outcome", o, "color", action.Step.Color)

	ctx = context.WithoutCancel(ctx)
	if err := e.render(ctx, phaseFor(o), action.Step); err != nil {
		return err
	}
	e.hold(ctx, action.Step.Hold)
	return nil
}

func (e *engine) render(ctx context.Context, phase Phase, step display.Step) error {
	err := e.display.Render(ctx, step)
	e.metrics.rendered(phase, err)
	if err != nil {
		e.logger.Error("render failed", "phase", phase, "color", step.Color, "error", err)
		return &RenderError{Phase: phase, Step: step, Err: err}
	}
	return nil
}

// hold waits for d and reports false if ctx ended first.
func (e *engine) hold(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *engine) abandon(ctx context.Context) error {
	cause := context.Cause(ctx)
	e.logger.Warn("transition abandoned without an outcome", "cause", cause)
	return fmt.Errorf("%w: %w", ErrAbandoned, cause)
}

func (e *engine) resultLabel(err error) string {
	var crash *CrashError
	switch {
	case err == nil && e.notified:
		return e.outcome.String()
	case errors.Is(err, ErrAbandoned):
		return "abandoned"
	case errors.As(err, &crash):
		return "crashed"
	default:
		return "render_error"
	}
}
