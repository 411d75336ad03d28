package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Notifier reports the outcome of the monitored work to a running engine and
// waits for the engine to show it.
//
// A Notifier is single use: after NotifySuccess, NotifyFailure, Notify or
// Abandon has been called once, every further call returns ErrNotifierUsed
// without touching the engine. That keeps the terminal colour to at most one
// render per run.
type Notifier struct {
	signal chan<- Outcome
	done   <-chan struct{}
	cancel context.CancelFunc
	logger *slog.Logger

	used atomic.Bool
	// result is written by the engine goroutine before done is closed.
	result error
}

// NotifySuccess reports success. See Notify.
func (n *Notifier) NotifySuccess() error {
	return n.Notify(Success)
}

// NotifyFailure reports failure. See Notify.
func (n *Notifier) NotifyFailure() error {
	return n.Notify(Failure)
}

// Notify sends o to the engine and blocks until the engine has finished its
// current pass and rendered the action for o.
//
// It returns ErrNotification if the engine had already stopped (after a
// render failure, a crash or being abandoned), otherwise the engine's result:
// nil once the outcome colour was shown, a *RenderError if the display
// failed, or a *CrashError if the engine panicked.
func (n *Notifier) Notify(o Outcome) error {
	if !n.used.CompareAndSwap(false, true) {
		return ErrNotifierUsed
	}

	select {
	case <-n.done:
		if n.result == nil {
			return ErrNotification
		}
		return fmt.Errorf("%w: engine already stopped: %w", ErrNotification, n.result)
	default:
	}

	n.logger.Debug("notifying transition", "outcome", o)
	n.signal <- o
	<-n.done
	return n.result
}

// Abandon stops the engine without reporting an outcome and waits for it to
// exit. The indicator is left showing whatever pending step it was on.
// It returns nil if the engine stopped because of the abandon, or the error
// that had already stopped it.
func (n *Notifier) Abandon() error {
	if !n.used.CompareAndSwap(false, true) {
		return ErrNotifierUsed
	}

	n.logger.Debug("abandoning transition")
	n.cancel()
	<-n.done
	if errors.Is(n.result, ErrAbandoned) {
		return nil
	}
	return n.result
}

// Done is closed once the engine goroutine has exited.
func (n *Notifier) Done() <-chan struct{} {
	return n.done
}
