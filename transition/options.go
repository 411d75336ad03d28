package transition

import (
	"log/slog"
	"time"

	"github.com/nomis52/goblink/display"
)

type options struct {
	logger       *slog.Logger
	metrics      *Metrics
	fade         time.Duration
	hold         time.Duration
	timeout      time.Duration
	pollEachStep bool
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		fade:   display.DefaultFade,
		hold:   display.DefaultHold,
	}
}

// Option configures a Transition or Indicate.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records engine activity on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithFade sets how long the device fades into each colour.
func WithFade(d time.Duration) Option {
	return func(o *options) {
		o.fade = d
	}
}

// WithHold sets how long each colour is shown before the next step.
func WithHold(d time.Duration) Option {
	return func(o *options) {
		o.hold = d
	}
}

// WithTimeout stops the engine with ErrAbandoned if no outcome arrives within
// d. Zero, the default, means wait forever.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithStepPolling makes the engine look for an outcome after every step
// rather than once per pass over the pending sequence. Outcomes then show up
// within one step's hold time instead of one full pass.
func WithStepPolling() Option {
	return func(o *options) {
		o.pollEachStep = true
	}
}
