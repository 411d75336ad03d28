// Package handlers provides HTTP handlers for the goblink daemon.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"context"

	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/config"
	"github.com/nomis52/goblink/runner"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// Reloader can reload its configuration.
type Reloader interface {
	Reload() error
}

// JobRunner can start runs.
type JobRunner interface {
	Run() error
}

// HistoryProvider provides access to run history.
type HistoryProvider interface {
	History() []runner.RunStatus
}

// Indicator shows a single colour on the configured device.
type Indicator interface {
	Indicate(ctx context.Context, c color.Color) error
}
