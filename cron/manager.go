package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager runs one Trigger per schedule against the same Runnable.
type Manager struct {
	triggers []*Trigger
	logger   *slog.Logger
}

// NewManager creates a Trigger for each spec. It fails on the first spec that
// cannot be parsed.
func NewManager(specs []string, runnable Runnable, logger *slog.Logger) (*Manager, error) {
	triggers := make([]*Trigger, 0, len(specs))
	for _, spec := range specs {
		trigger, err := NewTrigger(spec, runnable, logger)
		if err != nil {
			return nil, fmt.Errorf("creating trigger for %q: %w", spec, err)
		}
		triggers = append(triggers, trigger)
		logger.Info("trigger registered", "schedule", spec, "next_run", trigger.NextRun())
	}

	return &Manager{
		triggers: triggers,
		logger:   logger,
	}, nil
}

// Len returns the number of triggers.
func (m *Manager) Len() int {
	return len(m.triggers)
}

// Start launches all triggers. Each trigger runs in its own goroutine.
// Returns immediately. All goroutines exit when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for _, trigger := range m.triggers {
		trigger.Start(ctx)
	}
}

// NextRun returns the earliest scheduled run time across all triggers.
// Returns zero time if there are no triggers.
func (m *Manager) NextRun() time.Time {
	if len(m.triggers) == 0 {
		return time.Time{}
	}

	earliest := m.triggers[0].NextRun()
	for _, trigger := range m.triggers[1:] {
		if next := trigger.NextRun(); next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}
