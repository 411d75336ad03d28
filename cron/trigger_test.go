package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunnable is a test implementation of Runnable.
type mockRunnable struct {
	runCount atomic.Int32
	runErr   error
}

func (m *mockRunnable) Run() error {
	m.runCount.Add(1)
	return m.runErr
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTrigger(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "daily at 2am", spec: "0 2 * * *"},
		{name: "every hour", spec: "0 * * * *"},
		{name: "every minute", spec: "* * * * *"},
		{name: "descriptor", spec: "@daily"},
		{name: "interval", spec: "@every 10m"},
		{name: "empty", spec: "", wantErr: true},
		{name: "wrong format", spec: "not a cron spec", wantErr: true},
		{name: "too few fields", spec: "0 2 *", wantErr: true},
		{name: "invalid value", spec: "60 2 * * *", wantErr: true},
		{name: "seconds field", spec: "0 0 2 * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, err := NewTrigger(tt.spec, &mockRunnable{}, quietLogger())

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCronSpec)
				assert.Nil(t, trigger)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.spec, trigger.Spec())
			}
		})
	}
}

func TestTrigger_NextRun(t *testing.T) {
	trigger, err := NewTrigger("0 2 * * *", &mockRunnable{}, quietLogger())
	require.NoError(t, err)

	nextRun := trigger.NextRun()
	assert.True(t, nextRun.After(time.Now()), "next run should be in the future")
	assert.Equal(t, 2, nextRun.Hour())
	assert.Equal(t, 0, nextRun.Minute())
}

func TestTrigger_Start_CancellationStopsLoop(t *testing.T) {
	runnable := &mockRunnable{}
	trigger, err := NewTrigger("* * * * *", runnable, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	trigger.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	// A run before the first minute boundary would be a scheduling bug, but
	// the boundary may fall inside the window, so allow at most one.
	assert.LessOrEqual(t, runnable.runCount.Load(), int32(1))
}

func TestTrigger_Fires(t *testing.T) {
	runnable := &mockRunnable{runErr: errors.New("run already in progress")}
	trigger, err := NewTrigger("@every 1s", runnable, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trigger.Start(ctx)

	// Errors from the runnable do not stop the schedule.
	assert.Eventually(t, func() bool { return runnable.runCount.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)
}

func TestNewManager(t *testing.T) {
	m, err := NewManager([]string{"0 2 * * *", "0 14 * * *", "0 20 * * *"}, &mockRunnable{}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	earliest := m.triggers[0].NextRun()
	for _, trigger := range m.triggers[1:] {
		if next := trigger.NextRun(); next.Before(earliest) {
			earliest = next
		}
	}
	assert.Equal(t, earliest, m.NextRun())
}

func TestNewManager_InvalidSpec(t *testing.T) {
	m, err := NewManager([]string{"0 2 * * *", "bogus"}, &mockRunnable{}, quietLogger())
	require.Error(t, err)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrInvalidCronSpec)
	assert.Contains(t, err.Error(), `"bogus"`)
}

func TestManager_NoTriggers(t *testing.T) {
	m, err := NewManager(nil, &mockRunnable{}, quietLogger())
	require.NoError(t, err)
	assert.True(t, m.NextRun().IsZero())
	assert.Zero(t, m.Len())

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	cancel()
}
