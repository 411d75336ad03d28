// Package displaytest provides a recording display for tests.
package displaytest

import (
	"context"
	"sync"
	"time"

	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/display"
)

// Spy is a display.Display and display.Acquirer that records every render
// attempt. It can be told to fail acquisition or a specific render call.
type Spy struct {
	mu         sync.Mutex
	steps      []display.Step
	acquired   int
	acquireErr error
	failOn     int
	failErr    error
}

// NewSpy returns a Spy that accepts everything.
func NewSpy() *Spy {
	return &Spy{}
}

// FailAcquire makes every Acquire call return err.
func (s *Spy) FailAcquire(err error) *Spy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquireErr = err
	return s
}

// FailOnRender makes the n-th render call (1-based) and every later one
// return err.
func (s *Spy) FailOnRender(n int, err error) *Spy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = n
	s.failErr = err
	return s
}

// Acquire implements display.Acquirer.
func (s *Spy) Acquire(ctx context.Context) (display.Display, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	s.acquired++
	return s, nil
}

// Render implements display.Display.
func (s *Spy) Render(ctx context.Context, step display.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
	if s.failOn > 0 && len(s.steps) >= s.failOn {
		return s.failErr
	}
	return nil
}

// Acquired returns how many times Acquire succeeded.
func (s *Spy) Acquired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired
}

// Steps returns a copy of every step rendered so far, in order.
func (s *Spy) Steps() []display.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := make([]display.Step, len(s.steps))
	copy(steps, s.steps)
	return steps
}

// Colors returns the colour of every step rendered so far, in order.
func (s *Spy) Colors() []color.Color {
	steps := s.Steps()
	colors := make([]color.Color, len(steps))
	for i, step := range steps {
		colors[i] = step.Color
	}
	return colors
}

// Count returns how many rendered steps had colour c.
func (s *Spy) Count(c color.Color) int {
	n := 0
	for _, got := range s.Colors() {
		if got == c {
			n++
		}
	}
	return n
}

// Renders returns the number of render calls made so far.
func (s *Spy) Renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// WaitForRenders blocks until at least n renders happened or timeout
// elapses, and reports which.
func (s *Spy) WaitForRenders(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Renders() >= n {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return s.Renders() >= n
}
