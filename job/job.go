// Package job defines the work a runner wraps in a transition.
//
// A Job either succeeds (nil error) or fails; the runner maps that onto the
// success or failure colour.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Job is a unit of work.
type Job interface {
	Run(ctx context.Context) error
	String() string
}

// ExitError reports a job that ended with a non-zero status. A job killed by
// a signal has Signal set and Code 128+signal, as shells report it.
type ExitError struct {
	Code   int
	Signal os.Signal
	Err    error
}

func (e *ExitError) Error() string {
	if e.Signal != nil {
		return fmt.Sprintf("killed by signal %s (exit status %d)", e.Signal, e.Code)
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a job error to a process exit code: 0 for nil, the job's own
// status for an ExitError and 1 for anything else, including an
// ExitError without a usable status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

// Func adapts a function to the Job interface.
type Func struct {
	Name string
	Fn   func(ctx context.Context) error
}

func (f Func) Run(ctx context.Context) error {
	return f.Fn(ctx)
}

func (f Func) String() string {
	return f.Name
}
