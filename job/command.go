package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// signalExitBase is added to a signal number to form the exit status of a
// process killed by that signal.
const signalExitBase = 128

// ErrEmptyCommand is returned when a command has no program to run.
var ErrEmptyCommand = errors.New("empty command")

// Command runs a local program.
type Command struct {
	argv   []string
	dir    string
	env    []string
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithDir sets the working directory.
func WithDir(dir string) CommandOption {
	return func(c *Command) {
		c.dir = dir
	}
}

// WithEnv appends KEY=VALUE entries to the inherited environment.
func WithEnv(env ...string) CommandOption {
	return func(c *Command) {
		c.env = append(c.env, env...)
	}
}

// WithOutput sets where the program's stdout and stderr go. Both default to
// the current process's streams.
func WithOutput(stdout, stderr io.Writer) CommandOption {
	return func(c *Command) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithCommandLogger sets the logger.
func WithCommandLogger(logger *slog.Logger) CommandOption {
	return func(c *Command) {
		c.logger = logger
	}
}

// NewCommand creates a Command for argv, where argv[0] is the program.
func NewCommand(argv []string, opts ...CommandOption) (*Command, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyCommand
	}
	c := &Command{
		argv:   append([]string(nil), argv...),
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run starts the program and waits for it. A non-zero exit is returned as an
// *ExitError. Cancelling ctx kills the program.
func (c *Command) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Dir = c.dir
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	c.logger.Debug("running command", "command", c.String(), "dir", c.dir)

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("command %q: %w", c.argv[0], ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return newExitError(exitErr)
	}
	return fmt.Errorf("command %q: %w", c.argv[0], err)
}

// newExitError converts the status of a finished process. os/exec reports -1
// for a process killed by a signal, so the signal is read from the wait
// status instead.
func newExitError(exitErr *exec.ExitError) *ExitError {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		return &ExitError{Code: signalExitBase + int(sig), Signal: sig, Err: exitErr}
	}
	return &ExitError{Code: exitErr.ExitCode(), Err: exitErr}
}

func (c *Command) String() string {
	return strings.Join(c.argv, " ")
}
