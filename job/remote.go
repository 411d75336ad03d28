package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nomis52/goblink/clients/sshclient"
)

// Session runs commands on a connected host.
type Session interface {
	Run(ctx context.Context, command string, stdout, stderr io.Writer) error
	Close() error
}

// exitStatuser is satisfied by *ssh.ExitError.
type exitStatuser interface {
	ExitStatus() int
}

// DialFunc opens a Session.
type DialFunc func(ctx context.Context, cfg sshclient.Config) (Session, error)

// Remote runs a shell command on an SSH host. Each Run opens and closes its
// own connection.
type Remote struct {
	cfg     sshclient.Config
	command string
	dial    DialFunc
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
}

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithDialer replaces the SSH dialer.
func WithDialer(dial DialFunc) RemoteOption {
	return func(r *Remote) {
		r.dial = dial
	}
}

// WithRemoteOutput sets where the remote command's output goes.
func WithRemoteOutput(stdout, stderr io.Writer) RemoteOption {
	return func(r *Remote) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithRemoteLogger sets the logger.
func WithRemoteLogger(logger *slog.Logger) RemoteOption {
	return func(r *Remote) {
		r.logger = logger
	}
}

// NewRemote creates a Remote that runs command on the host in cfg.
func NewRemote(cfg sshclient.Config, command string, opts ...RemoteOption) (*Remote, error) {
	if command == "" {
		return nil, ErrEmptyCommand
	}
	if cfg.Host == "" {
		return nil, errors.New("remote job requires a host")
	}
	r := &Remote{
		cfg:     cfg,
		command: command,
		dial: func(ctx context.Context, cfg sshclient.Config) (Session, error) {
			return sshclient.Dial(ctx, cfg)
		},
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run connects, runs the command and disconnects. A non-zero remote exit is
// returned as an *ExitError.
func (r *Remote) Run(ctx context.Context) error {
	session, err := r.dial(ctx, r.cfg)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", r.cfg.Host, err)
	}
	defer session.Close()

	r.logger.Debug("running remote command", "host", r.cfg.Host, "user", r.cfg.User, "command", r.command)

	err = session.Run(ctx, r.command, r.stdout, r.stderr)
	if err == nil {
		return nil
	}
	var status exitStatuser
	if errors.As(err, &status) {
		return &ExitError{Code: status.ExitStatus(), Err: err}
	}
	return fmt.Errorf("running on %s: %w", r.cfg.Host, err)
}

func (r *Remote) String() string {
	if r.cfg.User != "" {
		return fmt.Sprintf("%s@%s: %s", r.cfg.User, r.cfg.Host, r.command)
	}
	return fmt.Sprintf("%s: %s", r.cfg.Host, r.command)
}
