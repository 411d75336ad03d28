package runner

import (
	"io"
	"log/slog"
	"strings"

	"github.com/nomis52/goblink/clients/sshclient"
	"github.com/nomis52/goblink/config"
	"github.com/nomis52/goblink/display"
	"github.com/nomis52/goblink/job"
	"github.com/nomis52/goblink/transition"
)

// NewAcquirer returns the indicator selected by cfg. The terminal indicator
// writes to out.
func NewAcquirer(cfg config.DeviceConfig, out io.Writer, logger *slog.Logger) display.Acquirer {
	if cfg.Kind == config.DeviceTerminal {
		return display.NewTerminal(out)
	}
	opts := []display.Blink1Option{display.WithLogger(logger)}
	if cfg.Tool != "" {
		opts = append(opts, display.WithTool(cfg.Tool))
	}
	if cfg.ID != "" {
		opts = append(opts, display.WithDevice(cfg.ID))
	}
	return display.NewBlink1(opts...)
}

// BuildJob creates the job described by cfg.
func BuildJob(cfg config.JobConfig, stdout, stderr io.Writer, logger *slog.Logger) (job.Job, error) {
	if cfg.SSH != nil {
		return job.NewRemote(sshclient.Config{
			Host:           cfg.SSH.Host,
			User:           cfg.SSH.User,
			KeyFile:        cfg.SSH.KeyFile,
			KnownHostsFile: cfg.SSH.KnownHosts,
		}, strings.Join(cfg.Command, " "),
			job.WithRemoteOutput(stdout, stderr),
			job.WithRemoteLogger(logger),
		)
	}

	opts := []job.CommandOption{
		job.WithOutput(stdout, stderr),
		job.WithCommandLogger(logger),
	}
	if cfg.Dir != "" {
		opts = append(opts, job.WithDir(cfg.Dir))
	}
	if len(cfg.Env) > 0 {
		opts = append(opts, job.WithEnv(cfg.Env...))
	}
	return job.NewCommand(cfg.Command, opts...)
}

// TransitionOptions converts the transition config into engine options.
func TransitionOptions(cfg config.TransitionConfig, logger *slog.Logger, m *transition.Metrics) []transition.Option {
	opts := []transition.Option{
		transition.WithLogger(logger),
		transition.WithMetrics(m),
	}
	if cfg.Fade != nil {
		opts = append(opts, transition.WithFade(*cfg.Fade))
	}
	if cfg.Hold != nil {
		opts = append(opts, transition.WithHold(*cfg.Hold))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, transition.WithTimeout(cfg.Timeout))
	}
	if cfg.PollEachStep {
		opts = append(opts, transition.WithStepPolling())
	}
	return opts
}
