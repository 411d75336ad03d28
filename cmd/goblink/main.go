// Command goblink runs a command while a blink(1) shows its progress, then
// shows whether it succeeded.
//
//	goblink -c goblink.yaml -- make test
//	goblink -set orange
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nomis52/goblink/buildinfo"
	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/config"
	"github.com/nomis52/goblink/job"
	"github.com/nomis52/goblink/logging"
	"github.com/nomis52/goblink/metrics"
	"github.com/nomis52/goblink/runner"
	"github.com/nomis52/goblink/transition"
)

const pushTimeout = 10 * time.Second

// errUsage is returned for command lines that cannot be acted on.
var errUsage = errors.New("usage")

type Args struct {
	ConfigPath  string
	ShowVersion bool
	Validate    bool
	SetColor    string
	Terminal    bool
	Command     []string
}

func main() {
	code, err := run(os.Args[1:])
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}

// run returns the process exit code: the wrapped command's own status, or 1
// when goblink itself fails.
func run(argv []string) (int, error) {
	args, err := parseArgs(argv, os.Stderr)
	if err != nil {
		return 2, err
	}

	if args.ShowVersion {
		showVersion(os.Stdout)
		return 0, nil
	}

	cfg := config.Default()
	if args.ConfigPath != "" {
		cfg, err = config.LoadConfig(args.ConfigPath)
		if err != nil {
			return 1, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if args.Validate {
		fmt.Printf("Configuration validation successful: %s\n", args.ConfigPath)
		return 0, nil
	}
	if args.Terminal {
		cfg.Device.Kind = config.DeviceTerminal
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return 1, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if args.SetColor != "" {
		return setColor(ctx, &cfg, args.SetColor, logger)
	}

	if len(args.Command) > 0 {
		cfg.Job.Command = args.Command
	}
	if len(cfg.Job.Command) == 0 {
		return 2, fmt.Errorf("%w: no command given and no job.command in config", errUsage)
	}

	registry, m, err := newMetrics(&cfg)
	if err != nil {
		return 1, err
	}

	props := buildinfo.Get()
	logger.Debug("goblink started",
		"version", props.Version,
		"git_commit", props.GitCommit,
		"config_path", args.ConfigPath,
		"device", cfg.Device.Kind,
	)

	r := runner.New(logger, &cfg, runner.WithMetrics(m))
	status, runErr := r.RunSync(ctx)

	if registry != nil {
		pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := registry.Push(pushCtx); err != nil {
			logger.Warn("failed to push metrics", "error", err)
		}
	}

	if status.IndicatorError != "" && runErr == nil {
		logger.Warn("indicator problem", "error", status.IndicatorError)
	}
	return job.ExitCode(runErr), runErr
}

func setColor(ctx context.Context, cfg *config.Config, name string, logger *slog.Logger) (int, error) {
	c, err := color.Parse(name)
	if err != nil {
		return 2, err
	}
	acq := runner.NewAcquirer(cfg.Device, os.Stderr, logger)
	if err := transition.Indicate(ctx, acq, c, runner.TransitionOptions(cfg.Transition, logger, nil)...); err != nil {
		return 1, err
	}
	return 0, nil
}

// newMetrics returns a push registry when a remote write URL is configured.
// Without one, metrics are not recorded.
func newMetrics(cfg *config.Config) (*metrics.PushRegistry, *transition.Metrics, error) {
	if cfg.Monitoring.VictoriaMetricsURL == "" {
		return nil, nil, nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get hostname: %w", err)
	}

	registry := metrics.NewPushRegistry(metrics.PushConfig{
		URL:      cfg.Monitoring.VictoriaMetricsURL,
		Prefix:   cfg.Monitoring.MetricsPrefix,
		Job:      cfg.Monitoring.JobName,
		Instance: hostname,
	})
	m, err := transition.NewMetrics(registry)
	if err != nil {
		return nil, nil, err
	}
	return registry, m, nil
}

func showVersion(w io.Writer) {
	props := buildinfo.Get()
	fmt.Fprintf(w, "goblink %s\n", props.Version)
	fmt.Fprintf(w, "Built: %s\n", props.BuildTime)
	fmt.Fprintf(w, "Commit: %s\n", props.GitCommit)
}

func parseArgs(argv []string, output io.Writer) (Args, error) {
	fs := flag.NewFlagSet("goblink", flag.ContinueOnError)
	fs.SetOutput(output)

	configPath := fs.String("config", "", "Path to config file")
	configPathShort := fs.String("c", "", "Path to config file (shorthand)")
	showVersion := fs.Bool("version", false, "Show version information")
	versionShort := fs.Bool("v", false, "Show version information (shorthand)")
	validate := fs.Bool("validate", false, "Validate configuration and exit")
	setColor := fs.String("set", "", "Show a single colour and exit")
	terminal := fs.Bool("terminal", false, "Show colours in the terminal instead of on a blink(1)")

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: goblink [options] [--] [command [args...]]\n")
		fmt.Fprintf(output, "\nShows a command's progress and result on a blink(1)\n\n")
		fmt.Fprintf(output, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nExamples:\n")
		fmt.Fprintf(output, "  goblink -- make test\n")
		fmt.Fprintf(output, "  goblink --config goblink.yaml\n")
		fmt.Fprintf(output, "  goblink -set orange\n")
		fmt.Fprintf(output, "  goblink --config goblink.yaml --validate\n")
	}

	if err := fs.Parse(argv); err != nil {
		return Args{}, err
	}

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	if *validate && path == "" {
		return Args{}, fmt.Errorf("%w: -validate needs a config file (-c or --config)", errUsage)
	}

	return Args{
		ConfigPath:  path,
		ShowVersion: *showVersion || *versionShort,
		Validate:    *validate,
		SetColor:    *setColor,
		Terminal:    *terminal,
		Command:     fs.Args(),
	}, nil
}
