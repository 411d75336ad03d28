// Package server provides the goblink daemon's HTTP server.
//
// The server runs the configured job on its cron schedule and on demand,
// showing every run on the indicator, and exposes a small API to watch and
// control it.
//
// # Endpoints
//
//   - GET /health - Simple health check, returns "ok"
//   - GET /api/status - Current run, next scheduled run and server properties
//   - GET /history - Completed runs, most recent first
//   - POST /run - Starts a run (202, or 409 while one is in progress)
//   - POST /indicate - Shows a single colour while no run is in progress
//   - GET /config - Returns the current configuration as YAML
//   - POST /reload - Reloads configuration from disk
//   - GET /metrics - Prometheus metrics
//
// Each run reads the configuration at the moment it starts, so a reload takes
// effect on the next run without disturbing one in progress. The schedule
// and listener are fixed at startup.
//
// # Example
//
//	srv, err := server.New("/etc/goblink/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nomis52/goblink/buildinfo"
	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/config"
	"github.com/nomis52/goblink/cron"
	"github.com/nomis52/goblink/display"
	"github.com/nomis52/goblink/logging"
	"github.com/nomis52/goblink/metrics"
	"github.com/nomis52/goblink/runner"
	"github.com/nomis52/goblink/server/handlers"
	"github.com/nomis52/goblink/server/types"
	"github.com/nomis52/goblink/transition"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Server is the goblink daemon.
type Server struct {
	configPath string
	addr       string
	logger     *slog.Logger
	config     atomic.Pointer[config.Config]
	registry   *metrics.ScrapeRegistry
	metrics    *transition.Metrics
	acquirer   display.Acquirer
	runner     *runner.Runner
	triggers   *cron.Manager
	certs      *CertLoader
	properties types.ServerProperties

	// device keeps one-off indications from overlapping a run.
	device sync.Mutex
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr overrides server.listen_addr from the config file.
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithLogger replaces the logger built from the config file.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithAcquirer fixes the indicator instead of building it from the device
// config.
func WithAcquirer(acq display.Acquirer) Option {
	return func(s *Server) error {
		s.acquirer = acq
		return nil
	}
}

// New creates a new Server with the given config path and options.
// It loads the configuration and initializes all dependencies.
func New(configPath string, opts ...Option) (*Server, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if len(cfg.Job.Command) == 0 {
		return nil, errors.New("config has no job.command to run")
	}

	s := &Server{
		configPath: configPath,
		addr:       cfg.Server.ListenAddr,
	}
	s.config.Store(&cfg)

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.logger == nil {
		s.logger, err = logging.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	s.registry, err = metrics.NewScrapeRegistry()
	if err != nil {
		return nil, err
	}
	s.metrics, err = transition.NewMetrics(s.registry)
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("getting hostname: %w", err)
	}
	s.properties = types.ServerProperties{
		Build:     buildinfo.Get(),
		StartedAt: time.Now(),
		Hostname:  hostname,
		Device:    cfg.Device.Kind,
	}

	runnerOpts := []runner.Option{
		runner.WithMetrics(s.metrics),
		runner.WithStateStore(runner.NewMemoryStore(cfg.Server.HistorySize)),
	}
	if s.acquirer != nil {
		runnerOpts = append(runnerOpts, runner.WithAcquirer(s.acquirer))
	}
	s.runner = runner.New(s.logger, s, runnerOpts...)

	s.triggers, err = cron.NewManager(cfg.Schedule, s, s.logger)
	if err != nil {
		return nil, err
	}

	if cfg.Server.TLSCertFile != "" {
		s.certs, err = NewCertLoader(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile, s.logger)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Reload reads the config from disk. The new config applies from the next run.
func (s *Server) Reload() error {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return err
	}
	if len(cfg.Job.Command) == 0 {
		return errors.New("config has no job.command to run")
	}

	old := s.config.Swap(&cfg)
	if !slices.Equal(old.Schedule, cfg.Schedule) || old.Server != cfg.Server {
		s.logger.Warn("schedule and server settings take effect after a restart")
	}

	s.logger.Info("configuration loaded", "config_path", s.configPath)
	return nil
}

// Config returns the current configuration.
func (s *Server) Config() *config.Config {
	return s.config.Load()
}

// NextRun returns the next scheduled run time, or nil if no schedule is configured.
func (s *Server) NextRun() *time.Time {
	if s.triggers.Len() == 0 {
		return nil
	}
	next := s.triggers.NextRun()
	return &next
}

// Properties returns metadata about this server instance.
func (s *Server) Properties() types.ServerProperties {
	return s.properties
}

// Status returns the current run status by delegating to the runner.
func (s *Server) Status() runner.RunStatus {
	return s.runner.Status()
}

// History returns completed runs by delegating to the runner.
func (s *Server) History() []runner.RunStatus {
	return s.runner.History()
}

// Run starts a run of the configured job in the background. It is called by
// the cron triggers and POST /run.
func (s *Server) Run() error {
	s.device.Lock()
	defer s.device.Unlock()
	return s.runner.Run()
}

// Indicate shows c on the indicator unless a run is using it.
func (s *Server) Indicate(ctx context.Context, c color.Color) error {
	s.device.Lock()
	defer s.device.Unlock()
	if s.runner.IsRunning() {
		return runner.ErrRunInProgress
	}

	cfg := s.Config()
	acq := s.acquirer
	if acq == nil {
		acq = runner.NewAcquirer(cfg.Device, os.Stderr, s.logger)
	}
	return transition.Indicate(ctx, acq, c, runner.TransitionOptions(cfg.Transition, s.logger, s.metrics)...)
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /api/status", handlers.NewAPIStatusHandler(s))
	mux.Handle("GET /history", handlers.NewHistoryHandler(s))
	mux.Handle("POST /run", handlers.NewRunHandler(s.logger, s))
	mux.Handle("POST /indicate", handlers.NewIndicateHandler(s))
	mux.Handle("GET /config", handlers.NewConfigHandler(s))
	mux.Handle("POST /reload", handlers.NewReloadHandler(s.logger, s))
	mux.Handle("GET /metrics", s.registry.Handler())

	return mux
}

// Serve starts the HTTP server and the schedule, and blocks until the context
// is cancelled. It performs a graceful shutdown when the context is done,
// cancelling any run in progress and waiting for it to show its outcome.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
	if s.certs != nil {
		httpServer.TLSConfig = s.certs.TLSConfig()
	}

	if s.triggers.Len() > 0 {
		s.logger.Info("starting cron triggers", "next_run", s.triggers.NextRun())
		s.triggers.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.addr,
			"tls", s.certs != nil,
			"config_path", s.configPath,
		)
		var err error
		if s.certs != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		if stopErr := s.runner.Stop(shutdownCtx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("stopping run: %w", stopErr))
		}
		return err
	}
}
