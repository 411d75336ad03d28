// Package runner wraps job runs in a transition.
//
// The runner handles:
//   - Starting runs in the background, or synchronously for the CLI
//   - Preventing concurrent runs
//   - Showing each run on the configured indicator
//   - Tracking current run status and the logs it produced
//   - Maintaining a bounded history of completed runs
//
// Each run reads the current configuration, so config changes take effect on
// the next run.
//
// # Example
//
//	r := runner.New(logger, configProvider)
//
//	// Start a run
//	if err := r.Run(); err != nil {
//	    if errors.Is(err, runner.ErrRunInProgress) {
//	        // Handle concurrent run attempt
//	    }
//	}
//
//	status := r.Status()
//	history := r.History() // Most recent first
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nomis52/goblink/config"
	"github.com/nomis52/goblink/display"
	"github.com/nomis52/goblink/job"
	"github.com/nomis52/goblink/logging"
	"github.com/nomis52/goblink/transition"
)

const defaultLogLimit = 1000

var (
	// ErrRunInProgress is returned when attempting to start a run while one is already running.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrStopped is returned when attempting to start a run after Stop.
	ErrStopped = errors.New("runner stopped")
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// Runner manages job run execution.
type Runner struct {
	logger         *slog.Logger
	configProvider ConfigProvider
	store          StateStore
	acquirer       display.Acquirer
	metrics        *transition.Metrics
	stdout         io.Writer
	stderr         io.Writer
	logLimit       int

	// ctx bounds every run; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	runStatus RunStatus
	capture   *logging.Capture
	lastID    int
}

// Option configures a Runner.
type Option func(*Runner)

// WithStateStore configures the runner to use the provided store for history.
func WithStateStore(store StateStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithAcquirer fixes the indicator instead of building one from the device
// config on every run.
func WithAcquirer(acq display.Acquirer) Option {
	return func(r *Runner) {
		r.acquirer = acq
	}
}

// WithMetrics records transition metrics for every run.
func WithMetrics(m *transition.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithOutput sets where job output and the terminal indicator write.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithLogLimit bounds the log records kept per run.
func WithLogLimit(n int) Option {
	return func(r *Runner) {
		r.logLimit = n
	}
}

// New creates a new Runner.
func New(logger *slog.Logger, provider ConfigProvider, opts ...Option) *Runner {
	r := &Runner{
		logger:         logger,
		configProvider: provider,
		store:          NewMemoryStore(defaultMaxHistorySize),
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		logLimit:       defaultLogLimit,
		runStatus:      RunStatus{State: RunStateIdle},
	}

	for _, opt := range opts {
		opt(r)
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())

	return r
}

// Run starts the configured job in the background.
// Returns ErrRunInProgress if a run is already in progress.
func (r *Runner) Run() error {
	capture, err := r.tryStart()
	if err != nil {
		return err
	}

	go func() {
		defer r.wg.Done()
		res := r.execute(r.ctx, nil, capture)
		r.finish(res)
	}()

	return nil
}

// RunSync runs the configured job and waits for it and the indicator to finish.
func (r *Runner) RunSync(ctx context.Context) (RunStatus, error) {
	return r.RunJob(ctx, nil)
}

// RunJob runs j in place of the configured job and waits for it and the
// indicator to finish. The returned error joins the job's error with any
// setup failure, and with indicator failures when the device is required.
// job.ExitCode maps it onto a process exit status.
func (r *Runner) RunJob(ctx context.Context, j job.Job) (RunStatus, error) {
	capture, err := r.tryStart()
	if err != nil {
		return RunStatus{}, err
	}
	defer r.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(r.ctx, cancel)()

	res := r.execute(ctx, j, capture)
	return r.finish(res), res.err()
}

// Stop cancels the run in progress, if any, and waits for it to finish and
// show its outcome. Later calls to Run return ErrStopped. If ctx ends first
// Stop returns its error without waiting further.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current run status. While a run is in progress the logs
// captured so far are included.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := r.runStatus
	if status.State == RunStateRunning && r.capture != nil {
		status.Logs = r.capture.Entries()
	}
	return status
}

// IsRunning returns true if a run is in progress.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runStatus.State == RunStateRunning
}

// History returns the history of completed runs, most recent first.
func (r *Runner) History() []RunStatus {
	return r.store.Runs()
}

// tryStart attempts to transition from idle to running. On success the run
// is counted in r.wg and the caller must call r.wg.Done when it ends.
func (r *Runner) tryStart() (*logging.Capture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx.Err() != nil {
		return nil, ErrStopped
	}
	if r.runStatus.State == RunStateRunning {
		return nil, ErrRunInProgress
	}
	r.wg.Add(1)

	r.lastID++
	now := time.Now()
	r.runStatus = RunStatus{
		ID:        r.lastID,
		State:     RunStateRunning,
		StartedAt: &now,
	}
	r.capture = logging.NewCapture(r.logLimit)
	return r.capture, nil
}

func (r *Runner) setJob(desc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runStatus.Job = desc
}

// result is what one run produced.
type result struct {
	required     bool
	setupErr     error
	jobErr       error
	indicatorErr error
}

func (res result) err() error {
	if res.required {
		return errors.Join(res.setupErr, res.jobErr, res.indicatorErr)
	}
	return errors.Join(res.setupErr, res.jobErr)
}

func (r *Runner) execute(ctx context.Context, j job.Job, capture *logging.Capture) result {
	logger := capture.Logger(r.logger).With("run", r.Status().ID)

	cfg := r.configProvider.Config()
	if cfg == nil {
		return result{setupErr: errors.New("no configuration available")}
	}
	res := result{required: cfg.Device.Required}

	if j == nil {
		var err error
		j, err = BuildJob(cfg.Job, r.stdout, r.stderr, logger)
		if err != nil {
			res.setupErr = fmt.Errorf("building job: %w", err)
			return res
		}
	}
	r.setJob(j.String())

	n, err := r.startIndicator(ctx, cfg, logger)
	if err != nil {
		if cfg.Device.Required {
			res.setupErr = fmt.Errorf("starting indicator: %w", err)
			return res
		}
		res.indicatorErr = err
		logger.Warn("running job without indicator", "error", err)
	}

	jobCtx := ctx
	if cfg.Job.Timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, cfg.Job.Timeout)
		defer cancel()
	}

	logger.Info("running job", "job", j.String())
	res.jobErr = j.Run(jobCtx)

	if n != nil {
		var notifyErr error
		if res.jobErr != nil {
			notifyErr = n.NotifyFailure()
		} else {
			notifyErr = n.NotifySuccess()
		}
		if notifyErr != nil {
			res.indicatorErr = notifyErr
			logger.Warn("indicator failed to show outcome", "error", notifyErr)
		}
	}
	return res
}

func (r *Runner) startIndicator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*transition.Notifier, error) {
	acq := r.acquirer
	if acq == nil {
		acq = NewAcquirer(cfg.Device, r.stderr, logger)
	}
	// A cancelled run fails its job; the engine stays up to show that.
	ctx = context.WithoutCancel(ctx)

	pending := cfg.Transition.Pending
	if pending == nil {
		pending = transition.DefaultPendingColors()
	}

	t, err := transition.New(acq, pending, TransitionOptions(cfg.Transition, logger, r.metrics)...)
	if err != nil {
		return nil, err
	}
	if cfg.Transition.Success != nil {
		t.OnSuccess(*cfg.Transition.Success)
	}
	if cfg.Transition.Failure != nil {
		t.OnFailure(*cfg.Transition.Failure)
	}
	return t.Start(ctx)
}

// finish transitions from running to idle and records the result.
func (r *Runner) finish(res result) RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	endTime := time.Now()
	status := r.runStatus
	status.State = RunStateIdle
	status.EndedAt = &endTime

	switch {
	case res.setupErr != nil:
		status.Outcome = transition.Failure.String()
		status.ExitCode = 1
		status.Error = res.setupErr.Error()
	case res.jobErr != nil:
		status.Outcome = transition.Failure.String()
		status.ExitCode = job.ExitCode(res.jobErr)
		status.Error = res.jobErr.Error()
	default:
		status.Outcome = transition.Success.String()
	}
	if res.indicatorErr != nil {
		status.IndicatorError = res.indicatorErr.Error()
	}

	if res.setupErr != nil || res.jobErr != nil {
		r.logger.Error("run failed",
			"run", status.ID,
			"job", status.Job,
			"exit_code", status.ExitCode,
			"error", status.Error,
			"duration", status.Duration(),
		)
	} else {
		r.logger.Info("run completed", "run", status.ID, "job", status.Job, "duration", status.Duration())
	}

	status.Logs = r.capture.Entries()
	r.runStatus = status

	if err := r.store.Save(status); err != nil {
		r.logger.Error("failed to save run to store", "error", err)
	}
	return status
}
