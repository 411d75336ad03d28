package transition

import (
	"fmt"
	"sync"
	"time"

	"github.com/nomis52/goblink/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records what transition engines do. A nil *Metrics records
// nothing.
type Metrics struct {
	passes       metrics.Counter
	renders      metrics.CounterVec
	renderErrors metrics.CounterVec
	runs         metrics.CounterVec
	running      metrics.Gauge
	lastDuration metrics.Gauge

	mu     sync.Mutex
	active int
}

// NewMetrics creates and registers the transition metrics on reg.
func NewMetrics(reg metrics.Registry) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.passes, err = reg.NewCounter(prometheus.CounterOpts{
		Name: "transition_pending_passes_total",
		Help: "Completed passes over the pending sequence.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating passes counter: %w", err)
	}

	m.renders, err = reg.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_renders_total",
		Help: "Steps sent to the display, by phase.",
	}, []string{"phase"})
	if err != nil {
		return nil, fmt.Errorf("creating renders counter: %w", err)
	}

	m.renderErrors, err = reg.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_render_errors_total",
		Help: "Steps the display failed to render, by phase.",
	}, []string{"phase"})
	if err != nil {
		return nil, fmt.Errorf("creating render errors counter: %w", err)
	}

	m.runs, err = reg.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_runs_total",
		Help: "Finished engine runs, by result.",
	}, []string{"result"})
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	m.running, err = reg.NewGauge(prometheus.GaugeOpts{
		Name: "transition_running",
		Help: "Engines currently showing a pending sequence.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating running gauge: %w", err)
	}

	m.lastDuration, err = reg.NewGauge(prometheus.GaugeOpts{
		Name: "transition_last_run_duration_seconds",
		Help: "Wall time of the most recently finished engine run.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating duration gauge: %w", err)
	}

	return m, nil
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active++
	m.running.Set(float64(m.active))
}

func (m *Metrics) pass() {
	if m == nil {
		return
	}
	m.passes.Inc()
}

func (m *Metrics) rendered(phase Phase, err error) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"phase": string(phase)}
	m.renders.With(labels).Inc()
	if err != nil {
		m.renderErrors.With(labels).Inc()
	}
}

func (m *Metrics) finished(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active--
	m.running.Set(float64(m.active))
	m.runs.With(prometheus.Labels{"result": result}).Inc()
	m.lastDuration.Set(elapsed.Seconds())
}
