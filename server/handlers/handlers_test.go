package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nomis52/goblink/buildinfo"
	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/config"
	"github.com/nomis52/goblink/display"
	"github.com/nomis52/goblink/runner"
	"github.com/nomis52/goblink/server/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRunner struct {
	err   error
	calls int
}

func (m *mockRunner) Run() error {
	m.calls++
	return m.err
}

func TestRunHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "started", wantStatus: http.StatusAccepted},
		{name: "busy", err: runner.ErrRunInProgress, wantStatus: http.StatusConflict, wantBody: "run already in progress"},
		{name: "other error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantBody: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockRunner{err: tt.err}
			handler := NewRunHandler(quietLogger(), m)

			req := httptest.NewRequest(http.MethodPost, "/run", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, 1, m.calls)
			if tt.wantBody != "" {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.wantBody, resp.Error)
			}
		})
	}
}

type mockHistory struct {
	runs []runner.RunStatus
}

func (m *mockHistory) History() []runner.RunStatus {
	return m.runs
}

func TestHistoryHandler(t *testing.T) {
	provider := &mockHistory{runs: []runner.RunStatus{
		{ID: 3, Outcome: "failure", ExitCode: 2},
		{ID: 2, Outcome: "success"},
		{ID: 1, Outcome: "success"},
	}}
	handler := NewHistoryHandler(provider)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []int
	}{
		{name: "all", wantStatus: http.StatusOK, wantIDs: []int{3, 2, 1}},
		{name: "limited", query: "?limit=2", wantStatus: http.StatusOK, wantIDs: []int{3, 2}},
		{name: "limit above size", query: "?limit=10", wantStatus: http.StatusOK, wantIDs: []int{3, 2, 1}},
		{name: "bad limit", query: "?limit=many", wantStatus: http.StatusBadRequest},
		{name: "negative limit", query: "?limit=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/history"+tt.query, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var runs []runner.RunStatus
			require.NoError(t, json.NewDecoder(w.Body).Decode(&runs))
			ids := make([]int, 0, len(runs))
			for _, run := range runs {
				ids = append(ids, run.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

type mockStatusProvider struct {
	status  runner.RunStatus
	nextRun *time.Time
}

func (m *mockStatusProvider) Properties() types.ServerProperties {
	return types.ServerProperties{Build: buildinfo.Get(), Hostname: "ci", Device: "terminal"}
}

func (m *mockStatusProvider) Status() runner.RunStatus {
	return m.status
}

func (m *mockStatusProvider) NextRun() *time.Time {
	return m.nextRun
}

func TestAPIStatusHandler(t *testing.T) {
	started := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	next := started.Add(24 * time.Hour)

	t.Run("running with schedule", func(t *testing.T) {
		provider := &mockStatusProvider{
			status:  runner.RunStatus{ID: 7, State: runner.RunStateRunning, Job: "make test", StartedAt: &started},
			nextRun: &next,
		}
		w := httptest.NewRecorder()
		NewAPIStatusHandler(provider).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		run := body["run"].(map[string]any)
		assert.Equal(t, "running", run["state"])
		assert.Equal(t, "make test", run["job"])
		nextRun := body["next_run"].(map[string]any)
		assert.Equal(t, true, nextRun["scheduled"])
		assert.Equal(t, "2026-03-02T02:00:00Z", nextRun["next_run"])
		server := body["server"].(map[string]any)
		assert.Equal(t, "terminal", server["device"])
	})

	t.Run("idle without schedule", func(t *testing.T) {
		provider := &mockStatusProvider{status: runner.RunStatus{State: runner.RunStateIdle}}
		w := httptest.NewRecorder()
		NewAPIStatusHandler(provider).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

		assert.Contains(t, w.Body.String(), `"next_run":{"scheduled":false}`)
		assert.Contains(t, w.Body.String(), `"state":"idle"`)
	})
}

type mockIndicator struct {
	err  error
	last color.Color
}

func (m *mockIndicator) Indicate(ctx context.Context, c color.Color) error {
	m.last = c
	return m.err
}

func TestIndicateHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantColor  color.Color
	}{
		{name: "named", body: `{"color":"orange"}`, wantStatus: http.StatusNoContent, wantColor: color.Orange},
		{name: "hex", body: `{"color":"#00ffff"}`, wantStatus: http.StatusNoContent, wantColor: color.Cyan},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "bad colour", body: `{"color":"mauve-ish"}`, wantStatus: http.StatusBadRequest},
		{name: "busy", body: `{"color":"red"}`, err: runner.ErrRunInProgress, wantStatus: http.StatusConflict, wantColor: color.Red},
		{name: "no device", body: `{"color":"red"}`, err: display.ErrDeviceUnavailable, wantStatus: http.StatusServiceUnavailable, wantColor: color.Red},
		{name: "render failure", body: `{"color":"red"}`, err: errors.New("usb"), wantStatus: http.StatusInternalServerError, wantColor: color.Red},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockIndicator{err: tt.err}
			req := httptest.NewRequest(http.MethodPost, "/indicate", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			NewIndicateHandler(m).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantColor, m.last)
		})
	}
}

type mockConfigProvider struct {
	config *config.Config
}

func (m *mockConfigProvider) Config() *config.Config {
	return m.config
}

func TestConfigHandler(t *testing.T) {
	cfg := config.Default()
	cfg.Job.Command = []string{"make", "test"}
	cfg.Job.Env = []string{"CI=1"}
	cfg.Schedule = []string{"0 2 * * *"}

	w := httptest.NewRecorder()
	NewConfigHandler(&mockConfigProvider{config: &cfg}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/yaml", w.Header().Get("Content-Type"))

	var decoded config.Config
	require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, cfg, decoded)
}

func TestConfigHandler_NoConfig(t *testing.T) {
	w := httptest.NewRecorder()
	NewConfigHandler(&mockConfigProvider{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
