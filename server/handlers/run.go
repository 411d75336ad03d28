package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/goblink/runner"
)

// RunHandler handles requests to trigger a run of the configured job.
type RunHandler struct {
	logger *slog.Logger
	runner JobRunner
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(logger *slog.Logger, r JobRunner) *RunHandler {
	return &RunHandler{
		logger: logger,
		runner: r,
	}
}

// ServeHTTP implements http.Handler.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Run(); err != nil {
		if errors.Is(err, runner.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("failed to start run", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	h.logger.Info("run triggered over http", "remote_addr", r.RemoteAddr)
	w.WriteHeader(http.StatusAccepted)
}
