package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nomis52/goblink/color"
	"github.com/nomis52/goblink/display"
	"github.com/nomis52/goblink/runner"
)

// IndicateRequest defines the request body for POST /indicate.
type IndicateRequest struct {
	Color string `json:"color"`
}

// IndicateHandler shows one colour on the device while no run is using it.
type IndicateHandler struct {
	indicator Indicator
}

// NewIndicateHandler creates a new IndicateHandler.
func NewIndicateHandler(indicator Indicator) *IndicateHandler {
	return &IndicateHandler{
		indicator: indicator,
	}
}

// ServeHTTP implements http.Handler.
func (h *IndicateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req IndicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid JSON: %v", err),
		})
		return
	}

	c, err := color.Parse(req.Color)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	err = h.indicator.Indicate(r.Context(), c)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, runner.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, display.ErrDeviceUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
