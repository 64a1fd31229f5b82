package handler

import (
	"net/http"

	"github.com/polysport/arbmon/internal/domain"
)

// StatusSource provides the monitor summary for the status endpoint.
type StatusSource interface {
	Status() domain.Status
}

// StatusHandler serves the monitor's operational summary.
type StatusHandler struct {
	monitor StatusSource
}

// NewStatusHandler creates a StatusHandler backed by the given monitor.
func NewStatusHandler(monitor StatusSource) *StatusHandler {
	return &StatusHandler{monitor: monitor}
}

// GetStatus responds with the current monitoring state.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	s := h.monitor.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"running":           s.Running,
		"mode":              s.Mode,
		"subscribed_events": s.SubscribedEvents,
		"instruments":       s.Instruments,
		"extreme_records":   s.ExtremeRecords,
		"total_updates":     s.TotalUpdates,
		"avg_latency_ms":    s.AvgLatencyMs,
	})
}
