package handler

import (
	"net/http"
	"time"
)

// HealthHandler serves liveness checks.
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler creates a HealthHandler anchored at the current time.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// HealthCheck responds with service liveness and uptime.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}
