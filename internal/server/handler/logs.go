package handler

import (
	"net/http"

	"github.com/polysport/arbmon/internal/logbuf"
)

// LogSource provides the retained log records.
type LogSource interface {
	Entries(limit int) []logbuf.Entry
}

// LogsHandler serves the in-memory log buffer.
type LogsHandler struct {
	logs LogSource
}

// NewLogsHandler creates a LogsHandler backed by the given buffer.
func NewLogsHandler(logs LogSource) *LogsHandler {
	return &LogsHandler{logs: logs}
}

// ListLogs returns recent log records, oldest first.
// GET /api/logs?limit=100
func (h *LogsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)
	entries := h.logs.Entries(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  entries,
		"count": len(entries),
	})
}
