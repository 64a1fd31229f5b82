package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/polysport/arbmon/internal/domain"
)

// ControlService is the monitor surface the control handler drives.
type ControlService interface {
	Start() error
	Stop() error
	Subscribe(event domain.Event) error
	Unsubscribe(eventID string) error
	Events() []domain.Event
}

// EventDirectory looks up events on the exchange for subscription requests.
type EventDirectory interface {
	EventByID(ctx context.Context, id string) (domain.Event, error)
	EventBySlug(ctx context.Context, slug string) (domain.Event, error)
	UpcomingSportsEvents(ctx context.Context, limit int) ([]domain.Event, error)
}

// ControlHandler serves the monitoring control surface: start/stop and
// event subscription management.
type ControlHandler struct {
	monitor   ControlService
	directory EventDirectory
	logger    *slog.Logger
}

// NewControlHandler creates a ControlHandler.
func NewControlHandler(monitor ControlService, directory EventDirectory, logger *slog.Logger) *ControlHandler {
	return &ControlHandler{
		monitor:   monitor,
		directory: directory,
		logger:    logHandler(logger, "control"),
	}
}

// Start resumes orderbook processing.
// POST /api/control/start
func (h *ControlHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.Start(); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "already running")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"running": true})
}

// Stop pauses orderbook processing; subscriptions and state are kept.
// POST /api/control/stop
func (h *ControlHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.Stop(); err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			writeError(w, http.StatusConflict, "not running")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to stop")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"running": false})
}

type eventView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Markets int    `json:"markets"`
}

// ListEvents returns the subscribed events.
// GET /api/events
func (h *ControlHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events := h.monitor.Events()
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, eventView{ID: e.ID, Title: e.Title, Slug: e.Slug, Markets: len(e.Markets)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": views,
		"count":  len(views),
	})
}

type subscribeRequest struct {
	EventID string `json:"event_id"`
	Slug    string `json:"slug"`
}

// Subscribe looks up an event by ID or slug and registers it.
// POST /api/events
func (h *ControlHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EventID == "" && req.Slug == "" {
		writeError(w, http.StatusBadRequest, "event_id or slug is required")
		return
	}

	var (
		event domain.Event
		err   error
	)
	if req.EventID != "" {
		event, err = h.directory.EventByID(r.Context(), req.EventID)
	} else {
		event, err = h.directory.EventBySlug(r.Context(), req.Slug)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "event lookup failed",
			slog.String("event_id", req.EventID),
			slog.String("slug", req.Slug),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "event lookup failed")
		return
	}
	if len(event.Markets) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "event has no tradable markets")
		return
	}

	if err := h.monitor.Subscribe(event); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, eventView{
		ID: event.ID, Title: event.Title, Slug: event.Slug, Markets: len(event.Markets),
	})
}

// Unsubscribe removes a subscribed event.
// DELETE /api/events/{id}
func (h *ControlHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}
	if err := h.monitor.Unsubscribe(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not subscribed")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Discover subscribes every upcoming sports event found on the exchange.
// POST /api/events/discover?limit=100
func (h *ControlHandler) Discover(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)
	events, err := h.directory.UpcomingSportsEvents(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "discovery failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "discovery failed")
		return
	}

	added := 0
	for _, event := range events {
		if err := h.monitor.Subscribe(event); err != nil {
			h.logger.Warn("skipping event",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		added++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"discovered": len(events),
		"subscribed": added,
	})
}
