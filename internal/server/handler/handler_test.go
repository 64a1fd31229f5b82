package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polysport/arbmon/internal/domain"
	"github.com/polysport/arbmon/internal/logbuf"
)

type fakeMonitor struct {
	running bool
	events  []domain.Event
	books   []domain.OrderbookSnapshot
	history map[string][]domain.OrderbookSnapshot
	totals  []domain.TotalRecord
	opps    []domain.ArbitrageOpportunity
	execs   []domain.ExecutionResult
}

func (f *fakeMonitor) Status() domain.Status {
	return domain.Status{Running: f.running, Mode: "stream", SubscribedEvents: len(f.events)}
}

func (f *fakeMonitor) Start() error {
	if f.running {
		return domain.ErrAlreadyRunning
	}
	f.running = true
	return nil
}

func (f *fakeMonitor) Stop() error {
	if !f.running {
		return domain.ErrNotRunning
	}
	f.running = false
	return nil
}

func (f *fakeMonitor) Subscribe(event domain.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeMonitor) Unsubscribe(eventID string) error {
	for i, e := range f.events {
		if e.ID == eventID {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeMonitor) Events() []domain.Event { return f.events }

func (f *fakeMonitor) Orderbooks() []domain.OrderbookSnapshot { return f.books }

func (f *fakeMonitor) History(assetID string) []domain.OrderbookSnapshot {
	return f.history[assetID]
}

func (f *fakeMonitor) ATHRecords() []domain.ExtremeRecord {
	return []domain.ExtremeRecord{{AssetID: "tok", Price: 0.6, Side: domain.SideBid}}
}

func (f *fakeMonitor) ATLRecords() []domain.ExtremeRecord {
	return []domain.ExtremeRecord{{AssetID: "tok", Price: 0.3, Side: domain.SideBid}}
}

func (f *fakeMonitor) TotalRecords(limit int) []domain.TotalRecord {
	if limit > 0 && len(f.totals) > limit {
		return f.totals[len(f.totals)-limit:]
	}
	return f.totals
}

func (f *fakeMonitor) Opportunities(limit int) []domain.ArbitrageOpportunity { return f.opps }

func (f *fakeMonitor) Executions(limit int) []domain.ExecutionResult { return f.execs }

func (f *fakeMonitor) ExecutionStats() domain.ExecutionStats {
	return domain.ExecutionStats{TotalExecutions: len(f.execs), Bankroll: 100}
}

type fakeDirectory struct {
	events map[string]domain.Event // keyed by both id and slug
	err    error
}

func (f *fakeDirectory) lookup(key string) (domain.Event, error) {
	if f.err != nil {
		return domain.Event{}, f.err
	}
	ev, ok := f.events[key]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return ev, nil
}

func (f *fakeDirectory) EventByID(_ context.Context, id string) (domain.Event, error) {
	return f.lookup(id)
}

func (f *fakeDirectory) EventBySlug(_ context.Context, slug string) (domain.Event, error) {
	return f.lookup(slug)
}

func (f *fakeDirectory) UpcomingSportsEvents(_ context.Context, limit int) ([]domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Event, 0, len(f.events))
	seen := map[string]bool{}
	for _, e := range f.events {
		if !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleEvent() domain.Event {
	return domain.Event{
		ID:    "ev1",
		Title: "Yankees vs Red Sox",
		Slug:  "mlb-nyy-bos",
		Markets: []domain.Market{{
			ID:       "m1",
			Question: "Yankees vs Red Sox",
			TokenIDs: []string{"a", "b"},
			Outcomes: []string{"Yankees", "Red Sox"},
		}},
	}
}

func TestGetStatus(t *testing.T) {
	h := NewStatusHandler(&fakeMonitor{running: true, events: []domain.Event{sampleEvent()}})

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["running"])
	assert.Equal(t, "stream", body["mode"])
	assert.Equal(t, float64(1), body["subscribed_events"])
}

func TestListOrderbooks(t *testing.T) {
	mon := &fakeMonitor{books: []domain.OrderbookSnapshot{
		domain.NewSnapshot("tok", "Game - A", 0.45, 10, 0.49, 5, time.Now()),
	}}
	h := NewOrderbookHandler(mon, testLogger())

	rec := httptest.NewRecorder()
	h.ListOrderbooks(rec, httptest.NewRequest(http.MethodGet, "/api/orderbooks", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["count"])
	books := body["orderbooks"].([]any)
	first := books[0].(map[string]any)
	assert.Equal(t, "tok", first["asset_id"])
	assert.InDelta(t, 0.04, first["spread"].(float64), 1e-9)
}

func TestGetHistory(t *testing.T) {
	mon := &fakeMonitor{history: map[string][]domain.OrderbookSnapshot{
		"tok": {
			domain.NewSnapshot("tok", "Game - A", 0.44, 10, 0.48, 5, time.Now()),
			domain.NewSnapshot("tok", "Game - A", 0.45, 10, 0.49, 5, time.Now()),
		},
	}}
	h := NewOrderbookHandler(mon, testLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orderbooks/{id}/history", h.GetHistory)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orderbooks/tok/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["count"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orderbooks/unknown/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListExtremes(t *testing.T) {
	h := NewOrderbookHandler(&fakeMonitor{}, testLogger())

	rec := httptest.NewRecorder()
	h.ListExtremes(rec, httptest.NewRequest(http.MethodGet, "/api/extremes", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	ath := body["ath"].([]any)[0].(map[string]any)
	atl := body["atl"].([]any)[0].(map[string]any)
	assert.Equal(t, 0.6, ath["price"])
	assert.Equal(t, 0.3, atl["price"])
}

func TestListTotalsHonorsLimit(t *testing.T) {
	mon := &fakeMonitor{totals: []domain.TotalRecord{
		{GroupKey: "g", Sum: 0.99}, {GroupKey: "g", Sum: 0.98}, {GroupKey: "g", Sum: 0.97},
	}}
	h := NewArbHandler(mon, testLogger())

	rec := httptest.NewRecorder()
	h.ListTotals(rec, httptest.NewRequest(http.MethodGet, "/api/totals?limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["count"])
}

func TestListTotalsUsesSnakeCaseKeys(t *testing.T) {
	mon := &fakeMonitor{totals: []domain.TotalRecord{{
		GroupKey:   "Yankees vs Red Sox_moneyline",
		EventTitle: "Yankees vs Red Sox",
		Category:   domain.CategoryMoneyline,
		Leg1Name:   "Yankees vs Red Sox - Yankees",
		Leg1Price:  0.49,
		Leg2Name:   "Yankees vs Red Sox - Red Sox",
		Leg2Price:  0.48,
		Sum:        0.97,
		IsBest:     true,
		Timestamp:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}}}
	h := NewArbHandler(mon, testLogger())

	rec := httptest.NewRecorder()
	h.ListTotals(rec, httptest.NewRequest(http.MethodGet, "/api/totals", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	total := decode(t, rec)["totals"].([]any)[0].(map[string]any)
	assert.Equal(t, "Yankees vs Red Sox", total["event_title"])
	assert.Equal(t, "moneyline", total["category"])
	assert.Equal(t, 0.49, total["leg1_price"])
	assert.Equal(t, true, total["is_best"])
	assert.Equal(t, "2026-08-30T12:00:00.000Z", total["timestamp"])
}

func TestListOpportunitiesUsesSnakeCaseKeys(t *testing.T) {
	mon := &fakeMonitor{opps: []domain.ArbitrageOpportunity{{
		ID:         "opp1",
		EventTitle: "Yankees vs Red Sox",
		Category:   domain.CategoryMoneyline,
		Legs: []domain.OpportunityLeg{
			{TokenID: "a", Name: "Yankees vs Red Sox - Yankees", Price: 0.49},
			{TokenID: "b", Name: "Yankees vs Red Sox - Red Sox", Price: 0.48},
		},
		Sum:           0.97,
		ProfitPercent: 3.09,
		DetectedAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}}}
	h := NewArbHandler(mon, testLogger())

	rec := httptest.NewRecorder()
	h.ListOpportunities(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	opp := decode(t, rec)["opportunities"].([]any)[0].(map[string]any)
	assert.Equal(t, "opp1", opp["id"])
	assert.Equal(t, 3.09, opp["profit_percent"])
	assert.Equal(t, "2026-08-30T12:00:00.000Z", opp["detected_at"])
	leg := opp["legs"].([]any)[0].(map[string]any)
	assert.Equal(t, "a", leg["token_id"])
	assert.Equal(t, 0.49, leg["price"])
}

func TestListExecutionsUsesSnakeCaseKeys(t *testing.T) {
	mon := &fakeMonitor{execs: []domain.ExecutionResult{{
		ID:       "ex1",
		Bankroll: 100,
		Legs: []domain.ExecutionLeg{
			{TokenID: "a", Price: 0.49, Stake: 50.5155, Shares: 103.093, OrderID: "ord-1"},
		},
		Success:   true,
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}}}
	h := NewExecutionHandler(mon, testLogger())

	rec := httptest.NewRecorder()
	h.ListExecutions(rec, httptest.NewRequest(http.MethodGet, "/api/executions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	exec := decode(t, rec)["executions"].([]any)[0].(map[string]any)
	assert.Equal(t, "ex1", exec["id"])
	assert.Equal(t, float64(100), exec["bankroll"])
	assert.Equal(t, true, exec["success"])
	assert.NotContains(t, exec, "error")
	assert.Equal(t, "2026-08-30T12:00:00.000Z", exec["timestamp"])
	leg := exec["legs"].([]any)[0].(map[string]any)
	assert.Equal(t, "ord-1", leg["order_id"])
	assert.Equal(t, 50.5155, leg["stake"])
}

func TestExecutionStats(t *testing.T) {
	h := NewExecutionHandler(&fakeMonitor{execs: []domain.ExecutionResult{{ID: "e1"}}}, testLogger())

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/executions/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["total_executions"])
	assert.Equal(t, float64(100), body["bankroll"])
}

func TestListLogs(t *testing.T) {
	buf := logbuf.New(slog.NewTextHandler(io.Discard, nil), 10)
	slog.New(buf).Info("hello")
	h := NewLogsHandler(buf)

	rec := httptest.NewRecorder()
	h.ListLogs(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestControlStartStop(t *testing.T) {
	mon := &fakeMonitor{}
	h := NewControlHandler(mon, &fakeDirectory{}, testLogger())

	rec := httptest.NewRecorder()
	h.Start(rec, httptest.NewRequest(http.MethodPost, "/api/control/start", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mon.running)

	rec = httptest.NewRecorder()
	h.Start(rec, httptest.NewRequest(http.MethodPost, "/api/control/start", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.Stop(rec, httptest.NewRequest(http.MethodPost, "/api/control/stop", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, mon.running)

	rec = httptest.NewRecorder()
	h.Stop(rec, httptest.NewRequest(http.MethodPost, "/api/control/stop", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubscribeBySlug(t *testing.T) {
	mon := &fakeMonitor{}
	dir := &fakeDirectory{events: map[string]domain.Event{"mlb-nyy-bos": sampleEvent()}}
	h := NewControlHandler(mon, dir, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"slug":"mlb-nyy-bos"}`))
	h.Subscribe(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, mon.events, 1)
	assert.Equal(t, "ev1", mon.events[0].ID)
}

func TestSubscribeValidation(t *testing.T) {
	h := NewControlHandler(&fakeMonitor{}, &fakeDirectory{}, testLogger())

	rec := httptest.NewRecorder()
	h.Subscribe(rec, httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Subscribe(rec, httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"slug":"nope"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnsubscribe(t *testing.T) {
	mon := &fakeMonitor{events: []domain.Event{sampleEvent()}}
	h := NewControlHandler(mon, &fakeDirectory{}, testLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/events/{id}", h.Unsubscribe)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/events/ev1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, mon.events)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/events/ev1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiscover(t *testing.T) {
	mon := &fakeMonitor{}
	dir := &fakeDirectory{events: map[string]domain.Event{"mlb-nyy-bos": sampleEvent()}}
	h := NewControlHandler(mon, dir, testLogger())

	rec := httptest.NewRecorder()
	h.Discover(rec, httptest.NewRequest(http.MethodPost, "/api/events/discover", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["discovered"])
	assert.Equal(t, float64(1), body["subscribed"])
	assert.Len(t, mon.events, 1)
}
