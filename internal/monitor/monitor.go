// Package monitor ties the registry, orderbook store, detector, and
// execution engine together behind a single mutex. Feeds push raw books
// in, the control API and HTTP handlers read state out, and everything in
// between happens under one lock so the store and detector never observe
// each other mid-update.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polysport/arbmon/internal/detector"
	"github.com/polysport/arbmon/internal/domain"
	"github.com/polysport/arbmon/internal/platform/polymarket"
	"github.com/polysport/arbmon/internal/registry"
	"github.com/polysport/arbmon/internal/store"
)

// Trigger is the execution side of the monitor. Execute runs on the
// ingest call stack while the monitor lock is held: a live arbitrage is
// acted on before the next book update can move the prices it was
// computed from.
type Trigger interface {
	ShouldExecute(opp domain.ArbitrageOpportunity) bool
	Execute(ctx context.Context, opp domain.ArbitrageOpportunity) domain.ExecutionResult
	Results(limit int) []domain.ExecutionResult
	Stats() domain.ExecutionStats
}

// Monitor is the shared state hub. All exported methods are safe for
// concurrent use.
type Monitor struct {
	mu sync.Mutex

	registry *registry.Registry
	store    *store.BookStore
	detector *detector.Detector
	trigger  Trigger
	logger   *slog.Logger

	mode    string
	running bool
	latency *latencyWindow
}

// New assembles a monitor. mode is reported in Status and must match the
// feed that will drive Ingest ("stream" or "poll"). latencyWindow sizes
// the fetch-latency average; it only fills in poll mode.
func New(reg *registry.Registry, books *store.BookStore, det *detector.Detector, trigger Trigger, mode string, latencyWindow int, logger *slog.Logger) *Monitor {
	return &Monitor{
		registry: reg,
		store:    books,
		detector: det,
		trigger:  trigger,
		logger:   logger.With(slog.String("component", "monitor")),
		mode:     mode,
		latency:  newLatencyWindow(latencyWindow),
	}
}

// Start marks the monitor as running so ingested books are processed.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return domain.ErrAlreadyRunning
	}
	m.running = true
	m.logger.Info("monitoring started", slog.String("mode", m.mode))
	return nil
}

// Stop pauses processing. Subscriptions and accumulated state survive a
// stop; Start resumes from where things left off.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return domain.ErrNotRunning
	}
	m.running = false
	m.logger.Info("monitoring stopped")
	return nil
}

// Running reports whether ingested books are currently processed.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Ingest processes one raw orderbook event: resolve its display name,
// apply it to the store, rescan for arbitrage, and execute anything the
// trigger accepts. Books for unknown tokens and books while stopped are
// dropped.
func (m *Monitor) Ingest(ctx context.Context, book polymarket.APIBook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	name, ok := m.registry.NameOf(book.AssetID)
	if !ok {
		return
	}
	snap, ok := book.Snapshot(name, time.Now())
	if !ok {
		return
	}

	m.store.Apply(snap)
	fired := m.detector.Scan(m.store.Current(), snap.Timestamp)
	for _, opp := range fired {
		if !m.trigger.ShouldExecute(opp) {
			continue
		}
		m.trigger.Execute(ctx, opp)
	}
}

// ObserveLatency records one poll-cycle duration from the polling feed.
func (m *Monitor) ObserveLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency.observe(d)
}

// Subscribe registers an event for monitoring.
func (m *Monitor) Subscribe(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Subscribe(event)
}

// Unsubscribe removes an event. Accumulated extremes and history for its
// tokens are kept; they stop updating once the feed drops the tokens.
func (m *Monitor) Unsubscribe(eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Unsubscribe(eventID)
}

// Events returns the subscribed events.
func (m *Monitor) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Events()
}

// AssetIDs returns the token IDs the feeds should watch. Feeds call this
// on every connect and poll cycle.
func (m *Monitor) AssetIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.AssetIDs()
}

// Orderbooks returns the current snapshot of every tracked instrument.
func (m *Monitor) Orderbooks() []domain.OrderbookSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Current()
}

// History returns the retained snapshots for one token, oldest first.
func (m *Monitor) History(assetID string) []domain.OrderbookSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.History(assetID)
}

// ATHRecords returns the all-time-high record per (asset, side).
func (m *Monitor) ATHRecords() []domain.ExtremeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.ATHRecords()
}

// ATLRecords returns the all-time-low record per (asset, side).
func (m *Monitor) ATLRecords() []domain.ExtremeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.ATLRecords()
}

// TotalRecords returns up to limit recent pair totals, oldest first.
func (m *Monitor) TotalRecords(limit int) []domain.TotalRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detector.TotalRecords(limit)
}

// Opportunities returns up to limit recent detected arbitrages.
func (m *Monitor) Opportunities(limit int) []domain.ArbitrageOpportunity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detector.Opportunities(limit)
}

// Executions returns up to limit recent execution results.
func (m *Monitor) Executions(limit int) []domain.ExecutionResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trigger.Results(limit)
}

// ExecutionStats returns the execution engine's counters.
func (m *Monitor) ExecutionStats() domain.ExecutionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trigger.Stats()
}

// Status summarizes the monitor for the status endpoint.
func (m *Monitor) Status() domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Status{
		Running:          m.running,
		Mode:             m.mode,
		SubscribedEvents: m.registry.Len(),
		Instruments:      m.store.Instruments(),
		ExtremeRecords:   m.store.ExtremeCount(),
		TotalUpdates:     m.store.TotalUpdates(),
		AvgLatencyMs:     m.latency.avgMs(),
	}
}
