// Package store holds the in-memory order-book state: the current snapshot,
// a bounded history, and the all-time price extremes for every subscribed
// instrument. The store does no locking of its own; the monitor aggregate
// serializes all access behind a single mutex.
package store

import (
	"sort"

	"github.com/polysport/arbmon/internal/domain"
)

// BookStore owns per-instrument snapshots, history rings, and ATH/ATL
// records.
type BookStore struct {
	capacity int

	current map[string]domain.OrderbookSnapshot
	history map[string]*ring
	ath     map[string]domain.ExtremeRecord
	atl     map[string]domain.ExtremeRecord

	updates int
}

// New creates a BookStore whose per-instrument history keeps at most
// capacity snapshots.
func New(capacity int) *BookStore {
	if capacity < 1 {
		capacity = 1
	}
	return &BookStore{
		capacity: capacity,
		current:  make(map[string]domain.OrderbookSnapshot),
		history:  make(map[string]*ring),
		ath:      make(map[string]domain.ExtremeRecord),
		atl:      make(map[string]domain.ExtremeRecord),
	}
}

// Apply ingests one snapshot: it replaces the instrument's current value,
// appends to its history (evicting the oldest entry at capacity), and
// updates the ATH/ATL records for both sides.
func (s *BookStore) Apply(snap domain.OrderbookSnapshot) {
	s.current[snap.AssetID] = snap

	h, ok := s.history[snap.AssetID]
	if !ok {
		h = newRing(s.capacity)
		s.history[snap.AssetID] = h
	}
	h.append(snap)

	s.observeExtreme(snap, domain.SideBid, snap.BestBid, snap.BidSize)
	s.observeExtreme(snap, domain.SideAsk, snap.BestAsk, snap.AskSize)

	s.updates++
}

// observeExtreme updates the ATH and ATL records for one (asset, side) key.
// Comparison is strict, so a tie keeps the first occurrence.
func (s *BookStore) observeExtreme(snap domain.OrderbookSnapshot, side domain.Side, price, size float64) {
	key := snap.AssetID + "_" + string(side)
	rec := domain.ExtremeRecord{
		AssetID:    snap.AssetID,
		MarketName: snap.MarketName,
		Price:      price,
		Size:       size,
		Side:       side,
		Timestamp:  snap.Timestamp,
	}
	if prev, ok := s.ath[key]; !ok || price > prev.Price {
		s.ath[key] = rec
	}
	if prev, ok := s.atl[key]; !ok || price < prev.Price {
		s.atl[key] = rec
	}
}

// Current returns the latest snapshot for every instrument, ordered by
// market name for stable presentation.
func (s *BookStore) Current() []domain.OrderbookSnapshot {
	out := make([]domain.OrderbookSnapshot, 0, len(s.current))
	for _, snap := range s.current {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketName < out[j].MarketName })
	return out
}

// Snapshot returns the current snapshot for one instrument.
func (s *BookStore) Snapshot(assetID string) (domain.OrderbookSnapshot, bool) {
	snap, ok := s.current[assetID]
	return snap, ok
}

// History returns the stored snapshots for an instrument in arrival order,
// oldest first.
func (s *BookStore) History(assetID string) []domain.OrderbookSnapshot {
	h, ok := s.history[assetID]
	if !ok {
		return nil
	}
	return h.items()
}

// ATHRecords returns every all-time-high record, ordered by market name
// then side.
func (s *BookStore) ATHRecords() []domain.ExtremeRecord {
	return sortedRecords(s.ath)
}

// ATLRecords returns every all-time-low record, ordered by market name
// then side.
func (s *BookStore) ATLRecords() []domain.ExtremeRecord {
	return sortedRecords(s.atl)
}

// Extreme returns the ATH and ATL record for one (asset, side) key.
func (s *BookStore) Extreme(assetID string, side domain.Side) (ath, atl domain.ExtremeRecord, ok bool) {
	key := assetID + "_" + string(side)
	ath, okH := s.ath[key]
	atl, okL := s.atl[key]
	return ath, atl, okH && okL
}

// TotalUpdates returns the number of snapshots ingested since construction.
func (s *BookStore) TotalUpdates() int { return s.updates }

// Instruments returns the number of instruments with at least one snapshot.
func (s *BookStore) Instruments() int { return len(s.current) }

// ExtremeCount returns the number of (asset, side) keys with an ATH record.
func (s *BookStore) ExtremeCount() int { return len(s.ath) }

func sortedRecords(m map[string]domain.ExtremeRecord) []domain.ExtremeRecord {
	out := make([]domain.ExtremeRecord, 0, len(m))
	for _, rec := range m {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MarketName != out[j].MarketName {
			return out[i].MarketName < out[j].MarketName
		}
		return out[i].Side < out[j].Side
	})
	return out
}

// ring is a fixed-capacity circular buffer of snapshots.
type ring struct {
	buf   []domain.OrderbookSnapshot
	start int
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]domain.OrderbookSnapshot, capacity)}
}

// append adds a snapshot, evicting the oldest entry when full.
func (r *ring) append(snap domain.OrderbookSnapshot) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = snap
		r.count++
		return
	}
	r.buf[r.start] = snap
	r.start = (r.start + 1) % len(r.buf)
}

// items returns the buffered snapshots oldest first.
func (r *ring) items() []domain.OrderbookSnapshot {
	out := make([]domain.OrderbookSnapshot, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}
