// Package detector groups live order-book snapshots into outcome pairs and
// emits arbitrage opportunities when a pair's combined best ask drops below
// one dollar.
package detector

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polysport/arbmon/internal/domain"
)

// sumEpsilon is the minimum change in a pair's combined ask before a new
// TotalRecord is appended for its group key.
const sumEpsilon = 0.001

// TokenResolver maps a display name back to its outcome token ID. It is
// implemented by the subscription registry.
type TokenResolver interface {
	TokenOf(marketName string) (string, bool)
}

// Detector scans the current snapshots on every ingest. It owns the
// append-only total-record and opportunity logs. Like the store, it does no
// locking of its own; the monitor serializes access.
type Detector struct {
	resolver   TokenResolver
	logger     *slog.Logger
	maxRecords int

	lastTotals    map[string]float64
	totals        []domain.TotalRecord
	opportunities []domain.ArbitrageOpportunity
}

// New creates a Detector. maxRecords bounds the total-record and
// opportunity logs; entries beyond it evict the oldest.
func New(resolver TokenResolver, maxRecords int, logger *slog.Logger) *Detector {
	if maxRecords < 1 {
		maxRecords = 1
	}
	return &Detector{
		resolver:   resolver,
		logger:     logger.With(slog.String("component", "detector")),
		maxRecords: maxRecords,
		lastTotals: make(map[string]float64),
	}
}

// Classify infers the market category from the free-text market name. This
// is a fallback heuristic over naming conventions; a typed category from
// upstream metadata would be preferred when the exchange provides one.
func Classify(name string) domain.MarketCategory {
	switch {
	case strings.Contains(name, "Spread"):
		return domain.CategorySpread
	case strings.Contains(name, "O/U"), strings.Contains(name, "Over/Under"):
		return domain.CategoryTotal
	default:
		return domain.CategoryMoneyline
	}
}

// legView pairs a snapshot with its parsed outcome label.
type legView struct {
	snap    domain.OrderbookSnapshot
	outcome string
}

// Scan groups the given current snapshots by (event, category), records
// total changes, and returns any newly detected arbitrage opportunities.
// The caller hands returned opportunities to the execution engine on the
// same call stack.
func (d *Detector) Scan(snapshots []domain.OrderbookSnapshot, now time.Time) []domain.ArbitrageOpportunity {
	groups := make(map[string][]legView)
	titles := make(map[string]string)
	categories := make(map[string]domain.MarketCategory)

	for _, snap := range snapshots {
		parts := strings.SplitN(snap.MarketName, " - ", 2)
		if len(parts) < 2 {
			continue
		}
		event, outcome := parts[0], parts[1]
		category := Classify(event)
		key := event + "_" + string(category)
		groups[key] = append(groups[key], legView{snap: snap, outcome: outcome})
		titles[key] = event
		categories[key] = category
	}

	var fired []domain.ArbitrageOpportunity
	for key, legs := range groups {
		// Pairwise detection only; larger groups go through the stake
		// calculator's N-ary entry point when invoked directly.
		if len(legs) != 2 {
			continue
		}
		if opp, ok := d.evaluatePair(key, titles[key], categories[key], legs[0], legs[1], now); ok {
			fired = append(fired, opp)
		}
	}
	return fired
}

// evaluatePair records the pair's total when it moved by more than the
// epsilon and returns an opportunity when the new total is under a dollar.
func (d *Detector) evaluatePair(key, title string, category domain.MarketCategory, leg1, leg2 legView, now time.Time) (domain.ArbitrageOpportunity, bool) {
	sum := leg1.snap.BestAsk + leg2.snap.BestAsk

	last, seen := d.lastTotals[key]
	if seen && abs(sum-last) <= sumEpsilon {
		return domain.ArbitrageOpportunity{}, false
	}

	record := domain.TotalRecord{
		GroupKey:   key,
		EventTitle: title,
		Category:   category,
		Leg1Name:   leg1.outcome,
		Leg1Price:  leg1.snap.BestAsk,
		Leg2Name:   leg2.outcome,
		Leg2Price:  leg2.snap.BestAsk,
		Sum:        sum,
		IsBest:     sum < 1.0,
		Timestamp:  now,
	}
	d.totals = appendCapped(d.totals, record, d.maxRecords)
	d.lastTotals[key] = sum

	if !record.IsBest {
		return domain.ArbitrageOpportunity{}, false
	}

	opp := domain.ArbitrageOpportunity{
		ID:            uuid.New().String(),
		EventTitle:    title,
		Category:      category,
		Sum:           sum,
		ProfitPercent: (1.0 - sum) / sum * 100,
		DetectedAt:    now,
	}
	for _, leg := range []legView{leg1, leg2} {
		tokenID, ok := d.resolver.TokenOf(leg.snap.MarketName)
		if !ok {
			tokenID = leg.snap.AssetID
		}
		opp.Legs = append(opp.Legs, domain.OpportunityLeg{
			TokenID: tokenID,
			Name:    leg.outcome,
			Price:   leg.snap.BestAsk,
		})
	}
	d.opportunities = appendCapped(d.opportunities, opp, d.maxRecords)

	d.logger.Warn("arbitrage pair under one dollar",
		slog.String("event", title),
		slog.String("category", string(category)),
		slog.Float64("sum", sum),
		slog.Float64("profit_percent", opp.ProfitPercent),
	)
	return opp, true
}

// TotalRecords returns up to limit most recent total records, oldest first.
func (d *Detector) TotalRecords(limit int) []domain.TotalRecord {
	return tail(d.totals, limit)
}

// Opportunities returns up to limit most recent opportunities, oldest first.
func (d *Detector) Opportunities(limit int) []domain.ArbitrageOpportunity {
	return tail(d.opportunities, limit)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func appendCapped[T any](s []T, v T, max int) []T {
	s = append(s, v)
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}

func tail[T any](s []T, limit int) []T {
	if limit <= 0 || limit > len(s) {
		limit = len(s)
	}
	out := make([]T, limit)
	copy(out, s[len(s)-limit:])
	return out
}
