package handler

import (
	"log/slog"
	"net/http"

	"github.com/polysport/arbmon/internal/domain"
)

// OrderbookSource defines what the orderbook handler needs from the
// monitor. It is declared locally so the handler package does not depend on
// the concrete monitor implementation.
type OrderbookSource interface {
	Orderbooks() []domain.OrderbookSnapshot
	History(assetID string) []domain.OrderbookSnapshot
	ATHRecords() []domain.ExtremeRecord
	ATLRecords() []domain.ExtremeRecord
}

// OrderbookHandler serves current books, per-token history, and extremes.
type OrderbookHandler struct {
	monitor OrderbookSource
	logger  *slog.Logger
}

// NewOrderbookHandler creates an OrderbookHandler.
func NewOrderbookHandler(monitor OrderbookSource, logger *slog.Logger) *OrderbookHandler {
	return &OrderbookHandler{
		monitor: monitor,
		logger:  logHandler(logger, "orderbook"),
	}
}

type snapshotView struct {
	AssetID    string  `json:"asset_id"`
	MarketName string  `json:"market_name"`
	BestBid    float64 `json:"best_bid"`
	BidSize    float64 `json:"bid_size"`
	BestAsk    float64 `json:"best_ask"`
	AskSize    float64 `json:"ask_size"`
	Spread     float64 `json:"spread"`
	MidPrice   float64 `json:"mid_price"`
	Timestamp  string  `json:"timestamp"`
}

func toSnapshotViews(snaps []domain.OrderbookSnapshot) []snapshotView {
	out := make([]snapshotView, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, snapshotView{
			AssetID:    s.AssetID,
			MarketName: s.MarketName,
			BestBid:    s.BestBid,
			BidSize:    s.BidSize,
			BestAsk:    s.BestAsk,
			AskSize:    s.AskSize,
			Spread:     s.Spread,
			MidPrice:   s.MidPrice,
			Timestamp:  formatTime(s.Timestamp),
		})
	}
	return out
}

// ListOrderbooks returns the current snapshot of every tracked instrument.
// GET /api/orderbooks
func (h *OrderbookHandler) ListOrderbooks(w http.ResponseWriter, r *http.Request) {
	books := h.monitor.Orderbooks()
	writeJSON(w, http.StatusOK, map[string]any{
		"orderbooks": toSnapshotViews(books),
		"count":      len(books),
	})
}

// GetHistory returns retained snapshots for one token, oldest first.
// GET /api/orderbooks/{id}/history
func (h *OrderbookHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing asset id")
		return
	}

	history := h.monitor.History(id)
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "no history for asset")
		return
	}
	limit := parseLimit(r, 0)
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"asset_id": id,
		"history":  toSnapshotViews(history),
		"count":    len(history),
	})
}

type extremeView struct {
	AssetID    string  `json:"asset_id"`
	MarketName string  `json:"market_name"`
	Price      float64 `json:"price"`
	Size       float64 `json:"size"`
	Side       string  `json:"side"`
	Timestamp  string  `json:"timestamp"`
}

func toExtremeViews(records []domain.ExtremeRecord) []extremeView {
	out := make([]extremeView, 0, len(records))
	for _, rec := range records {
		out = append(out, extremeView{
			AssetID:    rec.AssetID,
			MarketName: rec.MarketName,
			Price:      rec.Price,
			Size:       rec.Size,
			Side:       string(rec.Side),
			Timestamp:  formatTime(rec.Timestamp),
		})
	}
	return out
}

// ListExtremes returns the all-time-high and all-time-low records.
// GET /api/extremes
func (h *OrderbookHandler) ListExtremes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ath": toExtremeViews(h.monitor.ATHRecords()),
		"atl": toExtremeViews(h.monitor.ATLRecords()),
	})
}
