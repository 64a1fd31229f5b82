package handler

import (
	"log/slog"
	"net/http"

	"github.com/polysport/arbmon/internal/domain"
)

// ArbSource provides the detector's records to the arbitrage handler.
type ArbSource interface {
	TotalRecords(limit int) []domain.TotalRecord
	Opportunities(limit int) []domain.ArbitrageOpportunity
}

// ArbHandler serves pair totals and detected arbitrage opportunities.
type ArbHandler struct {
	monitor ArbSource
	logger  *slog.Logger
}

// NewArbHandler creates an ArbHandler.
func NewArbHandler(monitor ArbSource, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{
		monitor: monitor,
		logger:  logHandler(logger, "arbitrage"),
	}
}

type totalView struct {
	GroupKey   string  `json:"group_key"`
	EventTitle string  `json:"event_title"`
	Category   string  `json:"category"`
	Leg1Name   string  `json:"leg1_name"`
	Leg1Price  float64 `json:"leg1_price"`
	Leg2Name   string  `json:"leg2_name"`
	Leg2Price  float64 `json:"leg2_price"`
	Sum        float64 `json:"sum"`
	IsBest     bool    `json:"is_best"`
	Timestamp  string  `json:"timestamp"`
}

func toTotalViews(records []domain.TotalRecord) []totalView {
	out := make([]totalView, 0, len(records))
	for _, rec := range records {
		out = append(out, totalView{
			GroupKey:   rec.GroupKey,
			EventTitle: rec.EventTitle,
			Category:   string(rec.Category),
			Leg1Name:   rec.Leg1Name,
			Leg1Price:  rec.Leg1Price,
			Leg2Name:   rec.Leg2Name,
			Leg2Price:  rec.Leg2Price,
			Sum:        rec.Sum,
			IsBest:     rec.IsBest,
			Timestamp:  formatTime(rec.Timestamp),
		})
	}
	return out
}

type opportunityLegView struct {
	TokenID string  `json:"token_id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
}

type opportunityView struct {
	ID            string               `json:"id"`
	EventTitle    string               `json:"event_title"`
	Category      string               `json:"category"`
	Legs          []opportunityLegView `json:"legs"`
	Sum           float64              `json:"sum"`
	ProfitPercent float64              `json:"profit_percent"`
	DetectedAt    string               `json:"detected_at"`
}

func toOpportunityView(opp domain.ArbitrageOpportunity) opportunityView {
	legs := make([]opportunityLegView, 0, len(opp.Legs))
	for _, leg := range opp.Legs {
		legs = append(legs, opportunityLegView{
			TokenID: leg.TokenID,
			Name:    leg.Name,
			Price:   leg.Price,
		})
	}
	return opportunityView{
		ID:            opp.ID,
		EventTitle:    opp.EventTitle,
		Category:      string(opp.Category),
		Legs:          legs,
		Sum:           opp.Sum,
		ProfitPercent: opp.ProfitPercent,
		DetectedAt:    formatTime(opp.DetectedAt),
	}
}

// ListTotals returns recent pair totals, oldest first.
// GET /api/totals?limit=100
func (h *ArbHandler) ListTotals(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)
	totals := h.monitor.TotalRecords(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"totals": toTotalViews(totals),
		"count":  len(totals),
	})
}

// ListOpportunities returns recent detected arbitrages, oldest first.
// GET /api/opportunities?limit=100
func (h *ArbHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)
	opps := h.monitor.Opportunities(limit)
	views := make([]opportunityView, 0, len(opps))
	for _, opp := range opps {
		views = append(views, toOpportunityView(opp))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": views,
		"count":         len(views),
	})
}
