package handler

import (
	"log/slog"
	"net/http"

	"github.com/polysport/arbmon/internal/domain"
)

// ExecutionSource provides the execution engine's log and counters.
type ExecutionSource interface {
	Executions(limit int) []domain.ExecutionResult
	ExecutionStats() domain.ExecutionStats
}

// ExecutionHandler serves the execution log and stats.
type ExecutionHandler struct {
	monitor ExecutionSource
	logger  *slog.Logger
}

// NewExecutionHandler creates an ExecutionHandler.
func NewExecutionHandler(monitor ExecutionSource, logger *slog.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		monitor: monitor,
		logger:  logHandler(logger, "execution"),
	}
}

type executionLegView struct {
	TokenID string  `json:"token_id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Stake   float64 `json:"stake"`
	Shares  float64 `json:"shares"`
	OrderID string  `json:"order_id,omitempty"`
}

type executionView struct {
	ID          string             `json:"id"`
	Opportunity opportunityView    `json:"opportunity"`
	Bankroll    float64            `json:"bankroll"`
	Legs        []executionLegView `json:"legs"`
	Success     bool               `json:"success"`
	Error       string             `json:"error,omitempty"`
	Timestamp   string             `json:"timestamp"`
}

func toExecutionViews(results []domain.ExecutionResult) []executionView {
	out := make([]executionView, 0, len(results))
	for _, res := range results {
		legs := make([]executionLegView, 0, len(res.Legs))
		for _, leg := range res.Legs {
			legs = append(legs, executionLegView{
				TokenID: leg.TokenID,
				Name:    leg.Name,
				Price:   leg.Price,
				Stake:   leg.Stake,
				Shares:  leg.Shares,
				OrderID: leg.OrderID,
			})
		}
		out = append(out, executionView{
			ID:          res.ID,
			Opportunity: toOpportunityView(res.Opportunity),
			Bankroll:    res.Bankroll,
			Legs:        legs,
			Success:     res.Success,
			Error:       res.Error,
			Timestamp:   formatTime(res.Timestamp),
		})
	}
	return out
}

// ListExecutions returns recent execution results, oldest first.
// GET /api/executions?limit=100
func (h *ExecutionHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)
	results := h.monitor.Executions(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"executions": toExecutionViews(results),
		"count":      len(results),
	})
}

// GetStats returns the execution engine's running counters.
// GET /api/executions/stats
func (h *ExecutionHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.monitor.ExecutionStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_executions":   stats.TotalExecutions,
		"successful_trades":  stats.SuccessfulTrades,
		"failed_trades":      stats.FailedTrades,
		"expected_profit":    stats.ExpectedProfit,
		"auto_execute":       stats.AutoExecute,
		"bankroll":           stats.Bankroll,
		"min_profit_percent": stats.MinProfitPercent,
	})
}
