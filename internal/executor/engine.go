package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polysport/arbmon/internal/domain"
	"github.com/polysport/arbmon/internal/stake"
)

// TradingClient is the interface through which the engine submits orders to
// the exchange. CreateOrder buys size shares of the given token at the given
// limit price and returns the exchange order ID.
type TradingClient interface {
	CreateOrder(ctx context.Context, tokenID string, price, size float64) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Engine places both legs of a detected two-leg arbitrage. Leg placement is
// sequential: when the first leg fails nothing has been committed and the
// execution aborts; when the second leg fails the engine makes a best-effort
// cancel of the already placed first leg before recording the failure.
//
// The engine keeps an append-only log of every attempt, successful or not,
// capped at maxResults entries. It is not safe for concurrent use; the
// monitor serializes calls to it.
type Engine struct {
	client  TradingClient
	logger  *slog.Logger
	enabled bool

	autoExecute      bool
	bankroll         float64
	minProfitPercent float64

	maxResults int
	results    []domain.ExecutionResult

	total      int
	successful int
	failed     int
	profit     float64
}

// New builds an engine. A nil client permanently disables execution: the
// engine still evaluates and records nothing, and ShouldExecute always
// returns false. Enabling trading later requires constructing a new engine.
func New(client TradingClient, autoExecute bool, bankroll, minProfitPercent float64, maxResults int, logger *slog.Logger) *Engine {
	e := &Engine{
		client:           client,
		logger:           logger.With(slog.String("component", "executor")),
		enabled:          client != nil,
		autoExecute:      autoExecute,
		bankroll:         bankroll,
		minProfitPercent: minProfitPercent,
		maxResults:       maxResults,
	}
	if !e.enabled && autoExecute {
		e.logger.Warn("auto-execute requested but no trading client configured, execution disabled")
	}
	return e
}

// ShouldExecute reports whether the engine would act on the opportunity:
// auto-execute is on, a trading client exists, the pair sums to under a
// dollar, and the profit clears the configured floor.
func (e *Engine) ShouldExecute(opp domain.ArbitrageOpportunity) bool {
	if !e.enabled || !e.autoExecute {
		return false
	}
	if opp.Sum >= 1.0 {
		return false
	}
	return opp.ProfitPercent >= e.minProfitPercent
}

// Execute places both legs of the opportunity and records the outcome. The
// returned result is the same entry appended to the log.
func (e *Engine) Execute(ctx context.Context, opp domain.ArbitrageOpportunity) domain.ExecutionResult {
	result := domain.ExecutionResult{
		ID:          uuid.New().String(),
		Opportunity: opp,
		Bankroll:    e.bankroll,
		Timestamp:   time.Now().UTC(),
	}

	if !e.enabled {
		result.Error = "trading client not configured"
		return e.record(result)
	}
	if len(opp.Legs) != 2 {
		result.Error = fmt.Sprintf("expected 2 legs, got %d", len(opp.Legs))
		return e.record(result)
	}

	s1, s2, err := stake.Split2(opp.Legs[0].Price, opp.Legs[1].Price, e.bankroll)
	if err != nil {
		result.Error = fmt.Sprintf("stake split: %v", err)
		return e.record(result)
	}

	legs := []domain.ExecutionLeg{
		{TokenID: opp.Legs[0].TokenID, Name: opp.Legs[0].Name, Price: opp.Legs[0].Price, Stake: s1, Shares: s1 / opp.Legs[0].Price},
		{TokenID: opp.Legs[1].TokenID, Name: opp.Legs[1].Name, Price: opp.Legs[1].Price, Stake: s2, Shares: s2 / opp.Legs[1].Price},
	}

	log := e.logger.With(
		slog.String("execution_id", result.ID),
		slog.String("event", opp.EventTitle),
		slog.Float64("sum", opp.Sum),
	)
	log.Info("executing arbitrage",
		slog.Float64("stake_leg1", s1),
		slog.Float64("stake_leg2", s2),
		slog.Float64("profit_percent", opp.ProfitPercent),
	)

	orderID1, err := e.client.CreateOrder(ctx, legs[0].TokenID, legs[0].Price, legs[0].Shares)
	if err != nil {
		log.Error("leg 1 order failed, aborting", slog.String("error", err.Error()))
		result.Legs = legs
		result.Error = fmt.Sprintf("leg 1: %v", err)
		return e.record(result)
	}
	legs[0].OrderID = orderID1

	orderID2, err := e.client.CreateOrder(ctx, legs[1].TokenID, legs[1].Price, legs[1].Shares)
	if err != nil {
		log.Error("leg 2 order failed, cancelling leg 1",
			slog.String("error", err.Error()),
			slog.String("leg1_order_id", orderID1),
		)
		if cerr := e.client.CancelOrder(ctx, orderID1); cerr != nil {
			log.Error("leg 1 cancel failed, position may be exposed",
				slog.String("order_id", orderID1),
				slog.String("error", cerr.Error()),
			)
		}
		result.Legs = legs
		result.Error = fmt.Sprintf("leg 2: %v", err)
		return e.record(result)
	}
	legs[1].OrderID = orderID2

	result.Legs = legs
	result.Success = true
	log.Info("arbitrage executed",
		slog.String("leg1_order_id", orderID1),
		slog.String("leg2_order_id", orderID2),
	)
	return e.record(result)
}

// record appends the result to the capped log and updates the counters.
func (e *Engine) record(result domain.ExecutionResult) domain.ExecutionResult {
	e.results = append(e.results, result)
	if e.maxResults > 0 && len(e.results) > e.maxResults {
		e.results = e.results[len(e.results)-e.maxResults:]
	}
	e.total++
	if result.Success {
		e.successful++
		if p, err := stake.Profit([]float64{result.Opportunity.Legs[0].Price, result.Opportunity.Legs[1].Price}, result.Bankroll); err == nil {
			e.profit += p
		}
	} else {
		e.failed++
	}
	return result
}

// Results returns up to limit most recent execution results, oldest first.
// limit <= 0 returns the whole log.
func (e *Engine) Results(limit int) []domain.ExecutionResult {
	out := e.results
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	cp := make([]domain.ExecutionResult, len(out))
	copy(cp, out)
	return cp
}

// Stats returns the engine's running counters and configuration.
func (e *Engine) Stats() domain.ExecutionStats {
	return domain.ExecutionStats{
		TotalExecutions:  e.total,
		SuccessfulTrades: e.successful,
		FailedTrades:     e.failed,
		ExpectedProfit:   e.profit,
		AutoExecute:      e.autoExecute && e.enabled,
		Bankroll:         e.bankroll,
		MinProfitPercent: e.minProfitPercent,
	}
}
