package domain

import "time"

// ExecutionLeg records the intended and actual outcome for one leg of an
// arbitrage execution. OrderID is empty when the order was never placed or
// was rejected.
type ExecutionLeg struct {
	TokenID string
	Name    string
	Price   float64
	Stake   float64 // dollars committed to this leg
	Shares  float64 // Stake / Price
	OrderID string
}

// ExecutionResult is one entry in the append-only execution log. It is
// never mutated after creation.
type ExecutionResult struct {
	ID          string
	Opportunity ArbitrageOpportunity
	Bankroll    float64
	Legs        []ExecutionLeg
	Success     bool
	Error       string // empty on success
	Timestamp   time.Time
}

// ExecutionStats are running counters derived from the execution log.
type ExecutionStats struct {
	TotalExecutions  int
	SuccessfulTrades int
	FailedTrades     int
	ExpectedProfit   float64 // cumulative guaranteed profit of successful executions
	AutoExecute      bool
	Bankroll         float64
	MinProfitPercent float64
}
