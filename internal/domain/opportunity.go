package domain

import "time"

// MarketCategory classifies a market within an event by the kind of
// question it asks.
type MarketCategory string

const (
	CategoryMoneyline MarketCategory = "moneyline"
	CategorySpread    MarketCategory = "spread"
	CategoryTotal     MarketCategory = "total"
)

// TotalRecord is one entry in the append-only log of combined best-ask sums
// for an outcome pair. A record is appended only when the sum moves by more
// than the detector's epsilon relative to the previously recorded sum for
// the same group key.
type TotalRecord struct {
	GroupKey   string
	EventTitle string
	Category   MarketCategory
	Leg1Name   string
	Leg1Price  float64
	Leg2Name   string
	Leg2Price  float64
	Sum        float64
	IsBest     bool // sum < 1.0
	Timestamp  time.Time
}

// OpportunityLeg is one side of an arbitrage opportunity.
type OpportunityLeg struct {
	TokenID string
	Name    string
	Price   float64
}

// ArbitrageOpportunity is a set of mutually exclusive outcomes whose
// combined best-ask price sums to less than one dollar.
type ArbitrageOpportunity struct {
	ID            string
	EventTitle    string
	Category      MarketCategory
	Legs          []OpportunityLeg
	Sum           float64
	ProfitPercent float64 // (1 - Sum) / Sum * 100
	DetectedAt    time.Time
}
