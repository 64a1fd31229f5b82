package domain

import "time"

// Side identifies which half of the book a price belongs to.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderbookSnapshot is the top-of-book state for one outcome token at a
// point in time. Snapshots are immutable once created.
type OrderbookSnapshot struct {
	AssetID    string
	MarketName string
	BestBid    float64
	BidSize    float64
	BestAsk    float64
	AskSize    float64
	Spread     float64
	MidPrice   float64
	Timestamp  time.Time
}

// NewSnapshot builds a snapshot with the derived spread and mid price filled
// in. All other constructors in the codebase go through this so the derived
// fields can never drift from the inputs.
func NewSnapshot(assetID, marketName string, bestBid, bidSize, bestAsk, askSize float64, ts time.Time) OrderbookSnapshot {
	return OrderbookSnapshot{
		AssetID:    assetID,
		MarketName: marketName,
		BestBid:    bestBid,
		BidSize:    bidSize,
		BestAsk:    bestAsk,
		AskSize:    askSize,
		Spread:     bestAsk - bestBid,
		MidPrice:   (bestBid + bestAsk) / 2,
		Timestamp:  ts,
	}
}

// ExtremeRecord is the all-time-high or all-time-low price observed for one
// (asset, side) pair since monitoring began, with the size and time it was
// set. ATH prices are non-decreasing and ATL prices non-increasing for a
// given key; an equal price never replaces the existing record.
type ExtremeRecord struct {
	AssetID    string
	MarketName string
	Price      float64
	Size       float64
	Side       Side
	Timestamp  time.Time
}
