package domain

import "time"

// Market is one tradable question inside an event. TokenIDs and Outcomes
// are parallel: TokenIDs[i] is the outcome token for Outcomes[i].
type Market struct {
	ID       string
	Question string
	TokenIDs []string
	Outcomes []string
}

// Event groups the markets for one real-world match.
type Event struct {
	ID        string
	Title     string
	Slug      string
	StartTime time.Time
	EndTime   time.Time
	Markets   []Market
}

// Status is a summary of the monitor's current operational state.
type Status struct {
	Running          bool
	Mode             string
	SubscribedEvents int
	Instruments      int
	ExtremeRecords   int
	TotalUpdates     int
	AvgLatencyMs     float64
}
