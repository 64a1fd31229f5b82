package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polysport/arbmon/internal/domain"
)

type fakeClient struct {
	placed    []string // token IDs in placement order
	cancelled []string
	failOn    map[string]error // token ID -> error to return from CreateOrder
	cancelErr error
	nextID    int
}

func (f *fakeClient) CreateOrder(_ context.Context, tokenID string, _, _ float64) (string, error) {
	if err := f.failOn[tokenID]; err != nil {
		return "", err
	}
	f.placed = append(f.placed, tokenID)
	f.nextID++
	return fmt.Sprintf("ord-%d", f.nextID), nil
}

func (f *fakeClient) CancelOrder(_ context.Context, orderID string) error {
	f.cancelled = append(f.cancelled, orderID)
	return f.cancelErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func twoLegOpportunity(p1, p2 float64) domain.ArbitrageOpportunity {
	sum := p1 + p2
	return domain.ArbitrageOpportunity{
		ID:            "opp-1",
		EventTitle:    "Yankees vs Red Sox",
		Category:      domain.CategoryMoneyline,
		Sum:           sum,
		ProfitPercent: (1.0 - sum) / sum * 100,
		Legs: []domain.OpportunityLeg{
			{TokenID: "tokA", Name: "Team A", Price: p1},
			{TokenID: "tokB", Name: "Team B", Price: p2},
		},
		DetectedAt: time.Now(),
	}
}

func TestShouldExecute(t *testing.T) {
	client := &fakeClient{}

	tests := []struct {
		name   string
		engine *Engine
		opp    domain.ArbitrageOpportunity
		want   bool
	}{
		{"profitable pair", New(client, true, 100, 1.0, 100, testLogger()), twoLegOpportunity(0.49, 0.48), true},
		{"below profit floor", New(client, true, 100, 5.0, 100, testLogger()), twoLegOpportunity(0.50, 0.495), false},
		{"sum at one dollar", New(client, true, 100, 0.0, 100, testLogger()), twoLegOpportunity(0.50, 0.50), false},
		{"auto-execute off", New(client, false, 100, 1.0, 100, testLogger()), twoLegOpportunity(0.49, 0.48), false},
		{"no trading client", New(nil, true, 100, 1.0, 100, testLogger()), twoLegOpportunity(0.49, 0.48), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.engine.ShouldExecute(tt.opp))
		})
	}
}

func TestExecute_BothLegsFilled(t *testing.T) {
	client := &fakeClient{}
	e := New(client, true, 100, 1.0, 100, testLogger())

	res := e.Execute(context.Background(), twoLegOpportunity(0.49, 0.48))

	require.True(t, res.Success)
	assert.Empty(t, res.Error)
	require.Len(t, res.Legs, 2)
	assert.Equal(t, "ord-1", res.Legs[0].OrderID)
	assert.Equal(t, "ord-2", res.Legs[1].OrderID)
	assert.Equal(t, []string{"tokA", "tokB"}, client.placed)
	assert.Empty(t, client.cancelled)

	// Stakes follow the equal-payout split of the bankroll.
	assert.InDelta(t, 50.5155, res.Legs[0].Stake, 0.001)
	assert.InDelta(t, 49.4845, res.Legs[1].Stake, 0.001)
	assert.InDelta(t, res.Legs[0].Stake/0.49, res.Legs[0].Shares, 1e-9)

	stats := e.Stats()
	assert.Equal(t, 1, stats.TotalExecutions)
	assert.Equal(t, 1, stats.SuccessfulTrades)
	assert.Equal(t, 0, stats.FailedTrades)
	assert.InDelta(t, 3.0928, stats.ExpectedProfit, 0.001)
}

func TestExecute_FirstLegFailsAbortsWithoutCancel(t *testing.T) {
	client := &fakeClient{failOn: map[string]error{"tokA": errors.New("insufficient balance")}}
	e := New(client, true, 100, 1.0, 100, testLogger())

	res := e.Execute(context.Background(), twoLegOpportunity(0.49, 0.48))

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "leg 1")
	// Nothing was committed, so nothing is cancelled and leg 2 is never sent.
	assert.Empty(t, client.placed)
	assert.Empty(t, client.cancelled)
	assert.Empty(t, res.Legs[0].OrderID)

	stats := e.Stats()
	assert.Equal(t, 1, stats.FailedTrades)
	assert.Zero(t, stats.ExpectedProfit)
}

func TestExecute_SecondLegFailsCancelsFirst(t *testing.T) {
	client := &fakeClient{failOn: map[string]error{"tokB": errors.New("market closed")}}
	e := New(client, true, 100, 1.0, 100, testLogger())

	res := e.Execute(context.Background(), twoLegOpportunity(0.49, 0.48))

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "leg 2")
	assert.Equal(t, []string{"tokA"}, client.placed)
	assert.Equal(t, []string{"ord-1"}, client.cancelled)
	assert.Equal(t, "ord-1", res.Legs[0].OrderID)
	assert.Empty(t, res.Legs[1].OrderID)
}

func TestExecute_CancelFailureStillRecordsLegError(t *testing.T) {
	client := &fakeClient{
		failOn:    map[string]error{"tokB": errors.New("market closed")},
		cancelErr: errors.New("cancel rejected"),
	}
	e := New(client, true, 100, 1.0, 100, testLogger())

	res := e.Execute(context.Background(), twoLegOpportunity(0.49, 0.48))

	// The cancel failure is logged but the recorded error stays the leg 2
	// placement failure.
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "leg 2")
	assert.Equal(t, []string{"ord-1"}, client.cancelled)
}

func TestExecute_DisabledEngineRecordsFailure(t *testing.T) {
	e := New(nil, true, 100, 1.0, 100, testLogger())

	res := e.Execute(context.Background(), twoLegOpportunity(0.49, 0.48))

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not configured")
	assert.Equal(t, 1, e.Stats().FailedTrades)
	assert.False(t, e.Stats().AutoExecute)
}

func TestResults_CappedAndOrdered(t *testing.T) {
	client := &fakeClient{}
	e := New(client, true, 100, 1.0, 3, testLogger())

	for i := 0; i < 5; i++ {
		e.Execute(context.Background(), twoLegOpportunity(0.49, 0.48))
	}

	results := e.Results(0)
	require.Len(t, results, 3)
	assert.Equal(t, 5, e.Stats().TotalExecutions)
	assert.Len(t, e.Results(2), 2)
}
