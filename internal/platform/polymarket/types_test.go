package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestLevels_PicksMaxBidAndMinAsk(t *testing.T) {
	// Asks arrive unsorted; the lowest ask must win regardless of order.
	book := APIBook{
		AssetID: "tok",
		Bids: []APIBookLevel{
			{Price: "0.45", Size: "100"},
			{Price: "0.47", Size: "50"},
			{Price: "0.40", Size: "200"},
		},
		Asks: []APIBookLevel{
			{Price: "0.53", Size: "80"},
			{Price: "0.49", Size: "30"},
			{Price: "0.51", Size: "60"},
		},
	}

	bid, ask, ok := book.BestLevels()
	require.True(t, ok)
	assert.Equal(t, 0.47, bid.Price)
	assert.Equal(t, 50.0, bid.Size)
	assert.Equal(t, 0.49, ask.Price)
	assert.Equal(t, 30.0, ask.Size)
}

func TestBestLevels_EmptySide(t *testing.T) {
	book := APIBook{
		AssetID: "tok",
		Bids:    []APIBookLevel{{Price: "0.45", Size: "100"}},
	}
	_, _, ok := book.BestLevels()
	assert.False(t, ok)
}

func TestBestLevels_SkipsUnparseableLevels(t *testing.T) {
	book := APIBook{
		AssetID: "tok",
		Bids: []APIBookLevel{
			{Price: "garbage", Size: "100"},
			{Price: "0.42", Size: "10"},
		},
		Asks: []APIBookLevel{{Price: "0.55", Size: "5"}},
	}
	bid, ask, ok := book.BestLevels()
	require.True(t, ok)
	assert.Equal(t, 0.42, bid.Price)
	assert.Equal(t, 0.55, ask.Price)
}

func TestSnapshot_DerivedFields(t *testing.T) {
	now := time.Now()
	book := APIBook{
		AssetID:   "tok",
		Bids:      []APIBookLevel{{Price: "0.45", Size: "100"}},
		Asks:      []APIBookLevel{{Price: "0.49", Size: "80"}},
		Timestamp: "1756400000000",
	}

	snap, ok := book.Snapshot("Game - Team A", now)
	require.True(t, ok)
	assert.Equal(t, "tok", snap.AssetID)
	assert.Equal(t, "Game - Team A", snap.MarketName)
	assert.InDelta(t, 0.04, snap.Spread, 1e-9)
	assert.InDelta(t, 0.47, snap.MidPrice, 1e-9)
	assert.Equal(t, time.UnixMilli(1756400000000), snap.Timestamp)

	// Missing server timestamp falls back to the caller's clock.
	book.Timestamp = ""
	snap, ok = book.Snapshot("Game - Team A", now)
	require.True(t, ok)
	assert.Equal(t, now, snap.Timestamp)
}

func TestParseWSFrame_ArrayAndObject(t *testing.T) {
	array := `[
		{"event_type":"book","asset_id":"a","bids":[{"price":"0.4","size":"1"}],"asks":[{"price":"0.6","size":"1"}]},
		{"event_type":"book","asset_id":"b","bids":[],"asks":[]}
	]`
	books, err := ParseWSFrame([]byte(array))
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "a", books[0].AssetID)

	object := `{"event_type":"book","asset_id":"c","bids":[],"asks":[]}`
	books, err = ParseWSFrame([]byte(object))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "c", books[0].AssetID)
}

func TestParseWSFrame_SkipsNonBookEvents(t *testing.T) {
	frame := `[
		{"event_type":"price_change","asset_id":"a"},
		{"event_type":"book","asset_id":"b"},
		{"event_type":"last_trade_price","asset_id":"c"},
		{"event_type":"book"}
	]`
	books, err := ParseWSFrame([]byte(frame))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "b", books[0].AssetID)
}

func TestParseWSFrame_Malformed(t *testing.T) {
	_, err := ParseWSFrame([]byte(`{not json`))
	assert.Error(t, err)

	books, err := ParseWSFrame([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestAPIMarket_StringEncodedLists(t *testing.T) {
	raw := `{
		"id": "m1",
		"question": "Yankees vs Red Sox",
		"outcomes": "[\"Yankees\",\"Red Sox\"]",
		"clobTokenIds": "[\"111\",\"222\"]"
	}`
	var m APIMarket
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	dm := m.ToDomainMarket()
	assert.Equal(t, []string{"111", "222"}, dm.TokenIDs)
	assert.Equal(t, []string{"Yankees", "Red Sox"}, dm.Outcomes)
}

func TestAPIMarket_MismatchedListsTruncated(t *testing.T) {
	var m APIMarket
	raw := `{"id":"m1","question":"Q","outcomes":"[\"A\"]","clobTokenIds":"[\"111\",\"222\"]"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	dm := m.ToDomainMarket()
	assert.Equal(t, []string{"111"}, dm.TokenIDs)
	assert.Equal(t, []string{"A"}, dm.Outcomes)
}

func TestAPIEvent_ToDomainEventDropsTokenlessMarkets(t *testing.T) {
	raw := `{
		"id": "ev1",
		"title": "Yankees vs Red Sox",
		"slug": "mlb-nyy-bos",
		"active": "true",
		"startDate": "2026-08-29T23:00:00Z",
		"markets": [
			{"id":"m1","question":"Q1","outcomes":"[\"A\",\"B\"]","clobTokenIds":"[\"1\",\"2\"]"},
			{"id":"m2","question":"Q2","outcomes":"[]","clobTokenIds":"[]"}
		]
	}`
	var e APIEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	ev := e.ToDomainEvent()
	assert.Equal(t, "ev1", ev.ID)
	require.Len(t, ev.Markets, 1)
	assert.Equal(t, "m1", ev.Markets[0].ID)
	assert.Equal(t, 2026, ev.StartTime.Year())
}

func TestIsSportsSlug(t *testing.T) {
	assert.True(t, IsSportsSlug("mlb-nyy-bos-2026-08-29"))
	assert.True(t, IsSportsSlug("UFC-fight-night"))
	assert.False(t, IsSportsSlug("presidential-election-2028"))
}

func TestNewMarketSubscription_Payload(t *testing.T) {
	cmd := NewMarketSubscription([]string{"1", "2"})
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t, `{"assets_ids":["1","2"],"type":"market"}`, string(data))
}
