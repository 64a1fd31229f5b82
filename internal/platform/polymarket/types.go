package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/polysport/arbmon/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// jsonStringList unmarshals Gamma fields that arrive as a JSON array encoded
// inside a JSON string, e.g. "[\"Yes\",\"No\"]". A plain array is accepted too.
type jsonStringList []string

func (l *jsonStringList) UnmarshalJSON(data []byte) error {
	var direct []string
	if err := json.Unmarshal(data, &direct); err == nil {
		*l = direct
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	if encoded == "" {
		*l = nil
		return nil
	}
	var inner []string
	if err := json.Unmarshal([]byte(encoded), &inner); err != nil {
		return err
	}
	*l = inner
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets.
type APIEvent struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Active    flexBool    `json:"active"`
	Closed    bool        `json:"closed"`
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Markets   []APIMarket `json:"markets"`
}

// ToDomainEvent converts an APIEvent to a domain.Event. Markets without
// orderbook token IDs are dropped; they cannot be monitored.
func (e *APIEvent) ToDomainEvent() domain.Event {
	ev := domain.Event{
		ID:    e.ID,
		Title: e.Title,
		Slug:  e.Slug,
	}
	if t, err := time.Parse(time.RFC3339, e.StartDate); err == nil {
		ev.StartTime = t
	}
	if t, err := time.Parse(time.RFC3339, e.EndDate); err == nil {
		ev.EndTime = t
	}
	for i := range e.Markets {
		m := e.Markets[i].ToDomainMarket()
		if len(m.TokenIDs) == 0 {
			continue
		}
		ev.Markets = append(ev.Markets, m)
	}
	return ev
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Outcomes and ClobTokenIDs arrive as JSON arrays encoded inside strings.
type APIMarket struct {
	ID           string         `json:"id"`
	Question     string         `json:"question"`
	ConditionID  string         `json:"conditionId"`
	Slug         string         `json:"slug"`
	Active       flexBool       `json:"active"`
	Closed       bool           `json:"closed"`
	Outcomes     jsonStringList `json:"outcomes"`
	ClobTokenIDs jsonStringList `json:"clobTokenIds"`
}

// ToDomainMarket converts a Gamma APIMarket to a domain.Market. The token
// and outcome lists are truncated to their common length so the parallel
// invariant on domain.Market always holds.
func (m *APIMarket) ToDomainMarket() domain.Market {
	n := len(m.ClobTokenIDs)
	if len(m.Outcomes) < n {
		n = len(m.Outcomes)
	}
	return domain.Market{
		ID:       m.ID,
		Question: m.Question,
		TokenIDs: append([]string(nil), m.ClobTokenIDs[:n]...),
		Outcomes: append([]string(nil), m.Outcomes[:n]...),
	}
}

// --------------------------------------------------------------------------
// CLOB REST DTOs
// --------------------------------------------------------------------------

// APIBook is an orderbook as returned by the CLOB REST /book endpoint and
// by "book" events on the market WebSocket channel.
type APIBook struct {
	EventType string         `json:"event_type,omitempty"`
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
}

// APIBookLevel is a single price level; prices and sizes are decimal strings.
type APIBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg,omitempty"`
	OrderID  string `json:"orderID,omitempty"`
	Status   string `json:"status,omitempty"`
}

// BestLevels extracts the top of book: the highest bid and the lowest ask.
// Asks are scanned for the minimum rather than trusting any server-side
// ordering. ok is false when either side of the book is empty or
// unparseable.
func (b *APIBook) BestLevels() (bid, ask domain.PriceLevel, ok bool) {
	for _, lvl := range b.Bids {
		p, perr := strconv.ParseFloat(lvl.Price, 64)
		s, serr := strconv.ParseFloat(lvl.Size, 64)
		if perr != nil || serr != nil {
			continue
		}
		if p > bid.Price {
			bid = domain.PriceLevel{Price: p, Size: s}
		}
	}
	for _, lvl := range b.Asks {
		p, perr := strconv.ParseFloat(lvl.Price, 64)
		s, serr := strconv.ParseFloat(lvl.Size, 64)
		if perr != nil || serr != nil {
			continue
		}
		if ask.Price == 0 || p < ask.Price {
			ask = domain.PriceLevel{Price: p, Size: s}
		}
	}
	return bid, ask, bid.Price > 0 && ask.Price > 0
}

// Snapshot converts the book to a domain snapshot under the given display
// name. ok is false when the book has no usable top of book.
func (b *APIBook) Snapshot(marketName string, now time.Time) (domain.OrderbookSnapshot, bool) {
	bid, ask, ok := b.BestLevels()
	if !ok {
		return domain.OrderbookSnapshot{}, false
	}
	ts := now
	if ms, err := strconv.ParseInt(b.Timestamp, 10, 64); err == nil && ms > 0 {
		ts = time.UnixMilli(ms)
	}
	return domain.NewSnapshot(b.AssetID, marketName, bid.Price, bid.Size, ask.Price, ask.Size, ts), true
}

// --------------------------------------------------------------------------
// WebSocket subscription commands
// --------------------------------------------------------------------------

// WSCommand is the JSON payload sent on connect to subscribe the market
// channel to a set of outcome tokens.
type WSCommand struct {
	AssetIDs []string `json:"assets_ids"`
	Type     string   `json:"type"`
}

// NewMarketSubscription builds the subscribe command for the market channel.
func NewMarketSubscription(assetIDs []string) WSCommand {
	return WSCommand{AssetIDs: assetIDs, Type: "market"}
}

// ParseWSFrame decodes one WebSocket frame into book events. The server
// sends the initial state as a JSON array of books and later updates as
// single objects; both shapes are handled. Non-book events are skipped.
func ParseWSFrame(data []byte) ([]APIBook, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	var raw []APIBook
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	} else {
		var one APIBook
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, err
		}
		raw = []APIBook{one}
	}

	books := raw[:0]
	for _, b := range raw {
		if b.EventType != "" && b.EventType != "book" {
			continue
		}
		if b.AssetID == "" {
			continue
		}
		books = append(books, b)
	}
	return books, nil
}
