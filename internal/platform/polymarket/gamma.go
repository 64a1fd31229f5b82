package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/polysport/arbmon/internal/domain"
)

// sportSlugKeywords identify sports events by their URL slug. Discovery
// keeps an event when any keyword appears in the slug.
var sportSlugKeywords = []string{"mlb", "nfl", "nba", "nhl", "soccer", "football", "tennis", "ufc", "mma"}

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides event and market discovery.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// EventByID returns a single event by its Gamma ID.
func (g *GammaClient) EventByID(ctx context.Context, id string) (domain.Event, error) {
	path := fmt.Sprintf("/events/%s", url.PathEscape(id))

	body, err := g.doGet(ctx, path)
	if err != nil {
		return domain.Event{}, fmt.Errorf("polymarket/gamma: get event %s: %w", id, err)
	}

	var event APIEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return domain.Event{}, fmt.Errorf("polymarket/gamma: decode event: %w", err)
	}

	return event.ToDomainEvent(), nil
}

// EventBySlug returns a single event looked up by its URL slug.
func (g *GammaClient) EventBySlug(ctx context.Context, slug string) (domain.Event, error) {
	params := url.Values{}
	params.Set("slug", slug)

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return domain.Event{}, fmt.Errorf("polymarket/gamma: get event by slug %s: %w", slug, err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return domain.Event{}, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}
	if len(events) == 0 {
		return domain.Event{}, fmt.Errorf("polymarket/gamma: %w: slug=%s", domain.ErrNotFound, slug)
	}

	return events[0].ToDomainEvent(), nil
}

// UpcomingSportsEvents returns open events whose slug matches a known sport,
// sorted by the Gamma API's default ordering. limit caps the page size
// requested from the API; the sports filter is applied client-side.
func (g *GammaClient) UpcomingSportsEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("closed", "false")
	params.Set("active", "true")

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: list events: %w", err)
	}

	var apiEvents []APIEvent
	if err := json.Unmarshal(body, &apiEvents); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}

	var out []domain.Event
	for i := range apiEvents {
		if apiEvents[i].Closed || !bool(apiEvents[i].Active) {
			continue
		}
		if !IsSportsSlug(apiEvents[i].Slug) {
			continue
		}
		ev := apiEvents[i].ToDomainEvent()
		if len(ev.Markets) == 0 {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// IsSportsSlug reports whether the event slug belongs to a tracked sport.
func IsSportsSlug(slug string) bool {
	lower := strings.ToLower(slug)
	for _, kw := range sportSlugKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
