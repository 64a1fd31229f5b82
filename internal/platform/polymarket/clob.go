package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/polysport/arbmon/internal/domain"
)

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API. It serves two roles: fetching orderbooks for the
// polling feed and placing orders for the execution engine. A shared rate
// limiter covers both so a burst of poll cycles cannot starve order
// placement into 429 responses.
type ClobClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// apiKey may be empty for read-only use; order placement then fails with
// ErrUnauthorized. rps caps outgoing requests per second.
func NewClobClient(baseURL, apiKey string, rps float64) *ClobClient {
	if rps <= 0 {
		rps = 20
	}
	return &ClobClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
	}
}

// Book fetches the current orderbook for one outcome token.
func (c *ClobClient) Book(ctx context.Context, tokenID string) (APIBook, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.do(ctx, http.MethodGet, "/book?"+params.Encode(), nil)
	if err != nil {
		return APIBook{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var book APIBook
	if err := json.Unmarshal(body, &book); err != nil {
		return APIBook{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}
	if book.AssetID == "" {
		book.AssetID = tokenID
	}
	return book, nil
}

// CreateOrder submits a marketable limit buy for size shares at the given
// price and returns the exchange order ID. This satisfies the execution
// engine's TradingClient interface.
func (c *ClobClient) CreateOrder(ctx context.Context, tokenID string, price, size float64) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("polymarket/clob: create order: %w: no API key", domain.ErrUnauthorized)
	}

	payload := map[string]any{
		"tokenID":   tokenID,
		"price":     strconv.FormatFloat(price, 'f', -1, 64),
		"size":      strconv.FormatFloat(size, 'f', -1, 64),
		"side":      "BUY",
		"orderType": "FAK",
	}

	body, err := c.do(ctx, http.MethodPost, "/order", payload)
	if err != nil {
		return "", fmt.Errorf("polymarket/clob: create order: %w", err)
	}

	var result APIOrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}
	if !result.Success {
		return "", fmt.Errorf("polymarket/clob: order rejected: %s", result.ErrorMsg)
	}
	return result.OrderID, nil
}

// CancelOrder cancels a single order by its ID.
func (c *ClobClient) CancelOrder(ctx context.Context, orderID string) error {
	if c.apiKey == "" {
		return fmt.Errorf("polymarket/clob: cancel order: %w: no API key", domain.ErrUnauthorized)
	}

	body, err := c.do(ctx, http.MethodDelete, "/order", map[string]any{"orderID": orderID})
	if err != nil {
		return fmt.Errorf("polymarket/clob: cancel order %s: %w", orderID, err)
	}

	var result struct {
		Success  bool   `json:"success"`
		ErrorMsg string `json:"errorMsg"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("polymarket/clob: decode cancel response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("polymarket/clob: cancel failed: %s", result.ErrorMsg)
	}
	return nil
}

// do builds, rate-limits, sends, and reads an HTTP request against the
// CLOB API and returns the raw response body.
func (c *ClobClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("POLY-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
