// Package client talks to the Stack Watcher data API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stackwatcher/stack-watcher/pkg/models"
	"github.com/stackwatcher/stack-watcher/pkg/period"
)

// DefaultBaseURL is where a locally served API listens.
const DefaultBaseURL = "http://localhost:8000"

// APIError is returned for non-2xx responses and for envelopes that report
// success=false.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %s: %d %s", e.Path, e.StatusCode, e.Message)
}

// Client is an HTTP implementation of the dashboard data source. It is safe
// for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A zero timeout means 10 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StockSymbols calls GET /api/v1/stocks/symbols.
func (c *Client) StockSymbols(ctx context.Context) ([]models.SymbolInfo, error) {
	return get[[]models.SymbolInfo](ctx, c, "/api/v1/stocks/symbols", nil)
}

// Stocks calls GET /api/v1/stocks. Symbols the server could not serve come
// back in the batch's Errors.
func (c *Client) Stocks(ctx context.Context, symbols []string, p period.ID) (models.StockBatch, error) {
	q := periodQuery(p)
	if len(symbols) > 0 {
		q.Set("symbols", strings.Join(symbols, ","))
	}
	return get[models.StockBatch](ctx, c, "/api/v1/stocks", q)
}

// Stock calls GET /api/v1/stocks/{symbol}.
func (c *Client) Stock(ctx context.Context, symbol string, p period.ID) (models.StockSeries, error) {
	return get[models.StockSeries](ctx, c, "/api/v1/stocks/"+url.PathEscape(symbol), periodQuery(p))
}

// IndexSymbols calls GET /api/v1/indices/symbols.
func (c *Client) IndexSymbols(ctx context.Context) ([]models.IndexInfo, error) {
	return get[[]models.IndexInfo](ctx, c, "/api/v1/indices/symbols", nil)
}

// Indices calls GET /api/v1/indices.
func (c *Client) Indices(ctx context.Context, p period.ID) ([]models.IndexSeries, error) {
	return get[[]models.IndexSeries](ctx, c, "/api/v1/indices", periodQuery(p))
}

// Index calls GET /api/v1/indices/{symbol}.
func (c *Client) Index(ctx context.Context, symbol string, p period.ID) (models.IndexSeries, error) {
	return get[models.IndexSeries](ctx, c, "/api/v1/indices/"+url.PathEscape(symbol), periodQuery(p))
}

// WeatherLocations calls GET /api/v1/weather/locations.
func (c *Client) WeatherLocations(ctx context.Context) ([]models.Location, error) {
	return get[[]models.Location](ctx, c, "/api/v1/weather/locations", nil)
}

// Weather calls GET /api/v1/weather.
func (c *Client) Weather(ctx context.Context, location string, p period.ID) (models.WeatherSeries, error) {
	q := periodQuery(p)
	if location != "" {
		q.Set("location", location)
	}
	return get[models.WeatherSeries](ctx, c, "/api/v1/weather", q)
}

func periodQuery(p period.ID) url.Values {
	q := url.Values{}
	if p != "" {
		q.Set("period", string(p))
	}
	return q
}

// problem is the error body the server writes for failed requests.
type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func get[T any](ctx context.Context, c *Client, path string, q url.Values) (T, error) {
	var zero T

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, fmt.Errorf("client: build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("client: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return zero, fmt.Errorf("client: read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		var p problem
		if json.Unmarshal(body, &p) == nil && (p.Detail != "" || p.Title != "") {
			msg = p.Detail
			if msg == "" {
				msg = p.Title
			}
		}
		return zero, &APIError{StatusCode: resp.StatusCode, Path: path, Message: msg}
	}

	var env models.Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("client: decode %s: %w", path, err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return zero, &APIError{StatusCode: resp.StatusCode, Path: path, Message: msg}
	}
	return env.Data, nil
}
