package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stackwatcher/stack-watcher/pkg/backend"
	"github.com/stackwatcher/stack-watcher/pkg/marketdata"
	"github.com/stackwatcher/stack-watcher/pkg/period"
	"github.com/stackwatcher/stack-watcher/pkg/server"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

// newLiveClient serves the real API over httptest so the client is tested
// against the wire format it will actually see.
func newLiveClient(t *testing.T) *Client {
	t.Helper()
	b := backend.New(marketdata.NewGenerator(nil, 9), nil,
		backend.WithClock(func() time.Time { return testNow }))
	srv := httptest.NewServer(server.New(b, server.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second)
}

func TestClientAgainstServer(t *testing.T) {
	c := newLiveClient(t)
	ctx := context.Background()

	batch, err := c.Stocks(ctx, []string{"6326", "9984", "XXXX"}, period.Month)
	if err != nil {
		t.Fatalf("Stocks: %v", err)
	}
	if len(batch.Stocks) != 2 || len(batch.Stocks[0].Points) != 30 {
		t.Errorf("Stocks = %d series", len(batch.Stocks))
	}
	if len(batch.Errors) != 1 || batch.Errors[0].Symbol != "XXXX" {
		t.Errorf("Errors = %+v", batch.Errors)
	}

	stock, err := c.Stock(ctx, "1377", period.Week)
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if stock.Name != "Sakata Seed" {
		t.Errorf("Stock name = %q", stock.Name)
	}

	idx, err := c.Index(ctx, "^N225", period.Week)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if idx.Symbol != "^N225" || len(idx.Points) != 7 {
		t.Errorf("Index = %s, %d points", idx.Symbol, len(idx.Points))
	}

	all, err := c.Indices(ctx, period.Quarter)
	if err != nil {
		t.Fatalf("Indices: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Indices = %d", len(all))
	}

	w, err := c.Weather(ctx, "tokyo", period.Week)
	if err != nil {
		t.Fatalf("Weather: %v", err)
	}
	if len(w.Points) != 7 || w.Points[6].Date.String() != "2026-03-08" {
		t.Errorf("Weather points = %d", len(w.Points))
	}

	syms, err := c.StockSymbols(ctx)
	if err != nil || len(syms) != 3 {
		t.Errorf("StockSymbols = %v, %v", syms, err)
	}
	isyms, err := c.IndexSymbols(ctx)
	if err != nil || len(isyms) != 3 {
		t.Errorf("IndexSymbols = %v, %v", isyms, err)
	}
	locs, err := c.WeatherLocations(ctx)
	if err != nil || len(locs) != 1 {
		t.Errorf("WeatherLocations = %v, %v", locs, err)
	}
}

func TestClientAPIErrors(t *testing.T) {
	c := newLiveClient(t)

	_, err := c.Stocks(context.Background(), nil, "3n")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "did you mean") {
		t.Errorf("Message = %q", apiErr.Message)
	}

	_, err = c.Index(context.Background(), "NOPE", period.Week)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("Index err = %v, want 404", err)
	}
}

func TestClientUnsuccessfulEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"data":null,"error":"maintenance"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).Indices(context.Background(), period.Week)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Message != "maintenance" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestClientPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).WeatherLocations(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "Bad Gateway" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClientQueryEncoding(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RequestURI()
		_, _ = io.WriteString(w, `{"success":true,"data":{"stocks":[]}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	if _, err := c.Stocks(context.Background(), []string{"6326", "9984"}, period.Month); err != nil {
		t.Fatalf("Stocks: %v", err)
	}
	if got != "/api/v1/stocks?period=1m&symbols=6326%2C9984" {
		t.Errorf("request URI = %q", got)
	}
	if c.BaseURL() != srv.URL {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
}
