// Package server exposes the dashboard data API over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stackwatcher/stack-watcher/pkg/backend"
	"github.com/stackwatcher/stack-watcher/pkg/cache"
	"github.com/stackwatcher/stack-watcher/pkg/marketdata"
	"github.com/stackwatcher/stack-watcher/pkg/models"
	"github.com/stackwatcher/stack-watcher/pkg/period"
	"github.com/stackwatcher/stack-watcher/pkg/weather"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Service is the data source behind the API.
type Service interface {
	StockSymbols(ctx context.Context) ([]models.SymbolInfo, error)
	Stocks(ctx context.Context, symbols []string, p period.ID) (models.StockBatch, error)
	Stock(ctx context.Context, symbol string, p period.ID) (models.StockSeries, error)
	IndexSymbols(ctx context.Context) ([]models.IndexInfo, error)
	Indices(ctx context.Context, p period.ID) ([]models.IndexSeries, error)
	Index(ctx context.Context, symbol string, p period.ID) (models.IndexSeries, error)
	WeatherLocations(ctx context.Context) ([]models.Location, error)
	Weather(ctx context.Context, location string, p period.ID) (models.WeatherSeries, error)
}

// Options tune the handler.
type Options struct {
	Logger *slog.Logger

	// Now stamps lastUpdated. Nil means time.Now.
	Now func() time.Time

	// CacheStats, when set, is reported by /health.
	CacheStats func() cache.Stats
}

// New returns the API handler.
func New(svc Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(opts.Logger))
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Stack Watcher API", Version)
	api := humachi.New(router, cfg)

	h := &handlers{svc: svc, now: opts.Now}
	registerMetaHandlers(api, opts.CacheStats)
	registerStockHandlers(api, h)
	registerIndexHandlers(api, h)
	registerWeatherHandlers(api, h)

	return router
}

type handlers struct {
	svc Service
	now func() time.Time
}

func envelope[T any](h *handlers, data T, p period.ID) models.Envelope[T] {
	return models.Envelope[T]{
		Success:     true,
		Data:        data,
		Period:      string(p),
		LastUpdated: h.now().UTC(),
	}
}

type periodInput struct {
	Period string `query:"period" default:"7d" doc:"Display period: 7d, 1m or 3m."`
}

// cacheHealth is the upstream cache section of the health report.
type cacheHealth struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Stale     int64 `json:"stale"`
	Evictions int64 `json:"evictions"`
}

func registerMetaHandlers(api huma.API, cacheStats func() cache.Stats) {
	type rootOutput struct {
		Body struct {
			Message string `json:"message"`
			Status  string `json:"status"`
			Version string `json:"version"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "root", Method: http.MethodGet, Path: "/", Summary: "Service information", Tags: []string{"Meta"}},
		func(ctx context.Context, input *struct{}) (*rootOutput, error) {
			out := &rootOutput{}
			out.Body.Message = "Stack Watcher API"
			out.Body.Status = "running"
			out.Body.Version = Version
			return out, nil
		})

	type healthOutput struct {
		Body struct {
			Status  string       `json:"status"`
			Message string       `json:"message"`
			Cache   *cacheHealth `json:"cache,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Meta"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "healthy"
			out.Body.Message = "all systems operational"
			if cacheStats != nil {
				st := cacheStats()
				out.Body.Cache = &cacheHealth{
					Entries:   st.Entries,
					Hits:      st.Hits,
					Misses:    st.Misses,
					Stale:     st.Stale,
					Evictions: st.Evictions,
				}
			}
			return out, nil
		})
}

func registerStockHandlers(api huma.API, h *handlers) {
	type symbolsOutput struct {
		Body models.Envelope[[]models.SymbolInfo]
	}
	huma.Register(api, huma.Operation{OperationID: "list-stock-symbols", Method: http.MethodGet, Path: "/api/v1/stocks/symbols", Summary: "List available stocks", Tags: []string{"Stocks"}},
		func(ctx context.Context, input *struct{}) (*symbolsOutput, error) {
			syms, err := h.svc.StockSymbols(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &symbolsOutput{Body: envelope(h, syms, "")}, nil
		})

	type stocksInput struct {
		periodInput
		Symbols string `query:"symbols" doc:"Comma-separated stock symbols. Empty means all."`
	}
	type stocksOutput struct {
		Body models.Envelope[models.StockBatch]
	}
	huma.Register(api, huma.Operation{OperationID: "get-stocks", Method: http.MethodGet, Path: "/api/v1/stocks", Summary: "Daily history for several stocks", Tags: []string{"Stocks"}},
		func(ctx context.Context, input *stocksInput) (*stocksOutput, error) {
			p := period.ID(input.Period)
			batch, err := h.svc.Stocks(ctx, splitSymbols(input.Symbols), p)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stocksOutput{Body: envelope(h, batch, p)}, nil
		})

	type stockInput struct {
		periodInput
		Symbol string `path:"symbol"`
	}
	type stockOutput struct {
		Body models.Envelope[models.StockSeries]
	}
	huma.Register(api, huma.Operation{OperationID: "get-stock", Method: http.MethodGet, Path: "/api/v1/stocks/{symbol}", Summary: "Daily history for one stock", Tags: []string{"Stocks"}},
		func(ctx context.Context, input *stockInput) (*stockOutput, error) {
			p := period.ID(input.Period)
			series, err := h.svc.Stock(ctx, input.Symbol, p)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stockOutput{Body: envelope(h, series, p)}, nil
		})
}

func registerIndexHandlers(api huma.API, h *handlers) {
	type symbolsOutput struct {
		Body models.Envelope[[]models.IndexInfo]
	}
	huma.Register(api, huma.Operation{OperationID: "list-index-symbols", Method: http.MethodGet, Path: "/api/v1/indices/symbols", Summary: "List available indices", Tags: []string{"Indices"}},
		func(ctx context.Context, input *struct{}) (*symbolsOutput, error) {
			syms, err := h.svc.IndexSymbols(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &symbolsOutput{Body: envelope(h, syms, "")}, nil
		})

	type indicesOutput struct {
		Body models.Envelope[[]models.IndexSeries]
	}
	huma.Register(api, huma.Operation{OperationID: "get-indices", Method: http.MethodGet, Path: "/api/v1/indices", Summary: "Daily values for every index", Tags: []string{"Indices"}},
		func(ctx context.Context, input *periodInput) (*indicesOutput, error) {
			p := period.ID(input.Period)
			series, err := h.svc.Indices(ctx, p)
			if err != nil {
				return nil, mapErr(err)
			}
			return &indicesOutput{Body: envelope(h, series, p)}, nil
		})

	type indexInput struct {
		periodInput
		Symbol string `path:"symbol"`
	}
	type indexOutput struct {
		Body models.Envelope[models.IndexSeries]
	}
	huma.Register(api, huma.Operation{OperationID: "get-index", Method: http.MethodGet, Path: "/api/v1/indices/{symbol}", Summary: "Daily values for one index", Tags: []string{"Indices"}},
		func(ctx context.Context, input *indexInput) (*indexOutput, error) {
			p := period.ID(input.Period)
			series, err := h.svc.Index(ctx, input.Symbol, p)
			if err != nil {
				return nil, mapErr(err)
			}
			return &indexOutput{Body: envelope(h, series, p)}, nil
		})
}

func registerWeatherHandlers(api huma.API, h *handlers) {
	type locationsOutput struct {
		Body models.Envelope[[]models.Location]
	}
	huma.Register(api, huma.Operation{OperationID: "list-weather-locations", Method: http.MethodGet, Path: "/api/v1/weather/locations", Summary: "List weather locations", Tags: []string{"Weather"}},
		func(ctx context.Context, input *struct{}) (*locationsOutput, error) {
			locs, err := h.svc.WeatherLocations(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &locationsOutput{Body: envelope(h, locs, "")}, nil
		})

	type weatherInput struct {
		periodInput
		Location string `query:"location" default:"tokyo" doc:"Location id."`
	}
	type weatherOutput struct {
		Body models.Envelope[models.WeatherSeries]
	}
	huma.Register(api, huma.Operation{OperationID: "get-weather", Method: http.MethodGet, Path: "/api/v1/weather", Summary: "Daily weather observations", Tags: []string{"Weather"}},
		func(ctx context.Context, input *weatherInput) (*weatherOutput, error) {
			p := period.ID(input.Period)
			series, err := h.svc.Weather(ctx, input.Location, p)
			if err != nil {
				return nil, mapErr(err)
			}
			return &weatherOutput{Body: envelope(h, series, p)}, nil
		})
}

func splitSymbols(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// mapErr converts service errors to HTTP problems.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var upstream *weather.UpstreamError
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, backend.ErrUnknownPeriod),
		errors.Is(err, marketdata.ErrUnknownSymbol),
		errors.Is(err, marketdata.ErrUnknownLocation):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &upstream):
		return huma.Error502BadGateway(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
