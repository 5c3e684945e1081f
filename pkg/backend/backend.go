// Package backend answers dashboard data requests: generated stock and index
// history plus archive weather. The HTTP server exposes it and the dashboard
// can call it in-process when run without a server.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stackwatcher/stack-watcher/pkg/marketdata"
	"github.com/stackwatcher/stack-watcher/pkg/models"
	"github.com/stackwatcher/stack-watcher/pkg/period"
	"github.com/stackwatcher/stack-watcher/pkg/weather"
)

var (
	// ErrUnknownPeriod is returned for period IDs outside the catalog.
	ErrUnknownPeriod = errors.New("backend: unknown period")

	// ErrNotFound marks a single-resource lookup that matched nothing.
	ErrNotFound = errors.New("backend: not found")
)

// DefaultLocation is used when a weather request names no location.
const DefaultLocation = "tokyo"

// WeatherProvider is the backend's view of the weather package.
type WeatherProvider interface {
	Series(ctx context.Context, locID string, days int) (models.WeatherSeries, error)
}

// Backend implements the data operations behind /api/v1.
type Backend struct {
	periods *period.Catalog
	gen     *marketdata.Generator
	weather WeatherProvider
	now     func() time.Time
}

// Option customises a Backend.
type Option func(*Backend)

// WithClock overrides the time source used to anchor generated history.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithPeriods replaces the default period catalog.
func WithPeriods(c *period.Catalog) Option {
	return func(b *Backend) { b.periods = c }
}

// New returns a Backend over gen. A nil wp serves generated weather only.
func New(gen *marketdata.Generator, wp WeatherProvider, opts ...Option) *Backend {
	if gen == nil {
		gen = marketdata.NewGenerator(nil, 1)
	}
	b := &Backend{
		periods: period.DefaultCatalog(),
		gen:     gen,
		weather: wp,
		now:     time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	if b.weather == nil {
		b.weather = generatedWeather{gen: gen, now: b.now}
	}
	return b
}

// Periods returns the period catalog requests are validated against.
func (b *Backend) Periods() *period.Catalog {
	return b.periods
}

// StockSymbols lists the available stocks.
func (b *Backend) StockSymbols(ctx context.Context) ([]models.SymbolInfo, error) {
	cat := b.gen.Catalog()
	out := make([]models.SymbolInfo, len(cat.Stocks))
	for i, s := range cat.Stocks {
		out[i] = models.SymbolInfo{Symbol: s.Symbol, Code: s.Code, Name: s.Name}
	}
	return out, nil
}

// Stocks returns one series per symbol, in request order. An empty symbol
// list means every catalog stock. A symbol that cannot be served is reported
// in the batch's Errors without failing the others; only a bad period fails
// the whole request.
func (b *Backend) Stocks(ctx context.Context, symbols []string, p period.ID) (models.StockBatch, error) {
	days, err := b.days(p)
	if err != nil {
		return models.StockBatch{}, err
	}
	if len(symbols) == 0 {
		symbols = b.gen.Catalog().StockSymbols()
	}
	batch := models.StockBatch{Stocks: make([]models.StockSeries, 0, len(symbols))}
	for _, sym := range symbols {
		s, err := b.gen.Stock(sym, days, b.today())
		if err != nil {
			err = b.withHint(err, sym, b.gen.Catalog().StockSymbols())
			batch.Errors = append(batch.Errors, models.SymbolError{Symbol: sym, Error: err.Error()})
			continue
		}
		batch.Stocks = append(batch.Stocks, s)
	}
	return batch, nil
}

// Stock returns the series for one symbol.
func (b *Backend) Stock(ctx context.Context, symbol string, p period.ID) (models.StockSeries, error) {
	days, err := b.days(p)
	if err != nil {
		return models.StockSeries{}, err
	}
	s, err := b.gen.Stock(symbol, days, b.today())
	if err != nil {
		return models.StockSeries{}, fmt.Errorf("%w: %w", ErrNotFound, b.withHint(err, symbol, b.gen.Catalog().StockSymbols()))
	}
	return s, nil
}

// IndexSymbols lists the available indices.
func (b *Backend) IndexSymbols(ctx context.Context) ([]models.IndexInfo, error) {
	cat := b.gen.Catalog()
	out := make([]models.IndexInfo, len(cat.Indices))
	for i, ix := range cat.Indices {
		out[i] = models.IndexInfo{Symbol: ix.Symbol, Name: ix.Name, Description: ix.Description}
	}
	return out, nil
}

// Indices returns every catalog index over period p.
func (b *Backend) Indices(ctx context.Context, p period.ID) ([]models.IndexSeries, error) {
	days, err := b.days(p)
	if err != nil {
		return nil, err
	}
	syms := b.gen.Catalog().IndexSymbols()
	out := make([]models.IndexSeries, 0, len(syms))
	for _, sym := range syms {
		s, err := b.gen.Index(sym, days, b.today())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Index returns one index series.
func (b *Backend) Index(ctx context.Context, symbol string, p period.ID) (models.IndexSeries, error) {
	days, err := b.days(p)
	if err != nil {
		return models.IndexSeries{}, err
	}
	s, err := b.gen.Index(symbol, days, b.today())
	if err != nil {
		return models.IndexSeries{}, fmt.Errorf("%w: %w", ErrNotFound, b.withHint(err, symbol, b.gen.Catalog().IndexSymbols()))
	}
	return s, nil
}

// WeatherLocations lists the supported weather locations.
func (b *Backend) WeatherLocations(ctx context.Context) ([]models.Location, error) {
	cat := b.gen.Catalog()
	out := make([]models.Location, len(cat.Locations))
	for i, l := range cat.Locations {
		out[i] = models.Location{ID: l.ID, Name: l.Name, Latitude: l.Latitude, Longitude: l.Longitude}
	}
	return out, nil
}

// Weather returns observations at location over period p. Locations
// outside the catalog are rejected rather than substituted.
func (b *Backend) Weather(ctx context.Context, location string, p period.ID) (models.WeatherSeries, error) {
	days, err := b.days(p)
	if err != nil {
		return models.WeatherSeries{}, err
	}
	if location == "" {
		location = DefaultLocation
	}
	s, err := b.weather.Series(ctx, location, days)
	if err != nil {
		return models.WeatherSeries{}, b.withHint(err, location, b.gen.Catalog().LocationIDs())
	}
	return s, nil
}

func (b *Backend) days(p period.ID) (int, error) {
	if p == "" {
		p = period.Default
	}
	if d := b.periods.Days(p); d > 0 {
		return d, nil
	}
	if hint := b.periods.Suggest(string(p)); hint != "" {
		return 0, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownPeriod, p, hint)
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownPeriod, p)
}

func (b *Backend) today() models.Date {
	return models.NewDate(b.now())
}

// withHint appends a closest-match suggestion to catalog lookup errors.
func (b *Backend) withHint(err error, given string, candidates []string) error {
	if !errors.Is(err, marketdata.ErrUnknownSymbol) && !errors.Is(err, marketdata.ErrUnknownLocation) {
		return err
	}
	hint := marketdata.Closest(given, candidates)
	if hint == "" || strings.EqualFold(hint, given) {
		return err
	}
	return fmt.Errorf("%w (did you mean %q?)", err, hint)
}

// generatedWeather serves the generator's observations, anchored the same
// way as the archive so mock and real windows line up.
type generatedWeather struct {
	gen *marketdata.Generator
	now func() time.Time
}

func (g generatedWeather) Series(_ context.Context, locID string, days int) (models.WeatherSeries, error) {
	end := models.NewDate(g.now().Add(-weather.ArchiveLag))
	return g.gen.Weather(locID, days, end)
}
