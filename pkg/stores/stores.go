// Package stores holds the dashboard's domain data: one store each for
// stocks, indices and weather. A store owns its period, its loading and
// error state, and the chart series it publishes into a shared data.Store.
//
// Fetches run on their own goroutines. When one completes the store writes
// its results under lock and signals the UI with a non-blocking send on the
// shared updates channel. Fetches are never cancelled, so when two overlap
// the one that finishes last wins.
package stores

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/models"
	"github.com/stackwatcher/stack-watcher/pkg/period"
)

// Source is where stores fetch from: the HTTP client or the in-process
// backend.
type Source interface {
	StockSymbols(ctx context.Context) ([]models.SymbolInfo, error)
	Stocks(ctx context.Context, symbols []string, p period.ID) (models.StockBatch, error)
	IndexSymbols(ctx context.Context) ([]models.IndexInfo, error)
	Indices(ctx context.Context, p period.ID) ([]models.IndexSeries, error)
	Index(ctx context.Context, symbol string, p period.ID) (models.IndexSeries, error)
	WeatherLocations(ctx context.Context) ([]models.Location, error)
	Weather(ctx context.Context, location string, p period.ID) (models.WeatherSeries, error)
}

// Kind identifies which store sent an Update.
type Kind int

const (
	KindStock Kind = iota
	KindIndex
	KindWeather
)

func (k Kind) String() string {
	switch k {
	case KindStock:
		return "stock"
	case KindIndex:
		return "index"
	case KindWeather:
		return "weather"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Update signals that a store finished a fetch. Err is the fetch error, if
// any; the store keeps it too. Failed lists symbols a successful stock fetch
// could not serve.
type Update struct {
	Kind   Kind
	Period period.ID
	Err    error
	Failed []string
}

// Config is shared by every store.
type Config struct {
	Source Source

	// Data receives chart series. Nil gets a private store.
	Data *data.Store

	// Updates receives a signal after each fetch. Sends never block: if the
	// channel is full the reader already has an update pending and will
	// reread every store anyway.
	Updates chan<- Update

	// Timeout bounds each fetch. Default: 15s.
	Timeout time.Duration

	// Now stamps LastUpdated. Nil means time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Data == nil {
		c.Data = data.NewStore(data.StoreConfig{})
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Status is a point-in-time view of a store's fetch state.
type Status struct {
	Period      period.ID
	Loading     bool
	Err         error
	LastUpdated time.Time

	// Failed lists the symbols the last stock fetch could not serve.
	Failed []string
}

// base carries the state every store shares.
type base struct {
	kind Kind
	cfg  Config
	log  *slog.Logger

	mu          sync.RWMutex
	period      period.ID
	inflight    int
	err         error
	lastUpdated time.Time
	hasData     bool
}

func (b *base) init(kind Kind, cfg Config) {
	cfg = cfg.withDefaults()
	b.kind = kind
	b.cfg = cfg
	b.log = cfg.Logger.With("store", kind.String())
	b.period = period.Default
}

// Period returns the store's current period.
func (b *base) Period() period.ID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.period
}

// Loading reports whether a fetch is in flight.
func (b *base) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inflight > 0
}

// Err returns the error of the most recent completed fetch.
func (b *base) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// ClearError drops the stored fetch error.
func (b *base) ClearError() {
	b.mu.Lock()
	b.err = nil
	b.mu.Unlock()
}

// LastUpdated returns when the last successful fetch completed.
func (b *base) LastUpdated() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdated
}

// HasData reports whether any fetch has succeeded since the last clear.
func (b *base) HasData() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hasData
}

// Status returns every status field at once.
func (b *base) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Status{
		Period:      b.period,
		Loading:     b.inflight > 0,
		Err:         b.err,
		LastUpdated: b.lastUpdated,
	}
}

// Data returns the shared chart series store.
func (b *base) Data() *data.Store {
	return b.cfg.Data
}

func (b *base) setPeriod(id period.ID) {
	b.mu.Lock()
	b.period = id
	b.mu.Unlock()
}

// begin marks a fetch in flight and returns the period it should use.
func (b *base) begin() period.ID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inflight++
	return b.period
}

// finish records a fetch outcome. apply runs under the lock only on
// success, so readers never see half-written results. On failure reset (if
// set) runs under the lock and the store's chart series are dropped, so a
// chart never shows one period's data under another period's label. failed
// is passed through to the Update.
func (b *base) finish(p period.ID, err error, apply, reset func(), failed ...string) {
	b.mu.Lock()
	b.inflight--
	b.err = err
	switch {
	case err == nil:
		if apply != nil {
			apply()
		}
		b.hasData = true
		b.lastUpdated = b.cfg.Now()
	case reset != nil:
		reset()
		b.hasData = false
		b.cfg.Data.DeleteByLabel(data.LabelChart, b.kind.String())
	}
	b.mu.Unlock()

	if err != nil {
		b.log.Warn("fetch failed", "period", p, "error", err)
	} else {
		b.log.Debug("fetch complete", "period", p)
	}
	b.notify(Update{Kind: b.kind, Period: p, Err: err, Failed: failed})
}

func (b *base) notify(u Update) {
	if b.cfg.Updates == nil {
		return
	}
	select {
	case b.cfg.Updates <- u:
	default:
	}
}

func (b *base) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.cfg.Timeout)
}

// async runs load on its own goroutine with the store's timeout.
func (b *base) async(load func(context.Context) error) {
	go func() {
		ctx, cancel := b.context()
		defer cancel()
		_ = load(ctx)
	}()
}

func dates[T any](points []T, date func(T) models.Date) []time.Time {
	out := make([]time.Time, len(points))
	for i, p := range points {
		out[i] = date(p).Time()
	}
	return out
}
