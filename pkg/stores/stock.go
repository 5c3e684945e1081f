package stores

import (
	"context"
	"slices"
	"strings"

	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/models"
	"github.com/stackwatcher/stack-watcher/pkg/period"
)

// DefaultStockSymbols are selected when a StockStore is given none.
var DefaultStockSymbols = []string{"6326", "9984", "1377"}

// StockSeriesName is the data.Store series holding symbol's closes.
func StockSeriesName(symbol string) string {
	return "stock/" + symbol
}

// StockStore holds daily bars for the selected stock symbols.
type StockStore struct {
	base

	symbols   []string
	series    []models.StockSeries
	failed    []models.SymbolError
	available []models.SymbolInfo
}

// NewStockStore returns a store tracking symbols.
func NewStockStore(cfg Config, symbols ...string) *StockStore {
	if len(symbols) == 0 {
		symbols = DefaultStockSymbols
	}
	s := &StockStore{symbols: slices.Clone(symbols)}
	s.init(KindStock, cfg)
	return s
}

// SetPeriod switches the period and starts a refetch.
func (s *StockStore) SetPeriod(id period.ID) {
	s.setPeriod(id)
	s.Refresh()
}

// Refresh starts an asynchronous fetch of the selected symbols.
func (s *StockStore) Refresh() {
	s.async(s.Load)
}

// Load fetches the selected symbols for the current period and waits for
// the result. Symbols the source cannot serve are recorded in
// SymbolErrors; the rest are published.
func (s *StockStore) Load(ctx context.Context) error {
	p := s.begin()
	syms := s.Symbols()

	batch, err := s.cfg.Source.Stocks(ctx, syms, p)
	failed := failedSymbols(batch.Errors)
	if err == nil && len(failed) > 0 {
		s.log.Warn("symbols unavailable", "period", p, "symbols", failed)
	}
	s.finish(p, err, func() {
		s.series = batch.Stocks
		s.failed = batch.Errors
		s.publish(batch.Stocks)
		for _, e := range batch.Errors {
			s.cfg.Data.DeleteSeries(StockSeriesName(e.Symbol))
		}
	}, s.reset, failed...)
	return err
}

// reset drops the held series after a failed fetch. Caller holds s.mu.
func (s *StockStore) reset() {
	s.series = nil
	s.failed = nil
}

// Status adds the symbols the last fetch could not serve.
func (s *StockStore) Status() Status {
	st := s.base.Status()
	s.mu.RLock()
	st.Failed = failedSymbols(s.failed)
	s.mu.RUnlock()
	return st
}

// SymbolErrors returns the per-symbol failures of the last fetch.
func (s *StockStore) SymbolErrors() []models.SymbolError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.failed)
}

func failedSymbols(errs []models.SymbolError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Symbol
	}
	return out
}

// publish writes closing prices to the data store. Caller holds s.mu.
func (s *StockStore) publish(series []models.StockSeries) {
	for _, ser := range series {
		closes := make([]float64, len(ser.Points))
		for i, pt := range ser.Points {
			closes[i] = pt.Close
		}
		s.cfg.Data.Replace(StockSeriesName(ser.Symbol),
			dates(ser.Points, func(p models.StockPoint) models.Date { return p.Date }),
			closes,
			map[string]string{
				data.LabelChart:  "stock",
				data.LabelSymbol: ser.Symbol,
				data.LabelTitle:  ser.Name,
			})
	}
}

// Symbols returns the selected symbols in display order.
func (s *StockStore) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.symbols)
}

// AddSymbol selects symbol and refetches. It reports false if symbol was
// already selected or is blank.
func (s *StockStore) AddSymbol(symbol string) bool {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return false
	}
	s.mu.Lock()
	if slices.Contains(s.symbols, symbol) {
		s.mu.Unlock()
		return false
	}
	s.symbols = append(s.symbols, symbol)
	s.mu.Unlock()

	s.Refresh()
	return true
}

// RemoveSymbol deselects symbol and drops its data immediately.
func (s *StockStore) RemoveSymbol(symbol string) bool {
	s.mu.Lock()
	i := slices.Index(s.symbols, symbol)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.symbols = slices.Delete(s.symbols, i, i+1)
	s.series = slices.DeleteFunc(s.series, func(ser models.StockSeries) bool {
		return ser.Symbol == symbol
	})
	s.failed = slices.DeleteFunc(s.failed, func(e models.SymbolError) bool {
		return e.Symbol == symbol
	})
	s.mu.Unlock()

	s.cfg.Data.DeleteSeries(StockSeriesName(symbol))
	s.notify(Update{Kind: KindStock, Period: s.Period()})
	return true
}

// Series returns the last fetched series.
func (s *StockStore) Series() []models.StockSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.series)
}

// BySymbol returns the fetched series for symbol.
func (s *StockStore) BySymbol(symbol string) (models.StockSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ser := range s.series {
		if ser.Symbol == symbol {
			return ser, true
		}
	}
	return models.StockSeries{}, false
}

// FetchAvailable loads the list of symbols the source offers.
func (s *StockStore) FetchAvailable(ctx context.Context) error {
	syms, err := s.cfg.Source.StockSymbols(ctx)
	if err != nil {
		s.log.Warn("fetch available symbols failed", "error", err)
		return err
	}
	s.mu.Lock()
	s.available = syms
	s.mu.Unlock()
	return nil
}

// AvailableSymbols returns the last fetched symbol list.
func (s *StockStore) AvailableSymbols() []models.SymbolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.available)
}

// ClearData drops every fetched series.
func (s *StockStore) ClearData() {
	s.mu.Lock()
	s.reset()
	s.hasData = false
	s.mu.Unlock()
	s.cfg.Data.DeleteByLabel(data.LabelChart, "stock")
}
