package stores

import (
	"context"
	"slices"

	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/models"
	"github.com/stackwatcher/stack-watcher/pkg/period"
)

// IndexSeriesName is the data.Store series holding symbol's values.
func IndexSeriesName(symbol string) string {
	return "index/" + symbol
}

// IndexStore holds daily values for every market index.
type IndexStore struct {
	base

	series []models.IndexSeries
	info   []models.IndexInfo
}

// NewIndexStore returns an empty index store.
func NewIndexStore(cfg Config) *IndexStore {
	s := &IndexStore{}
	s.init(KindIndex, cfg)
	return s
}

// SetPeriod switches the period and starts a refetch.
func (s *IndexStore) SetPeriod(id period.ID) {
	s.setPeriod(id)
	s.Refresh()
}

// Refresh starts an asynchronous fetch of every index.
func (s *IndexStore) Refresh() {
	s.async(s.Load)
}

// Load fetches every index for the current period and waits for the result.
// A failure drops the held series.
func (s *IndexStore) Load(ctx context.Context) error {
	p := s.begin()
	series, err := s.cfg.Source.Indices(ctx, p)
	s.finish(p, err, func() {
		s.series = series
		for _, ser := range series {
			s.publish(ser)
		}
	}, func() { s.series = nil })
	return err
}

// FetchSingle refetches one index and merges it into the held data. A
// failure leaves the held data in place.
func (s *IndexStore) FetchSingle(ctx context.Context, symbol string) error {
	p := s.begin()
	ser, err := s.cfg.Source.Index(ctx, symbol, p)
	s.finish(p, err, func() {
		i := slices.IndexFunc(s.series, func(x models.IndexSeries) bool { return x.Symbol == ser.Symbol })
		if i >= 0 {
			s.series[i] = ser
		} else {
			s.series = append(s.series, ser)
		}
		s.publish(ser)
	}, nil)
	return err
}

// publish writes index values to the data store. Caller holds s.mu.
func (s *IndexStore) publish(ser models.IndexSeries) {
	values := make([]float64, len(ser.Points))
	for i, pt := range ser.Points {
		values[i] = pt.Value
	}
	s.cfg.Data.Replace(IndexSeriesName(ser.Symbol),
		dates(ser.Points, func(p models.IndexPoint) models.Date { return p.Date }),
		values,
		map[string]string{
			data.LabelChart:  "index",
			data.LabelSymbol: ser.Symbol,
			data.LabelTitle:  ser.Name,
		})
}

// Series returns the last fetched series.
func (s *IndexStore) Series() []models.IndexSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.series)
}

// BySymbol returns the fetched series for symbol.
func (s *IndexStore) BySymbol(symbol string) (models.IndexSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ser := range s.series {
		if ser.Symbol == symbol {
			return ser, true
		}
	}
	return models.IndexSeries{}, false
}

// FetchInfo loads the index descriptions the source offers.
func (s *IndexStore) FetchInfo(ctx context.Context) error {
	info, err := s.cfg.Source.IndexSymbols(ctx)
	if err != nil {
		s.log.Warn("fetch index info failed", "error", err)
		return err
	}
	s.mu.Lock()
	s.info = info
	s.mu.Unlock()
	return nil
}

// Info returns the last fetched index descriptions.
func (s *IndexStore) Info() []models.IndexInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.info)
}

// ClearData drops every fetched series and the stored error.
func (s *IndexStore) ClearData() {
	s.mu.Lock()
	s.series = nil
	s.err = nil
	s.hasData = false
	s.mu.Unlock()
	s.cfg.Data.DeleteByLabel(data.LabelChart, "index")
}
