// Package data holds the dashboard's daily time series in a
// Structure-of-Arrays layout. Each series keeps its timestamps and values in
// parallel slices sorted by time, so a chart can binary-search the visible
// window and iterate one value slice while drawing.
//
// The domain stores write whole series after each fetch; chart widgets read
// snapshots. A Store is safe for concurrent use: fetch goroutines write while
// the UI goroutine reads.
package data

import (
	"sort"
	"sync"
	"time"
)

// StoreConfig controls the behavior of a Store instance.
type StoreConfig struct {
	// MaxPoints is the upper bound on points per series. Older points are
	// dropped first. Zero means 400, a little over a year of daily points.
	MaxPoints int
}

func (c StoreConfig) defaults() StoreConfig {
	if c.MaxPoints == 0 {
		c.MaxPoints = 400
	}
	return c
}

// Label keys used by the domain stores.
const (
	LabelChart  = "chart"
	LabelSymbol = "symbol"
	LabelField  = "field"
	LabelTitle  = "title"
)

// Series is a single named time series with timestamps and values stored in
// parallel slices.
type Series struct {
	Name   string
	Times  []time.Time
	Values []float64
	Labels map[string]string
}

// SeriesSnapshot is an immutable copy of a series, safe to read without
// holding a lock. Slices are always copied from internal storage.
type SeriesSnapshot struct {
	Name   string
	Times  []time.Time
	Values []float64
	Labels map[string]string
}

// Len returns the number of data points.
func (s *SeriesSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Min returns the minimum value. Returns 0 for empty snapshots.
func (s *SeriesSnapshot) Min() float64 {
	if s.Len() == 0 {
		return 0
	}
	m := s.Values[0]
	for _, v := range s.Values[1:] {
		m = min(m, v)
	}
	return m
}

// Max returns the maximum value. Returns 0 for empty snapshots.
func (s *SeriesSnapshot) Max() float64 {
	if s.Len() == 0 {
		return 0
	}
	m := s.Values[0]
	for _, v := range s.Values[1:] {
		m = max(m, v)
	}
	return m
}

// First returns the oldest value. Returns 0 for empty snapshots.
func (s *SeriesSnapshot) First() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Values[0]
}

// Last returns the most recent value. Returns 0 for empty snapshots.
func (s *SeriesSnapshot) Last() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Values[len(s.Values)-1]
}

// Sum returns the total of all values.
func (s *SeriesSnapshot) Sum() float64 {
	sum := 0.0
	if s == nil {
		return sum
	}
	for _, v := range s.Values {
		sum += v
	}
	return sum
}

// Avg returns the arithmetic mean. Returns 0 for empty snapshots.
func (s *SeriesSnapshot) Avg() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Sum() / float64(len(s.Values))
}

// Label returns the value of the label key, or "".
func (s *SeriesSnapshot) Label(key string) string {
	if s == nil {
		return ""
	}
	return s.Labels[key]
}

// Store is the container for all dashboard series.
type Store struct {
	mu     sync.RWMutex
	cfg    StoreConfig
	series map[string]*Series

	// Freeze state: tracked per series with reference counting.
	frozen map[string]*frozenState

	// version increases on every visible change.
	version uint64
}

// NewStore creates a new time-series store with the given configuration.
func NewStore(cfg StoreConfig) *Store {
	cfg = cfg.defaults()
	return &Store{
		cfg:    cfg,
		series: make(map[string]*Series),
		frozen: make(map[string]*frozenState),
	}
}

// Replace sets the full contents of the named series, creating it if needed.
// Points are sorted by time; mismatched slice lengths are ignored. If the
// series is frozen, the replacement is held back until it is unfrozen.
func (s *Store) Replace(name string, times []time.Time, values []float64, labels map[string]string) {
	if len(times) != len(values) {
		return
	}
	t, v := sortedCopy(times, values)

	s.mu.Lock()
	defer s.mu.Unlock()

	if fs, ok := s.frozen[name]; ok && fs.count > 0 {
		fs.pending = &Series{Name: name, Times: t, Values: v, Labels: copyLabels(labels)}
		return
	}

	ser := s.getOrCreate(name)
	ser.Times, ser.Values = t, v
	if labels != nil {
		ser.Labels = copyLabels(labels)
	}
	s.enforceMaxPoints(ser)
	s.version++
}

// GetSeries returns a read-only snapshot of the named series. If the series
// is frozen, the frozen snapshot is returned instead of live data.
func (s *Store) GetSeries(name string) (*SeriesSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.visible(name)
	if !ok {
		return nil, false
	}
	return snapshotFrom(ser), true
}

// GetRange returns a snapshot containing only points within [start, end].
func (s *Store) GetRange(name string, start, end time.Time) (*SeriesSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ser, ok := s.visible(name)
	if !ok {
		return nil, false
	}
	lo, hi := rangeIndexes(ser.Times, start, end)
	if lo >= hi {
		return &SeriesSnapshot{Name: ser.Name, Labels: copyLabels(ser.Labels)}, true
	}
	return &SeriesSnapshot{
		Name:   ser.Name,
		Times:  copyTimes(ser.Times[lo:hi]),
		Values: copyValues(ser.Values[lo:hi]),
		Labels: copyLabels(ser.Labels),
	}, true
}

// Bounds returns the earliest and latest timestamps across the named series.
// ok is false if none of them has data.
func (s *Store) Bounds(names ...string) (start, end time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range names {
		ser, exists := s.visible(name)
		if !exists || len(ser.Times) == 0 {
			continue
		}
		first, last := ser.Times[0], ser.Times[len(ser.Times)-1]
		if !ok || first.Before(start) {
			start = first
		}
		if !ok || last.After(end) {
			end = last
		}
		ok = true
	}
	return start, end, ok
}

// DeleteSeries removes a series entirely, including any frozen state.
func (s *Store) DeleteSeries(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.series[name]; ok {
		s.version++
	}
	delete(s.series, name)
	delete(s.frozen, name)
}

// DeleteByLabel removes every series whose label key equals value and
// returns how many were removed.
func (s *Store) DeleteByLabel(key, value string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for name, ser := range s.series {
		if ser.Labels[key] == value {
			delete(s.series, name)
			delete(s.frozen, name)
			n++
		}
	}
	if n > 0 {
		s.version++
	}
	return n
}

// Version returns a counter that increases whenever visible data changes.
// Renderers compare it to decide whether a cached frame is stale.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// visible returns the series a reader should see: the frozen snapshot when
// frozen, else the live series. Must be called with the lock held.
func (s *Store) visible(name string) (*Series, bool) {
	if fs, ok := s.frozen[name]; ok && fs.count > 0 {
		return &Series{
			Name:   fs.snapshot.Name,
			Times:  fs.snapshot.Times,
			Values: fs.snapshot.Values,
			Labels: fs.snapshot.Labels,
		}, true
	}
	ser, ok := s.series[name]
	return ser, ok
}

// getOrCreate returns the series with the given name, creating it if needed.
// Must be called with the write lock held.
func (s *Store) getOrCreate(name string) *Series {
	ser, ok := s.series[name]
	if !ok {
		ser = &Series{
			Name:   name,
			Labels: make(map[string]string),
		}
		s.series[name] = ser
	}
	return ser
}

// enforceMaxPoints trims the oldest points if the series exceeds MaxPoints.
func (s *Store) enforceMaxPoints(ser *Series) {
	if len(ser.Values) > s.cfg.MaxPoints {
		excess := len(ser.Values) - s.cfg.MaxPoints
		ser.Times = ser.Times[excess:]
		ser.Values = ser.Values[excess:]
	}
}

// rangeIndexes returns the half-open index range of times within [start, end].
func rangeIndexes(times []time.Time, start, end time.Time) (lo, hi int) {
	lo = sort.Search(len(times), func(i int) bool {
		return !times[i].Before(start)
	})
	hi = sort.Search(len(times), func(i int) bool {
		return times[i].After(end)
	})
	return lo, hi
}

// sortedCopy copies times and values and orders both by time.
func sortedCopy(times []time.Time, values []float64) ([]time.Time, []float64) {
	t, v := copyTimes(times), copyValues(values)
	if sort.SliceIsSorted(t, func(i, j int) bool { return t[i].Before(t[j]) }) {
		return t, v
	}
	idx := make([]int, len(t))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return t[idx[a]].Before(t[idx[b]]) })
	st := make([]time.Time, len(t))
	sv := make([]float64, len(v))
	for i, j := range idx {
		st[i], sv[i] = t[j], v[j]
	}
	return st, sv
}

// snapshotFrom creates an immutable copy from a live series.
func snapshotFrom(ser *Series) *SeriesSnapshot {
	return &SeriesSnapshot{
		Name:   ser.Name,
		Times:  copyTimes(ser.Times),
		Values: copyValues(ser.Values),
		Labels: copyLabels(ser.Labels),
	}
}

func copyTimes(src []time.Time) []time.Time {
	if len(src) == 0 {
		return nil
	}
	dst := make([]time.Time, len(src))
	copy(dst, src)
	return dst
}

func copyValues(src []float64) []float64 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}

func copyLabels(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
