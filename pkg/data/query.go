package data

import (
	"sort"
	"time"
)

// QueryBuilder provides a fluent interface for reading several series at
// once. Create one via Store.Query or Store.QueryByLabel.
type QueryBuilder struct {
	store      *Store
	name       string
	labelKey   string
	labelValue string
	start      time.Time
	end        time.Time
	mode       queryMode
}

type queryMode int

var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

const (
	queryAll queryMode = iota
	queryBetween
)

// Query starts a query builder for a single named series.
func (s *Store) Query(name string) *QueryBuilder {
	return &QueryBuilder{store: s, name: name}
}

// QueryByLabel starts a query builder that matches all series with the
// given label key=value pair. Results are ordered by series name.
func (s *Store) QueryByLabel(key, value string) *QueryBuilder {
	return &QueryBuilder{store: s, labelKey: key, labelValue: value}
}

// Between restricts the query to points in [start, end]. A zero start or end
// leaves that side open.
func (qb *QueryBuilder) Between(start, end time.Time) *QueryBuilder {
	qb.start = start
	qb.end = end
	qb.mode = queryBetween
	return qb
}

// Execute runs the query and returns matching snapshots.
func (qb *QueryBuilder) Execute() []SeriesSnapshot {
	names := qb.resolveNames()
	results := make([]SeriesSnapshot, 0, len(names))

	for _, name := range names {
		var snap *SeriesSnapshot
		var ok bool

		switch qb.mode {
		case queryAll:
			snap, ok = qb.store.GetSeries(name)
		case queryBetween:
			start, end := qb.start, qb.end
			if end.IsZero() {
				end = farFuture
			}
			snap, ok = qb.store.GetRange(name, start, end)
		}

		if ok && snap != nil {
			results = append(results, *snap)
		}
	}
	return results
}

// Names returns the series names the query would read.
func (qb *QueryBuilder) Names() []string {
	return qb.resolveNames()
}

func (qb *QueryBuilder) resolveNames() []string {
	if qb.name != "" {
		return []string{qb.name}
	}

	qb.store.mu.RLock()
	defer qb.store.mu.RUnlock()

	var names []string
	for sname, ser := range qb.store.series {
		if v, ok := ser.Labels[qb.labelKey]; ok && v == qb.labelValue {
			names = append(names, sname)
		}
	}
	sort.Strings(names)
	return names
}
