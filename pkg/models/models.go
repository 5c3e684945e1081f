// Package models defines the JSON shapes exchanged between the data API and
// the dashboard stores.
package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day, encoded as "YYYY-MM-DD". The wrapped time is
// always UTC midnight.
type Date struct {
	t time.Time
}

// NewDate truncates t to its calendar day in t's location and returns it as
// a UTC midnight.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("models: parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

// Time returns the day as a UTC midnight.
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// String returns the wire form.
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Full RFC 3339
// timestamps are accepted and truncated to their day.
func (d *Date) UnmarshalText(b []byte) error {
	s := string(b)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = NewDate(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Envelope wraps every API response body.
type Envelope[T any] struct {
	Success     bool      `json:"success"`
	Data        T         `json:"data"`
	Period      string    `json:"period,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
	Error       string    `json:"error,omitempty"`
}

// SymbolInfo describes a tradable stock.
type SymbolInfo struct {
	Symbol string `json:"symbol"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

// StockPoint is one daily OHLCV bar.
type StockPoint struct {
	Date   Date    `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// StockSeries is the daily history of one stock.
type StockSeries struct {
	Symbol string       `json:"symbol"`
	Name   string       `json:"name"`
	Mock   bool         `json:"isMock,omitempty"`
	Points []StockPoint `json:"data"`
}

// SymbolError reports one symbol a batch request could not serve.
type SymbolError struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// StockBatch answers a multi-symbol stock request. Symbols that fail are
// listed in Errors and the rest are served.
type StockBatch struct {
	Stocks []StockSeries  `json:"stocks"`
	Errors []SymbolError `json:"errors,omitempty"`
}

// IndexInfo describes a market index.
type IndexInfo struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// IndexPoint is one daily index value with its change from the previous day.
type IndexPoint struct {
	Date          Date    `json:"date"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// IndexSeries is the daily history of one index.
type IndexSeries struct {
	Symbol string       `json:"symbol"`
	Name   string       `json:"name"`
	Points []IndexPoint `json:"data"`
}

// Latest returns the most recent point.
func (s IndexSeries) Latest() (IndexPoint, bool) {
	if len(s.Points) == 0 {
		return IndexPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Location is a weather observation site.
type Location struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherPoint is one day of observations.
type WeatherPoint struct {
	Date          Date    `json:"date"`
	Precipitation float64 `json:"precipitation"`
	Temperature   float64 `json:"temperature"`
	Pressure      float64 `json:"pressure"`
}

// WeatherSeries is the daily history at one location.
type WeatherSeries struct {
	Location string         `json:"location"`
	Name     string         `json:"name"`
	Source   string         `json:"source"`
	Points   []WeatherPoint `json:"data"`
}

// WeatherSources reported in WeatherSeries.Source.
const (
	SourceOpenMeteo = "open-meteo"
	SourceMock      = "mock"
)
