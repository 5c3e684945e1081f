package marketdata

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stackwatcher/stack-watcher/pkg/models"
)

// HistoryDays is how far back a stock walk starts. Every period is the tail
// of the same walk, so a 7 day view is the last week of the 3 month view.
const HistoryDays = 365

var (
	// ErrUnknownSymbol is returned for symbols missing from the catalog.
	ErrUnknownSymbol = errors.New("marketdata: unknown symbol")

	// ErrUnknownLocation is returned for locations missing from the catalog.
	ErrUnknownLocation = errors.New("marketdata: unknown location")
)

// Generator produces seeded, reproducible daily series. It is safe for
// concurrent use; every call builds its own random source.
type Generator struct {
	cat  *Catalog
	seed uint64
}

// NewGenerator returns a generator over cat. The same seed, symbol and end
// date always produce the same series.
func NewGenerator(cat *Catalog, seed uint64) *Generator {
	if cat == nil {
		cat = DefaultCatalog()
	}
	return &Generator{cat: cat, seed: seed}
}

// Catalog returns the instrument catalog.
func (g *Generator) Catalog() *Catalog {
	return g.cat
}

// Stock returns the last days bars of symbol ending at end.
func (g *Generator) Stock(symbol string, days int, end models.Date) (models.StockSeries, error) {
	prof, ok := g.cat.Stock(symbol)
	if !ok {
		return models.StockSeries{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	days = clampDays(days)

	rng := g.rng("stock", symbol, end.String())
	start := end.Time().AddDate(0, 0, -(HistoryDays - 1))
	price := prof.Base
	points := make([]models.StockPoint, 0, HistoryDays)

	for i := 0; i < HistoryDays; i++ {
		day := start.AddDate(0, 0, i)
		change := prof.Trend*price + rng.NormFloat64()*prof.Volatility*price

		open := price
		span := math.Abs(change) + uniform(rng, 0, prof.Volatility*price*0.5)
		high := open + span*uniform(rng, 0.3, 0.8)
		low := open - span*uniform(rng, 0.3, 0.8)

		closing := max(open+change, prof.Base*0.5)
		high = max(high, closing)
		low = min(low, closing)
		price = closing

		points = append(points, models.StockPoint{
			Date:   models.NewDate(day),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(closing),
			Volume: int64(1_000_000 * volumeMultiplier(rng, day.Weekday())),
		})
	}

	return models.StockSeries{
		Symbol: prof.Symbol,
		Name:   prof.Name,
		Mock:   true,
		Points: points[len(points)-days:],
	}, nil
}

// volumeMultiplier favours Mondays and Fridays.
func volumeMultiplier(rng *rand.Rand, wd time.Weekday) float64 {
	switch wd {
	case time.Monday, time.Friday:
		return uniform(rng, 1.2, 1.8)
	case time.Tuesday, time.Wednesday, time.Thursday:
		return uniform(rng, 0.8, 1.3)
	default:
		return uniform(rng, 0.5, 0.8)
	}
}

// Index returns days values of symbol ending at end. Each day's value varies
// independently around the profile base.
func (g *Generator) Index(symbol string, days int, end models.Date) (models.IndexSeries, error) {
	prof, ok := g.cat.Index(symbol)
	if !ok {
		return models.IndexSeries{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	days = clampDays(days)

	values := make([]float64, days)
	dates := make([]models.Date, days)
	for i := range values {
		day := models.NewDate(end.Time().AddDate(0, 0, i-days+1))
		rng := g.rng("index", symbol, day.String())
		values[i] = round2(prof.Base * (1 + uniform(rng, -prof.Variation, prof.Variation)))
		dates[i] = day
	}

	changes, pct := Changes(values)
	points := make([]models.IndexPoint, days)
	for i := range points {
		points[i] = models.IndexPoint{
			Date:          dates[i],
			Value:         values[i],
			Change:        changes[i],
			ChangePercent: pct[i],
		}
	}
	return models.IndexSeries{Symbol: prof.Symbol, Name: prof.Name, Points: points}, nil
}

// Changes returns the day-over-day change and percent change of values.
// The first day has no predecessor and reports zero for both.
func Changes(values []float64) (change, percent []float64) {
	change = make([]float64, len(values))
	percent = make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		prev := decimal.NewFromFloat(values[i-1])
		d := decimal.NewFromFloat(values[i]).Sub(prev)
		change[i] = d.Round(2).InexactFloat64()
		if !prev.IsZero() {
			percent[i] = d.Div(prev).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
	}
	return change, percent
}

// Weather returns days of mock observations at loc ending at end. Rain falls
// on roughly one day in five.
func (g *Generator) Weather(locID string, days int, end models.Date) (models.WeatherSeries, error) {
	loc, ok := g.cat.Location(locID)
	if !ok {
		return models.WeatherSeries{}, fmt.Errorf("%w: %q", ErrUnknownLocation, locID)
	}
	days = clampDays(days)

	points := make([]models.WeatherPoint, days)
	for i := range points {
		day := models.NewDate(end.Time().AddDate(0, 0, i-days+1))
		rng := g.rng("weather", loc.ID, day.String())

		rain := 0.0
		if rng.Float64() < 0.2 {
			rain = round1(uniform(rng, 1, 30))
		}
		points[i] = models.WeatherPoint{
			Date:          day,
			Precipitation: rain,
			Temperature:   round1(loc.BaseTemperature + uniform(rng, -3, 3)),
			Pressure:      round1(loc.BasePressure + uniform(rng, -15, 15)),
		}
	}
	return models.WeatherSeries{
		Location: loc.ID,
		Name:     loc.Name,
		Source:   models.SourceMock,
		Points:   points,
	}, nil
}

// rng derives an independent PCG source from the generator seed and keys.
func (g *Generator) rng(keys ...string) *rand.Rand {
	h := fnv.New64a()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	return rand.New(rand.NewPCG(g.seed, h.Sum64()))
}

func clampDays(days int) int {
	return min(max(days, 1), HistoryDays)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
