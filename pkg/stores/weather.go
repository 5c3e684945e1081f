package stores

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/models"
	"github.com/stackwatcher/stack-watcher/pkg/period"
)

// DefaultLocation is the weather location a store starts with.
const DefaultLocation = "tokyo"

// Weather fields published to the data store.
const (
	FieldPrecipitation = "precipitation"
	FieldTemperature   = "temperature"
	FieldPressure      = "pressure"
)

// WeatherFields lists the published fields in display order.
var WeatherFields = []string{FieldPrecipitation, FieldTemperature, FieldPressure}

// WeatherSeriesName is the data.Store series holding field at location.
func WeatherSeriesName(location, field string) string {
	return "weather/" + location + "/" + field
}

// WeatherStore holds daily observations at one location.
type WeatherStore struct {
	base

	location  string
	series    models.WeatherSeries
	locations []models.Location
}

// NewWeatherStore returns a store for location ("" means DefaultLocation).
func NewWeatherStore(cfg Config, location string) *WeatherStore {
	if location == "" {
		location = DefaultLocation
	}
	s := &WeatherStore{location: location}
	s.init(KindWeather, cfg)
	return s
}

// SetPeriod switches the period and starts a refetch.
func (s *WeatherStore) SetPeriod(id period.ID) {
	s.setPeriod(id)
	s.Refresh()
}

// Location returns the selected location id.
func (s *WeatherStore) Location() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// SetLocation switches location and starts a refetch. Data for the old
// location is dropped.
func (s *WeatherStore) SetLocation(location string) {
	location = strings.TrimSpace(location)
	if location == "" {
		return
	}
	s.mu.Lock()
	old := s.location
	s.location = location
	if old != location {
		s.series = models.WeatherSeries{}
		s.hasData = false
	}
	s.mu.Unlock()

	if old != location {
		for _, f := range WeatherFields {
			s.cfg.Data.DeleteSeries(WeatherSeriesName(old, f))
		}
	}
	s.Refresh()
}

// Refresh starts an asynchronous fetch.
func (s *WeatherStore) Refresh() {
	s.async(s.Load)
}

// Load fetches observations for the current location and period and waits
// for the result. A failure drops the held observations.
func (s *WeatherStore) Load(ctx context.Context) error {
	p := s.begin()
	loc := s.Location()

	ser, err := s.cfg.Source.Weather(ctx, loc, p)
	s.finish(p, err, func() {
		s.series = ser
		s.publish(ser)
	}, func() { s.series = models.WeatherSeries{} })
	return err
}

// publish writes each observation field to the data store. Caller holds s.mu.
func (s *WeatherStore) publish(ser models.WeatherSeries) {
	times := dates(ser.Points, func(p models.WeatherPoint) models.Date { return p.Date })
	fields := map[string]func(models.WeatherPoint) float64{
		FieldPrecipitation: func(p models.WeatherPoint) float64 { return p.Precipitation },
		FieldTemperature:   func(p models.WeatherPoint) float64 { return p.Temperature },
		FieldPressure:      func(p models.WeatherPoint) float64 { return p.Pressure },
	}
	for field, get := range fields {
		values := make([]float64, len(ser.Points))
		for i, pt := range ser.Points {
			values[i] = get(pt)
		}
		s.cfg.Data.Replace(WeatherSeriesName(ser.Location, field), times, values, map[string]string{
			data.LabelChart: "weather",
			data.LabelField: field,
			data.LabelTitle: ser.Name,
		})
	}
}

// Series returns the last fetched observations.
func (s *WeatherStore) Series() models.WeatherSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ser := s.series
	ser.Points = slices.Clone(ser.Points)
	return ser
}

// TotalPrecipitation sums rainfall over the held period, to one decimal.
func (s *WeatherStore) TotalPrecipitation() float64 {
	return s.aggregate(func(p models.WeatherPoint) float64 { return p.Precipitation }, false)
}

// AverageTemperature is the mean daily temperature, to one decimal.
func (s *WeatherStore) AverageTemperature() float64 {
	return s.aggregate(func(p models.WeatherPoint) float64 { return p.Temperature }, true)
}

// AveragePressure is the mean daily pressure, to one decimal.
func (s *WeatherStore) AveragePressure() float64 {
	return s.aggregate(func(p models.WeatherPoint) float64 { return p.Pressure }, true)
}

func (s *WeatherStore) aggregate(get func(models.WeatherPoint) float64, mean bool) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.series.Points) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, p := range s.series.Points {
		sum = sum.Add(decimal.NewFromFloat(get(p)))
	}
	if mean {
		sum = sum.Div(decimal.NewFromInt(int64(len(s.series.Points))))
	}
	return sum.Round(1).InexactFloat64()
}

// FetchLocations loads the locations the source supports.
func (s *WeatherStore) FetchLocations(ctx context.Context) error {
	locs, err := s.cfg.Source.WeatherLocations(ctx)
	if err != nil {
		s.log.Warn("fetch locations failed", "error", err)
		return err
	}
	s.mu.Lock()
	s.locations = locs
	s.mu.Unlock()
	return nil
}

// Locations returns the last fetched location list.
func (s *WeatherStore) Locations() []models.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.locations)
}

// ClearData drops the held observations and the stored error.
func (s *WeatherStore) ClearData() {
	s.mu.Lock()
	s.series = models.WeatherSeries{}
	s.err = nil
	s.hasData = false
	s.mu.Unlock()
	s.cfg.Data.DeleteByLabel(data.LabelChart, "weather")
}
