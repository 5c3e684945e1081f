// Package weather fetches daily observations from the Open-Meteo historical
// archive, with a disk cache in front of it and generated observations as
// the last fallback.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stackwatcher/stack-watcher/pkg/cache"
	"github.com/stackwatcher/stack-watcher/pkg/marketdata"
	"github.com/stackwatcher/stack-watcher/pkg/models"
)

// DefaultBaseURL is the Open-Meteo historical weather endpoint.
const DefaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

// dailyFields are the aggregates requested from the archive.
const dailyFields = "precipitation_sum,temperature_2m_mean,pressure_msl_mean"

// ArchiveLag is how far behind today the archive reliably has data.
const ArchiveLag = 2 * 24 * time.Hour

// Config configures a Provider.
type Config struct {
	// BaseURL of the archive API. Default: DefaultBaseURL.
	BaseURL string

	// Timezone sent with every request. Default: "Asia/Tokyo".
	Timezone string

	// Timeout bounds each upstream request. Default: 10s.
	Timeout time.Duration

	// CacheTTL is how long an archive response is served without refetching.
	// Default: 1h.
	CacheTTL time.Duration

	// HTTPClient overrides the transport. Nil builds one with Timeout.
	HTTPClient *http.Client

	// Cache stores upstream responses. Nil disables caching.
	Cache *cache.Store

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Tokyo"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Hour
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Archive is the subset of an Open-Meteo archive response the provider
// reads. Missing observations arrive as JSON null.
type Archive struct {
	Daily struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		TemperatureMean  []*float64 `json:"temperature_2m_mean"`
		PressureMSLMean  []*float64 `json:"pressure_msl_mean"`
	} `json:"daily"`
}

// UpstreamError reports a non-200 archive response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather: open-meteo returned %d: %s", e.StatusCode, e.Body)
}

// Provider serves weather series for catalog locations.
type Provider struct {
	cfg Config
	gen *marketdata.Generator
}

// NewProvider returns a provider that falls back to gen when the archive is
// unreachable and nothing usable is cached.
func NewProvider(cfg Config, gen *marketdata.Generator) *Provider {
	if gen == nil {
		gen = marketdata.NewGenerator(nil, 1)
	}
	return &Provider{cfg: cfg.withDefaults(), gen: gen}
}

// Window returns the inclusive date range a request for days covers,
// ending ArchiveLag before now.
func (p *Provider) Window(days int) (start, end models.Date) {
	days = max(days, 1)
	end = models.NewDate(p.cfg.Now().Add(-ArchiveLag))
	start = models.NewDate(end.Time().AddDate(0, 0, -(days - 1)))
	return start, end
}

// Series returns days of observations at locID. Unknown locations fail
// with marketdata.ErrUnknownLocation. Upstream failures are not returned:
// the provider serves a stale cached response if it has one and generated
// observations otherwise, marking Source accordingly.
func (p *Provider) Series(ctx context.Context, locID string, days int) (models.WeatherSeries, error) {
	loc, ok := p.gen.Catalog().Location(locID)
	if !ok {
		return models.WeatherSeries{}, fmt.Errorf("%w: %q", marketdata.ErrUnknownLocation, locID)
	}
	start, end := p.Window(days)
	key := cacheKey(loc.ID, start, end)
	log := p.cfg.Logger.With("location", loc.ID, "start", start, "end", end)

	if p.cfg.Cache != nil {
		if a, ok := cache.GetTyped[Archive](p.cfg.Cache, key); ok {
			log.Debug("open-meteo cache hit")
			return process(loc, &a), nil
		}
	}

	a, err := p.Fetch(ctx, loc, start, end)
	if err == nil {
		if p.cfg.Cache != nil {
			if cerr := cache.PutTypedWithTTL(p.cfg.Cache, key, a, p.cfg.CacheTTL); cerr != nil {
				log.Warn("open-meteo cache write failed", "error", cerr)
			}
		}
		return process(loc, a), nil
	}
	log.Warn("open-meteo fetch failed", "error", err)

	if p.cfg.Cache != nil {
		if stale, _, ok := cache.GetTypedStale[Archive](p.cfg.Cache, key); ok {
			log.Info("serving stale open-meteo response")
			return process(loc, &stale), nil
		}
	}

	log.Info("falling back to generated weather")
	return p.gen.Weather(loc.ID, days, end)
}

// Fetch requests the daily archive for loc between start and end inclusive.
func (p *Provider) Fetch(ctx context.Context, loc marketdata.Location, start, end models.Date) (*Archive, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("start_date", start.String())
	q.Set("end_date", end.String())
	q.Set("daily", dailyFields)
	q.Set("timezone", p.cfg.Timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Stack-Watcher/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: request open-meteo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var a Archive
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("weather: decode open-meteo response: %w", err)
	}
	if len(a.Daily.Time) == 0 {
		return nil, errors.New("weather: open-meteo response has no daily data")
	}
	return &a, nil
}

// process converts an archive response into a series. Missing precipitation
// counts as no rain; missing temperature or pressure repeats the previous
// day, starting from the location's climate baseline. Unparseable dates are
// skipped.
func process(loc marketdata.Location, a *Archive) models.WeatherSeries {
	d := a.Daily
	lastTemp := loc.BaseTemperature
	lastPress := loc.BasePressure

	points := make([]models.WeatherPoint, 0, len(d.Time))
	for i, raw := range d.Time {
		date, err := models.ParseDate(raw)
		if err != nil {
			continue
		}
		rain := 0.0
		if v := at(d.PrecipitationSum, i); v != nil {
			rain = *v
		}
		if v := at(d.TemperatureMean, i); v != nil {
			lastTemp = *v
		}
		if v := at(d.PressureMSLMean, i); v != nil {
			lastPress = *v
		}
		points = append(points, models.WeatherPoint{
			Date:          date,
			Precipitation: round1(rain),
			Temperature:   round1(lastTemp),
			Pressure:      round1(lastPress),
		})
	}

	return models.WeatherSeries{
		Location: loc.ID,
		Name:     loc.Name,
		Source:   models.SourceOpenMeteo,
		Points:   points,
	}
}

func at(vs []*float64, i int) *float64 {
	if i < len(vs) {
		return vs[i]
	}
	return nil
}

func cacheKey(loc string, start, end models.Date) string {
	return fmt.Sprintf("open-meteo:%s:%s:%s", loc, start, end)
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
