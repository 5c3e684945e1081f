// Package marketdata generates deterministic daily market and weather
// histories for the data API and for offline dashboard runs.
package marketdata

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

//go:embed instruments.yaml
var defaultInstruments []byte

// Stock is the generator profile of one stock.
type Stock struct {
	Symbol     string  `yaml:"symbol"`
	Code       string  `yaml:"code"`
	Name       string  `yaml:"name"`
	Base       float64 `yaml:"base"`
	Volatility float64 `yaml:"volatility"`
	Trend      float64 `yaml:"trend"`
}

// Index is the generator profile of one market index.
type Index struct {
	Symbol      string  `yaml:"symbol"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Base        float64 `yaml:"base"`
	Variation   float64 `yaml:"variation"`
}

// Location is a weather site and the climate used for mock observations.
type Location struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Latitude        float64 `yaml:"latitude"`
	Longitude       float64 `yaml:"longitude"`
	BaseTemperature float64 `yaml:"base_temperature"`
	BasePressure    float64 `yaml:"base_pressure"`
}

// Catalog lists every instrument and location the generator knows.
type Catalog struct {
	Stocks    []Stock    `yaml:"stocks"`
	Indices   []Index    `yaml:"indices"`
	Locations []Location `yaml:"locations"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultInstruments)
	if err != nil {
		panic(fmt.Sprintf("marketdata: built-in catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata: read catalog: %w", err)
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("marketdata: parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, s := range c.Stocks {
		if s.Symbol == "" || s.Base <= 0 {
			errs = append(errs, fmt.Errorf("stock %q: symbol and positive base required", s.Symbol))
		}
		if seen["s:"+s.Symbol] {
			errs = append(errs, fmt.Errorf("stock %q: duplicate", s.Symbol))
		}
		seen["s:"+s.Symbol] = true
	}
	for _, ix := range c.Indices {
		if ix.Symbol == "" || ix.Base <= 0 {
			errs = append(errs, fmt.Errorf("index %q: symbol and positive base required", ix.Symbol))
		}
		if seen["i:"+ix.Symbol] {
			errs = append(errs, fmt.Errorf("index %q: duplicate", ix.Symbol))
		}
		seen["i:"+ix.Symbol] = true
	}
	for _, l := range c.Locations {
		if l.ID == "" {
			errs = append(errs, errors.New("location with empty id"))
		}
		if seen["l:"+l.ID] {
			errs = append(errs, fmt.Errorf("location %q: duplicate", l.ID))
		}
		seen["l:"+l.ID] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("marketdata: invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}

// Stock looks up a stock profile by symbol.
func (c *Catalog) Stock(symbol string) (Stock, bool) {
	for _, s := range c.Stocks {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return Stock{}, false
}

// Index looks up an index profile by symbol.
func (c *Catalog) Index(symbol string) (Index, bool) {
	for _, ix := range c.Indices {
		if ix.Symbol == symbol {
			return ix, true
		}
	}
	return Index{}, false
}

// Location looks up a location by id (case-insensitive).
func (c *Catalog) Location(id string) (Location, bool) {
	for _, l := range c.Locations {
		if strings.EqualFold(l.ID, id) {
			return l, true
		}
	}
	return Location{}, false
}

// Closest returns the candidate nearest to s by edit distance, or "" if
// none is within two edits.
func Closest(s string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(strings.ToLower(s), strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// StockSymbols returns the stock symbols in catalog order.
func (c *Catalog) StockSymbols() []string {
	out := make([]string, len(c.Stocks))
	for i, s := range c.Stocks {
		out[i] = s.Symbol
	}
	return out
}

// IndexSymbols returns the index symbols in catalog order.
func (c *Catalog) IndexSymbols() []string {
	out := make([]string, len(c.Indices))
	for i, ix := range c.Indices {
		out[i] = ix.Symbol
	}
	return out
}

// LocationIDs returns the location ids in catalog order.
func (c *Catalog) LocationIDs() []string {
	out := make([]string, len(c.Locations))
	for i, l := range c.Locations {
		out[i] = l.ID
	}
	return out
}
