// Package period defines the controlled vocabulary of display periods shared
// by the dashboard, the data stores, and the data API.
package period

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ID identifies a display period, e.g. "7d" or "3m".
type ID string

// Well-known period identifiers.
const (
	Week    ID = "7d"
	Month   ID = "1m"
	Quarter ID = "3m"
)

// Default is the period every store and the coordinator start with.
const Default = Week

// Option is one entry of a Catalog.
type Option struct {
	ID    ID
	Label string
	Days  int
}

// Catalog is an ordered set of valid periods. The zero value is empty and
// rejects every ID.
type Catalog struct {
	options []Option
}

// NewCatalog builds a catalog from the given options. Duplicate IDs, empty
// IDs, and non-positive day counts are rejected.
func NewCatalog(options ...Option) (*Catalog, error) {
	seen := make(map[ID]bool, len(options))
	for i, o := range options {
		if o.ID == "" {
			return nil, fmt.Errorf("period: option %d has empty id", i)
		}
		if o.Days <= 0 {
			return nil, fmt.Errorf("period: option %q has non-positive day count %d", o.ID, o.Days)
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("period: duplicate option %q", o.ID)
		}
		seen[o.ID] = true
	}
	c := &Catalog{options: make([]Option, len(options))}
	copy(c.options, options)
	return c, nil
}

// DefaultCatalog returns the standard 7 days / 1 month / 1 quarter catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{options: []Option{
		{ID: Week, Label: "7 days", Days: 7},
		{ID: Month, Label: "1 month", Days: 30},
		{ID: Quarter, Label: "1 quarter", Days: 90},
	}}
}

// Options returns a copy of the catalog entries in order.
func (c *Catalog) Options() []Option {
	out := make([]Option, len(c.options))
	copy(out, c.options)
	return out
}

// Len returns the number of options.
func (c *Catalog) Len() int {
	return len(c.options)
}

// Contains reports whether id is a member of the catalog.
func (c *Catalog) Contains(id ID) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Lookup returns the option for id.
func (c *Catalog) Lookup(id ID) (Option, bool) {
	for _, o := range c.options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// At returns the option at index i (0-based), used by numeric key bindings.
func (c *Catalog) At(i int) (Option, bool) {
	if i < 0 || i >= len(c.options) {
		return Option{}, false
	}
	return c.options[i], true
}

// Days returns the day count for id, or 0 if id is unknown.
func (c *Catalog) Days(id ID) int {
	o, ok := c.Lookup(id)
	if !ok {
		return 0
	}
	return o.Days
}

// Parse validates a raw string against the catalog. Surrounding whitespace is
// ignored; matching is case-sensitive.
func (c *Catalog) Parse(s string) (ID, error) {
	id := ID(strings.TrimSpace(s))
	if c.Contains(id) {
		return id, nil
	}
	if hint := c.Suggest(string(id)); hint != "" {
		return "", fmt.Errorf("period: unknown period %q (did you mean %q?)", s, hint)
	}
	return "", fmt.Errorf("period: unknown period %q", s)
}

// Suggest returns the closest catalog ID to s by edit distance, or "" if
// nothing is within two edits.
func (c *Catalog) Suggest(s string) ID {
	best := ID("")
	bestDist := 3
	for _, o := range c.options {
		d := levenshtein.ComputeDistance(strings.ToLower(s), strings.ToLower(string(o.ID)))
		if d < bestDist {
			best, bestDist = o.ID, d
		}
	}
	return best
}
