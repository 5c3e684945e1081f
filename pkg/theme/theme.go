// Package theme holds the dashboard color palettes.
package theme

import (
	"sort"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// Theme defines the complete color palette for the dashboard. Colors are
// "#rrggbb" hex strings, or 256-color indices after Adapt.
type Theme struct {
	Name string

	// Base colors
	Foreground string
	Dim        string // dimmed text, axis labels
	Accent     string // highlights, active period

	// Widget chrome
	Border      string // unfocused chart borders
	BorderFocus string // focused chart border
	Title       string // chart title text

	// Status colors
	StatusOK    string // sync on, data fresh
	StatusWarn  string // loading, brush mode
	StatusError string // fetch errors, sync off

	// Price movement
	Up   string
	Down string

	// Series is the line palette, used in order and wrapped.
	Series []string

	// Selection shades brushed date ranges; Cursor marks the brush cursor.
	Selection string
	Cursor    string

	HelpKey  string // keybinding highlight color
	HelpDesc string // help description color
}

// SeriesColor returns the palette color for series i, wrapping around.
func (t Theme) SeriesColor(i int) string {
	if len(t.Series) == 0 {
		return t.Accent
	}
	return t.Series[((i%len(t.Series))+len(t.Series))%len(t.Series)]
}

// Current holds the active theme (set via SetCurrent).
var Current Theme

var (
	mu       sync.RWMutex
	registry = map[string]Theme{}
)

func init() {
	thRegisterBuiltins()
	Current = thDefaultTheme()
}

// Get returns a named theme, falling back to default if not found.
func Get(name string) Theme {
	mu.RLock()
	defer mu.RUnlock()
	if t, ok := registry[strings.ToLower(name)]; ok {
		return t
	}
	return registry["default"]
}

// Exists reports whether name is a registered theme.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[strings.ToLower(name)]
	return ok
}

// Names returns all available theme names sorted alphabetically.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetCurrent sets the active theme by name, adapted to colorDepth.
func SetCurrent(name string, colorDepth int) {
	Current = Adapt(Get(name), colorDepth)
}

// ColorDepth maps a termenv profile to bits of color depth.
func ColorDepth(p termenv.Profile) int {
	switch p {
	case termenv.TrueColor:
		return 24
	case termenv.ANSI256:
		return 8
	case termenv.ANSI:
		return 4
	default:
		return 1
	}
}

// thRegister adds a theme to the registry under its lowercase name.
func thRegister(t Theme) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(t.Name)] = t
}
