package theme

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

var thTestHexPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// --- Get / SetCurrent / Names ---

func TestGetDefault(t *testing.T) {
	th := Get("default")
	if th.Name != "default" {
		t.Errorf("Get(\"default\").Name = %q, want %q", th.Name, "default")
	}
	if th.Accent != "#7C3AED" {
		t.Errorf("Get(\"default\").Accent = %q, want %q", th.Accent, "#7C3AED")
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	if got := Get("Gruvbox").Name; got != "gruvbox" {
		t.Errorf("Get(\"Gruvbox\").Name = %q, want gruvbox", got)
	}
	if !Exists("NORD") {
		t.Error("Exists(\"NORD\") = false")
	}
}

func TestGetUnknownFallsBackToDefault(t *testing.T) {
	th := Get("unknown-theme-xyz")
	if th.Name != "default" {
		t.Errorf("Get(\"unknown\") = %q, want default", th.Name)
	}
	if Exists("unknown-theme-xyz") {
		t.Error("Exists(unknown) = true")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("Names() not sorted: %v", names)
	}
	want := []string{"default", "gruvbox", "nord", "tokyonight"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", names, want)
	}
}

func TestSetCurrent(t *testing.T) {
	orig := Current
	defer func() { Current = orig }()

	SetCurrent("nord", 24)
	if Current.Name != "nord" || Current.Accent != "#88c0d0" {
		t.Errorf("Current = %q/%q after SetCurrent(nord)", Current.Name, Current.Accent)
	}
	SetCurrent("nord", 8)
	if strings.HasPrefix(Current.Accent, "#") {
		t.Errorf("SetCurrent at 8-bit left hex accent %q", Current.Accent)
	}
}

func TestAllThemesHaveValidHexColors(t *testing.T) {
	for _, name := range Names() {
		th := Get(name)
		t.Run(name, func(t *testing.T) {
			colors := map[string]string{
				"Foreground":  th.Foreground,
				"Dim":         th.Dim,
				"Accent":      th.Accent,
				"Border":      th.Border,
				"BorderFocus": th.BorderFocus,
				"Title":       th.Title,
				"StatusOK":    th.StatusOK,
				"StatusWarn":  th.StatusWarn,
				"StatusError": th.StatusError,
				"Up":          th.Up,
				"Down":        th.Down,
				"Selection":   th.Selection,
				"Cursor":      th.Cursor,
				"HelpKey":     th.HelpKey,
				"HelpDesc":    th.HelpDesc,
			}
			for i, c := range th.Series {
				colors[fmt.Sprintf("Series[%d]", i)] = c
			}
			for field, value := range colors {
				if !thTestHexPattern.MatchString(value) {
					t.Errorf("%s = %q is not valid #RRGGBB", field, value)
				}
			}
			if len(th.Series) < 3 {
				t.Errorf("Series has %d colors, want at least 3", len(th.Series))
			}
		})
	}
}

func TestSeriesColorWraps(t *testing.T) {
	th := Get("default")
	n := len(th.Series)
	if th.SeriesColor(n) != th.Series[0] {
		t.Errorf("SeriesColor(%d) = %q, want %q", n, th.SeriesColor(n), th.Series[0])
	}
	if th.SeriesColor(-1) != th.Series[n-1] {
		t.Errorf("SeriesColor(-1) = %q, want last", th.SeriesColor(-1))
	}
	if got := (Theme{Accent: "#123456"}).SeriesColor(2); got != "#123456" {
		t.Errorf("empty palette SeriesColor = %q, want accent", got)
	}
}

func TestColorDepth(t *testing.T) {
	tests := []struct {
		p    termenv.Profile
		want int
	}{
		{termenv.TrueColor, 24},
		{termenv.ANSI256, 8},
		{termenv.ANSI, 4},
		{termenv.Ascii, 1},
	}
	for _, tt := range tests {
		if got := ColorDepth(tt.p); got != tt.want {
			t.Errorf("ColorDepth(%v) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

// --- 256-color fallback ---

func TestTo256Color(t *testing.T) {
	tests := []struct {
		hex  string
		want string
	}{
		{"#ff0000", "196"},
		{"#00ff00", "46"},
		{"#000000", "16"},
		{"#ffffff", "231"},
		// Mid gray is exact on the ramp (8+12*10) and beats cube level 135.
		{"#808080", "244"},
		{"not-a-color", "not-a-color"},
		{"#12345", "#12345"},
	}
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			if got := thTo256Color(tt.hex); got != tt.want {
				t.Errorf("thTo256Color(%q) = %q, want %q", tt.hex, got, tt.want)
			}
		})
	}
}

func TestNearestCubeIndexPrimaries(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    int
	}{
		{255, 0, 0, 196},
		{0, 255, 0, 46},
		{0, 0, 255, 21},
		{0, 0, 0, 16},
		{255, 255, 255, 231},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("(%d,%d,%d)", tt.r, tt.g, tt.b), func(t *testing.T) {
			if got := thNearestCubeIndex(tt.r, tt.g, tt.b); got != tt.want {
				t.Errorf("thNearestCubeIndex(%d,%d,%d) = %d, want %d", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestAdaptConvertsColors(t *testing.T) {
	th := Get("default")
	adapted := Adapt(th, 8)

	if strings.HasPrefix(adapted.Accent, "#") {
		t.Errorf("Adapt(8) should convert Accent, got %q", adapted.Accent)
	}
	if strings.HasPrefix(adapted.Selection, "#") {
		t.Errorf("Adapt(8) should convert Selection, got %q", adapted.Selection)
	}
	for i, c := range adapted.Series {
		if strings.HasPrefix(c, "#") {
			t.Errorf("Adapt(8) Series[%d] = %q", i, c)
		}
	}
	// The registry copy must not be mutated through the shared slice.
	if !strings.HasPrefix(Get("default").Series[0], "#") {
		t.Error("Adapt mutated the registered theme's Series")
	}
}

func TestAdaptPreservesAt24Bit(t *testing.T) {
	th := Get("default")
	adapted := Adapt(th, 24)
	if adapted.Accent != th.Accent || adapted.StatusError != th.StatusError {
		t.Errorf("Adapt(24) changed colors: %+v", adapted)
	}
}

func TestStylesChange(t *testing.T) {
	s := Get("default").Styles()
	for _, delta := range []float64{1, -1, 0} {
		if out := s.Change("1.5%", delta); !strings.Contains(out, "1.5%") {
			t.Errorf("Change(%v) = %q, lost text", delta, out)
		}
	}
}
