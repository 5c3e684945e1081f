package components

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Series is one line on a TimeGraph. Times must be sorted ascending and
// parallel to Values.
type Series struct {
	Name   string
	Color  string // hex or 256-color index
	Detail string // optional legend suffix, e.g. last value and change
	Times  []time.Time
	Values []float64
}

// Band is a shaded date range, used for brushed selections.
type Band struct {
	Start time.Time
	End   time.Time
}

// TimeGraphConfig holds configuration for a TimeGraph.
type TimeGraphConfig struct {
	ShowYAxis  bool // auto-hidden when width < 20
	ShowXAxis  bool // auto-hidden when height < 5
	ShowLegend bool // auto-hidden when height < 3
	YAxisWidth int  // default 7

	// From and To bound the visible window. Zero values fall back to the
	// span of the data.
	From time.Time
	To   time.Time

	// Bars draws each point as a column from the baseline instead of a
	// connected line.
	Bars bool

	Bands     []Band
	BandColor string // background for cells inside a band

	// Cursor marks a single date; zero means no cursor.
	Cursor      time.Time
	CursorColor string

	AxisColor string
	FormatY   func(float64) string // default FormatAxis
}

// TimeGraph renders daily time series as a Braille-dot chart.
type TimeGraph struct {
	cfg    TimeGraphConfig
	series []Series
}

// NewTimeGraph creates a TimeGraph with the given configuration.
func NewTimeGraph(cfg TimeGraphConfig) *TimeGraph {
	if cfg.YAxisWidth <= 0 {
		cfg.YAxisWidth = 7
	}
	if cfg.FormatY == nil {
		cfg.FormatY = FormatAxis
	}
	return &TimeGraph{cfg: cfg}
}

// AddSeries adds a series and returns its index.
func (tg *TimeGraph) AddSeries(s Series) int {
	tg.series = append(tg.series, s)
	return len(tg.series) - 1
}

// Window returns the visible window, resolving zero bounds from the data.
func (tg *TimeGraph) Window() (from, to time.Time, ok bool) {
	from, to = tg.cfg.From, tg.cfg.To
	if from.IsZero() || to.IsZero() {
		lo, hi, found := tg.dataBounds()
		if !found {
			return time.Time{}, time.Time{}, false
		}
		if from.IsZero() {
			from = lo
		}
		if to.IsZero() {
			to = hi
		}
	}
	return from, to, !to.Before(from)
}

// graphLayout is the resolved geometry of one Render call.
type graphLayout struct {
	yAxisW, chartW, chartH int
	legend, xAxis          bool
	from, to               time.Time
	yMin, yMax             float64
}

func (tg *TimeGraph) layout(width, height int) (graphLayout, bool) {
	l := graphLayout{legend: tg.cfg.ShowLegend && height >= 3, xAxis: tg.cfg.ShowXAxis && height >= 5}
	if tg.cfg.ShowYAxis && width >= 20 {
		l.yAxisW = tg.cfg.YAxisWidth
	}
	l.chartW = max(width-l.yAxisW, 1)
	l.chartH = height
	if l.legend {
		l.chartH--
	}
	if l.xAxis {
		l.chartH--
	}
	l.chartH = max(l.chartH, 1)

	var ok bool
	l.from, l.to, ok = tg.Window()
	if !ok {
		return l, false
	}
	l.yMin, l.yMax = tg.yRange(l.from, l.to)
	return l, true
}

// Render draws the graph into a string of the given cell dimensions.
func (tg *TimeGraph) Render(width, height int) string {
	if width < 10 || height < 2 {
		return tooSmallMsg(width)
	}
	l, ok := tg.layout(width, height)
	if !ok {
		return centerMsg("no data", width, height)
	}

	dotsW, dotsH := l.chartW*2, l.chartH*4
	grid := make([][]uint8, l.chartH)
	owner := make([][]int, l.chartH)
	for r := range grid {
		grid[r] = make([]uint8, l.chartW)
		owner[r] = make([]int, l.chartW)
		for c := range owner[r] {
			owner[r][c] = -1
		}
	}
	set := func(si, x, y int) {
		if x < 0 || x >= dotsW || y < 0 || y >= dotsH {
			return
		}
		grid[y/4][x/2] |= brailleBit(x%2, y%4)
		owner[y/4][x/2] = si
	}

	span := l.to.Sub(l.from).Seconds()
	dotX := func(t time.Time) int {
		if span <= 0 {
			return dotsW / 2
		}
		return int(math.Round(t.Sub(l.from).Seconds() / span * float64(dotsW-1)))
	}
	dotY := func(v float64) int {
		if l.yMax <= l.yMin {
			return dotsH / 2
		}
		frac := math.Min(math.Max((v-l.yMin)/(l.yMax-l.yMin), 0), 1)
		return int(math.Round((1 - frac) * float64(dotsH-1)))
	}

	for si, s := range tg.series {
		prevX, prevY, havePrev := 0, 0, false
		for i, t := range s.Times {
			if i >= len(s.Values) || math.IsNaN(s.Values[i]) {
				havePrev = false
				continue
			}
			x, y := dotX(t), dotY(s.Values[i])
			switch {
			case tg.cfg.Bars:
				if !t.Before(l.from) && !t.After(l.to) {
					base := dotY(math.Max(l.yMin, 0))
					for yy := min(y, base); yy <= max(y, base); yy++ {
						set(si, x, yy)
					}
				}
			case havePrev:
				drawLine(prevX, prevY, x, y, func(px, py int) { set(si, px, py) })
			default:
				set(si, x, y)
			}
			prevX, prevY, havePrev = x, y, true
		}
	}

	var lines []string
	if l.legend && len(tg.series) > 0 {
		lines = append(lines, Truncate(tg.renderLegend(), width))
	}

	cursorCol := -1
	if !tg.cfg.Cursor.IsZero() && !tg.cfg.Cursor.Before(l.from) && !tg.cfg.Cursor.After(l.to) {
		cursorCol = dotX(tg.cfg.Cursor) / 2
	}
	inBand := tg.bandColumns(l, dotsW)
	axisStyle := lipgloss.NewStyle()
	if tg.cfg.AxisColor != "" {
		axisStyle = axisStyle.Foreground(lipgloss.Color(tg.cfg.AxisColor))
	}

	for r := 0; r < l.chartH; r++ {
		var sb strings.Builder
		if l.yAxisW > 0 {
			val := l.yMax
			if l.chartH > 1 {
				val = l.yMax - (l.yMax-l.yMin)*float64(r)/float64(l.chartH-1)
			}
			label := PadLeft(Truncate(tg.cfg.FormatY(val), l.yAxisW-2), l.yAxisW-2) + " │"
			sb.WriteString(axisStyle.Render(label))
		}

		var run strings.Builder
		var runStyle lipgloss.Style
		runKey := ""
		flush := func() {
			if run.Len() > 0 {
				sb.WriteString(runStyle.Render(run.String()))
				run.Reset()
			}
		}
		for c := 0; c < l.chartW; c++ {
			ch := rune(0x2800 + int(grid[r][c]))
			fg, bg := "", ""
			if si := owner[r][c]; si >= 0 && grid[r][c] != 0 {
				fg = tg.series[si].Color
			}
			if inBand[c] {
				bg = tg.cfg.BandColor
			}
			if c == cursorCol {
				if grid[r][c] == 0 {
					ch = '│'
					fg = tg.cfg.CursorColor
				} else {
					bg = tg.cfg.CursorColor
				}
			}
			if key := fg + "|" + bg; key != runKey {
				flush()
				runKey = key
				runStyle = lipgloss.NewStyle()
				if fg != "" {
					runStyle = runStyle.Foreground(lipgloss.Color(fg))
				}
				if bg != "" {
					runStyle = runStyle.Background(lipgloss.Color(bg))
				}
			}
			run.WriteRune(ch)
		}
		flush()
		lines = append(lines, sb.String())
	}

	if l.xAxis {
		lines = append(lines, axisStyle.Render(renderDateAxis(l)))
	}
	return strings.Join(lines, "\n")
}

// TimeAt maps a cell column of a Render(width, ...) output back to a date
// on the visible window. ok is false when x falls on the y axis or outside
// the chart.
func (tg *TimeGraph) TimeAt(width, x int) (time.Time, bool) {
	l, ok := tg.layout(width, 5)
	if !ok || x < l.yAxisW || x >= l.yAxisW+l.chartW {
		return time.Time{}, false
	}
	dotsW := l.chartW * 2
	if dotsW <= 1 {
		return l.from, true
	}
	dot := (x - l.yAxisW) * 2
	return l.from.Add(time.Duration(float64(l.to.Sub(l.from)) * float64(dot) / float64(dotsW-1))), true
}

// bandColumns flags every chart column whose dot span overlaps a band.
func (tg *TimeGraph) bandColumns(l graphLayout, dotsW int) []bool {
	cols := make([]bool, l.chartW)
	if len(tg.cfg.Bands) == 0 || tg.cfg.BandColor == "" {
		return cols
	}
	span := l.to.Sub(l.from)
	timeAt := func(dot int) time.Time {
		if dotsW <= 1 {
			return l.from
		}
		return l.from.Add(time.Duration(float64(span) * float64(dot) / float64(dotsW-1)))
	}
	for c := range cols {
		lo, hi := timeAt(2*c), timeAt(2*c+1)
		for _, b := range tg.cfg.Bands {
			if !b.Start.After(hi) && !b.End.Before(lo) {
				cols[c] = true
				break
			}
		}
	}
	return cols
}

// dataBounds returns the earliest and latest timestamps across all series.
func (tg *TimeGraph) dataBounds() (lo, hi time.Time, ok bool) {
	for _, s := range tg.series {
		if len(s.Times) == 0 {
			continue
		}
		first, last := s.Times[0], s.Times[len(s.Times)-1]
		if !ok || first.Before(lo) {
			lo = first
		}
		if !ok || last.After(hi) {
			hi = last
		}
		ok = true
	}
	return lo, hi, ok
}

// yRange computes the Y-axis range from data within the window, with 10%
// padding. Bar charts always include zero.
func (tg *TimeGraph) yRange(from, to time.Time) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range tg.series {
		for i, t := range s.Times {
			if i >= len(s.Values) || t.Before(from) || t.After(to) || math.IsNaN(s.Values[i]) {
				continue
			}
			lo = math.Min(lo, s.Values[i])
			hi = math.Max(hi, s.Values[i])
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if tg.cfg.Bars {
		lo = math.Min(lo, 0)
	}
	switch {
	case lo == hi && lo == 0:
		return 0, 1
	case lo == hi:
		return lo - math.Abs(lo)*0.1, hi + math.Abs(hi)*0.1
	}
	pad := (hi - lo) * 0.1
	if tg.cfg.Bars && lo == 0 {
		return 0, hi + pad
	}
	return lo - pad, hi + pad
}

// renderLegend builds the legend line: a colored swatch, the series name and
// its detail text.
func (tg *TimeGraph) renderLegend() string {
	parts := make([]string, 0, len(tg.series))
	for _, s := range tg.series {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("█")
		p := swatch + " " + s.Name
		if s.Detail != "" {
			p += " " + s.Detail
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "  ")
}

// renderDateAxis places month-day labels under the chart at evenly spaced
// fractions of the window.
func renderDateAxis(l graphLayout) string {
	fracs := []float64{0, 1}
	switch {
	case l.chartW >= 48:
		fracs = []float64{0, 0.25, 0.5, 0.75, 1}
	case l.chartW >= 20:
		fracs = []float64{0, 0.5, 1}
	}

	total := l.yAxisW + l.chartW
	axis := []byte(strings.Repeat(" ", total))
	span := l.to.Sub(l.from)
	for _, f := range fracs {
		text := l.from.Add(time.Duration(float64(span) * f)).Format("01-02")
		pos := l.yAxisW + int(f*float64(l.chartW-1))
		start := min(max(pos-len(text)/2, l.yAxisW), total-len(text))
		if start < 0 {
			continue
		}
		copy(axis[start:], text)
	}
	return strings.TrimRight(string(axis), " ")
}

// drawLine plots a Bresenham line between two dot positions.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// brailleBit returns the bitmask for a dot at offset (offX, offY) within a
// Braille cell. offX is 0 (left) or 1 (right). offY is 0..3 (top to bottom).
//
// Unicode Braille dot numbering:
//
//	1 4      bit: 0x01  0x08
//	2 5           0x02  0x10
//	3 6           0x04  0x20
//	7 8           0x40  0x80
func brailleBit(offX, offY int) uint8 {
	leftBits := [4]uint8{0x01, 0x02, 0x04, 0x40}
	rightBits := [4]uint8{0x08, 0x10, 0x20, 0x80}
	if offY < 0 || offY > 3 {
		return 0
	}
	if offX == 0 {
		return leftBits[offY]
	}
	return rightBits[offY]
}

// formatSI formats a float with SI suffixes: K, M, G, T.
// Examples: 1000 -> "1K", 1500 -> "1.5K", 1000000 -> "1M".
func formatSI(v float64) string {
	prefix := ""
	if v < 0 {
		prefix = "-"
	}
	abs := math.Abs(v)
	for _, u := range []struct {
		div    float64
		suffix string
	}{{1e12, "T"}, {1e9, "G"}, {1e6, "M"}, {1e3, "K"}} {
		if abs >= u.div {
			return prefix + trimZero(abs/u.div) + u.suffix
		}
	}
	return prefix + trimZero(abs)
}

// FormatAxis formats a y-axis value: SI suffixes from one million, whole
// numbers from 100, one decimal below that.
func FormatAxis(v float64) string {
	switch abs := math.Abs(v); {
	case abs >= 1e6:
		return formatSI(v)
	case abs >= 100:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

// FormatFixed returns a y-axis formatter with the given decimal places.
func FormatFixed(places int) func(float64) string {
	return func(v float64) string {
		return fmt.Sprintf("%.*f", places, v)
	}
}

// trimZero formats with one decimal place and strips a trailing ".0".
func trimZero(v float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", v), ".0")
}

// tooSmallMsg returns a "too small" message clipped to the viewport.
func tooSmallMsg(width int) string {
	msg := "too small"
	if width < len(msg) {
		return msg[:max(width, 0)]
	}
	return msg
}

// centerMsg places msg in the middle of a width x height block.
func centerMsg(msg string, width, height int) string {
	lines := make([]string, height)
	lines[height/2] = PadCenter(msg, width)
	return strings.Join(lines, "\n")
}
