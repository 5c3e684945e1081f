package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks are the eight vertical levels of a sparkline cell.
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values as block characters scaled to
// their own min/max. A flat series renders at mid height.
func Sparkline(values []float64, width int, color string) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	var sb strings.Builder
	for _, v := range values {
		idx := 3
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * 7))
		}
		sb.WriteRune(sparkBlocks[min(max(idx, 0), 7)])
	}
	if color == "" {
		return sb.String()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(sb.String())
}

// Change returns the absolute and percent change from the first to the last
// value. ok is false for fewer than two values; pct is 0 when the first
// value is 0.
func Change(values []float64) (abs, pct float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}
	first, last := values[0], values[len(values)-1]
	abs = last - first
	if first != 0 {
		pct = abs / math.Abs(first) * 100
	}
	return abs, pct, true
}
