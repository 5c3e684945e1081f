package theme

import (
	"math"
	"strconv"
	"strings"
)

// Adapt converts every hex color in a theme to the nearest 256-color index
// when the terminal color depth is below 24-bit. Themes for 24-bit
// terminals are returned unchanged.
func Adapt(t Theme, colorDepth int) Theme {
	if colorDepth >= 24 {
		return t
	}

	for _, c := range []*string{
		&t.Foreground, &t.Dim, &t.Accent,
		&t.Border, &t.BorderFocus, &t.Title,
		&t.StatusOK, &t.StatusWarn, &t.StatusError,
		&t.Up, &t.Down,
		&t.Selection, &t.Cursor,
		&t.HelpKey, &t.HelpDesc,
	} {
		*c = thTo256Color(*c)
	}

	series := make([]string, len(t.Series))
	for i, c := range t.Series {
		series[i] = thTo256Color(c)
	}
	t.Series = series

	return t
}

// cubeLevels are the channel values of the 6x6x6 xterm color cube.
var cubeLevels = [6]int{0, 95, 135, 175, 215, 255}

// thTo256Color converts "#rrggbb" to the nearest xterm-256 index, choosing
// between the color cube (16-231) and the gray ramp (232-255). Unparseable
// input is returned unchanged.
func thTo256Color(hex string) string {
	r, g, b, ok := thParseHex(hex)
	if !ok {
		return hex
	}

	cube := thNearestCubeIndex(r, g, b)
	gray := thNearestGray(r, g, b)

	cr, cg, cb := thCubeToRGB(cube)
	gv := thGrayToValue(gray)
	if thColorDistance(r, g, b, gv, gv, gv) < thColorDistance(r, g, b, cr, cg, cb) {
		return strconv.Itoa(gray)
	}
	return strconv.Itoa(cube)
}

func thNearestCubeIndex(r, g, b uint8) int {
	return 16 + 36*thNearestLevel(r) + 6*thNearestLevel(g) + thNearestLevel(b)
}

func thNearestLevel(v uint8) int {
	best, bestDist := 0, math.MaxInt
	for i, lv := range cubeLevels {
		if d := thAbsInt(int(v) - lv); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// thNearestGray returns the gray ramp index closest to the channel mean.
// Ramp values run 8, 18, ... 238.
func thNearestGray(r, g, b uint8) int {
	avg := (int(r) + int(g) + int(b)) / 3
	step := min(max((avg-8+5)/10, 0), 23)
	return 232 + step
}

func thCubeToRGB(idx int) (r, g, b uint8) {
	idx -= 16
	return uint8(cubeLevels[idx/36]), uint8(cubeLevels[(idx/6)%6]), uint8(cubeLevels[idx%6])
}

func thGrayToValue(idx int) uint8 {
	return uint8(8 + (idx-232)*10)
}

func thColorDistance(r1, g1, b1, r2, g2, b2 uint8) float64 {
	dr := float64(r1) - float64(r2)
	dg := float64(g1) - float64(g2)
	db := float64(b1) - float64(b2)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// thParseHex parses "#rrggbb" (the leading # is optional).
func thParseHex(hex string) (r, g, b uint8, ok bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

func thAbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
