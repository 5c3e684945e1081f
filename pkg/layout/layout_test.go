package layout

import (
	"testing"
)

// area is a test helper that creates a Rect at origin with the given size.
func area(w, h int) Rect {
	return Rect{X: 0, Y: 0, Width: w, Height: h}
}

// assertRectsEqual fails the test if got and want differ.
func assertRectsEqual(t *testing.T, label string, got, want []Rect) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len(got)=%d, want %d\ngot:  %v\nwant: %v", label, len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("%s[%d]: got %v, want %v", label, i, got[i], want[i])
		}
	}
}

// --- Fill constraints ---

func TestSingleFillFillsEntireArea(t *testing.T) {
	rects := Split(area(100, 50), Horizontal, 0, Fill{1})
	assertRectsEqual(t, "single fill", rects, []Rect{
		{X: 0, Y: 0, Width: 100, Height: 50},
	})
}

func TestFillWeightedRatio(t *testing.T) {
	rects := Split(area(90, 30), Horizontal, 0, Fill{2}, Fill{1})
	assertRectsEqual(t, "fill 2:1", rects, []Rect{
		{X: 0, Y: 0, Width: 60, Height: 30},
		{X: 60, Y: 0, Width: 30, Height: 30},
	})
}

func TestFillZeroWeightTreatedAsOne(t *testing.T) {
	rects := Split(area(80, 20), Horizontal, 0, Fill{0}, Fill{0})
	assertRectsEqual(t, "fill zero weight", rects, []Rect{
		{X: 0, Y: 0, Width: 40, Height: 20},
		{X: 40, Y: 0, Width: 40, Height: 20},
	})
}

func TestLastFillAbsorbsRounding(t *testing.T) {
	rects := SplitVertical(area(80, 31), Fill{1}, Fill{1}, Fill{1})
	total := 0
	for _, r := range rects {
		total += r.Height
	}
	if total != 31 {
		t.Errorf("heights sum to %d, want 31", total)
	}
	if rects[2].Height != 11 {
		t.Errorf("last row height = %d, want remainder 11", rects[2].Height)
	}
}

// --- Length / Min ---

func TestDashboardRows(t *testing.T) {
	// header, two charts, status bar
	rects := SplitVertical(area(120, 40), Length{1}, Fill{1}, Fill{1}, Length{1})
	assertRectsEqual(t, "dashboard", rects, []Rect{
		{X: 0, Y: 0, Width: 120, Height: 1},
		{X: 0, Y: 1, Width: 120, Height: 19},
		{X: 0, Y: 20, Width: 120, Height: 19},
		{X: 0, Y: 39, Width: 120, Height: 1},
	})
}

func TestMinGrowsIntoSurplus(t *testing.T) {
	rects := Split(area(100, 10), Horizontal, 0, Min{20}, Fill{1})
	// 80 surplus shared 1:1 on top of the 20 floor.
	if rects[0].Width != 60 || rects[1].Width != 40 {
		t.Errorf("widths = %d,%d want 60,40", rects[0].Width, rects[1].Width)
	}
}

func TestMinRespectedWhenTight(t *testing.T) {
	rects := Split(area(30, 10), Horizontal, 0, Min{20}, Length{5}, Fill{1})
	if rects[0].Width != 20 {
		t.Errorf("min width = %d, want 20", rects[0].Width)
	}
	if rects[2].Width != 5 {
		t.Errorf("fill width = %d, want 5", rects[2].Width)
	}
}

func TestOverAllocationTruncates(t *testing.T) {
	rects := Split(area(100, 50), Horizontal, 0, Length{80}, Length{80})
	if rects[0].Width != 80 || rects[1].Width != 20 {
		t.Errorf("widths = %d,%d want 80,20", rects[0].Width, rects[1].Width)
	}
}

func TestNegativeLengthClampedToZero(t *testing.T) {
	rects := Split(area(50, 10), Horizontal, 0, Length{-5}, Fill{1})
	if rects[0].Width != 0 || rects[1].Width != 50 {
		t.Errorf("widths = %d,%d want 0,50", rects[0].Width, rects[1].Width)
	}
}

// --- Spacing ---

func TestSpacingVertical(t *testing.T) {
	rects := Split(area(40, 21), Vertical, 1, Fill{1}, Fill{1})
	assertRectsEqual(t, "spacing", rects, []Rect{
		{X: 0, Y: 0, Width: 40, Height: 10},
		{X: 0, Y: 11, Width: 40, Height: 10},
	})
}

func TestSpacingExceedsSpace(t *testing.T) {
	rects := Split(area(100, 50), Horizontal, 200, Fill{1}, Fill{1})
	for i, r := range rects {
		if r.Width != 0 {
			t.Errorf("rect[%d].Width should be 0, got %d", i, r.Width)
		}
	}
}

func TestNoConstraints(t *testing.T) {
	if rects := SplitVertical(area(10, 10)); rects != nil {
		t.Errorf("expected nil, got %v", rects)
	}
}

func TestOffsetArea(t *testing.T) {
	a := Rect{X: 10, Y: 20, Width: 100, Height: 50}
	rects := Split(a, Horizontal, 0, Fill{1}, Fill{1})
	if rects[0].X != 10 || rects[1].X != 60 {
		t.Errorf("X = %d,%d want 10,60", rects[0].X, rects[1].X)
	}
	if rects[0].Y != 20 || rects[1].Y != 20 {
		t.Errorf("Y should be preserved: got %d, %d", rects[0].Y, rects[1].Y)
	}
}

// --- Rect ---

func TestRectEmpty(t *testing.T) {
	if !(Rect{Width: 0, Height: 5}).Empty() {
		t.Error("zero width should be empty")
	}
	if (Rect{Width: 1, Height: 1}).Empty() {
		t.Error("1x1 should not be empty")
	}
}

func TestRectInner(t *testing.T) {
	got := Rect{X: 0, Y: 0, Width: 20, Height: 10}.Inner(1)
	if got != (Rect{X: 1, Y: 1, Width: 18, Height: 8}) {
		t.Errorf("Inner(1) = %v", got)
	}
	if got := (Rect{Width: 3, Height: 3}).Inner(5); !got.Empty() {
		t.Errorf("oversized margin should give empty rect, got %v", got)
	}
}
