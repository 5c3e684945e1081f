// Package layout splits the terminal into rows and columns for the chart
// stack. Constraints are solved in two passes: fixed sizes first, then the
// remaining space is shared among Fill items by weight. Min items take their
// floor and then grow like Fill(1).
package layout

// Rect represents a rectangular area in terminal cells.
type Rect struct {
	X, Y, Width, Height int
}

// Empty returns true if this rectangle has zero area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inner returns r shrunk by margin on all sides, never negative.
func (r Rect) Inner(margin int) Rect {
	margin = max(margin, 0)
	return Rect{
		X:      r.X + margin,
		Y:      r.Y + margin,
		Width:  max(r.Width-2*margin, 0),
		Height: max(r.Height-2*margin, 0),
	}
}

// Direction controls the axis along which space is split.
type Direction int

const (
	// Horizontal splits left-to-right (constraints control width).
	Horizontal Direction = iota
	// Vertical splits top-to-bottom (constraints control height).
	Vertical
)

// Constraint is satisfied by Length, Min and Fill.
type Constraint interface {
	constraint()
}

// Length allocates exactly Value cells.
type Length struct{ Value int }

// Min allocates at least Value cells and grows into surplus.
type Min struct{ Value int }

// Fill shares remaining space proportional to Weight (0 means 1).
type Fill struct{ Weight int }

func (Length) constraint() {}
func (Min) constraint()    {}
func (Fill) constraint()   {}

// Split divides area along dir into len(cs) rects separated by spacing
// cells. When fixed sizes overflow the area, later items are truncated.
func Split(area Rect, dir Direction, spacing int, cs ...Constraint) []Rect {
	n := len(cs)
	if n == 0 {
		return nil
	}
	total := area.Width
	if dir == Vertical {
		total = area.Height
	}
	available := max(total-max(spacing, 0)*(n-1), 0)

	sizes := make([]int, n)
	weights := make([]int, n)
	fixed, totalWeight := 0, 0
	for i, c := range cs {
		switch v := c.(type) {
		case Length:
			sizes[i] = max(v.Value, 0)
			fixed += sizes[i]
		case Min:
			sizes[i] = max(v.Value, 0)
			fixed += sizes[i]
			weights[i] = 1
		case Fill:
			weights[i] = max(v.Weight, 1)
		}
		totalWeight += weights[i]
	}

	if rest := available - fixed; rest > 0 && totalWeight > 0 {
		given, last := 0, -1
		for i := range cs {
			if weights[i] > 0 {
				last = i
			}
		}
		for i := range cs {
			if weights[i] == 0 {
				continue
			}
			share := rest * weights[i] / totalWeight
			if i == last {
				share = rest - given
			}
			sizes[i] += share
			given += share
		}
	}

	out := make([]Rect, n)
	pos, left := 0, available
	for i, s := range sizes {
		s = min(s, left)
		left -= s
		if dir == Vertical {
			out[i] = Rect{X: area.X, Y: area.Y + pos, Width: area.Width, Height: s}
		} else {
			out[i] = Rect{X: area.X + pos, Y: area.Y, Width: s, Height: area.Height}
		}
		pos += s + max(spacing, 0)
	}
	return out
}

// SplitVertical splits area top-to-bottom with no spacing.
func SplitVertical(area Rect, cs ...Constraint) []Rect {
	return Split(area, Vertical, 0, cs...)
}
