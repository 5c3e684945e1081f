package app

// FocusRing tracks keyboard focus over a fixed number of panels and which
// panel, if any, is expanded to fill the screen.
type FocusRing struct {
	n        int
	focused  int
	expanded int
}

// NewFocusRing creates a ring over n panels with focus on the first and
// nothing expanded.
func NewFocusRing(n int) FocusRing {
	return FocusRing{n: n, expanded: -1}
}

// Len returns the number of panels.
func (f FocusRing) Len() int { return f.n }

// Focused returns the focused panel index.
func (f FocusRing) Focused() int { return f.focused }

// Expanded returns the expanded panel index, or -1.
func (f FocusRing) Expanded() int { return f.expanded }

// Forward moves focus to the next panel, wrapping after the last.
func (f *FocusRing) Forward() {
	if f.n == 0 {
		return
	}
	f.focused = (f.focused + 1) % f.n
}

// Backward moves focus to the previous panel, wrapping before the first.
func (f *FocusRing) Backward() {
	if f.n == 0 {
		return
	}
	f.focused = (f.focused - 1 + f.n) % f.n
}

// Focus sets focus directly. Out-of-range indices are ignored.
func (f *FocusRing) Focus(i int) {
	if i >= 0 && i < f.n {
		f.focused = i
	}
}

// ToggleExpand expands the focused panel, or collapses it if it is already
// expanded. If another panel is expanded, expansion moves to the focused one.
func (f *FocusRing) ToggleExpand() {
	if f.n == 0 {
		return
	}
	if f.expanded == f.focused {
		f.expanded = -1
	} else {
		f.expanded = f.focused
	}
}

// Collapse clears expansion. It reports whether anything was expanded.
func (f *FocusRing) Collapse() bool {
	was := f.expanded >= 0
	f.expanded = -1
	return was
}
