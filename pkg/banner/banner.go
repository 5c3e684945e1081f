// Package banner renders the dashboard as a single static frame for
// `stackwatch -once` and for output that is not a terminal. It picks a
// fixed-size preset that fits the terminal, waits for the stores' first
// fetches and prints one View of the model.
package banner

import (
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
)

// Preset defines a named frame size.
type Preset struct {
	Name   string
	Width  int
	Height int
}

var (
	// Compact fits a classic 80x24 terminal.
	Compact = Preset{"compact", 80, 24}
	// Standard is the default when the size is unknown.
	Standard = Preset{"standard", 120, 40}
	// Wide gives each chart more days per column.
	Wide = Preset{"wide", 160, 48}
)

// SelectPreset chooses the largest preset whose width and height both fit
// within the terminal. If none fit, Compact is returned.
func SelectPreset(termWidth, termHeight int) Preset {
	for _, p := range []Preset{Wide, Standard, Compact} {
		if termWidth >= p.Width && termHeight >= p.Height {
			return p
		}
	}
	return Compact
}

// Size is a terminal size in cells.
type Size struct {
	Cols int
	Rows int
}

// TerminalSize returns the size of the terminal on fd. When fd is not a
// terminal it falls back to COLUMNS/LINES, and ok is false if neither is
// available.
func TerminalSize(fd uintptr) (Size, bool) {
	if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
		return Size{Cols: w, Rows: h}, true
	}
	cols, rows := envInt("COLUMNS"), envInt("LINES")
	if cols > 0 && rows > 0 {
		return Size{Cols: cols, Rows: rows}, true
	}
	return Size{}, false
}

// PresetFor picks the frame size for output on fd, Standard when the size is
// unknown.
func PresetFor(fd uintptr) Preset {
	s, ok := TerminalSize(fd)
	if !ok {
		return Standard
	}
	return SelectPreset(s.Cols, s.Rows)
}

// Render sizes m to the preset and returns its view.
func Render(m tea.Model, p Preset) string {
	m, _ = m.Update(tea.WindowSizeMsg{Width: p.Width, Height: p.Height})
	return m.View()
}

// envInt reads a positive integer from the named environment variable, or
// 0.
func envInt(name string) int {
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
