package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stackwatcher/stack-watcher/pkg/theme"
)

// PlaceholderWidget stands in for a hidden chart. It shows the chart's
// title and a hint for bringing it back.
type PlaceholderWidget struct {
	id    string
	title string
	hint  string
}

// NewPlaceholder creates a new PlaceholderWidget.
func NewPlaceholder(id, title, hint string) *PlaceholderWidget {
	return &PlaceholderWidget{id: id, title: title, hint: hint}
}

// ID returns the widget's unique identifier.
func (w *PlaceholderWidget) ID() string {
	return w.id
}

// Title returns the widget's display title.
func (w *PlaceholderWidget) Title() string {
	return w.title
}

// Badge marks the panel as hidden.
func (w *PlaceholderWidget) Badge() string {
	return "hidden"
}

// Update is a no-op for the placeholder widget.
func (w *PlaceholderWidget) Update(_ tea.Msg) tea.Cmd {
	return nil
}

// View centers the hint vertically within the available height.
func (w *PlaceholderWidget) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	st := theme.Current.Styles()
	text := st.Dim.Render(w.hint)

	lines := make([]string, height)
	lines[(height-1)/2] = lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
	return strings.Join(lines, "\n")
}

// MinSize returns the minimum dimensions for the placeholder widget.
func (w *PlaceholderWidget) MinSize() (int, int) {
	return 10, 1
}

// HandleKey is a no-op for the placeholder widget.
func (w *PlaceholderWidget) HandleKey(_ tea.KeyMsg) tea.Cmd {
	return nil
}
