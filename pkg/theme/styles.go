package theme

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Title       lipgloss.Style
	Dim         lipgloss.Style
	Accent      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	OK          lipgloss.Style
	Warn        lipgloss.Style
	Error       lipgloss.Style
	Up          lipgloss.Style
	Down        lipgloss.Style
	HelpKey     lipgloss.Style
	HelpDesc    lipgloss.Style
}

// Styles builds the style set for t.
func (t Theme) Styles() Styles {
	c := func(s string) lipgloss.Color { return lipgloss.Color(s) }
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(c(t.Title)),
		Dim:         lipgloss.NewStyle().Foreground(c(t.Dim)),
		Accent:      lipgloss.NewStyle().Foreground(c(t.Accent)),
		ActiveTab:   lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(c(t.Foreground)).Background(c(t.Accent)),
		InactiveTab: lipgloss.NewStyle().Padding(0, 1).Foreground(c(t.Dim)),
		OK:          lipgloss.NewStyle().Foreground(c(t.StatusOK)),
		Warn:        lipgloss.NewStyle().Foreground(c(t.StatusWarn)),
		Error:       lipgloss.NewStyle().Foreground(c(t.StatusError)),
		Up:          lipgloss.NewStyle().Foreground(c(t.Up)),
		Down:        lipgloss.NewStyle().Foreground(c(t.Down)),
		HelpKey:     lipgloss.NewStyle().Bold(true).Foreground(c(t.HelpKey)),
		HelpDesc:    lipgloss.NewStyle().Foreground(c(t.HelpDesc)),
	}
}

// Change renders text in the up or down color by the sign of delta. Zero
// renders dim.
func (s Styles) Change(text string, delta float64) string {
	switch {
	case delta > 0:
		return s.Up.Render(text)
	case delta < 0:
		return s.Down.Render(text)
	default:
		return s.Dim.Render(text)
	}
}
