package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every dashboard key binding. It implements help.KeyMap.
type KeyMap struct {
	Period7d key.Binding
	Period1m key.Binding
	Period3m key.Binding

	ToggleSync      key.Binding
	ToggleZoom      key.Binding
	TogglePan       key.Binding
	ToggleSelection key.Binding
	ResetZoom       key.Binding

	ZoomIn    key.Binding
	ZoomOut   key.Binding
	PanLeft   key.Binding
	PanRight  key.Binding
	Brush     key.Binding
	Clear     key.Binding
	Field     key.Binding
	HideChart key.Binding

	Next    key.Binding
	Prev    key.Binding
	Expand  key.Binding
	Back    key.Binding
	Help    key.Binding
	Prompt  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Period7d: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "7 days")),
		Period1m: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "1 month")),
		Period3m: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "1 quarter")),

		ToggleSync:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "toggle sync")),
		ToggleZoom:      key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom sync")),
		TogglePan:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pan sync")),
		ToggleSelection: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "selection sync")),
		ResetZoom:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset zoom")),

		ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		PanLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "pan left")),
		PanRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "pan right")),
		Brush:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "brush")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear selection")),
		Field:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "weather field")),
		HideChart: key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "hide/show chart")),

		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next chart")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev chart")),
		Expand:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Prompt:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command")),
		Refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Period7d, k.Period1m, k.Period3m, k.ToggleSync, k.Next, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay, one column per
// group.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Period7d, k.Period1m, k.Period3m, k.Refresh},
		{k.ToggleSync, k.ToggleZoom, k.TogglePan, k.ToggleSelection, k.ResetZoom},
		{k.ZoomIn, k.ZoomOut, k.PanLeft, k.PanRight, k.Brush, k.Clear, k.Field},
		{k.Next, k.Prev, k.Expand, k.HideChart, k.Prompt, k.Help, k.Quit},
	}
}
