package app

import tea "github.com/charmbracelet/bubbletea"

// Widget is a dashboard panel. The root model owns layout and chrome; a
// widget renders only its content area.
type Widget interface {
	ID() string
	Title() string
	Update(msg tea.Msg) tea.Cmd
	View(width, height int) string
	MinSize() (int, int)
	HandleKey(key tea.KeyMsg) tea.Cmd
}

// Badger is implemented by widgets that show status text in their border.
type Badger interface {
	Badge() string
}

// KeyCapturer is implemented by widgets that temporarily take every key,
// such as a chart in brush mode.
type KeyCapturer interface {
	CapturesKeys() bool
}

// Sizer is implemented by widgets that want to know their content size
// before the next View.
type Sizer interface {
	SetSize(width, height int)
}
