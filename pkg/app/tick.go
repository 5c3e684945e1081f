package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackwatcher/stack-watcher/pkg/stores"
)

// TickCmd returns a bubbletea Cmd that sends a TickEvent after the given
// duration.
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickEvent{Time: t}
	})
}

// WaitForUpdate returns a Cmd that blocks until a store signals on ch and
// delivers it as a DataUpdateEvent. The receiver must issue a new
// WaitForUpdate after each event. A closed channel yields nil.
func WaitForUpdate(ch <-chan stores.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return DataUpdateEvent{
			Kind:      u.Kind,
			Period:    u.Period,
			Err:       u.Err,
			Failed:    u.Failed,
			Timestamp: time.Now(),
		}
	}
}

// StatusCmd wraps a status message in a Cmd.
func StatusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return StatusEvent{Text: text, Error: isErr}
	}
}
