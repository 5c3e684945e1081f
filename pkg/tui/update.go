package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackwatcher/stack-watcher/pkg/app"
	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/theme"
)

// Update routes one message. All coordinator calls happen here, on the
// program's update goroutine.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		cmd := m.handleMouse(msg)
		return m, cmd

	case app.DataUpdateEvent:
		switch {
		case msg.Err != nil:
			m.setStatus(fmt.Sprintf("%s: %v", msg.Kind, msg.Err), true)
		case len(msg.Failed) > 0:
			m.setStatus(fmt.Sprintf("%s: no data for %s", msg.Kind, strings.Join(msg.Failed, ", ")), true)
		}
		return m, app.WaitForUpdate(m.updates)

	case app.TickEvent:
		m.refreshStores()
		return m, app.TickCmd(m.refresh)

	case app.StatusEvent:
		m.setStatus(msg.Text, msg.Error)
		return m, nil

	case app.ThemeChangeEvent:
		if !theme.Exists(msg.Theme) {
			m.setStatus(unknownMsg("theme", msg.Theme, theme.Names()), true)
			return m, nil
		}
		theme.SetCurrent(msg.Theme, m.depth)
		m.setStatus("theme "+theme.Current.Name, false)
		return m, nil

	case app.LayoutPresetEvent:
		m.applyPreset(msg.Charts)
		m.setStatus("preset "+msg.Preset, false)
		return m, nil
	}

	var cmds []tea.Cmd
	for _, w := range m.widgets {
		if cmd := w.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c quits from every mode.
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.prompting {
		return m.handlePromptKey(msg)
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.showHelp = false
		} else if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	// A widget mid-gesture (a chart brush) gets every key.
	if w := m.focusedWidget(); w != nil {
		if kc, ok := w.(app.KeyCapturer); ok && kc.CapturesKeys() {
			return m, w.HandleKey(msg)
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Back):
		if m.focus.Collapse() {
			m.resize()
		}
	case key.Matches(msg, m.keys.Next):
		m.focus.Forward()
		m.followFocus()
	case key.Matches(msg, m.keys.Prev):
		m.focus.Backward()
		m.followFocus()
	case key.Matches(msg, m.keys.Expand):
		m.focus.ToggleExpand()
		m.resize()
	case key.Matches(msg, m.keys.Prompt):
		m.prompting = true
		m.prompt.Reset()
		cmd := m.prompt.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		m.refreshStores()
		m.setStatus("refreshing", false)
	case key.Matches(msg, m.keys.Period7d):
		m.selectPeriod(0)
	case key.Matches(msg, m.keys.Period1m):
		m.selectPeriod(1)
	case key.Matches(msg, m.keys.Period3m):
		m.selectPeriod(2)
	case key.Matches(msg, m.keys.ToggleSync):
		if m.coord != nil {
			m.setStatus("sync "+onOff(m.coord.ToggleSync()), false)
		}
	case key.Matches(msg, m.keys.ToggleZoom):
		m.patchSync(func(s chartsync.Settings) chartsync.SettingsPatch {
			v := !s.Zoom
			return chartsync.SettingsPatch{Zoom: &v}
		})
	case key.Matches(msg, m.keys.TogglePan):
		m.patchSync(func(s chartsync.Settings) chartsync.SettingsPatch {
			v := !s.Pan
			return chartsync.SettingsPatch{Pan: &v}
		})
	case key.Matches(msg, m.keys.ToggleSelection):
		m.patchSync(func(s chartsync.Settings) chartsync.SettingsPatch {
			v := !s.Selection
			return chartsync.SettingsPatch{Selection: &v}
		})
	case key.Matches(msg, m.keys.ResetZoom):
		if m.coord != nil {
			if m.coord.ResetZoom() {
				m.setStatus("zoom reset", false)
			} else {
				m.setStatus("reset needs all three charts mounted", true)
			}
		}
	case key.Matches(msg, m.keys.HideChart):
		m.toggleHidden(m.focus.Focused())
	default:
		if w := m.focusedWidget(); w != nil {
			return m, w.HandleKey(msg)
		}
	}
	return m, nil
}

func (m *Model) selectPeriod(i int) {
	if m.coord == nil {
		return
	}
	opt, ok := m.coord.Catalog().At(i)
	if !ok {
		return
	}
	m.setPeriod(string(opt.ID))
}

func (m *Model) setPeriod(id string) {
	if m.coord == nil {
		return
	}
	cat := m.coord.Catalog()
	pid, err := cat.Parse(id)
	if err == nil {
		err = m.coord.SetGlobalPeriod(pid)
	}
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	opt, _ := cat.Lookup(pid)
	m.setStatus("period "+opt.Label, false)
}

func (m *Model) patchSync(patch func(chartsync.Settings) chartsync.SettingsPatch) {
	if m.coord == nil {
		return
	}
	s := m.coord.UpdateSyncSettings(patch(m.coord.Settings()))
	m.setStatus("sync "+syncFlags(s), false)
}

func (m *Model) refreshStores() {
	if m.stocks != nil {
		m.stocks.Refresh()
	}
	if m.indices != nil {
		m.indices.Refresh()
	}
	if m.weather != nil {
		m.weather.Refresh()
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status, m.statusErr = text, isErr
	if isErr {
		m.log.Warn("dashboard", "status", text)
	}
}

func (m Model) focusedWidget() app.Widget {
	return m.Widget(m.focus.Focused())
}

// followFocus moves an expanded view along with focus.
func (m *Model) followFocus() {
	if m.focus.Expanded() >= 0 && m.focus.Expanded() != m.focus.Focused() {
		m.focus.ToggleExpand()
		m.resize()
	}
}

// mount creates and registers the chart for slot i.
func (m *Model) mount(i int) error {
	s := &m.slots[i]
	if !s.hidden {
		return nil
	}
	if m.charts == nil {
		return errors.New("tui: no chart factory")
	}
	c := m.charts(s.kind)
	if c == nil {
		return fmt.Errorf("tui: no chart for %s", s.kind)
	}
	if m.coord != nil {
		if err := m.coord.RegisterChart(s.kind, c); err != nil {
			c.Dispose()
			return err
		}
	}
	m.widgets[i] = c
	s.hidden = false
	m.resize()
	return nil
}

// unmount unregisters and disposes the chart in slot i.
func (m *Model) unmount(i int) {
	s := &m.slots[i]
	if s.hidden {
		return
	}
	if m.coord != nil {
		m.coord.UnregisterChart(s.kind)
	}
	if c, ok := m.widgets[i].(Chart); ok {
		c.Dispose()
	}
	m.widgets[i] = placeholderFor(s.kind)
	s.hidden = true
	m.resize()
}

func (m *Model) toggleHidden(i int) {
	if m.charts == nil || i < 0 || i >= len(m.slots) {
		return
	}
	if m.slots[i].hidden {
		if err := m.mount(i); err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		m.setStatus(m.slots[i].kind.String()+" chart shown", false)
		return
	}
	m.unmount(i)
	m.setStatus(m.slots[i].kind.String()+" chart hidden", false)
}

func (m *Model) applyPreset(visible []chartsync.ChartType) {
	if m.charts == nil {
		return
	}
	for i, s := range m.slots {
		want := slices.Contains(visible, s.kind)
		switch {
		case want && s.hidden:
			if err := m.mount(i); err != nil {
				m.setStatus(err.Error(), true)
			}
		case !want && !s.hidden:
			m.unmount(i)
		}
	}
}

func placeholderFor(t chartsync.ChartType) app.Widget {
	return app.NewPlaceholder(t.String()+"-hidden", t.String(), "hidden · press H to show")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
