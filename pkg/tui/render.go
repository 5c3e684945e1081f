package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stackwatcher/stack-watcher/pkg/app"
	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/components"
	"github.com/stackwatcher/stack-watcher/pkg/layout"
	"github.com/stackwatcher/stack-watcher/pkg/period"
	"github.com/stackwatcher/stack-watcher/pkg/theme"
)

// hiddenHeight is the height of a collapsed placeholder panel.
const hiddenHeight = 3

// View renders the header, the panels (or the help overlay) and the
// status bar.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	if m.showHelp {
		body = m.renderHelp(m.bodyRect())
	} else {
		body = m.renderPanels()
	}
	out := strings.Join([]string{m.renderHeader(), body, m.renderStatusBar()}, "\n")
	if m.zones != nil {
		out = m.zones.Scan(out)
	}
	return out
}

func (m Model) bodyRect() layout.Rect {
	return layout.Rect{X: 0, Y: 1, Width: m.width, Height: max(m.height-2, 0)}
}

// panelRects places every panel. Only the expanded panel gets a rect while
// one is expanded; hidden placeholders get a short fixed row.
func (m Model) panelRects() []layout.Rect {
	rects := make([]layout.Rect, len(m.widgets))
	body := m.bodyRect()
	if ex := m.focus.Expanded(); ex >= 0 && ex < len(rects) {
		rects[ex] = body
		return rects
	}
	cs := make([]layout.Constraint, len(m.widgets))
	for i := range m.widgets {
		if m.slots[i].hidden {
			cs[i] = layout.Length{Value: hiddenHeight}
		} else {
			cs[i] = layout.Fill{Weight: 1}
		}
	}
	copy(rects, layout.SplitVertical(body, cs...))
	return rects
}

// resize pushes panel sizes to the widgets and lets the coordinator apply
// them to every registered chart.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	for i, r := range m.panelRects() {
		if r.Empty() {
			continue
		}
		if s, ok := m.widgets[i].(app.Sizer); ok {
			in := r.Inner(1)
			s.SetSize(in.Width, in.Height)
		}
	}
	if m.coord != nil {
		m.coord.ResizeAllCharts()
		return
	}
	for _, w := range m.widgets {
		if h, ok := w.(chartsync.Handle); ok {
			h.Resize()
		}
	}
}

func (m Model) renderPanels() string {
	th := theme.Current
	var rows []string
	for i, r := range m.panelRects() {
		if r.Empty() {
			continue
		}
		w := m.widgets[i]
		style := components.BoxStyle{
			Title:       w.Title(),
			Focused:     i == m.focus.Focused(),
			BorderColor: th.Border,
			FocusColor:  th.BorderFocus,
			TitleColor:  th.Title,
		}
		if b, ok := w.(app.Badger); ok {
			style.Badge = b.Badge()
		}
		in := r.Inner(1)
		box := components.RenderBox(w.View(in.Width, in.Height), r.Width, r.Height, style)
		if m.zones != nil {
			box = m.zones.Mark(w.ID(), box)
		}
		rows = append(rows, box)
	}
	return strings.Join(rows, "\n")
}

func periodZone(id period.ID) string { return "period-" + string(id) }

// renderHeader draws the app title and the clickable period selector.
func (m Model) renderHeader() string {
	st := theme.Current.Styles()
	parts := []string{st.Title.Render("Stack Watcher")}
	if m.coord != nil {
		for _, o := range m.coord.Catalog().Options() {
			tab := st.InactiveTab.Render(o.Label)
			if o.ID == m.coord.GlobalPeriod() {
				tab = st.ActiveTab.Render(o.Label)
			}
			if m.zones != nil {
				tab = m.zones.Mark(periodZone(o.ID), tab)
			}
			parts = append(parts, tab)
		}
	}
	return components.Fit(strings.Join(parts, " "), m.width)
}

// renderStatusBar shows the prompt while it is open, otherwise the last
// status message (or the sync summary) and the key hints.
func (m Model) renderStatusBar() string {
	if m.width <= 0 {
		return ""
	}
	if m.prompting {
		return components.Fit(m.prompt.View(), m.width)
	}
	st := theme.Current.Styles()

	left := st.Dim.Render(m.summary())
	if m.status != "" {
		left = st.OK.Render(m.status)
		if m.statusErr {
			left = st.Error.Render(m.status)
		}
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())

	gap := m.width - components.VisibleLen(left) - components.VisibleLen(right)
	if gap < 2 {
		return components.Fit(left, m.width)
	}
	return left + strings.Repeat(" ", gap) + right
}

// summary describes the sync state: period, toggles, mounted charts and
// the shared view range.
func (m Model) summary() string {
	if m.coord == nil {
		return ""
	}
	parts := []string{
		string(m.coord.GlobalPeriod()),
		"sync " + syncFlags(m.coord.Settings()),
		fmt.Sprintf("%d/%d charts", m.coord.RegisteredCount(), len(chartsync.ChartTypes())),
	}
	if v := m.coord.ViewRange(); v.IsSet() {
		parts = append(parts, fmt.Sprintf("%s→%s %.1fx", v.Start.Format("01-02"), v.End.Format("01-02"), v.ZoomLevel))
	}
	if m.coord.Syncing() {
		parts = append(parts, "syncing")
	}
	return strings.Join(parts, " · ")
}

func syncFlags(s chartsync.Settings) string {
	if !s.Enabled {
		return "off"
	}
	var on []string
	if s.Zoom {
		on = append(on, "zoom")
	}
	if s.Pan {
		on = append(on, "pan")
	}
	if s.Selection {
		on = append(on, "sel")
	}
	if len(on) == 0 {
		return "on (none)"
	}
	return "on (" + strings.Join(on, " ") + ")"
}

func (m Model) renderHelp(area layout.Rect) string {
	if area.Empty() {
		return ""
	}
	th := theme.Current
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(th.BorderFocus)).
		Padding(0, 1).
		Render(m.help.FullHelpView(m.keys.FullHelp()))
	return lipgloss.Place(area.Width, area.Height, lipgloss.Center, lipgloss.Center, box)
}

// handleMouse focuses the clicked panel, switches period on a tab click,
// and forwards the event so charts can zoom or move a brush.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.zones == nil {
		return nil
	}
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		if m.coord != nil {
			for _, o := range m.coord.Catalog().Options() {
				if z := m.zones.Get(periodZone(o.ID)); z != nil && z.InBounds(msg) {
					m.setPeriod(string(o.ID))
					return nil
				}
			}
		}
		for i, w := range m.widgets {
			if z := m.zones.Get(w.ID()); z != nil && z.InBounds(msg) {
				m.focus.Focus(i)
				m.followFocus()
				break
			}
		}
	}
	var cmds []tea.Cmd
	for _, w := range m.widgets {
		if cmd := w.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}
