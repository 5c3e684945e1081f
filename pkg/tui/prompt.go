package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackwatcher/stack-watcher/pkg/app"
	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/config"
	"github.com/stackwatcher/stack-watcher/pkg/marketdata"
)

// Prompt commands:
//
//	@tokyo        switch the weather location
//	+9984 / -9984 add or remove a stock symbol
//	9984          toggle a stock symbol
//	period 1m     set the global period
//	theme nord    switch the color theme
//	preset markets
func newPrompt() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "@location  +symbol  -symbol  period 1m  theme nord  preset markets"
	ti.CharLimit = 64
	return ti
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		line := m.prompt.Value()
		m.prompting = false
		m.prompt.Blur()
		cmd := m.runCommand(line)
		return m, cmd
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// runCommand executes one prompt line. Effects that belong to the update
// loop's message handlers come back as commands.
func (m *Model) runCommand(line string) tea.Cmd {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch {
	case strings.HasPrefix(line, "@"):
		m.setLocation(strings.TrimPrefix(line, "@"))
	case strings.HasPrefix(line, "+"):
		m.addSymbol(strings.TrimPrefix(line, "+"))
	case strings.HasPrefix(line, "-"):
		m.removeSymbol(strings.TrimPrefix(line, "-"))
	case verb == "period":
		m.setPeriod(arg)
	case verb == "theme":
		return func() tea.Msg { return app.ThemeChangeEvent{Theme: arg} }
	case verb == "preset":
		if !config.IsPreset(arg) {
			m.setStatus(unknownMsg("preset", arg, []string{"full", "markets", "weather"}), true)
			return nil
		}
		var charts []chartsync.ChartType
		for _, name := range config.DashboardPreset(arg) {
			if t, err := chartsync.ParseChartType(name); err == nil {
				charts = append(charts, t)
			}
		}
		return func() tea.Msg { return app.LayoutPresetEvent{Preset: arg, Charts: charts} }
	case arg == "":
		m.toggleSymbol(line)
	default:
		m.setStatus(fmt.Sprintf("unknown command %q", verb), true)
	}
	return nil
}

func (m *Model) setLocation(loc string) {
	if m.weather == nil {
		return
	}
	loc = strings.ToLower(strings.TrimSpace(loc))
	if known := m.weather.Locations(); len(known) > 0 {
		ids := make([]string, len(known))
		found := false
		for i, l := range known {
			ids[i] = l.ID
			found = found || l.ID == loc
		}
		if !found {
			m.setStatus(unknownMsg("location", loc, ids), true)
			return
		}
	}
	m.weather.SetLocation(loc)
	m.setStatus("location "+loc, false)
}

func (m *Model) addSymbol(sym string) {
	if m.stocks == nil {
		return
	}
	sym = strings.TrimSpace(sym)
	if avail := m.stocks.AvailableSymbols(); len(avail) > 0 {
		syms := make([]string, len(avail))
		found := false
		for i, a := range avail {
			syms[i] = a.Symbol
			found = found || a.Symbol == sym
		}
		if !found {
			m.setStatus(unknownMsg("symbol", sym, syms), true)
			return
		}
	}
	if m.stocks.AddSymbol(sym) {
		m.setStatus("added "+sym, false)
	} else {
		m.setStatus(sym+" already shown", false)
	}
}

func (m *Model) removeSymbol(sym string) {
	if m.stocks == nil {
		return
	}
	sym = strings.TrimSpace(sym)
	if m.stocks.RemoveSymbol(sym) {
		m.setStatus("removed "+sym, false)
	} else {
		m.setStatus(sym+" is not shown", true)
	}
}

func (m *Model) toggleSymbol(sym string) {
	if m.stocks == nil {
		m.setStatus(fmt.Sprintf("unknown command %q", sym), true)
		return
	}
	for _, s := range m.stocks.Symbols() {
		if s == sym {
			m.removeSymbol(sym)
			return
		}
	}
	m.addSymbol(sym)
}

// unknownMsg formats a rejection with a closest-match hint.
func unknownMsg(kind, given string, candidates []string) string {
	if hint := marketdata.Closest(given, candidates); hint != "" {
		return fmt.Sprintf("unknown %s %q (did you mean %q?)", kind, given, hint)
	}
	return fmt.Sprintf("unknown %s %q", kind, given)
}
