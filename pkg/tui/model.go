// Package tui is the root Bubbletea model of the dashboard. It lays out the
// chart panels, owns focus and the command prompt, and routes global keys to
// the sync coordinator.
package tui

import (
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/stackwatcher/stack-watcher/pkg/app"
	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/stores"
)

// Chart is a mountable chart panel.
type Chart interface {
	app.Widget
	chartsync.Handle
	Dispose()
}

// ChartFactory creates a fresh chart for a slot. It returns nil for types it
// cannot build.
type ChartFactory func(t chartsync.ChartType) Chart

// Options configure a dashboard model.
type Options struct {
	Coordinator *chartsync.Coordinator
	Charts      ChartFactory

	// Visible lists the charts mounted at startup. Nil mounts all of them.
	Visible []chartsync.ChartType

	Updates <-chan stores.Update
	Stocks  *stores.StockStore
	Indices *stores.IndexStore
	Weather *stores.WeatherStore

	// Refresh refetches every store on this interval. Zero disables it.
	Refresh time.Duration

	// Zones enables mouse support. Nil disables it.
	Zones *zone.Manager

	// ColorDepth is passed to theme.SetCurrent on theme changes.
	ColorDepth int

	Logger *slog.Logger
}

// slot is one panel position. kind is only meaningful in dashboard mode.
type slot struct {
	kind   chartsync.ChartType
	hidden bool
}

// Model is the root model. It is a value type: Update returns the new model.
type Model struct {
	widgets []app.Widget
	slots   []slot
	focus   app.FocusRing
	keys    app.KeyMap
	help    help.Model

	prompt    textinput.Model
	prompting bool
	showHelp  bool

	status    string
	statusErr bool

	coord   *chartsync.Coordinator
	charts  ChartFactory
	updates <-chan stores.Update
	stocks  *stores.StockStore
	indices *stores.IndexStore
	weather *stores.WeatherStore
	refresh time.Duration
	zones   *zone.Manager
	depth   int
	log     *slog.Logger

	width  int
	height int
	ready  bool
}

// New creates a model over a fixed set of widgets with no coordinator.
func New(widgets []app.Widget) Model {
	m := Model{
		widgets: widgets,
		slots:   make([]slot, len(widgets)),
		focus:   app.NewFocusRing(len(widgets)),
		keys:    app.DefaultKeyMap(),
		help:    help.New(),
		prompt:  newPrompt(),
		depth:   24,
		log:     slog.Default(),
	}
	return m
}

// NewDashboard creates the model with one slot per chart type. Charts not
// listed in opts.Visible start hidden. Mounted charts are registered with
// the coordinator.
func NewDashboard(opts Options) Model {
	m := New(nil)
	m.coord = opts.Coordinator
	m.charts = opts.Charts
	m.updates = opts.Updates
	m.stocks, m.indices, m.weather = opts.Stocks, opts.Indices, opts.Weather
	m.refresh = opts.Refresh
	m.zones = opts.Zones
	if opts.ColorDepth > 0 {
		m.depth = opts.ColorDepth
	}
	if opts.Logger != nil {
		m.log = opts.Logger
	}

	types := chartsync.ChartTypes()
	m.widgets = make([]app.Widget, len(types))
	m.slots = make([]slot, len(types))
	m.focus = app.NewFocusRing(len(types))
	for i, t := range types {
		m.slots[i] = slot{kind: t, hidden: true}
		m.widgets[i] = placeholderFor(t)
	}
	for i, t := range types {
		if opts.Visible != nil && !slices.Contains(opts.Visible, t) {
			continue
		}
		if err := m.mount(i); err != nil {
			m.log.Warn("chart mount failed", "chart", t, "error", err)
		}
	}
	return m
}

// Init starts listening for store updates and schedules the first refresh.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if cmd := app.WaitForUpdate(m.updates); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.refresh > 0 {
		cmds = append(cmds, app.TickCmd(m.refresh))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Focused returns the focused widget index.
func (m Model) Focused() int { return m.focus.Focused() }

// Expanded returns the expanded widget index, or -1.
func (m Model) Expanded() int { return m.focus.Expanded() }

// ShowHelp reports whether the help overlay is visible.
func (m Model) ShowHelp() bool { return m.showHelp }

// Prompting reports whether the command prompt is open.
func (m Model) Prompting() bool { return m.prompting }

// Ready reports whether the terminal size is known.
func (m Model) Ready() bool { return m.ready }

// Width returns the terminal width.
func (m Model) Width() int { return m.width }

// Height returns the terminal height.
func (m Model) Height() int { return m.height }

// Status returns the status bar message and whether it is an error.
func (m Model) Status() (string, bool) { return m.status, m.statusErr }

// Widget returns the widget in slot i.
func (m Model) Widget(i int) app.Widget {
	if i < 0 || i >= len(m.widgets) {
		return nil
	}
	return m.widgets[i]
}

// Hidden reports whether the chart in slot i is unmounted.
func (m Model) Hidden(i int) bool {
	return i >= 0 && i < len(m.slots) && m.slots[i].hidden
}
