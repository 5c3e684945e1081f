package widgets

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	zone "github.com/lrstanley/bubblezone"

	"github.com/stackwatcher/stack-watcher/pkg/app"
	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/components"
	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/stores"
	"github.com/stackwatcher/stack-watcher/pkg/theme"
)

// chartView is the domain half of a chart: which series it draws and how.
type chartView interface {
	title() string
	status() stores.Status
	names() []string
	series(snaps []*data.SeriesSnapshot, th theme.Theme) []components.Series
	configure(cfg *components.TimeGraphConfig)
	handleKey(msg tea.KeyMsg) bool
	// summarize describes one series over the selected range.
	summarize(sel *data.SeriesSnapshot) string
}

// Options are shared by every chart constructor.
type Options struct {
	// Zones enables mouse support. Nil disables it.
	Zones  *zone.Manager
	Logger *slog.Logger
}

// brush is an in-progress selection. The chart's series stay frozen until
// it is committed or cancelled.
type brush struct {
	anchor time.Time
	cursor time.Time
	token  data.FreezeToken
}

// frameKey identifies a rendered frame.
type frameKey struct {
	version       uint64
	width, height int
	from, to      time.Time
	state         string // deterministic serialization of view state
}

// Chart is a zoomable, brushable time-series panel.
type Chart struct {
	id    string
	kind  chartsync.ChartType
	view  chartView
	data  *data.Store
	keys  app.KeyMap
	zones *zone.Manager
	log   *slog.Logger

	listeners map[chartsync.EventName][]chartsync.Listener
	disposed  bool

	// from and to are the zoom window; zero means the full span.
	from, to time.Time
	areas    []chartsync.Area
	brush    *brush

	pendingW, pendingH int
	width, height      int
	resizes            int

	frame    frameKey
	frameOut string
	renders  int
}

func newChart(kind chartsync.ChartType, view chartView, d *data.Store, opts Options) *Chart {
	id := kind.String() + "-" + uuid.NewString()[:8]
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Chart{
		id:        id,
		kind:      kind,
		view:      view,
		data:      d,
		keys:      app.DefaultKeyMap(),
		zones:     opts.Zones,
		log:       log.With("chart", kind.String(), "id", id),
		listeners: make(map[chartsync.EventName][]chartsync.Listener),
	}
}

// ID returns the chart's mount identity. A remounted chart gets a new one.
func (c *Chart) ID() string { return c.id }

// Kind returns the registry slot the chart belongs in.
func (c *Chart) Kind() chartsync.ChartType { return c.kind }

// Title returns the panel title.
func (c *Chart) Title() string { return c.view.title() }

// MinSize returns the smallest useful panel.
func (c *Chart) MinSize() (int, int) { return 20, 4 }

// Badge summarizes period, fetch state, zoom and brush for the border.
func (c *Chart) Badge() string {
	st := c.view.status()
	var parts []string
	if st.Period != "" {
		parts = append(parts, string(st.Period))
	}
	switch {
	case st.Loading:
		parts = append(parts, "loading")
	case st.Err != nil:
		parts = append(parts, "error")
	case len(st.Failed) > 0:
		parts = append(parts, fmt.Sprintf("%d failed", len(st.Failed)))
	}
	if _, _, level, ok := c.Window(); ok && level > 1 {
		parts = append(parts, fmt.Sprintf("%.1fx", level))
	}
	if c.brush != nil {
		parts = append(parts, "brush")
	} else if len(c.areas) > 0 {
		parts = append(parts, "sel")
	}
	return strings.Join(parts, " · ")
}

// On attaches a listener. Listeners on a disposed chart are dropped.
func (c *Chart) On(name chartsync.EventName, fn chartsync.Listener) {
	if c.disposed || fn == nil {
		return
	}
	c.listeners[name] = append(c.listeners[name], fn)
}

func (c *Chart) emit(ev chartsync.Event) {
	for _, fn := range c.listeners[ev.Name] {
		fn(ev)
	}
}

// DispatchCommand applies a coordinator command. Like a chart engine, the
// chart re-emits the resulting zoom or selection event; the coordinator's
// in-flight guard drops the echo.
func (c *Chart) DispatchCommand(cmd chartsync.Command) error {
	if c.disposed {
		return ErrDisposed
	}
	switch cmd.Type {
	case chartsync.CommandApplyZoom:
		if cmd.Start.IsZero() || cmd.End.IsZero() {
			c.from, c.to = time.Time{}, time.Time{}
		} else if cmd.End.Before(cmd.Start) {
			return fmt.Errorf("widgets: %s: applyZoom end %s before start %s", c.kind, cmd.End, cmd.Start)
		} else {
			c.from, c.to = cmd.Start, cmd.End
		}
		c.emitZoom(false)
	case chartsync.CommandApplySelection:
		c.areas = slices.Clone(cmd.Areas)
		c.emit(chartsync.Event{Name: chartsync.EventSelectionChanged, Areas: slices.Clone(c.areas)})
	case chartsync.CommandResetZoom:
		c.from, c.to = time.Time{}, time.Time{}
	default:
		return fmt.Errorf("widgets: %s: unknown command %q", c.kind, cmd.Type)
	}
	return nil
}

// SetSize records the content size the next Resize applies.
func (c *Chart) SetSize(width, height int) {
	c.pendingW, c.pendingH = width, height
}

// Resize applies the size from the last SetSize. Calling it again without a
// new SetSize changes nothing.
func (c *Chart) Resize() {
	if c.disposed {
		return
	}
	if c.width == c.pendingW && c.height == c.pendingH {
		return
	}
	c.width, c.height = c.pendingW, c.pendingH
	c.resizes++
}

// Size returns the size applied by the last Resize.
func (c *Chart) Size() (int, int) { return c.width, c.height }

// Dispose unmounts the chart: listeners are dropped, a pending brush
// releases its freeze, and later commands fail with ErrDisposed.
func (c *Chart) Dispose() {
	if c.disposed {
		return
	}
	c.endBrush()
	c.disposed = true
	c.listeners = nil
	c.log.Debug("chart disposed")
}

// Disposed reports whether Dispose has run.
func (c *Chart) Disposed() bool { return c.disposed }

// fullSpan returns the date range covered by the chart's data.
func (c *Chart) fullSpan() (time.Time, time.Time, bool) {
	return c.data.Bounds(c.view.names()...)
}

// Window returns the visible date range and zoom level. A zoom window that
// no longer overlaps the data, for example after a period change, shows the
// full span.
func (c *Chart) Window() (from, to time.Time, level float64, ok bool) {
	lo, hi, ok := c.fullSpan()
	if !ok {
		return time.Time{}, time.Time{}, 1, false
	}
	from, to = lo, hi
	if !c.from.IsZero() {
		f, t := later(c.from, lo), earlier(c.to, hi)
		if f.Before(t) {
			from, to = f, t
		}
	}
	level = 1.0
	if span := to.Sub(from); span > 0 && hi.Sub(lo) > span {
		level = float64(hi.Sub(lo)) / float64(span)
	}
	return from, to, level, true
}

// Zoomed reports whether a zoom window is set.
func (c *Chart) Zoomed() bool { return !c.from.IsZero() }

// emitZoom reports the current window. At full span the range is sent
// unset, since other charts may hold data over a different span.
func (c *Chart) emitZoom(pan bool) {
	if !c.Zoomed() {
		c.emit(chartsync.Event{
			Name: chartsync.EventZoomChanged,
			Zoom: chartsync.ZoomRange{Level: 1, Pan: pan},
		})
		return
	}
	from, to, level, ok := c.Window()
	if !ok {
		from, to = c.from, c.to
	}
	c.emit(chartsync.Event{
		Name: chartsync.EventZoomChanged,
		Zoom: chartsync.ZoomRange{Start: from, End: to, Level: level, Pan: pan},
	})
}

// ZoomIn halves the visible span around its center.
func (c *Chart) ZoomIn() { c.zoomBy(2) }

// ZoomOut doubles the visible span, returning to the full span once it
// covers all data.
func (c *Chart) ZoomOut() { c.zoomBy(0.5) }

func (c *Chart) zoomBy(factor float64) {
	lo, hi, ok := c.fullSpan()
	if !ok {
		return
	}
	from, to, _, _ := c.Window()
	span := max(time.Duration(float64(to.Sub(from))/factor), minSpan)
	if span >= hi.Sub(lo) {
		if c.Zoomed() {
			c.from, c.to = time.Time{}, time.Time{}
			c.emitZoom(false)
		}
		return
	}
	center := from.Add(to.Sub(from) / 2)
	start := clampTime(center.Add(-span/2), lo, hi.Add(-span))
	if c.Zoomed() && start.Equal(from) && start.Add(span).Equal(to) {
		return
	}
	c.from, c.to = start, start.Add(span)
	c.emitZoom(false)
}

// Pan shifts a zoomed window by a quarter of its span; dir < 0 moves back
// in time. It does nothing at full span.
func (c *Chart) Pan(dir int) {
	if !c.Zoomed() || dir == 0 {
		return
	}
	lo, hi, ok := c.fullSpan()
	if !ok {
		return
	}
	from, to, _, _ := c.Window()
	span := to.Sub(from)
	shift := max(span/4, day)
	if dir < 0 {
		shift = -shift
	}
	start := clampTime(from.Add(shift), lo, hi.Add(-span))
	if start.Equal(from) {
		return
	}
	c.from, c.to = start, start.Add(span)
	c.emitZoom(true)
}

// Selection returns the brushed areas.
func (c *Chart) Selection() []chartsync.Area { return slices.Clone(c.areas) }

// ClearSelection drops every brushed area and announces the empty
// selection.
func (c *Chart) ClearSelection() {
	c.areas = nil
	c.emit(chartsync.Event{Name: chartsync.EventSelectionChanged, Areas: []chartsync.Area{}})
}

// Brushing reports whether a brush is in progress.
func (c *Chart) Brushing() bool { return c.brush != nil }

// CapturesKeys routes every key to the chart while brushing.
func (c *Chart) CapturesKeys() bool { return c.brush != nil }

// StartBrush begins a selection at the middle day of the window and
// freezes the chart's series so a refetch cannot shift the axis mid-gesture.
func (c *Chart) StartBrush() {
	if c.brush != nil || c.disposed {
		return
	}
	from, to, _, ok := c.Window()
	if !ok {
		return
	}
	mid := clampTime(from.Add(to.Sub(from)/2).Truncate(day), from, to)
	c.brush = &brush{anchor: mid, cursor: mid, token: c.data.Freeze(c.view.names()...)}
}

// BrushRange returns the in-progress brush range.
func (c *Chart) BrushRange() (chartsync.Area, bool) {
	if c.brush == nil {
		return chartsync.Area{}, false
	}
	a, b := c.brush.anchor, c.brush.cursor
	return chartsync.Area{Start: earlier(a, b), End: later(a, b)}, true
}

// MoveCursor moves the brush cursor by whole days within the window.
func (c *Chart) MoveCursor(days int) {
	if c.brush == nil {
		return
	}
	from, to, _, ok := c.Window()
	if !ok {
		return
	}
	c.brush.cursor = clampTime(c.brush.cursor.AddDate(0, 0, days), from, to)
}

// CommitBrush replaces the selection with the brushed range and announces
// it.
func (c *Chart) CommitBrush() {
	area, ok := c.BrushRange()
	if !ok {
		return
	}
	c.endBrush()
	c.areas = []chartsync.Area{area}
	c.emit(chartsync.Event{Name: chartsync.EventSelectionChanged, Areas: c.Selection()})
}

// CancelBrush abandons the brush without changing the selection.
func (c *Chart) CancelBrush() { c.endBrush() }

func (c *Chart) endBrush() {
	if c.brush == nil {
		return
	}
	c.data.Unfreeze(c.brush.token)
	c.brush = nil
}

// HandleKey processes a key while the chart has focus. Committing a brush
// or switching a view option reports the result in the status bar.
func (c *Chart) HandleKey(msg tea.KeyMsg) tea.Cmd {
	if c.disposed {
		return nil
	}
	if c.brush != nil {
		switch {
		case key.Matches(msg, c.keys.PanLeft):
			c.MoveCursor(-1)
		case key.Matches(msg, c.keys.PanRight):
			c.MoveCursor(1)
		case key.Matches(msg, c.keys.Expand):
			c.CommitBrush()
			if a := c.areas; len(a) > 0 {
				return app.StatusCmd(fmt.Sprintf("%s: selected %s..%s", c.kind,
					a[0].Start.Format("Jan 2"), a[0].End.Format("Jan 2")), false)
			}
		case key.Matches(msg, c.keys.Back), key.Matches(msg, c.keys.Brush):
			c.CancelBrush()
		}
		return nil
	}

	switch {
	case key.Matches(msg, c.keys.ZoomIn):
		c.ZoomIn()
	case key.Matches(msg, c.keys.ZoomOut):
		c.ZoomOut()
	case key.Matches(msg, c.keys.PanLeft):
		c.Pan(-1)
	case key.Matches(msg, c.keys.PanRight):
		c.Pan(1)
	case key.Matches(msg, c.keys.Brush):
		c.StartBrush()
	case key.Matches(msg, c.keys.Clear):
		c.ClearSelection()
	default:
		if c.view.handleKey(msg) {
			return app.StatusCmd(c.view.title(), false)
		}
	}
	return nil
}

// Update handles mouse input inside the chart's zone.
func (c *Chart) Update(msg tea.Msg) tea.Cmd {
	mouse, ok := msg.(tea.MouseMsg)
	if !ok || c.zones == nil || c.disposed {
		return nil
	}
	z := c.zones.Get(c.id)
	if z == nil || !z.InBounds(mouse) {
		return nil
	}
	x, _ := z.Pos(mouse)
	c.handleMouse(mouse, x-1) // zone includes the left border
	return nil
}

// handleMouse applies a press at content column x.
func (c *Chart) handleMouse(msg tea.MouseMsg, x int) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		c.ZoomIn()
	case tea.MouseButtonWheelDown:
		c.ZoomOut()
	case tea.MouseButtonLeft:
		if c.brush == nil {
			return
		}
		if t, ok := c.graph().TimeAt(c.width, x); ok {
			from, to, _, _ := c.Window()
			c.brush.cursor = clampTime(t.Truncate(day), from, to)
		}
	}
}

// graphConfig resolves the window, selection bands and view options.
func (c *Chart) graphConfig() components.TimeGraphConfig {
	th := theme.Current
	from, to, _, _ := c.Window()
	cfg := components.TimeGraphConfig{
		ShowYAxis:   true,
		ShowXAxis:   true,
		ShowLegend:  true,
		From:        from,
		To:          to,
		BandColor:   th.Selection,
		CursorColor: th.Cursor,
		AxisColor:   th.Dim,
	}
	for _, a := range c.areas {
		cfg.Bands = append(cfg.Bands, components.Band{Start: a.Start, End: a.End})
	}
	if b, ok := c.BrushRange(); ok {
		cfg.Bands = append(cfg.Bands, components.Band{Start: b.Start, End: b.End})
		cfg.Cursor = c.brush.cursor
	}
	c.view.configure(&cfg)
	return cfg
}

// graph builds the time graph for the current state.
func (c *Chart) graph() *components.TimeGraph {
	th := theme.Current
	var snaps []*data.SeriesSnapshot
	for _, name := range c.view.names() {
		if s, ok := c.data.GetSeries(name); ok && s.Len() > 0 {
			snaps = append(snaps, s)
		}
	}
	tg := components.NewTimeGraph(c.graphConfig())
	series := c.view.series(snaps, th)
	if n := len(c.areas); n > 0 {
		sel := c.areas[n-1]
		for i, s := range snaps {
			res := c.data.Query(s.Name).Between(sel.Start, sel.End).Execute()
			if len(res) == 1 && res[0].Len() > 0 {
				series[i].Detail = "sel " + c.view.summarize(&res[0])
			}
		}
	}
	for _, s := range series {
		tg.AddSeries(s)
	}
	return tg
}

// frameKeyFor captures everything the rendered frame depends on.
func (c *Chart) frameKeyFor(width, height int) frameKey {
	from, to, _, _ := c.Window()
	state := fmt.Sprintf("%s|%s|%v|%v", theme.Current.Name, c.view.title(), c.view.names(), c.areas)
	if c.brush != nil {
		state += fmt.Sprintf("|brush %s..%s", c.brush.anchor.Format(time.DateOnly), c.brush.cursor.Format(time.DateOnly))
	}
	return frameKey{
		version: c.data.Version(),
		width:   width,
		height:  height,
		from:    from,
		to:      to,
		state:   state,
	}
}

// View renders the chart content, or the fetch state when there is no data
// to draw. A frame whose data version and view state are unchanged is
// served from the last render.
func (c *Chart) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if c.width == 0 {
		c.width, c.height = width, height
	}
	if _, _, _, ok := c.Window(); !ok {
		return c.emptyView(width, height)
	}
	fk := c.frameKeyFor(width, height)
	if c.renders > 0 && fk == c.frame {
		return c.frameOut
	}
	c.frame, c.frameOut = fk, c.graph().Render(width, height)
	c.renders++
	return c.frameOut
}

func (c *Chart) emptyView(width, height int) string {
	st := c.view.status()
	styles := theme.Current.Styles()
	msg := styles.Dim.Render("no data")
	switch {
	case st.Loading:
		msg = styles.Warn.Render("loading…")
	case st.Err != nil:
		msg = styles.Error.Render(components.TruncateWithTail("error: "+st.Err.Error(), width, "…"))
	}
	lines := make([]string, height)
	lines[(height-1)/2] = components.PadCenter(msg, width)
	return strings.Join(lines, "\n")
}

func clampTime(t, lo, hi time.Time) time.Time {
	if hi.Before(lo) {
		return lo
	}
	return later(lo, earlier(t, hi))
}

func earlier(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
