package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/stackwatcher/stack-watcher/pkg/app"
	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/period"
	"github.com/stackwatcher/stack-watcher/pkg/stores"
	"github.com/stackwatcher/stack-watcher/pkg/theme"
)

// mockWidget implements app.Widget with minimal stubs for testing.
type mockWidget struct {
	id         string
	title      string
	minW, minH int
	lastKey    tea.KeyMsg // records the last key passed to HandleKey
	keyCalled  bool
	w, h       int
}

func newMockWidget(id, title string) *mockWidget {
	return &mockWidget{id: id, title: title, minW: 10, minH: 3}
}

func (w *mockWidget) ID() string    { return w.id }
func (w *mockWidget) Title() string { return w.title }

func (w *mockWidget) Update(_ tea.Msg) tea.Cmd { return nil }

func (w *mockWidget) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := make([]string, height)
	lines[0] = w.title
	if len(lines[0]) > width {
		lines[0] = lines[0][:width]
	}
	return strings.Join(lines, "\n")
}

func (w *mockWidget) MinSize() (int, int) { return w.minW, w.minH }

func (w *mockWidget) SetSize(width, height int) { w.w, w.h = width, height }

func (w *mockWidget) HandleKey(key tea.KeyMsg) tea.Cmd {
	w.lastKey = key
	w.keyCalled = true
	return nil
}

// fakeChart is a mountable chart that records what the coordinator and the
// model do to it.
type fakeChart struct {
	mockWidget
	kind      chartsync.ChartType
	listeners map[chartsync.EventName][]chartsync.Listener
	commands  []chartsync.Command
	resizes   int
	disposed  bool
	capture   bool
}

func (c *fakeChart) On(name chartsync.EventName, fn chartsync.Listener) {
	c.listeners[name] = append(c.listeners[name], fn)
}

func (c *fakeChart) DispatchCommand(cmd chartsync.Command) error {
	c.commands = append(c.commands, cmd)
	return nil
}

func (c *fakeChart) Resize()            { c.resizes++ }
func (c *fakeChart) Dispose()           { c.disposed = true }
func (c *fakeChart) CapturesKeys() bool { return c.capture }

// chartFactory builds fakeCharts and remembers every mount.
type chartFactory struct {
	mounts []*fakeChart
}

func (f *chartFactory) build(t chartsync.ChartType) Chart {
	c := &fakeChart{
		mockWidget: *newMockWidget(t.String()+"-"+string(rune('a'+len(f.mounts))), t.String()),
		kind:       t,
		listeners:  make(map[chartsync.EventName][]chartsync.Listener),
	}
	f.mounts = append(f.mounts, c)
	return c
}

func (f *chartFactory) latest(t chartsync.ChartType) *fakeChart {
	for i := len(f.mounts) - 1; i >= 0; i-- {
		if f.mounts[i].kind == t {
			return f.mounts[i]
		}
	}
	return nil
}

// helper to send a message through Update and return the updated Model.
func tuiUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeLine opens the prompt, types line and submits it, feeding any
// resulting message back through Update.
func typeLine(m Model, line string) Model {
	m, _ = tuiUpdate(m, runes("/"))
	for _, r := range line {
		m, _ = tuiUpdate(m, runes(string(r)))
	}
	m, cmd := tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		if msg := cmd(); msg != nil {
			m, _ = tuiUpdate(m, msg)
		}
	}
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// helper to create a Model with three mock widgets.
func newTestTuiModel() (Model, []*mockWidget) {
	w1 := newMockWidget("cpu", "CPU Usage")
	w2 := newMockWidget("mem", "Memory")
	w3 := newMockWidget("net", "Network")
	widgets := []app.Widget{w1, w2, w3}
	return New(widgets), []*mockWidget{w1, w2, w3}
}

func newTestDashboard(t *testing.T, visible ...chartsync.ChartType) (Model, *chartsync.Coordinator, *chartFactory) {
	t.Helper()
	coord := chartsync.New(chartsync.DefaultConfig())
	f := &chartFactory{}
	opts := Options{Coordinator: coord, Charts: f.build}
	if len(visible) > 0 {
		opts.Visible = visible
	}
	m := NewDashboard(opts)
	m, _ = tuiUpdate(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, coord, f
}

func TestNewCreatesCorrectInitialState(t *testing.T) {
	m, _ := newTestTuiModel()

	if m.Focused() != 0 {
		t.Errorf("expected focused=0, got %d", m.Focused())
	}
	if m.Expanded() != -1 {
		t.Errorf("expected expanded=-1, got %d", m.Expanded())
	}
	if m.ShowHelp() {
		t.Error("expected showHelp=false")
	}
	if m.Prompting() {
		t.Error("expected prompting=false")
	}
	if m.Ready() {
		t.Error("expected ready=false")
	}
}

func TestWindowSizeMsgSetsReady(t *testing.T) {
	m, ws := newTestTuiModel()

	m, _ = tuiUpdate(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	if m.Width() != 120 || m.Height() != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.Width(), m.Height())
	}
	if !m.Ready() {
		t.Error("expected ready=true after WindowSizeMsg")
	}
	// 38 body rows split three ways, minus borders.
	if ws[0].w != 118 || ws[0].h != 10 {
		t.Errorf("widget 0 size = %dx%d, want 118x10", ws[0].w, ws[0].h)
	}
	if ws[2].h != 12 {
		t.Errorf("last widget height = %d, want 12", ws[2].h)
	}
}

func TestTabCyclesFocus(t *testing.T) {
	m, _ := newTestTuiModel()

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Focused() != 2 {
		t.Errorf("after two Tabs, expected focus=2, got %d", m.Focused())
	}
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Focused() != 0 {
		t.Errorf("expected wrap to 0, got %d", m.Focused())
	}
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Focused() != 2 {
		t.Errorf("expected backward wrap to 2, got %d", m.Focused())
	}
}

func TestEnterTogglesExpand(t *testing.T) {
	m, _ := newTestTuiModel()
	m, _ = tuiUpdate(m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Expanded() != 0 {
		t.Fatalf("expected expanded=0, got %d", m.Expanded())
	}
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Expanded() != -1 {
		t.Errorf("expected expanded=-1 after second Enter, got %d", m.Expanded())
	}
}

func TestEscapeCollapsesExpandedWidget(t *testing.T) {
	m, _ := newTestTuiModel()

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEscape})
	if m.Expanded() != -1 {
		t.Errorf("expected expanded=-1 after Escape, got %d", m.Expanded())
	}
}

func TestExpandFollowsFocus(t *testing.T) {
	m, _ := newTestTuiModel()

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Expanded() != 1 {
		t.Errorf("expected expansion to follow focus to 1, got %d", m.Expanded())
	}
}

func TestQuestionMarkTogglesHelp(t *testing.T) {
	m, _ := newTestTuiModel()

	m, _ = tuiUpdate(m, runes("?"))
	if !m.ShowHelp() {
		t.Fatal("expected showHelp=true after ?")
	}
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEscape})
	if m.ShowHelp() {
		t.Error("expected Escape to close help")
	}
}

func TestHelpSwallowsKeys(t *testing.T) {
	m, ws := newTestTuiModel()

	m, _ = tuiUpdate(m, runes("?"))
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyLeft})
	if ws[0].keyCalled {
		t.Error("widget received a key while help was open")
	}
}

func TestQQuits(t *testing.T) {
	m, _ := newTestTuiModel()

	_, cmd := tuiUpdate(m, runes("q"))
	if !isQuit(cmd) {
		t.Error("expected quit command after q")
	}
}

func TestCtrlCAlwaysQuits(t *testing.T) {
	m, _ := newTestTuiModel()

	_, cmd := tuiUpdate(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(cmd) {
		t.Error("expected quit after Ctrl+C")
	}

	m, _ = tuiUpdate(m, runes("/"))
	_, cmd = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(cmd) {
		t.Error("expected quit after Ctrl+C in prompt mode")
	}
}

func TestPromptCapturesTyping(t *testing.T) {
	m, _ := newTestTuiModel()

	m, _ = tuiUpdate(m, runes("/"))
	if !m.Prompting() {
		t.Fatal("expected prompting after /")
	}
	m, cmd := tuiUpdate(m, runes("q"))
	if isQuit(cmd) {
		t.Error("q quit while typing in the prompt")
	}
	if m.prompt.Value() != "q" {
		t.Errorf("prompt value = %q, want q", m.prompt.Value())
	}
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEscape})
	if m.Prompting() {
		t.Error("expected Escape to close the prompt")
	}
}

func TestArrowKeysPassedToFocusedWidget(t *testing.T) {
	m, ws := newTestTuiModel()

	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyRight})
	if !ws[1].keyCalled || ws[1].lastKey.Type != tea.KeyRight {
		t.Error("focused widget did not receive the right arrow")
	}
	if ws[0].keyCalled {
		t.Error("unfocused widget received a key")
	}
}

func TestViewBeforeWindowSizeMsg(t *testing.T) {
	m, _ := newTestTuiModel()
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View = %q", got)
	}
}

func TestViewFillsTerminal(t *testing.T) {
	m, _ := newTestTuiModel()
	m, _ = tuiUpdate(m, tea.WindowSizeMsg{Width: 80, Height: 24})

	out := ansi.Strip(m.View())
	lines := strings.Split(out, "\n")
	if len(lines) != 24 {
		t.Errorf("lines = %d, want 24", len(lines))
	}
	for _, want := range []string{"CPU Usage", "Memory", "Network"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestExpandedWidgetView(t *testing.T) {
	m, _ := newTestTuiModel()
	m, _ = tuiUpdate(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = tuiUpdate(m, tea.KeyMsg{Type: tea.KeyEnter})

	out := ansi.Strip(m.View())
	if !strings.Contains(out, "CPU Usage") || strings.Contains(out, "Memory") {
		t.Error("expanded view should show only the focused widget")
	}
}

func TestPromptRendersInStatusBar(t *testing.T) {
	m, _ := newTestTuiModel()
	m, _ = tuiUpdate(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = tuiUpdate(m, runes("/"))

	lines := strings.Split(ansi.Strip(m.View()), "\n")
	if last := lines[len(lines)-1]; !strings.HasPrefix(last, "/") {
		t.Errorf("status bar = %q, want prompt", last)
	}
}

func TestInitWithoutSourcesReturnsNil(t *testing.T) {
	m, _ := newTestTuiModel()
	if cmd := m.Init(); cmd != nil {
		t.Error("expected nil Init command without updates or refresh")
	}
}

func TestDashboardRegistersVisibleCharts(t *testing.T) {
	m, coord, _ := newTestDashboard(t)
	if !coord.AllRegistered() {
		t.Fatalf("registered = %d, want all", coord.RegisteredCount())
	}
	for i := range 3 {
		if m.Hidden(i) {
			t.Errorf("slot %d hidden", i)
		}
	}
}

func TestDashboardHiddenAtStart(t *testing.T) {
	m, coord, f := newTestDashboard(t, chartsync.StockChart)
	if coord.RegisteredCount() != 1 {
		t.Errorf("registered = %d, want 1", coord.RegisteredCount())
	}
	if len(f.mounts) != 1 {
		t.Errorf("mounts = %d, want 1", len(f.mounts))
	}
	if !m.Hidden(1) || !m.Hidden(2) {
		t.Error("index and weather should start hidden")
	}
	if _, ok := m.Widget(1).(*app.PlaceholderWidget); !ok {
		t.Errorf("slot 1 = %T, want placeholder", m.Widget(1))
	}
}

func TestDashboardHideAndRemount(t *testing.T) {
	m, coord, f := newTestDashboard(t)
	stock := f.latest(chartsync.StockChart)

	m, _ = tuiUpdate(m, runes("H"))
	if !m.Hidden(0) || !stock.disposed {
		t.Fatal("H did not unmount the focused chart")
	}
	if _, ok := coord.Handle(chartsync.StockChart); ok {
		t.Error("hidden chart still registered")
	}

	m, _ = tuiUpdate(m, runes("H"))
	if m.Hidden(0) {
		t.Fatal("second H did not remount")
	}
	again := f.latest(chartsync.StockChart)
	if again == stock {
		t.Error("remount reused the disposed chart")
	}
	if h, ok := coord.Handle(chartsync.StockChart); !ok || h != Chart(again) {
		t.Error("remounted chart not registered")
	}
	if again.resizes == 0 {
		t.Error("remounted chart never resized")
	}
}

func TestDashboardPeriodKeys(t *testing.T) {
	m, coord, _ := newTestDashboard(t)

	m, _ = tuiUpdate(m, runes("3"))
	if coord.GlobalPeriod() != period.Quarter {
		t.Errorf("period = %s, want 3m", coord.GlobalPeriod())
	}
	if text, isErr := m.Status(); isErr || !strings.Contains(text, "1 quarter") {
		t.Errorf("status = %q", text)
	}
	m, _ = tuiUpdate(m, runes("1"))
	if coord.GlobalPeriod() != period.Week {
		t.Errorf("period = %s, want 7d", coord.GlobalPeriod())
	}
}

func TestDashboardSyncToggles(t *testing.T) {
	m, coord, _ := newTestDashboard(t)

	m, _ = tuiUpdate(m, runes("z"))
	if coord.Settings().Zoom {
		t.Error("z did not turn zoom sync off")
	}
	m, _ = tuiUpdate(m, runes("p"))
	m, _ = tuiUpdate(m, runes("x"))
	if s := coord.Settings(); s.Pan || s.Selection {
		t.Errorf("settings = %+v", s)
	}
	m, _ = tuiUpdate(m, runes("s"))
	if coord.Syncing() || coord.Settings().Enabled {
		t.Error("s did not turn sync off")
	}
	if text, _ := m.Status(); text != "sync off" {
		t.Errorf("status = %q", text)
	}
}

func TestDashboardResetZoom(t *testing.T) {
	m, _, f := newTestDashboard(t)

	m, _ = tuiUpdate(m, runes("r"))
	for _, c := range f.mounts {
		if len(c.commands) != 1 || c.commands[0].Type != chartsync.CommandResetZoom {
			t.Errorf("%s commands = %+v", c.kind, c.commands)
		}
	}
	if text, isErr := m.Status(); isErr || text != "zoom reset" {
		t.Errorf("status = %q", text)
	}
}

func TestDashboardResetZoomNeedsAllCharts(t *testing.T) {
	m, _, f := newTestDashboard(t, chartsync.StockChart, chartsync.IndexChart)

	m, _ = tuiUpdate(m, runes("r"))
	for _, c := range f.mounts {
		if len(c.commands) != 0 {
			t.Errorf("%s got commands with a slot empty", c.kind)
		}
	}
	if _, isErr := m.Status(); !isErr {
		t.Error("expected an error status")
	}
}

func TestDashboardKeyCapture(t *testing.T) {
	m, _, f := newTestDashboard(t)
	stock := f.latest(chartsync.StockChart)
	stock.capture = true

	_, cmd := tuiUpdate(m, runes("q"))
	if isQuit(cmd) {
		t.Error("q quit while the chart captured keys")
	}
	if !stock.keyCalled || stock.lastKey.String() != "q" {
		t.Error("capturing chart did not receive q")
	}
}

func TestDashboardPromptPeriod(t *testing.T) {
	m, coord, _ := newTestDashboard(t)

	m = typeLine(m, "period 1m")
	if coord.GlobalPeriod() != period.Month {
		t.Errorf("period = %s, want 1m", coord.GlobalPeriod())
	}

	m = typeLine(m, "period 1w")
	if coord.GlobalPeriod() != period.Month {
		t.Error("invalid period changed state")
	}
	if text, isErr := m.Status(); !isErr || !strings.Contains(text, "did you mean") {
		t.Errorf("status = %q", text)
	}
}

func TestDashboardPromptTheme(t *testing.T) {
	t.Cleanup(func() { theme.SetCurrent("default", 24) })
	m, _, _ := newTestDashboard(t)

	m = typeLine(m, "theme nord")
	if theme.Current.Name != "nord" {
		t.Errorf("theme = %q, want nord", theme.Current.Name)
	}

	m = typeLine(m, "theme nrod")
	if text, isErr := m.Status(); !isErr || !strings.Contains(text, `"nord"`) {
		t.Errorf("status = %q", text)
	}
}

func TestDashboardPromptPreset(t *testing.T) {
	m, coord, _ := newTestDashboard(t)

	m = typeLine(m, "preset weather")
	if coord.RegisteredCount() != 1 || !m.Hidden(0) || !m.Hidden(1) || m.Hidden(2) {
		t.Errorf("after preset weather: registered=%d hidden=%v,%v,%v",
			coord.RegisteredCount(), m.Hidden(0), m.Hidden(1), m.Hidden(2))
	}

	m = typeLine(m, "preset full")
	if !coord.AllRegistered() {
		t.Error("preset full did not remount every chart")
	}

	m = typeLine(m, "preset bogus")
	if _, isErr := m.Status(); !isErr {
		t.Error("unknown preset accepted")
	}
}

func TestDashboardDataUpdateError(t *testing.T) {
	m, _, _ := newTestDashboard(t)

	m, cmd := tuiUpdate(m, app.DataUpdateEvent{Err: errors.New("boom")})
	if text, isErr := m.Status(); !isErr || !strings.Contains(text, "boom") {
		t.Errorf("status = %q", text)
	}
	if cmd != nil {
		t.Error("expected no listener without an updates channel")
	}
}

func TestDashboardDataUpdatePartial(t *testing.T) {
	m, _, _ := newTestDashboard(t)

	m, _ = tuiUpdate(m, app.DataUpdateEvent{Kind: stores.KindStock, Failed: []string{"XXXX", "YYYY"}})
	text, isErr := m.Status()
	if !isErr || !strings.Contains(text, "no data for XXXX, YYYY") {
		t.Errorf("status = %q, %v", text, isErr)
	}
}

func TestDashboardView(t *testing.T) {
	m, _, _ := newTestDashboard(t, chartsync.StockChart, chartsync.WeatherChart)

	out := ansi.Strip(m.View())
	lines := strings.Split(out, "\n")
	if len(lines) != 40 {
		t.Errorf("lines = %d, want 40", len(lines))
	}
	for _, want := range []string{"Stack Watcher", "7 days", "1 quarter", "hidden · press H to show", "2/3 charts"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDashboardHiddenPanelHeight(t *testing.T) {
	m, _, _ := newTestDashboard(t, chartsync.StockChart)

	rects := m.panelRects()
	if rects[1].Height != hiddenHeight || rects[2].Height != hiddenHeight {
		t.Errorf("placeholder heights = %d, %d", rects[1].Height, rects[2].Height)
	}
	if rects[0].Height != 38-2*hiddenHeight {
		t.Errorf("chart height = %d", rects[0].Height)
	}
}

func TestSyncFlags(t *testing.T) {
	tests := []struct {
		s    chartsync.Settings
		want string
	}{
		{chartsync.DefaultSettings(), "on (zoom pan sel)"},
		{chartsync.Settings{Enabled: false, Zoom: true}, "off"},
		{chartsync.Settings{Enabled: true}, "on (none)"},
		{chartsync.Settings{Enabled: true, Pan: true}, "on (pan)"},
	}
	for _, tt := range tests {
		if got := syncFlags(tt.s); got != tt.want {
			t.Errorf("syncFlags(%+v) = %q, want %q", tt.s, got, tt.want)
		}
	}
}
