package chartsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/stackwatcher/stack-watcher/pkg/period"
)

// ChartType identifies one of the fixed chart slots. The set is closed:
// only StockChart, IndexChart and WeatherChart are valid.
type ChartType int

const (
	StockChart ChartType = iota
	IndexChart
	WeatherChart

	numChartTypes
)

// ChartTypes returns every valid chart type in registry order.
func ChartTypes() []ChartType {
	return []ChartType{StockChart, IndexChart, WeatherChart}
}

// Valid reports whether t is one of the fixed chart types.
func (t ChartType) Valid() bool {
	return t >= 0 && t < numChartTypes
}

// String returns the registry key of the chart type.
func (t ChartType) String() string {
	switch t {
	case StockChart:
		return "stock"
	case IndexChart:
		return "index"
	case WeatherChart:
		return "weather"
	default:
		return fmt.Sprintf("ChartType(%d)", int(t))
	}
}

// ParseChartType maps a registry key ("stock", "index", "weather", with or
// without a "Chart" suffix) to its ChartType.
func ParseChartType(s string) (ChartType, error) {
	key := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "chart")
	for _, t := range ChartTypes() {
		if t.String() == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChartType, s)
}

// EventName names an interaction event emitted by a chart handle.
type EventName string

const (
	EventZoomChanged      EventName = "zoomChanged"
	EventSelectionChanged EventName = "selectionChanged"
)

// ZoomRange is the payload of a zoomChanged event: the visible window on the
// shared date axis. Level is the chart's zoom factor (full span divided by
// the visible span); 0 means the chart did not report one. Pan marks a
// window that moved without changing width.
type ZoomRange struct {
	Start time.Time
	End   time.Time
	Level float64
	Pan   bool
}

// Area is one brushed region on the date axis.
type Area struct {
	Start time.Time
	End   time.Time
}

// Event is delivered to a Listener.
type Event struct {
	Name  EventName
	Zoom  ZoomRange
	Areas []Area
}

// Listener receives chart interaction events.
type Listener func(Event)

// CommandType names an imperative chart command.
type CommandType string

const (
	CommandApplyZoom      CommandType = "applyZoom"
	CommandApplySelection CommandType = "applySelection"
	CommandResetZoom      CommandType = "resetZoom"
)

// Command is sent to a chart handle by the coordinator.
type Command struct {
	Type  CommandType
	Start time.Time
	End   time.Time
	Areas []Area
}

// Handle is the contract every registered chart must satisfy.
type Handle interface {
	// On attaches a listener for the named event.
	On(name EventName, fn Listener)

	// DispatchCommand applies a command. A chart engine may re-emit its own
	// events synchronously from inside this call.
	DispatchCommand(cmd Command) error

	// Resize recomputes the chart's layout size. It must be idempotent.
	Resize()
}

// PeriodSetter is the coordinator's view of a domain data store. SetPeriod
// must return promptly: the fetch it triggers runs asynchronously and the
// store owns its own loading and error state.
type PeriodSetter interface {
	SetPeriod(id period.ID)
}

// Settings are the sync feature toggles. Enabled is the master switch and
// gates all relaying regardless of the other flags.
type Settings struct {
	Enabled   bool
	Zoom      bool
	Pan       bool
	Selection bool
}

// DefaultSettings has every toggle on.
func DefaultSettings() Settings {
	return Settings{Enabled: true, Zoom: true, Pan: true, Selection: true}
}

// SettingsPatch is a partial Settings update; nil fields are left unchanged.
type SettingsPatch struct {
	Enabled   *bool
	Zoom      *bool
	Pan       *bool
	Selection *bool
}

// apply shallow-merges p into s.
func (p SettingsPatch) apply(s Settings) Settings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.Zoom != nil {
		s.Zoom = *p.Zoom
	}
	if p.Pan != nil {
		s.Pan = *p.Pan
	}
	if p.Selection != nil {
		s.Selection = *p.Selection
	}
	return s
}

// MinZoomLevel is the fully zoomed-out level.
const MinZoomLevel = 1.0

// ViewRange is the visible window currently agreed across charts. Zero
// Start/End mean unset.
type ViewRange struct {
	Start     time.Time
	End       time.Time
	ZoomLevel float64
}

// IsSet reports whether both boundaries are known.
func (v ViewRange) IsSet() bool {
	return !v.Start.IsZero() && !v.End.IsZero()
}

func defaultViewRange() ViewRange {
	return ViewRange{ZoomLevel: MinZoomLevel}
}
