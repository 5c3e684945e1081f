package widgets

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackwatcher/stack-watcher/pkg/app"
	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/components"
	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/stores"
	"github.com/stackwatcher/stack-watcher/pkg/theme"
)

// weatherView draws one observation field at a time. It is a pointer so
// the field survives across key presses.
type weatherView struct {
	store *stores.WeatherStore
	keys  app.KeyMap
	field string
}

var fieldUnits = map[string]string{
	stores.FieldPrecipitation: "mm",
	stores.FieldTemperature:   "°C",
	stores.FieldPressure:      "hPa",
}

// NewWeatherChart charts daily observations at the store's location,
// starting with temperature.
func NewWeatherChart(store *stores.WeatherStore, opts Options) *Chart {
	v := &weatherView{store: store, keys: app.DefaultKeyMap(), field: stores.FieldTemperature}
	return newChart(chartsync.WeatherChart, v, store.Data(), opts)
}

// WeatherField returns the field a weather chart is showing, or "" for
// other charts.
func (c *Chart) WeatherField() string {
	if v, ok := c.view.(*weatherView); ok {
		return v.field
	}
	return ""
}

func (v *weatherView) title() string {
	name := v.store.Series().Name
	if name == "" {
		name = v.store.Location()
	}
	return "Weather · " + name + " · " + v.field
}

func (v *weatherView) status() stores.Status { return v.store.Status() }

func (v *weatherView) names() []string {
	return []string{stores.WeatherSeriesName(v.store.Location(), v.field)}
}

func (v *weatherView) series(snaps []*data.SeriesSnapshot, th theme.Theme) []components.Series {
	out := make([]components.Series, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, components.Series{
			Name:   v.field,
			Color:  th.SeriesColor(slices.Index(stores.WeatherFields, v.field)),
			Detail: v.aggregate(),
			Times:  s.Times,
			Values: s.Values,
		})
	}
	return out
}

func (v *weatherView) aggregate() string {
	unit := fieldUnits[v.field]
	switch v.field {
	case stores.FieldPrecipitation:
		return fmt.Sprintf("total %.1f%s", v.store.TotalPrecipitation(), unit)
	case stores.FieldTemperature:
		return fmt.Sprintf("avg %.1f%s", v.store.AverageTemperature(), unit)
	case stores.FieldPressure:
		return fmt.Sprintf("avg %.1f%s", v.store.AveragePressure(), unit)
	}
	return ""
}

// summarize totals rainfall and averages the other fields.
func (v *weatherView) summarize(sel *data.SeriesSnapshot) string {
	unit := fieldUnits[v.field]
	if v.field == stores.FieldPrecipitation {
		return fmt.Sprintf("total %.1f%s", sel.Sum(), unit)
	}
	return fmt.Sprintf("avg %.1f%s", sel.Avg(), unit)
}

func (v *weatherView) configure(cfg *components.TimeGraphConfig) {
	cfg.Bars = v.field == stores.FieldPrecipitation
	cfg.FormatY = components.FormatFixed(1)
}

func (v *weatherView) handleKey(msg tea.KeyMsg) bool {
	if !key.Matches(msg, v.keys.Field) {
		return false
	}
	i := slices.Index(stores.WeatherFields, v.field)
	v.field = stores.WeatherFields[(i+1)%len(stores.WeatherFields)]
	return true
}
