package widgets

import (
	"strings"
	"testing"

	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/stores"
)

// mountAll builds the three charts over one data store and registers them.
func mountAll(t *testing.T) (*chartsync.Coordinator, *Chart, *Chart, *Chart) {
	t.Helper()
	return mountWithWeatherDays(t, 30)
}

// mountWithWeatherDays is mountAll with a shorter weather history, as when
// the archive lags the market data.
func mountWithWeatherDays(t *testing.T, weatherDays int) (*chartsync.Coordinator, *Chart, *Chart, *Chart) {
	t.Helper()
	d := data.NewStore(data.StoreConfig{})
	cfg := stores.Config{Data: d}

	fill(d, stores.StockSeriesName("9984"), 30, map[string]string{data.LabelChart: "stock", data.LabelSymbol: "9984"})
	fill(d, stores.IndexSeriesName("^N225"), 30, map[string]string{data.LabelChart: "index", data.LabelSymbol: "^N225"})
	fill(d, stores.WeatherSeriesName("tokyo", stores.FieldTemperature), weatherDays, map[string]string{data.LabelChart: "weather"})

	stock := NewStockChart(stores.NewStockStore(cfg, "9984"), Options{})
	index := NewIndexChart(stores.NewIndexStore(cfg), Options{})
	weather := NewWeatherChart(stores.NewWeatherStore(cfg, "tokyo"), Options{})

	coord := chartsync.New(chartsync.DefaultConfig())
	for _, c := range []*Chart{stock, index, weather} {
		if err := coord.RegisterChart(c.Kind(), c); err != nil {
			t.Fatalf("RegisterChart(%s): %v", c.Kind(), err)
		}
	}
	return coord, stock, index, weather
}

func TestSyncZoomPropagates(t *testing.T) {
	coord, stock, index, weather := mountAll(t)

	stock.ZoomIn()
	from, to, _, _ := stock.Window()
	for _, c := range []*Chart{index, weather} {
		f, tt, _, _ := c.Window()
		if !f.Equal(from) || !tt.Equal(to) {
			t.Errorf("%s window = %s..%s, want %s..%s", c.Kind(), f, tt, from, to)
		}
	}
	v := coord.ViewRange()
	if !v.Start.Equal(from) || v.ZoomLevel != 2 {
		t.Errorf("ViewRange = %+v", v)
	}
	if coord.Syncing() {
		t.Error("in-flight flag left set")
	}
}

func TestSyncZoomOutRestoresFullSpanEverywhere(t *testing.T) {
	coord, stock, index, weather := mountWithWeatherDays(t, 28)

	stock.ZoomIn()
	if !weather.Zoomed() {
		t.Fatal("zoom not relayed to weather")
	}
	stock.ZoomOut()

	for _, c := range []*Chart{stock, index, weather} {
		if c.Zoomed() {
			t.Errorf("%s still zoomed after full zoom out", c.Kind())
		}
	}
	from, to, level, _ := weather.Window()
	if !from.Equal(date(1)) || !to.Equal(date(28)) || level != 1 {
		t.Errorf("weather window = %s..%s at %.1fx, want its own full span", from, to, level)
	}
	if strings.Contains(weather.Badge(), "x") {
		t.Errorf("weather badge = %q, want no zoom level", weather.Badge())
	}
	v := coord.ViewRange()
	if !v.Start.IsZero() || !v.End.IsZero() || v.ZoomLevel != 1 {
		t.Errorf("ViewRange = %+v, want unset", v)
	}
}

func TestSyncZoomOffKeepsChartsIndependent(t *testing.T) {
	coord, stock, index, _ := mountAll(t)
	off := false
	coord.UpdateSyncSettings(chartsync.SettingsPatch{Zoom: &off})

	stock.ZoomIn()
	if index.Zoomed() {
		t.Error("zoom relayed with zoom sync off")
	}
}

func TestSyncPanNeedsPanFlag(t *testing.T) {
	coord, stock, index, _ := mountAll(t)
	stock.ZoomIn()
	before, _, _, _ := index.Window()

	off := false
	coord.UpdateSyncSettings(chartsync.SettingsPatch{Pan: &off})
	stock.Pan(1)
	if after, _, _, _ := index.Window(); !after.Equal(before) {
		t.Error("pan relayed with pan sync off")
	}
}

func TestSyncSelectionPropagates(t *testing.T) {
	_, stock, index, weather := mountAll(t)

	stock.StartBrush()
	stock.MoveCursor(3)
	stock.CommitBrush()

	want := stock.Selection()
	for _, c := range []*Chart{index, weather} {
		got := c.Selection()
		if len(got) != 1 || !got[0].Start.Equal(want[0].Start) || !got[0].End.Equal(want[0].End) {
			t.Errorf("%s selection = %+v, want %+v", c.Kind(), got, want)
		}
	}

	index.ClearSelection()
	if len(stock.Selection()) != 0 || len(weather.Selection()) != 0 {
		t.Error("clear not relayed")
	}
}

func TestSyncResetZoom(t *testing.T) {
	coord, stock, index, weather := mountAll(t)
	stock.ZoomIn()

	if !coord.ResetZoom() {
		t.Fatal("ResetZoom refused with every chart registered")
	}
	for _, c := range []*Chart{stock, index, weather} {
		if c.Zoomed() {
			t.Errorf("%s still zoomed", c.Kind())
		}
	}
	if coord.ViewRange().ZoomLevel != 1 {
		t.Errorf("ViewRange = %+v", coord.ViewRange())
	}
}

func TestSyncUnmountedChartIsInert(t *testing.T) {
	coord, stock, index, _ := mountAll(t)
	coord.UnregisterChart(chartsync.StockChart)
	stock.Dispose()

	index.ZoomIn()
	if stock.Zoomed() {
		t.Error("disposed chart received a relay")
	}
	if coord.RegisteredCount() != 2 {
		t.Errorf("registered = %d", coord.RegisteredCount())
	}
}
