package widgets

import (
	"fmt"
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/components"
	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/stores"
	"github.com/stackwatcher/stack-watcher/pkg/theme"
)

// sparkWidth is the number of recent closes in a legend sparkline.
const sparkWidth = 8

type stockView struct {
	store *stores.StockStore
}

// NewStockChart charts the closing price of every selected symbol.
func NewStockChart(store *stores.StockStore, opts Options) *Chart {
	return newChart(chartsync.StockChart, stockView{store: store}, store.Data(), opts)
}

func (v stockView) title() string         { return "Stocks" }
func (v stockView) status() stores.Status { return v.store.Status() }

func (v stockView) names() []string {
	syms := v.store.Symbols()
	names := make([]string, len(syms))
	for i, s := range syms {
		names[i] = stores.StockSeriesName(s)
	}
	return names
}

func (v stockView) series(snaps []*data.SeriesSnapshot, th theme.Theme) []components.Series {
	styles := th.Styles()
	out := make([]components.Series, 0, len(snaps))
	for i, s := range snaps {
		color := th.SeriesColor(i)
		detail := components.Sparkline(s.Values, sparkWidth, color) + " " + fmt.Sprintf("%.2f", s.Last())
		if _, pct, ok := components.Change(s.Values); ok {
			detail += " " + styles.Change(fmt.Sprintf("%+.1f%%", pct), pct)
		}
		out = append(out, components.Series{
			Name:   s.Label(data.LabelSymbol),
			Color:  color,
			Detail: detail,
			Times:  s.Times,
			Values: s.Values,
		})
	}
	return out
}

func (v stockView) configure(cfg *components.TimeGraphConfig) {}

func (v stockView) handleKey(tea.KeyMsg) bool { return false }

func (v stockView) summarize(sel *data.SeriesSnapshot) string { return changeSummary(sel) }

// changeSummary is the percent move from the first to the last point.
func changeSummary(sel *data.SeriesSnapshot) string {
	first := sel.First()
	if first == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", (sel.Last()-first)/math.Abs(first)*100)
}
