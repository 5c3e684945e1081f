package widgets

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/components"
	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/stores"
	"github.com/stackwatcher/stack-watcher/pkg/theme"
)

type indexView struct {
	store *stores.IndexStore
}

// NewIndexChart charts every market index rebased to 100 at the start of
// the period, so indices of very different magnitude share one axis.
func NewIndexChart(store *stores.IndexStore, opts Options) *Chart {
	return newChart(chartsync.IndexChart, indexView{store: store}, store.Data(), opts)
}

func (v indexView) title() string         { return "Indices" }
func (v indexView) status() stores.Status { return v.store.Status() }

func (v indexView) names() []string {
	return v.store.Data().QueryByLabel(data.LabelChart, "index").Names()
}

func (v indexView) series(snaps []*data.SeriesSnapshot, th theme.Theme) []components.Series {
	out := make([]components.Series, 0, len(snaps))
	for i, s := range snaps {
		values := Rebase(s.Values)
		ser := components.Series{
			Name:   s.Label(data.LabelSymbol),
			Color:  th.SeriesColor(i),
			Times:  s.Times,
			Values: values,
		}
		if n := len(values); n > 0 {
			ser.Detail = fmt.Sprintf("%.1f", values[n-1])
		}
		out = append(out, ser)
	}
	return out
}

func (v indexView) configure(cfg *components.TimeGraphConfig) {
	cfg.FormatY = components.FormatFixed(1)
}

func (v indexView) handleKey(tea.KeyMsg) bool { return false }

func (v indexView) summarize(sel *data.SeriesSnapshot) string { return changeSummary(sel) }

// Rebase scales values so the first non-zero value is 100. A series with no
// non-zero value is returned unchanged.
func Rebase(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	for _, base := range values {
		if base == 0 {
			continue
		}
		for i, v := range values {
			out[i] = v / base * 100
		}
		break
	}
	return out
}
