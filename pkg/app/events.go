// Package app provides the Bubbletea building blocks of the dashboard: the
// widget interface, the messages that flow through the update loop, key
// bindings and focus handling.
package app

import (
	"time"

	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/period"
	"github.com/stackwatcher/stack-watcher/pkg/stores"
)

// DataUpdateEvent is delivered when a store finishes a fetch. The store has
// already published its series; receivers only re-read. Failed lists the
// symbols a stock fetch could not serve.
type DataUpdateEvent struct {
	Kind      stores.Kind
	Period    period.ID
	Err       error
	Failed    []string
	Timestamp time.Time
}

// TickEvent is sent periodically to drive background refreshes.
type TickEvent struct {
	Time time.Time
}

// StatusEvent sets the transient message in the status bar.
type StatusEvent struct {
	Text  string
	Error bool
}

// ThemeChangeEvent switches the active color theme.
type ThemeChangeEvent struct {
	Theme string
}

// LayoutPresetEvent shows exactly the listed charts, hiding the rest.
type LayoutPresetEvent struct {
	Preset string
	Charts []chartsync.ChartType
}
