// Package widgets provides the chart panels of the dashboard. Each Chart
// implements app.Widget for the root model and chartsync.Handle for the
// sync coordinator: user gestures become zoomChanged and selectionChanged
// events, and coordinator commands move the chart without user input.
package widgets

import (
	"errors"
	"time"
)

// ErrDisposed is returned when a command reaches a chart that has been
// unmounted.
var ErrDisposed = errors.New("widgets: chart disposed")

// minSpan is the narrowest zoom window.
const minSpan = 2 * 24 * time.Hour

const day = 24 * time.Hour
