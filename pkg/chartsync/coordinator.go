// Package chartsync keeps the dashboard's chart widgets on the same time
// window, period, zoom level and brush selection.
//
// A single Coordinator is created at application start and injected into the
// app model and every chart widget. Charts register themselves on mount; the
// coordinator attaches listeners to each handle and relays interaction events
// from one chart to all the others as imperative commands. Period changes fan
// out to every domain store.
//
// The Coordinator is not safe for concurrent use. It relies on single-threaded
// dispatch: every method must be called from the host's event loop (the
// bubbletea Update goroutine in this repository). The in-flight flag that
// suppresses feedback relays only works because a relay runs as one
// synchronous pass over the registered charts. A host that calls in from
// several goroutines must serialize those calls itself, or replace the flag
// with a non-reentrant lock or a generation counter.
package chartsync

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/stackwatcher/stack-watcher/pkg/period"
)

var (
	// ErrInvalidPeriod is returned when a period is not in the catalog.
	ErrInvalidPeriod = errors.New("chartsync: invalid period")

	// ErrUnknownChartType is returned for chart types outside the fixed set.
	ErrUnknownChartType = errors.New("chartsync: unknown chart type")

	// ErrNilHandle is returned when registering a nil chart handle.
	ErrNilHandle = errors.New("chartsync: nil chart handle")
)

// Config holds the construction-time state of a Coordinator.
type Config struct {
	// Catalog is the controlled vocabulary of periods. Nil means
	// period.DefaultCatalog().
	Catalog *period.Catalog

	// Period is the initial global period. Empty or unknown values fall back
	// to period.Default, or the first catalog option if that is missing.
	Period period.ID

	// Settings are the initial sync toggles.
	Settings Settings

	// Logger receives rejection and relay diagnostics. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the default catalog and all sync
// toggles enabled.
func DefaultConfig() Config {
	return Config{
		Catalog:  period.DefaultCatalog(),
		Period:   period.Default,
		Settings: DefaultSettings(),
	}
}

// slot is one registry entry. gen changes on every register and unregister
// so listeners attached to a replaced handle can tell they are stale.
type slot struct {
	handle Handle
	gen    uint64
}

// Coordinator mediates cross-chart synchronization.
type Coordinator struct {
	catalog *period.Catalog
	stores  []PeriodSetter
	logger  *slog.Logger

	globalPeriod period.ID
	settings     Settings
	view         ViewRange
	slots        [numChartTypes]slot

	// syncing is true only while a relay is dispatching commands.
	syncing bool
}

// New creates a Coordinator that fans period changes out to stores.
func New(cfg Config, stores ...PeriodSetter) *Coordinator {
	c := &Coordinator{
		catalog:  cfg.Catalog,
		logger:   cfg.Logger,
		settings: cfg.Settings,
		view:     defaultViewRange(),
	}
	if c.catalog == nil {
		c.catalog = period.DefaultCatalog()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	for _, s := range stores {
		if s != nil {
			c.stores = append(c.stores, s)
		}
	}
	c.globalPeriod = c.initialPeriod(cfg.Period)
	return c
}

func (c *Coordinator) initialPeriod(want period.ID) period.ID {
	if want != "" && c.catalog.Contains(want) {
		return want
	}
	if want != "" {
		c.logger.Warn("initial period not in catalog, using default", "period", want)
	}
	if c.catalog.Contains(period.Default) {
		return period.Default
	}
	if o, ok := c.catalog.At(0); ok {
		return o.ID
	}
	return ""
}

// SetGlobalPeriod validates id against the catalog and, on success, records
// it and calls SetPeriod on every store. Store calls are independent: a store
// that panics is logged and the remaining stores are still updated. An
// invalid id is logged and leaves all state untouched.
func (c *Coordinator) SetGlobalPeriod(id period.ID) error {
	if !c.catalog.Contains(id) {
		c.logger.Error("invalid period", "period", id, "suggest", c.catalog.Suggest(string(id)))
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, id)
	}

	c.logger.Info("global period changed", "from", c.globalPeriod, "to", id)
	c.globalPeriod = id

	for _, s := range c.stores {
		c.setStorePeriod(s, id)
	}
	return nil
}

func (c *Coordinator) setStorePeriod(s PeriodSetter, id period.ID) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("store SetPeriod panicked", "store", fmt.Sprintf("%T", s), "period", id, "panic", r)
		}
	}()
	s.SetPeriod(id)
}

// RegisterChart stores h in the slot for t, replacing any previous handle,
// and attaches the coordinator's zoom and selection listeners to it.
func (c *Coordinator) RegisterChart(t ChartType, h Handle) error {
	if !t.Valid() {
		c.logger.Error("unknown chart type", "chart", t)
		return fmt.Errorf("%w: %s", ErrUnknownChartType, t)
	}
	if h == nil {
		c.logger.Error("refusing to register nil chart handle", "chart", t)
		return fmt.Errorf("%w: %s", ErrNilHandle, t)
	}

	s := &c.slots[t]
	if s.handle != nil {
		c.logger.Debug("replacing registered chart", "chart", t)
	}
	s.gen++
	s.handle = h
	gen := s.gen

	h.On(EventZoomChanged, func(e Event) {
		if !c.isCurrent(t, gen) {
			return
		}
		_ = c.HandleZoomEvent(t, e.Zoom)
	})
	h.On(EventSelectionChanged, func(e Event) {
		if !c.isCurrent(t, gen) {
			return
		}
		_ = c.HandleSelectionEvent(t, e.Areas)
	})

	c.logger.Info("chart registered", "chart", t, "registered", c.RegisteredCount())
	return nil
}

// UnregisterChart clears the slot for t. It is a no-op if the slot is
// already empty or t is not a known chart type.
func (c *Coordinator) UnregisterChart(t ChartType) {
	if !t.Valid() {
		c.logger.Debug("unregister ignored for unknown chart type", "chart", t)
		return
	}
	s := &c.slots[t]
	if s.handle == nil {
		return
	}
	s.handle = nil
	s.gen++
	c.logger.Info("chart unregistered", "chart", t, "registered", c.RegisteredCount())
}

// isCurrent reports whether a listener attached at generation gen still
// belongs to the handle registered in slot t.
func (c *Coordinator) isCurrent(t ChartType, gen uint64) bool {
	s := c.slots[t]
	return s.handle != nil && s.gen == gen
}

// HandleZoomEvent relays a zoom or pan of chart src to every other
// registered chart and records the new view range. It does nothing while a
// relay is already in flight, when sync is disabled, or when zoom sync is
// off; a range flagged as a pan additionally requires pan sync. Failures of
// individual charts are isolated and returned joined.
func (c *Coordinator) HandleZoomEvent(src ChartType, r ZoomRange) error {
	if !src.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownChartType, src)
	}
	if c.syncing {
		c.logger.Debug("zoom event suppressed during relay", "source", src)
		return nil
	}
	if !c.settings.Enabled || !c.settings.Zoom {
		return nil
	}
	if r.Pan && !c.settings.Pan {
		return nil
	}

	err := c.relay(src, Command{Type: CommandApplyZoom, Start: r.Start, End: r.End})

	c.view.Start = r.Start
	c.view.End = r.End
	if r.Level > 0 {
		c.view.ZoomLevel = max(r.Level, MinZoomLevel)
	}
	return err
}

// HandleSelectionEvent relays a brush selection of chart src to every other
// registered chart. Gating mirrors HandleZoomEvent with the selection toggle.
func (c *Coordinator) HandleSelectionEvent(src ChartType, areas []Area) error {
	if !src.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownChartType, src)
	}
	if c.syncing {
		c.logger.Debug("selection event suppressed during relay", "source", src)
		return nil
	}
	if !c.settings.Enabled || !c.settings.Selection {
		return nil
	}

	cp := make([]Area, len(areas))
	copy(cp, areas)
	return c.relay(src, Command{Type: CommandApplySelection, Areas: cp})
}

// relay sends cmd to every registered chart except src. The in-flight flag
// is held for exactly the dispatch loop and cleared on every exit path.
func (c *Coordinator) relay(src ChartType, cmd Command) error {
	c.syncing = true
	defer func() { c.syncing = false }()

	var errs []error
	for _, t := range ChartTypes() {
		if t == src {
			continue
		}
		h := c.slots[t].handle
		if h == nil {
			continue
		}
		if err := c.dispatch(t, h, cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dispatch delivers cmd to a single chart. An error or panic from the
// handle is converted into a returned error so the caller can move on to
// the next target.
func (c *Coordinator) dispatch(t ChartType, h Handle, cmd Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chartsync: %s chart panicked on %s: %v", t, cmd.Type, r)
		}
		if err != nil {
			c.logger.Warn("chart command failed", "chart", t, "command", cmd.Type, "error", err)
		}
	}()
	if derr := h.DispatchCommand(cmd); derr != nil {
		return fmt.Errorf("chartsync: %s chart rejected %s: %w", t, cmd.Type, derr)
	}
	return nil
}

// UpdateSyncSettings shallow-merges p into the current settings and returns
// the result.
func (c *Coordinator) UpdateSyncSettings(p SettingsPatch) Settings {
	c.settings = p.apply(c.settings)
	c.logger.Info("sync settings updated",
		"enabled", c.settings.Enabled,
		"zoom", c.settings.Zoom,
		"pan", c.settings.Pan,
		"selection", c.settings.Selection,
	)
	return c.settings
}

// ToggleSync flips the master switch and returns its new value.
func (c *Coordinator) ToggleSync() bool {
	c.settings.Enabled = !c.settings.Enabled
	c.logger.Info("sync toggled", "enabled", c.settings.Enabled)
	return c.settings.Enabled
}

// ResetZoom returns every chart to its full range and clears the view
// range. It only acts when all chart types are registered and reports
// whether it did. The in-flight flag is held while charts reset so their
// re-emitted zoom events are not relayed.
func (c *Coordinator) ResetZoom() bool {
	if !c.AllRegistered() {
		c.logger.Debug("reset zoom skipped, not all charts registered", "registered", c.RegisteredCount())
		return false
	}

	c.syncing = true
	defer func() { c.syncing = false }()

	for _, t := range ChartTypes() {
		if h := c.slots[t].handle; h != nil {
			_ = c.dispatch(t, h, Command{Type: CommandResetZoom})
		}
	}
	c.view = defaultViewRange()
	return true
}

// ResizeAllCharts asks every registered chart to recompute its layout. It
// runs regardless of the sync settings.
func (c *Coordinator) ResizeAllCharts() {
	for _, t := range ChartTypes() {
		h := c.slots[t].handle
		if h == nil {
			continue
		}
		c.resize(t, h)
	}
}

func (c *Coordinator) resize(t ChartType, h Handle) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("chart resize panicked", "chart", t, "panic", r)
		}
	}()
	h.Resize()
}

// Close unregisters every chart. It is called at application shutdown.
func (c *Coordinator) Close() {
	for _, t := range ChartTypes() {
		c.UnregisterChart(t)
	}
}

// GlobalPeriod returns the active period.
func (c *Coordinator) GlobalPeriod() period.ID {
	return c.globalPeriod
}

// CurrentPeriod returns the catalog entry of the active period.
func (c *Coordinator) CurrentPeriod() (period.Option, bool) {
	return c.catalog.Lookup(c.globalPeriod)
}

// Catalog returns the period catalog.
func (c *Coordinator) Catalog() *period.Catalog {
	return c.catalog
}

// Settings returns a copy of the sync toggles.
func (c *Coordinator) Settings() Settings {
	return c.settings
}

// ViewRange returns a copy of the shared view range.
func (c *Coordinator) ViewRange() ViewRange {
	return c.view
}

// Syncing reports whether a relay is in flight.
func (c *Coordinator) Syncing() bool {
	return c.syncing
}

// Handle returns the handle registered for t, if any.
func (c *Coordinator) Handle(t ChartType) (Handle, bool) {
	if !t.Valid() {
		return nil, false
	}
	h := c.slots[t].handle
	return h, h != nil
}

// RegisteredCount returns the number of occupied chart slots.
func (c *Coordinator) RegisteredCount() int {
	n := 0
	for _, s := range c.slots {
		if s.handle != nil {
			n++
		}
	}
	return n
}

// AllRegistered reports whether every chart type has a handle.
func (c *Coordinator) AllRegistered() bool {
	return c.RegisteredCount() == int(numChartTypes)
}
