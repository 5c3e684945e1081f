// stackwatch is a terminal dashboard of synchronized stock, index and
// weather charts, and the data API that feeds it.
//
// Usage:
//
//	stackwatch [flags]
//
// Flags:
//
//	-config string  Path to configuration file (default: ~/.config/stackwatch/config.toml)
//	-api string     Data API base URL (overrides api.base_url)
//	-serve          Run the data API server instead of the dashboard
//	-use-mocks      Read generated data in-process instead of calling the API
//	-once           Fetch once, print a single frame and exit (implied when stdout is not a terminal)
//	-verbose        Enable debug logging
//	-version        Print version and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stackwatcher/stack-watcher/pkg/backend"
	"github.com/stackwatcher/stack-watcher/pkg/banner"
	"github.com/stackwatcher/stack-watcher/pkg/cache"
	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/client"
	"github.com/stackwatcher/stack-watcher/pkg/config"
	"github.com/stackwatcher/stack-watcher/pkg/data"
	"github.com/stackwatcher/stack-watcher/pkg/marketdata"
	"github.com/stackwatcher/stack-watcher/pkg/period"
	"github.com/stackwatcher/stack-watcher/pkg/server"
	"github.com/stackwatcher/stack-watcher/pkg/stores"
	"github.com/stackwatcher/stack-watcher/pkg/theme"
	"github.com/stackwatcher/stack-watcher/pkg/tui"
	"github.com/stackwatcher/stack-watcher/pkg/weather"
	"github.com/stackwatcher/stack-watcher/pkg/widgets"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// onceTimeout bounds the fetches of a -once snapshot.
const onceTimeout = 20 * time.Second

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		apiURL      = flag.String("api", "", "Data API base URL (overrides api.base_url)")
		runServe    = flag.Bool("serve", false, "Run the data API server")
		useMocks    = flag.Bool("use-mocks", false, "Use generated data in-process instead of the API")
		once        = flag.Bool("once", false, "Print a single dashboard frame and exit")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("stackwatch %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// The dashboard owns the terminal, so only the server logs to stderr.
	logger, closeLog, err := setupLogger(cfg.General, *verbose, *runServe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *runServe:
		err = runServer(ctx, cfg, logger)
	default:
		snapshot := *once || !isatty.IsTerminal(os.Stdout.Fd())
		err = runDashboard(ctx, cfg, logger, *useMocks, snapshot)
	}
	if err != nil {
		logger.Error("exiting", "error", err)
		fmt.Fprintf(os.Stderr, "stackwatch: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger writes to a rotating file, plus stderr when asked.
func setupLogger(gc config.GeneralConfig, verbose, toStderr bool) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(gc.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	logWriter := &lumberjack.Logger{
		Filename:   gc.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}

	level := slog.LevelInfo
	switch strings.ToLower(gc.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = logWriter
	if toStderr {
		w = io.MultiWriter(os.Stderr, logWriter)
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = logWriter.Close() }, nil
}

// newBackend builds the in-process data service. With live weather the
// Open-Meteo archive is fetched through a disk cache; otherwise every series
// is generated.
func newBackend(cfg *config.Config, logger *slog.Logger, liveWeather bool) (*backend.Backend, *cache.Store, error) {
	cat := marketdata.DefaultCatalog()
	if cfg.Server.Instruments != "" {
		loaded, err := marketdata.LoadCatalog(cfg.Server.Instruments)
		if err != nil {
			return nil, nil, err
		}
		cat = loaded
	}
	gen := marketdata.NewGenerator(cat, cfg.Server.Seed)
	if !liveWeather {
		return backend.New(gen, nil), nil, nil
	}

	store, err := cache.NewStore(cache.StoreConfig{
		Dir:        filepath.Join(cfg.General.CacheDir, "weather"),
		DefaultTTL: cfg.Server.UpstreamTTL.Duration,
	})
	if err != nil {
		logger.Warn("weather cache disabled", "error", err)
		store = nil
	}
	wp := weather.NewProvider(weather.Config{
		BaseURL:  cfg.Server.OpenMeteoURL,
		Timezone: cfg.Server.Timezone,
		Timeout:  cfg.Server.UpstreamTimeout.Duration,
		CacheTTL: cfg.Server.UpstreamTTL.Duration,
		Cache:    store,
		Logger:   logger.With("component", "weather"),
	}, gen)
	return backend.New(gen, wp), store, nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	svc, store, err := newBackend(cfg, logger, true)
	if err != nil {
		return err
	}
	opts := server.Options{Logger: logger}
	if store != nil {
		opts.CacheStats = store.Stats
	}
	srv := &http.Server{
		Addr:              cfg.Server.BindAddr,
		Handler:           server.New(svc, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("data API listening", "addr", cfg.Server.BindAddr, "version", server.Version)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", cfg.Server.BindAddr, err)
	}
	return nil
}

// dashboard is everything the dashboard run shares between the TUI and
// snapshot modes.
type dashboard struct {
	coord   *chartsync.Coordinator
	updates chan stores.Update
	stocks  *stores.StockStore
	indices *stores.IndexStore
	weather *stores.WeatherStore
	visible []chartsync.ChartType
}

func newDashboard(cfg *config.Config, logger *slog.Logger, useMocks bool) (*dashboard, error) {
	var src stores.Source
	if useMocks {
		b, _, err := newBackend(cfg, logger, false)
		if err != nil {
			return nil, err
		}
		src = b
		logger.Info("using generated data")
	} else {
		src = client.New(cfg.API.BaseURL, cfg.API.Timeout.Duration)
	}

	visible, err := cfg.VisibleCharts()
	if err != nil {
		return nil, err
	}

	// One slot per store is enough: a pending update already makes the
	// model reread every store.
	updates := make(chan stores.Update, 3)
	scfg := stores.Config{
		Source:  src,
		Data:    data.NewStore(data.StoreConfig{}),
		Updates: updates,
		Timeout: cfg.API.Timeout.Duration,
		Logger:  logger,
	}
	d := &dashboard{
		updates: updates,
		stocks:  stores.NewStockStore(scfg, cfg.Dashboard.Symbols...),
		indices: stores.NewIndexStore(scfg),
		weather: stores.NewWeatherStore(scfg, cfg.Dashboard.Location),
		visible: visible,
	}
	d.coord = chartsync.New(chartsync.Config{
		Period:   period.ID(cfg.Dashboard.Period),
		Settings: cfg.Dashboard.Sync.Settings(),
		Logger:   logger.With("component", "chartsync"),
	}, d.stocks, d.indices, d.weather)
	return d, nil
}

// start kicks off the first fetch of every store.
func (d *dashboard) start() error {
	return d.coord.SetGlobalPeriod(d.coord.GlobalPeriod())
}

// fetchCatalogs loads the symbol and location lists used to validate prompt
// input. Failures only cost the validation.
func (d *dashboard) fetchCatalogs(ctx context.Context, logger *slog.Logger) {
	if err := d.stocks.FetchAvailable(ctx); err != nil {
		logger.Warn("stock symbols unavailable", "error", err)
	}
	if err := d.indices.FetchInfo(ctx); err != nil {
		logger.Warn("index info unavailable", "error", err)
	}
	if err := d.weather.FetchLocations(ctx); err != nil {
		logger.Warn("weather locations unavailable", "error", err)
	}
}

func (d *dashboard) model(cfg *config.Config, logger *slog.Logger, zones *zone.Manager, depth int) tui.Model {
	opts := widgets.Options{Zones: zones, Logger: logger}
	return tui.NewDashboard(tui.Options{
		Coordinator: d.coord,
		Charts: func(t chartsync.ChartType) tui.Chart {
			switch t {
			case chartsync.StockChart:
				return widgets.NewStockChart(d.stocks, opts)
			case chartsync.IndexChart:
				return widgets.NewIndexChart(d.indices, opts)
			case chartsync.WeatherChart:
				return widgets.NewWeatherChart(d.weather, opts)
			}
			return nil
		},
		Visible:    d.visible,
		Updates:    d.updates,
		Stocks:     d.stocks,
		Indices:    d.indices,
		Weather:    d.weather,
		Refresh:    cfg.API.RefreshInterval.Duration,
		Zones:      zones,
		ColorDepth: depth,
		Logger:     logger,
	})
}

func runDashboard(ctx context.Context, cfg *config.Config, logger *slog.Logger, useMocks, snapshot bool) error {
	d, err := newDashboard(cfg, logger, useMocks)
	if err != nil {
		return err
	}
	defer d.coord.Close()

	depth := theme.ColorDepth(termenv.NewOutput(os.Stdout).EnvColorProfile())
	theme.SetCurrent(cfg.Theme.Name, depth)

	if snapshot {
		return runOnce(ctx, cfg, logger, d, depth)
	}

	go d.fetchCatalogs(ctx, logger)
	if err := d.start(); err != nil {
		return err
	}

	zones := zone.New()
	p := tea.NewProgram(d.model(cfg, logger, zones, depth),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// runOnce waits for every store's first fetch and prints one frame at the
// largest preset that fits the terminal.
func runOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger, d *dashboard, depth int) error {
	ctx, cancel := context.WithTimeout(ctx, onceTimeout)
	defer cancel()

	if err := d.start(); err != nil {
		return err
	}
	if left := banner.WaitForFetches(ctx, d.updates, stores.KindStock, stores.KindIndex, stores.KindWeather); len(left) > 0 {
		logger.Warn("snapshot rendered before every fetch finished", "pending", fmt.Sprint(left))
	}

	preset := banner.PresetFor(os.Stdout.Fd())
	logger.Debug("rendering snapshot", "preset", preset.Name)
	fmt.Println(banner.Render(d.model(cfg, logger, nil, depth), preset))
	return nil
}
