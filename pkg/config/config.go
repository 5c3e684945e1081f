// Package config loads stackwatch settings from TOML, an optional .env file
// and STACKWATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stackwatcher/stack-watcher/pkg/chartsync"
	"github.com/stackwatcher/stack-watcher/pkg/period"
)

// Config is the full configuration.
type Config struct {
	General   GeneralConfig   `toml:"general"`
	API       APIConfig       `toml:"api"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Server    ServerConfig    `toml:"server"`
	Theme     ThemeConfig     `toml:"theme"`
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
	CacheDir string `toml:"cache_dir"`
}

// APIConfig tells the dashboard where the data API lives.
type APIConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`

	// RefreshInterval refetches every store periodically. Zero disables it.
	RefreshInterval Duration `toml:"refresh_interval"`
}

// DashboardConfig sets the dashboard's initial state.
type DashboardConfig struct {
	Period   string     `toml:"period"`
	Symbols  []string   `toml:"symbols"`
	Location string     `toml:"location"`
	Preset   string     `toml:"preset"`
	Charts   []string   `toml:"charts"`
	Sync     SyncConfig `toml:"sync"`
}

// SyncConfig seeds the chart sync toggles.
type SyncConfig struct {
	Enabled   bool `toml:"enabled"`
	Zoom      bool `toml:"zoom"`
	Pan       bool `toml:"pan"`
	Selection bool `toml:"selection"`
}

// Settings converts the toggles for the coordinator.
func (s SyncConfig) Settings() chartsync.Settings {
	return chartsync.Settings{Enabled: s.Enabled, Zoom: s.Zoom, Pan: s.Pan, Selection: s.Selection}
}

// ServerConfig configures `stackwatch -serve`.
type ServerConfig struct {
	BindAddr        string   `toml:"bind_addr"`
	Seed            uint64   `toml:"seed"`
	OpenMeteoURL    string   `toml:"open_meteo_url"`
	Timezone        string   `toml:"timezone"`
	UpstreamTimeout Duration `toml:"upstream_timeout"`
	UpstreamTTL     Duration `toml:"upstream_ttl"`

	// Instruments is an optional YAML catalog replacing the built-in one.
	Instruments string `toml:"instruments"`
}

// ThemeConfig selects the chart palette.
type ThemeConfig struct {
	Name string `toml:"name"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	cacheDir := filepath.Join(xdgCacheHome(home), "stackwatch")

	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			LogFile:  filepath.Join(cacheDir, "stackwatch.log"),
			CacheDir: cacheDir,
		},
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: Duration{10 * time.Second},
		},
		Dashboard: DashboardConfig{
			Period:   string(period.Default),
			Symbols:  []string{"6326", "9984", "1377"},
			Location: "tokyo",
			Preset:   "full",
			Sync:     SyncConfig{Enabled: true, Zoom: true, Pan: true, Selection: true},
		},
		Server: ServerConfig{
			BindAddr:        ":8000",
			Seed:            20240101,
			OpenMeteoURL:    "https://archive-api.open-meteo.com/v1/archive",
			Timezone:        "Asia/Tokyo",
			UpstreamTimeout: Duration{10 * time.Second},
			UpstreamTTL:     Duration{time.Hour},
		},
		Theme: ThemeConfig{
			Name: "default",
		},
	}
}

// VisibleCharts resolves the charts shown at startup: the explicit Charts
// list if set, otherwise the preset.
func (c *Config) VisibleCharts() ([]chartsync.ChartType, error) {
	names := c.Dashboard.Charts
	if len(names) == 0 {
		names = DashboardPreset(c.Dashboard.Preset)
	}
	out := make([]chartsync.ChartType, 0, len(names))
	for _, n := range names {
		t, err := chartsync.ParseChartType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	lvl := strings.ToLower(c.General.LogLevel)
	valid := false
	for _, l := range logLevels {
		valid = valid || lvl == l
	}
	if !valid {
		errs = append(errs, fmt.Errorf("general.log_level %q must be one of %s", c.General.LogLevel, strings.Join(logLevels, ", ")))
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}

	if _, err := period.DefaultCatalog().Parse(c.Dashboard.Period); err != nil {
		errs = append(errs, fmt.Errorf("dashboard.period: %w", err))
	}
	if len(c.Dashboard.Symbols) == 0 {
		errs = append(errs, errors.New("dashboard.symbols must not be empty"))
	}
	if strings.TrimSpace(c.Dashboard.Location) == "" {
		errs = append(errs, errors.New("dashboard.location must not be empty"))
	}
	if len(c.Dashboard.Charts) == 0 && !IsPreset(c.Dashboard.Preset) {
		errs = append(errs, fmt.Errorf("dashboard.preset %q is unknown", c.Dashboard.Preset))
	}
	if _, err := c.VisibleCharts(); err != nil {
		errs = append(errs, fmt.Errorf("dashboard.charts: %w", err))
	}

	if c.Server.BindAddr == "" {
		errs = append(errs, errors.New("server.bind_addr must not be empty"))
	}
	if u, err := url.Parse(c.Server.OpenMeteoURL); err != nil || u.Scheme == "" {
		errs = append(errs, fmt.Errorf("server.open_meteo_url %q is not an absolute URL", c.Server.OpenMeteoURL))
	}

	return errors.Join(errs...)
}
