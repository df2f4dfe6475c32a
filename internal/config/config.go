package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup, overrides and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
	// SourceType marks the backing record kind for every event of this
	// source ("event" by default; "task" events are resize-protected).
	SourceType string `yaml:"source_type" json:"source_type"`
}

// GestureConfig holds the recognizer thresholds.
type GestureConfig struct {
	// DragThresholdPx is the displacement at which a touch becomes a drag.
	DragThresholdPx float64 `yaml:"drag_threshold_px" json:"drag_threshold_px"`

	// LongPressMs is how long an unmoved touch is held before long-press.
	LongPressMs int `yaml:"long_press_ms" json:"long_press_ms"`

	// ThrottleMs is the minimum spacing between drag/resize move emissions.
	ThrottleMs int `yaml:"throttle_ms" json:"throttle_ms"`

	// MinDragDistancePx gates the edge-handle resize recognizer.
	MinDragDistancePx float64 `yaml:"min_drag_distance_px" json:"min_drag_distance_px"`
}

// GridConfig describes the calendar surface geometry used to map pixel
// deltas onto times.
type GridConfig struct {
	// SnapIntervalMinutes is the grid interval times are aligned to.
	SnapIntervalMinutes int `yaml:"snap_interval_minutes" json:"snap_interval_minutes"`

	// MinimumDurationMinutes is the smallest committed event length.
	MinimumDurationMinutes int `yaml:"minimum_duration_minutes" json:"minimum_duration_minutes"`

	// HourHeightPx is the rendered height of one hour row.
	HourHeightPx float64 `yaml:"hour_height_px" json:"hour_height_px"`

	// DayWidthPx is the rendered width of one day column; 0 disables
	// horizontal (day-to-day) movement.
	DayWidthPx float64 `yaml:"day_width_px" json:"day_width_px"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API and websocket endpoint.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as canonical display zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic ICS refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the number of future days expanded and served.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// DBPath is the sqlite file holding committed time overrides.
	DBPath string `yaml:"db_path" json:"db_path"`

	// CacheDir is the base directory for the ICS fetch cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	Gesture GestureConfig `yaml:"gesture" json:"gesture"`
	Grid    GridConfig    `yaml:"grid" json:"grid"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Asia/Seoul",
		RefreshCron: "*/15 * * * *",
		HorizonDays: 7,
		DBPath:      "./var/dragcal.db",
		CacheDir:    "./var/ics-cache",
		ICS:         []ICSConfig{},
		Gesture: GestureConfig{
			DragThresholdPx:   10,
			LongPressMs:       500,
			ThrottleMs:        16,
			MinDragDistancePx: 10,
		},
		Grid: GridConfig{
			SnapIntervalMinutes:    15,
			MinimumDurationMinutes: 15,
			HourHeightPx:           40,
			DayWidthPx:             0,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Seoul"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 7
	}
	if c.DBPath == "" {
		c.DBPath = "./var/dragcal.db"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].SourceType == "" {
			c.ICS[i].SourceType = "event"
		}
	}

	if c.Gesture.DragThresholdPx <= 0 {
		c.Gesture.DragThresholdPx = 10
	}
	if c.Gesture.LongPressMs <= 0 {
		c.Gesture.LongPressMs = 500
	}
	if c.Gesture.ThrottleMs <= 0 {
		c.Gesture.ThrottleMs = 16
	}
	if c.Gesture.MinDragDistancePx <= 0 {
		c.Gesture.MinDragDistancePx = 10
	}

	if c.Grid.SnapIntervalMinutes <= 0 {
		c.Grid.SnapIntervalMinutes = 15
	}
	if c.Grid.MinimumDurationMinutes <= 0 {
		c.Grid.MinimumDurationMinutes = 15
	}
	if c.Grid.HourHeightPx <= 0 {
		c.Grid.HourHeightPx = 40
	}
	if c.Grid.DayWidthPx < 0 {
		c.Grid.DayWidthPx = 0
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".dragcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
