// Package config handles configuration loading, validation, and management for phototriage.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Version is the current configuration schema version.
const Version = 2

// Config holds the complete application configuration.
type Config struct {
	// Version is the configuration schema version for migrations.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Library configuration for the photo directory.
	Library LibraryConfig `toml:"library" json:"library" yaml:"library"`

	// Store configuration for tag persistence.
	Store StoreConfig `toml:"store" json:"store" yaml:"store"`

	// Journal configuration for the decision journal.
	Journal JournalConfig `toml:"journal" json:"journal" yaml:"journal"`

	// Grid configuration for the selection grid.
	Grid GridConfig `toml:"grid" json:"grid" yaml:"grid"`

	// Filmstrip configuration for the detail-view strip.
	Filmstrip FilmstripConfig `toml:"filmstrip" json:"filmstrip" yaml:"filmstrip"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Notify configuration for desktop notifications.
	Notify NotifyConfig `toml:"notify" json:"notify" yaml:"notify"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// LibraryConfig holds photo library configuration.
type LibraryConfig struct {
	// Root is the photo directory to triage.
	Root string `toml:"root" json:"root" yaml:"root"`

	// WatchDebounceMs is how long the directory must be quiet after an
	// external change before the library rescans.
	WatchDebounceMs int `toml:"watch_debounce_ms" json:"watch_debounce_ms" yaml:"watch_debounce_ms"`

	// ThumbnailSide is the longest side of generated thumbnails in pixels.
	ThumbnailSide int `toml:"thumbnail_side" json:"thumbnail_side" yaml:"thumbnail_side"`
}

// StoreConfig holds tag persistence configuration.
type StoreConfig struct {
	// Path is the path to the tag file.
	Path string `toml:"path" json:"path" yaml:"path"`

	// QuietPeriodMs is the write debounce: tag edits must be quiet for
	// this long before the file is rewritten.
	QuietPeriodMs int `toml:"quiet_period_ms" json:"quiet_period_ms" yaml:"quiet_period_ms"`
}

// JournalConfig holds decision journal configuration.
type JournalConfig struct {
	// Enabled determines whether decisions are journaled.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the path to the journal database.
	Path string `toml:"path" json:"path" yaml:"path"`

	// RetentionDays is how long to keep journal entries. Zero disables
	// pruning.
	RetentionDays int `toml:"retention_days" json:"retention_days" yaml:"retention_days"`
}

// GridConfig holds selection grid configuration.
type GridConfig struct {
	// CellSide is the grid cell side length in pixels.
	CellSide float32 `toml:"cell_side" json:"cell_side" yaml:"cell_side"`

	// Spacing is the gap between cells in pixels.
	Spacing float32 `toml:"spacing" json:"spacing" yaml:"spacing"`

	// EdgePadding is the padding around the grid in pixels.
	EdgePadding float32 `toml:"edge_padding" json:"edge_padding" yaml:"edge_padding"`

	// Columns is the number of grid columns.
	Columns int `toml:"columns" json:"columns" yaml:"columns"`

	// LongPressMs is how long a press must be held to start a drag
	// selection.
	LongPressMs int `toml:"long_press_ms" json:"long_press_ms" yaml:"long_press_ms"`

	// JitterRadius is how far a press may wander while still counting
	// as stationary, in pixels.
	JitterRadius float32 `toml:"jitter_radius" json:"jitter_radius" yaml:"jitter_radius"`
}

// FilmstripConfig holds detail-view filmstrip configuration.
type FilmstripConfig struct {
	// ItemWidth is the strip item width in pixels.
	ItemWidth float32 `toml:"item_width" json:"item_width" yaml:"item_width"`

	// ItemSpacing is the gap between strip items in pixels.
	ItemSpacing float32 `toml:"item_spacing" json:"item_spacing" yaml:"item_spacing"`

	// SettleDelayMs is how long the strip must be still after a fling
	// before it snaps to the nearest item.
	SettleDelayMs int `toml:"settle_delay_ms" json:"settle_delay_ms" yaml:"settle_delay_ms"`

	// SnapDurationMs is the duration of the snap animation.
	SnapDurationMs int `toml:"snap_duration_ms" json:"snap_duration_ms" yaml:"snap_duration_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", or "file".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// NotifyConfig holds desktop notification configuration.
type NotifyConfig struct {
	// Enabled determines whether desktop notifications are sent for
	// bulk operations.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DataDir()

	return &Config{
		Version: Version,
		Library: LibraryConfig{
			Root:            defaultLibraryRoot(),
			WatchDebounceMs: 500,
			ThumbnailSide:   256,
		},
		Store: StoreConfig{
			Path:          filepath.Join(dir, "tags.json"),
			QuietPeriodMs: 100,
		},
		Journal: JournalConfig{
			Enabled:       true,
			Path:          filepath.Join(dir, "journal.db"),
			RetentionDays: 90,
		},
		Grid: GridConfig{
			CellSide:     120,
			Spacing:      8,
			EdgePadding:  12,
			Columns:      4,
			LongPressMs:  500,
			JitterRadius: 8,
		},
		Filmstrip: FilmstripConfig{
			ItemWidth:      80,
			ItemSpacing:    12,
			SettleDelayMs:  200,
			SnapDurationMs: 250,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "file",
			FilePath: filepath.Join(dir, "phototriage.log"),
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates all necessary directories for the application.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Store.Path),
		filepath.Dir(c.Journal.Path),
		filepath.Dir(c.Logging.FilePath),
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DataDir returns the base phototriage data directory.
// Uses platform-specific paths or PHOTOTRIAGE_DATA_DIR environment override.
func DataDir() string {
	if envDir := os.Getenv("PHOTOTRIAGE_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with PHOTOTRIAGE_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("PHOTOTRIAGE_LIBRARY_ROOT"); v != "" {
		c.Library.Root = v
	}
	if v := os.Getenv("PHOTOTRIAGE_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("PHOTOTRIAGE_JOURNAL_PATH"); v != "" {
		c.Journal.Path = v
	}
	if v := os.Getenv("PHOTOTRIAGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PHOTOTRIAGE_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Version:   c.Version,
		Library:   c.Library,
		Store:     c.Store,
		Journal:   c.Journal,
		Grid:      c.Grid,
		Filmstrip: c.Filmstrip,
		Logging:   c.Logging,
		Notify:    c.Notify,
	}
}

func defaultLibraryRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Pictures")
}
