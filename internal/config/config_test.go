package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Version != Version {
		t.Errorf("expected version %d, got %d", Version, cfg.Version)
	}
	if cfg.Store.QuietPeriodMs != 100 {
		t.Errorf("expected quiet period 100ms, got %d", cfg.Store.QuietPeriodMs)
	}
	if cfg.Filmstrip.SettleDelayMs != 200 {
		t.Errorf("expected settle delay 200ms, got %d", cfg.Filmstrip.SettleDelayMs)
	}
	if cfg.Grid.LongPressMs != 500 {
		t.Errorf("expected long press 500ms, got %d", cfg.Grid.LongPressMs)
	}
	if !strings.Contains(cfg.Store.Path, "phototriage") {
		t.Errorf("store path should live under the app data dir: %s", cfg.Store.Path)
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if path == "" {
		t.Error("ConfigPath returned empty string")
	}
	if !strings.HasSuffix(path, "config.toml") {
		t.Errorf("expected path ending with config.toml, got %s", path)
	}
}

func TestDataDirOverride(t *testing.T) {
	t.Setenv("PHOTOTRIAGE_DATA_DIR", "/custom/data")
	if dir := DataDir(); dir != "/custom/data" {
		t.Errorf("expected /custom/data, got %s", dir)
	}
}

func TestLoadNonexistent(t *testing.T) {
	// Load from nonexistent path should return default config
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}

	if cfg.Store.QuietPeriodMs != 100 {
		t.Errorf("expected default quiet period, got %d", cfg.Store.QuietPeriodMs)
	}
}

func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
version = 2

[library]
root = "/photos/vacation"
watch_debounce_ms = 1000

[store]
path = "/custom/tags.json"
quiet_period_ms = 250

[grid]
columns = 6
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Library.Root != "/photos/vacation" {
		t.Errorf("expected library root /photos/vacation, got %s", cfg.Library.Root)
	}
	if cfg.Library.WatchDebounceMs != 1000 {
		t.Errorf("expected watch debounce 1000, got %d", cfg.Library.WatchDebounceMs)
	}
	if cfg.Store.Path != "/custom/tags.json" {
		t.Errorf("expected store path /custom/tags.json, got %s", cfg.Store.Path)
	}
	if cfg.Store.QuietPeriodMs != 250 {
		t.Errorf("expected quiet period 250, got %d", cfg.Store.QuietPeriodMs)
	}
	if cfg.Grid.Columns != 6 {
		t.Errorf("expected 6 columns, got %d", cfg.Grid.Columns)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	// Only set some values, rest should come from defaults
	content := `
[filmstrip]
settle_delay_ms = 300
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Filmstrip.SettleDelayMs != 300 {
		t.Errorf("expected settle delay 300, got %d", cfg.Filmstrip.SettleDelayMs)
	}
	// Other fields should have defaults
	if cfg.Filmstrip.SnapDurationMs != 250 {
		t.Errorf("snap duration should have default value, got %d", cfg.Filmstrip.SnapDurationMs)
	}
	if cfg.Grid.Columns != 4 {
		t.Errorf("grid columns should have default value, got %d", cfg.Grid.Columns)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
this is not valid toml {{{
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestLoadJSONConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	content := `{"library": {"root": "/photos"}, "grid": {"columns": 3}}`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Library.Root != "/photos" {
		t.Errorf("expected library root /photos, got %s", cfg.Library.Root)
	}
	if cfg.Grid.Columns != 3 {
		t.Errorf("expected 3 columns, got %d", cfg.Grid.Columns)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
library:
  root: /photos
store:
  quiet_period_ms: 150
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Library.Root != "/photos" {
		t.Errorf("expected library root /photos, got %s", cfg.Library.Root)
	}
	if cfg.Store.QuietPeriodMs != 150 {
		t.Errorf("expected quiet period 150, got %d", cfg.Store.QuietPeriodMs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PHOTOTRIAGE_LIBRARY_ROOT", "/env/photos")
	t.Setenv("PHOTOTRIAGE_LOG_LEVEL", "debug")

	cfg, err := Load("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Library.Root != "/env/photos" {
		t.Errorf("expected env override /env/photos, got %s", cfg.Library.Root)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env override debug, got %s", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidateInvalidQuietPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.QuietPeriodMs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero quiet period")
	}

	cfg.Store.QuietPeriodMs = 20000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for oversized quiet period")
	}
}

func TestValidateMissingStorePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing store path")
	}
}

func TestValidateInvalidGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid.Columns = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero columns")
	}

	cfg = DefaultConfig()
	cfg.Grid.CellSide = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative cell side")
	}
}

func TestValidateInvalidLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Store.Path = filepath.Join(tmpDir, "subdir1", "tags.json")
	cfg.Journal.Path = filepath.Join(tmpDir, "subdir2", "journal.db")
	cfg.Logging.FilePath = filepath.Join(tmpDir, "subdir3", "app.log")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, sub := range []string{"subdir1", "subdir2", "subdir3"} {
		if _, err := os.Stat(filepath.Join(tmpDir, sub)); os.IsNotExist(err) {
			t.Errorf("%s was not created", sub)
		}
	}
}

func TestMigrateV1Config(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = 1
	cfg.Store.Path = ""
	cfg.Journal.Path = ""

	if err := MigrateConfig(cfg); err != nil {
		t.Fatalf("MigrateConfig failed: %v", err)
	}

	if cfg.Version != Version {
		t.Errorf("expected version %d after migration, got %d", Version, cfg.Version)
	}
	if cfg.Store.Path == "" {
		t.Error("migration should fill in store path")
	}
	if cfg.Journal.Path == "" {
		t.Error("migration should fill in journal path")
	}
}

func TestLoadOrCreateWritesDefault(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	cfg, created, err := LoadOrCreate(configPath)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if !created {
		t.Error("expected config to be created")
	}
	if cfg == nil {
		t.Fatal("LoadOrCreate returned nil config")
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("config file was not written: %v", err)
	}

	// Second call loads the existing file.
	_, created, err = LoadOrCreate(configPath)
	if err != nil {
		t.Fatalf("second LoadOrCreate failed: %v", err)
	}
	if created {
		t.Error("expected existing config to be loaded, not recreated")
	}
}
