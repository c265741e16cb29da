// Package config handles configuration loading and validation for phototriage.
package config

import (
	"fmt"
	"path/filepath"
)

// MigrateConfig migrates a configuration from an older version to the
// current version, one step at a time.
func MigrateConfig(cfg *Config) error {
	for cfg.Version < Version {
		if err := applyMigration(cfg); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", cfg.Version, cfg.Version+1, err)
		}
	}
	return nil
}

// applyMigration applies a single version upgrade.
func applyMigration(cfg *Config) error {
	switch cfg.Version {
	case 1:
		migrateV1ToV2(cfg)
	default:
		return fmt.Errorf("unknown version %d", cfg.Version)
	}

	cfg.Version++
	return nil
}

// migrateV1ToV2 migrates from version 1 to version 2.
// V2 added the decision journal and moved the write debounce from the
// library section into its own store section.
func migrateV1ToV2(cfg *Config) {
	dir := DataDir()

	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(dir, "tags.json")
	}
	if cfg.Store.QuietPeriodMs == 0 {
		cfg.Store.QuietPeriodMs = 100
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(dir, "journal.db")
		cfg.Journal.Enabled = true
		cfg.Journal.RetentionDays = 90
	}
}
