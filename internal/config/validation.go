// Package config handles configuration loading and validation for phototriage.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	if libErrs := validateLibrary(&c.Library); len(libErrs) > 0 {
		errs = append(errs, libErrs...)
	}

	if storeErrs := validateStore(&c.Store); len(storeErrs) > 0 {
		errs = append(errs, storeErrs...)
	}

	if journalErrs := validateJournal(&c.Journal); len(journalErrs) > 0 {
		errs = append(errs, journalErrs...)
	}

	if gridErrs := validateGrid(&c.Grid); len(gridErrs) > 0 {
		errs = append(errs, gridErrs...)
	}

	if stripErrs := validateFilmstrip(&c.Filmstrip); len(stripErrs) > 0 {
		errs = append(errs, stripErrs...)
	}

	if loggingErrs := validateLogging(&c.Logging); len(loggingErrs) > 0 {
		errs = append(errs, loggingErrs...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLibrary(l *LibraryConfig) ValidationErrors {
	var errs ValidationErrors

	if l.Root == "" {
		errs = append(errs, ValidationError{
			Field:   "library.root",
			Message: "library root is required",
		})
	}

	if l.WatchDebounceMs < 100 {
		errs = append(errs, ValidationError{
			Field:   "library.watch_debounce_ms",
			Message: "watch debounce must be at least 100ms",
		})
	}
	if l.WatchDebounceMs > 60000 {
		errs = append(errs, ValidationError{
			Field:   "library.watch_debounce_ms",
			Message: "watch debounce cannot exceed 60000ms (1 minute)",
		})
	}

	if l.ThumbnailSide < 16 {
		errs = append(errs, ValidationError{
			Field:   "library.thumbnail_side",
			Message: "thumbnail side must be at least 16 pixels",
		})
	}

	return errs
}

func validateStore(s *StoreConfig) ValidationErrors {
	var errs ValidationErrors

	if s.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "store.path",
			Message: "tag file path is required",
		})
	}

	// Parent must be a directory when it already exists.
	dir := filepath.Dir(expandPath(s.Path))
	if dir != "" && dir != "." {
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			errs = append(errs, ValidationError{
				Field:   "store.path",
				Message: fmt.Sprintf("parent path is not a directory: %s", dir),
			})
		}
	}

	if s.QuietPeriodMs < 10 {
		errs = append(errs, ValidationError{
			Field:   "store.quiet_period_ms",
			Message: "quiet period must be at least 10ms",
		})
	}
	if s.QuietPeriodMs > 10000 {
		errs = append(errs, ValidationError{
			Field:   "store.quiet_period_ms",
			Message: "quiet period cannot exceed 10000ms",
		})
	}

	return errs
}

func validateJournal(j *JournalConfig) ValidationErrors {
	var errs ValidationErrors

	if !j.Enabled {
		return errs
	}

	if j.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "journal.path",
			Message: "journal path is required when enabled",
		})
	}

	if j.RetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "journal.retention_days",
			Message: "retention days cannot be negative",
		})
	}

	return errs
}

func validateGrid(g *GridConfig) ValidationErrors {
	var errs ValidationErrors

	if g.CellSide <= 0 {
		errs = append(errs, ValidationError{
			Field:   "grid.cell_side",
			Message: "cell side must be positive",
		})
	}

	if g.Spacing < 0 {
		errs = append(errs, ValidationError{
			Field:   "grid.spacing",
			Message: "spacing cannot be negative",
		})
	}

	if g.EdgePadding < 0 {
		errs = append(errs, ValidationError{
			Field:   "grid.edge_padding",
			Message: "edge padding cannot be negative",
		})
	}

	if g.Columns < 1 {
		errs = append(errs, ValidationError{
			Field:   "grid.columns",
			Message: "grid must have at least 1 column",
		})
	}

	if g.LongPressMs < 100 {
		errs = append(errs, ValidationError{
			Field:   "grid.long_press_ms",
			Message: "long press must be at least 100ms",
		})
	}

	if g.JitterRadius < 0 {
		errs = append(errs, ValidationError{
			Field:   "grid.jitter_radius",
			Message: "jitter radius cannot be negative",
		})
	}

	return errs
}

func validateFilmstrip(f *FilmstripConfig) ValidationErrors {
	var errs ValidationErrors

	if f.ItemWidth <= 0 {
		errs = append(errs, ValidationError{
			Field:   "filmstrip.item_width",
			Message: "item width must be positive",
		})
	}

	if f.ItemSpacing < 0 {
		errs = append(errs, ValidationError{
			Field:   "filmstrip.item_spacing",
			Message: "item spacing cannot be negative",
		})
	}

	if f.SettleDelayMs < 50 {
		errs = append(errs, ValidationError{
			Field:   "filmstrip.settle_delay_ms",
			Message: "settle delay must be at least 50ms",
		})
	}

	if f.SnapDurationMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "filmstrip.snap_duration_ms",
			Message: "snap duration cannot be negative",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
		// Valid formats
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
		// Valid outputs
	case "file":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output is 'file'",
			})
		}
	default:
		if l.Output == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: "log output is required",
			})
		}
	}

	return errs
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")
