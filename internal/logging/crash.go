// Package logging provides structured logging with slog for phototriage.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// CrashReport represents information about a crash.
type CrashReport struct {
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	GOOS         string    `json:"goos"`
	GOARCH       string    `json:"goarch"`
	NumGoroutine int       `json:"num_goroutine"`
	PanicValue   string    `json:"panic_value"`
	StackTrace   string    `json:"stack_trace"`
	Component    string    `json:"component,omitempty"`
}

// CrashHandler handles panic recovery and crash reporting.
type CrashHandler struct {
	mu        sync.Mutex
	crashDir  string
	version   string
	component string
	onCrash   func(CrashReport)
}

// CrashHandlerConfig configures the crash handler.
type CrashHandlerConfig struct {
	// CrashDir is the directory to write crash dumps.
	CrashDir string

	// Version is the application version.
	Version string

	// Component is the component name.
	Component string

	// OnCrash is called after a crash is logged.
	OnCrash func(CrashReport)
}

// DefaultCrashDir returns the platform-specific default crash directory.
func DefaultCrashDir() string {
	switch runtime.GOOS {
	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Logs", "DiagnosticReports", "phototriage")
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		return filepath.Join(appData, "phototriage", "crashes")
	default:
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			homeDir, _ := os.UserHomeDir()
			stateHome = filepath.Join(homeDir, ".local", "state")
		}
		return filepath.Join(stateHome, "phototriage", "crashes")
	}
}

var (
	globalCrashHandler *CrashHandler
	crashHandlerOnce   sync.Once
)

// DefaultCrashHandler returns the default global crash handler.
func DefaultCrashHandler() *CrashHandler {
	crashHandlerOnce.Do(func() {
		globalCrashHandler = NewCrashHandler(&CrashHandlerConfig{
			CrashDir:  DefaultCrashDir(),
			Component: "phototriage",
		})
	})
	return globalCrashHandler
}

// NewCrashHandler creates a new crash handler.
func NewCrashHandler(cfg *CrashHandlerConfig) *CrashHandler {
	if cfg == nil {
		cfg = &CrashHandlerConfig{
			CrashDir: DefaultCrashDir(),
		}
	}
	return &CrashHandler{
		crashDir:  cfg.CrashDir,
		version:   cfg.Version,
		component: cfg.Component,
		onCrash:   cfg.OnCrash,
	}
}

// Recover recovers from a panic, writes a crash report, and re-panics.
// Use it as a deferred call in goroutines that must not take the process
// down silently:
//
//	defer logging.DefaultCrashHandler().Recover()
func (h *CrashHandler) Recover() {
	if r := recover(); r != nil {
		report := h.buildReport(r)
		h.writeReport(report)
		if h.onCrash != nil {
			h.onCrash(report)
		}
		panic(r)
	}
}

// RecoverAndLog recovers from a panic and logs it without re-panicking.
func (h *CrashHandler) RecoverAndLog() {
	if r := recover(); r != nil {
		report := h.buildReport(r)
		h.writeReport(report)
		Error("recovered from panic", "panic", report.PanicValue, "component", report.Component)
		if h.onCrash != nil {
			h.onCrash(report)
		}
	}
}

func (h *CrashHandler) buildReport(panicValue any) CrashReport {
	return CrashReport{
		Timestamp:    time.Now(),
		Version:      h.version,
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		NumGoroutine: runtime.NumGoroutine(),
		PanicValue:   fmt.Sprintf("%v", panicValue),
		StackTrace:   string(debug.Stack()),
		Component:    h.component,
	}
}

// writeReport writes a crash report to the crash directory.
func (h *CrashHandler) writeReport(report CrashReport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(h.crashDir, 0750); err != nil {
		return
	}

	name := fmt.Sprintf("crash-%s.json", report.Timestamp.Format("20060102-150405"))
	path := filepath.Join(h.crashDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return
	}

	_ = os.WriteFile(path, data, 0640)
}
