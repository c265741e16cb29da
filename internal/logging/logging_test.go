package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("expected FormatJSON, got %v (err %v)", f, err)
	}
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("expected FormatText, got %v (err %v)", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("expected default level Info, got %v", cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("expected default format Text, got %v", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
	if cfg.MaxSize <= 0 {
		t.Errorf("expected positive MaxSize, got %d", cfg.MaxSize)
	}
}

func TestLoggerNew(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "stderr"

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.Logger == nil {
		t.Error("logger.Logger is nil")
	}
}

func TestLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(dir, "test.log")

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.Info("hello", "key", "value")
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	logger.Close()

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing entry: %s", data)
	}
	if !strings.Contains(string(data), "component=phototriage") {
		t.Errorf("log file missing component attribute: %s", data)
	}
}

func TestWithComponent(t *testing.T) {
	cfg := DefaultConfig()
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Close()

	child := logger.WithComponent("grid")
	if child == nil || child.Logger == nil {
		t.Fatal("WithComponent returned nil")
	}
}

func TestRotatorRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(dir, "rotate.log")
	cfg.MaxSize = 0 // force rotation on any write after the first
	cfg.Compress = false
	cfg.MaxBackups = 10
	cfg.MaxAge = 10

	r, err := NewFileRotator(cfg)
	if err != nil {
		t.Fatalf("NewFileRotator failed: %v", err)
	}
	defer r.Close()

	if _, err := r.Write([]byte("first line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := r.Write([]byte("second line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "rotate-*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Error("expected a rotated log file")
	}
}

func TestRotatorTrimsBackupsByCountAndAge(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(dir, "trim.log")
	cfg.MaxBackups = 2
	cfg.MaxAge = 7

	r, err := NewFileRotator(cfg)
	if err != nil {
		t.Fatalf("NewFileRotator failed: %v", err)
	}
	defer r.Close()

	stale := filepath.Join(dir, "trim-20200101-000000.log")
	recent1 := filepath.Join(dir, "trim-20260101-000000.log")
	recent2 := filepath.Join(dir, "trim-20260102-000000.log")
	recent3 := filepath.Join(dir, "trim-20260103-000000.log")
	for _, p := range []string{stale, recent1, recent2, recent3} {
		if err := os.WriteFile(p, []byte("old\n"), 0640); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(recent1, time.Now().Add(-3*time.Hour), time.Now().Add(-3*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(recent2, time.Now().Add(-2*time.Hour), time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatal(err)
	}

	r.trimBackups()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("backup past retention age should be removed")
	}
	if _, err := os.Stat(recent1); !os.IsNotExist(err) {
		t.Error("oldest backup beyond the count limit should be removed")
	}
	for _, p := range []string{recent2, recent3} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("backup within limits removed: %s", p)
		}
	}
}

func TestCrashHandlerWritesReport(t *testing.T) {
	dir := t.TempDir()
	h := NewCrashHandler(&CrashHandlerConfig{
		CrashDir:  dir,
		Version:   "test",
		Component: "grid",
	})

	func() {
		defer h.RecoverAndLog()
		panic("boom")
	}()

	matches, err := filepath.Glob(filepath.Join(dir, "crash-*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 crash report, got %d", len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "boom") {
		t.Errorf("crash report missing panic value: %s", data)
	}
}
