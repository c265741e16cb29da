// Package logging provides structured logging with slog for phototriage.
package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileRotator is an io.Writer that appends to a log file and rotates it
// once it grows past a size limit. Rotated files are optionally gzipped
// and trimmed by count and age.
type FileRotator struct {
	path     string
	maxBytes int64
	backups  int
	maxAge   time.Duration
	compress bool

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewFileRotator opens the log file named by cfg.FilePath, creating its
// directory if needed.
func NewFileRotator(cfg *Config) (*FileRotator, error) {
	r := &FileRotator{
		path:     cfg.FilePath,
		maxBytes: cfg.MaxSize * 1024 * 1024,
		backups:  cfg.MaxBackups,
		maxAge:   time.Duration(cfg.MaxAge) * 24 * time.Hour,
		compress: cfg.Compress,
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) open() error {
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = file
	r.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (r *FileRotator) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}
	if r.size+int64(len(p)) > r.maxBytes {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err = r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// rotate renames the current file to a timestamped backup and reopens a
// fresh one. Compression and retention run in the background.
func (r *FileRotator) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("close current log: %w", err)
		}
		r.file = nil
	}

	backup := r.backupName(time.Now())
	if err := os.Rename(r.path, backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}

	if r.compress {
		go compressLog(backup)
	}
	go r.trimBackups()

	return r.open()
}

// backupName derives a sibling path like app-20060102-150405.log from
// the active log path.
func (r *FileRotator) backupName(now time.Time) string {
	base := filepath.Base(r.path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := fmt.Sprintf("%s-%s%s", stem, now.Format("20060102-150405"), ext)
	return filepath.Join(filepath.Dir(r.path), name)
}

// compressLog gzips path in place, replacing it with path.gz. Failures
// leave the uncompressed file behind.
func compressLog(path string) {
	input, err := os.Open(path)
	if err != nil {
		return
	}
	defer input.Close()

	output, err := os.Create(path + ".gz")
	if err != nil {
		return
	}
	defer output.Close()

	gz := gzip.NewWriter(output)
	gz.Name = filepath.Base(path)
	gz.ModTime = time.Now()

	if _, err := io.Copy(gz, input); err != nil {
		gz.Close()
		os.Remove(path + ".gz")
		return
	}
	if err := gz.Close(); err != nil {
		os.Remove(path + ".gz")
		return
	}

	os.Remove(path)
}

// trimBackups deletes rotated files beyond the backup count and older
// than the retention age.
func (r *FileRotator) trimBackups() {
	base := filepath.Base(r.path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	pattern := filepath.Join(filepath.Dir(r.path), stem+"-*"+ext+"*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}

	type backup struct {
		path string
		mod  time.Time
	}
	backups := make([]backup, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		backups = append(backups, backup{path: m, mod: info.ModTime()})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].mod.Before(backups[j].mod)
	})

	excess := len(backups) - r.backups
	cutoff := time.Now().Add(-r.maxAge)
	for i, b := range backups {
		if i < excess || b.mod.Before(cutoff) {
			os.Remove(b.path)
		}
	}
}

// Close closes the underlying file.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Sync flushes the underlying file to disk.
func (r *FileRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}
