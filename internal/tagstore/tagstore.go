// Package tagstore persists triage dispositions for library assets.
//
// The in-memory map is the single source of truth during a session; the
// file on disk is a write-behind mirror. Mutations are coalesced with a
// debounce timer so a burst of rapid tagging produces one write holding
// the final state. Writes are atomic (temp file + rename) so a reader
// never observes a partial file, and a crash mid-write leaves the previous
// file intact.
package tagstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"phototriage/internal/asset"
)

// FormatVersion is the current tag file schema version.
const FormatVersion = 1

// DefaultQuietPeriod is the debounce window applied to mutations.
const DefaultQuietPeriod = 100 * time.Millisecond

// Options configures a Store.
type Options struct {
	// QuietPeriod is the debounce window for coalescing writes.
	// Zero means DefaultQuietPeriod.
	QuietPeriod time.Duration

	// Logger receives persistence diagnostics. Nil means slog.Default.
	Logger *slog.Logger
}

// Store is a debounced, crash-safe mapping from asset ID to disposition.
// All methods are safe for concurrent use.
type Store struct {
	path  string
	quiet time.Duration
	log   *slog.Logger

	mu    sync.Mutex
	tags  map[asset.ID]asset.Tag
	timer *time.Timer
	closed bool
	gen   uint64

	// wmu serializes disk writes; written is the generation of the last
	// snapshot that reached disk, guarded by wmu.
	wmu     sync.Mutex
	written uint64

	ready  chan struct{}
	writes sync.WaitGroup

	writeCount atomic.Int64
}

// tagFile is the on-disk document.
type tagFile struct {
	Version int                    `json:"version"`
	Tags    map[asset.ID]asset.Tag `json:"tags"`
}

// Open creates a store backed by the file at path. The initial load runs
// asynchronously: callers observing the map before load completes see an
// empty map. A missing, unreadable, or malformed file yields an empty map,
// never an error. Wait on Ready before mutating if the loaded state matters.
func Open(path string, opts Options) *Store {
	quiet := opts.QuietPeriod
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Store{
		path:  path,
		quiet: quiet,
		log:   log.With("component", "tagstore"),
		tags:  make(map[asset.ID]asset.Tag),
		ready: make(chan struct{}),
	}

	go s.load()
	return s
}

// Ready is closed once the initial load has completed and the in-memory
// map reflects the persisted state.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// load reads and validates the persisted file, then replaces the in-memory
// map wholesale. Replacement is safe because no mutation happens before the
// host is interactive on first launch.
func (s *Store) load() {
	defer close(s.ready)

	loaded, err := readTagFile(s.path)
	if err != nil {
		s.log.Warn("tag file unreadable, starting empty", "path", s.path, "err", err)
		return
	}
	if loaded == nil {
		return
	}

	s.mu.Lock()
	s.tags = loaded
	s.mu.Unlock()
	s.log.Debug("tag file loaded", "path", s.path, "entries", len(loaded))
}

// Get returns the disposition for id, if any.
func (s *Store) Get(id asset.ID) (asset.Tag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[id]
	return t, ok
}

// Set assigns a disposition to id, replacing any previous one, and
// schedules a debounced persist. Setting an invalid tag is a no-op.
func (s *Store) Set(id asset.ID, tag asset.Tag) {
	if !tag.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[id] = tag
	s.scheduleLocked()
}

// Remove clears the disposition for id. Removing an absent entry does not
// schedule a write.
func (s *Store) Remove(id asset.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tags[id]; !ok {
		return
	}
	delete(s.tags, id)
	s.scheduleLocked()
}

// Purge drops every entry whose key is not in existing and returns the
// number removed. A write is scheduled only when at least one entry was
// dropped. Used to garbage-collect tags for assets deleted externally.
func (s *Store) Purge(existing map[asset.ID]struct{}) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id := range s.tags {
		if _, ok := existing[id]; !ok {
			delete(s.tags, id)
			removed++
		}
	}
	if removed > 0 {
		s.scheduleLocked()
	}
	return removed
}

// Len returns the number of tagged assets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tags)
}

// Snapshot returns a copy of the full map.
func (s *Store) Snapshot() map[asset.ID]asset.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[asset.ID]asset.Tag, len(s.tags))
	for id, t := range s.tags {
		out[id] = t
	}
	return out
}

// ExistingWith returns the set of IDs currently tagged with tag.
func (s *Store) ExistingWith(tag asset.Tag) []asset.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []asset.ID
	for id, t := range s.tags {
		if t == tag {
			ids = append(ids, id)
		}
	}
	return ids
}

// Writes returns the number of completed persistence attempts. Intended
// for tests asserting coalescing behavior.
func (s *Store) Writes() int64 {
	return s.writeCount.Load()
}

// scheduleLocked arms the debounce timer, cancelling any pending write.
// A cancelled pending write never executes; a write that already started
// is allowed to complete, and the generation guard in write keeps it from
// clobbering a newer snapshot that finished first.
func (s *Store) scheduleLocked() {
	if s.closed {
		return
	}
	if s.timer != nil && s.timer.Stop() {
		s.writes.Done()
	}
	s.writes.Add(1)
	s.timer = time.AfterFunc(s.quiet, s.persist)
}

// persist encodes the current snapshot under the lock and writes it on
// this background goroutine. Failures degrade the store to memory-only
// for that burst; they are logged, never surfaced.
func (s *Store) persist() {
	defer s.writes.Done()

	s.mu.Lock()
	s.timer = nil
	data, err := s.encodeLocked()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if err != nil {
		s.log.Error("encode tag file", "err", err)
		return
	}
	if err := s.write(gen, data); err != nil {
		s.log.Error("write tag file", "path", s.path, "err", err)
	}
}

// write commits one encoded snapshot to disk. Snapshots carry the
// generation at which they were encoded; a snapshot older than the last
// one written is dropped, so a slow write that was overtaken by a newer
// one cannot put stale state back on disk.
func (s *Store) write(gen uint64, data []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if gen <= s.written {
		return nil
	}
	if err := writeAtomic(s.path, data); err != nil {
		return err
	}
	s.written = gen
	s.writeCount.Add(1)
	return nil
}

// Flush forces any pending write to disk synchronously and waits for
// in-flight background writes to finish.
func (s *Store) Flush() error {
	s.mu.Lock()
	var data []byte
	var err error
	var gen uint64
	pending := s.timer != nil && s.timer.Stop()
	if pending {
		s.timer = nil
		s.writes.Done()
		data, err = s.encodeLocked()
		s.gen++
		gen = s.gen
	}
	s.mu.Unlock()

	s.writes.Wait()

	if !pending {
		return nil
	}
	if err != nil {
		return fmt.Errorf("encode tag file: %w", err)
	}
	if err := s.write(gen, data); err != nil {
		return fmt.Errorf("write tag file: %w", err)
	}
	return nil
}

// Close flushes pending state and stops accepting scheduled writes.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush()
}

func (s *Store) encodeLocked() ([]byte, error) {
	doc := tagFile{Version: FormatVersion, Tags: s.tags}
	return json.MarshalIndent(doc, "", "  ")
}

// writeAtomic writes data to path with replace-on-write semantics: the
// bytes land in a temp file in the same directory, are synced, and then
// renamed over the target. A concurrent reader sees either the old file
// or the new one, never a mix.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
