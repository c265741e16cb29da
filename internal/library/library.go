// Package library supplies the asset list the triage engine works over:
// a directory of image files, an ordered filtered view of it, thumbnail
// decoding, deletion, and a change watcher for edits made by other
// processes.
package library

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"phototriage/internal/asset"
)

// Library is the access facade consumed by the triage engine. The ordered
// filtered sequence may change between reads; consumers must re-read it
// rather than cache indices.
type Library interface {
	OrderedFilteredAssets() []asset.ID
	TagOf(id asset.ID) (asset.Tag, bool)
	Thumbnail(ctx context.Context, id asset.ID, side int) (image.Image, error)
	DeleteAssets(ctx context.Context, ids []asset.ID) (deleted int, errs []error)
}

// TagReader is the read side of the tag store, injected so the library
// can filter by disposition without owning tag state.
type TagReader interface {
	Get(id asset.ID) (asset.Tag, bool)
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

func isImagePath(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

type fileInfo struct {
	size    int64
	modTime time.Time
}

// DirLibrary is a Library backed by a directory tree. Asset IDs are
// library-relative slash paths, stable as long as the file stays put.
type DirLibrary struct {
	root string
	tags TagReader
	log  *slog.Logger

	mu     sync.RWMutex
	order  []asset.ID
	info   map[asset.ID]fileInfo
	filter Filter

	thumbs *thumbCache
}

// NewDirLibrary creates a library rooted at dir. Call Scan before first
// use.
func NewDirLibrary(dir string, tags TagReader, log *slog.Logger) *DirLibrary {
	if log == nil {
		log = slog.Default()
	}
	return &DirLibrary{
		root:   dir,
		tags:   tags,
		log:    log.With("component", "library"),
		info:   make(map[asset.ID]fileInfo),
		filter: DefaultFilter(),
		thumbs: newThumbCache(defaultThumbCacheSize),
	}
}

// Root returns the library directory.
func (l *DirLibrary) Root() string { return l.root }

// Scan walks the library directory and rebuilds the asset sequence,
// ordered by modification time then name.
func (l *DirLibrary) Scan() error {
	type entry struct {
		id   asset.ID
		info fileInfo
	}
	var entries []entry

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A single unreadable entry narrows the scan, not the session.
			l.log.Warn("scan entry skipped", "path", path, "err", err)
			return nil
		}
		if d.IsDir() || !isImagePath(d.Name()) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return nil
		}
		entries = append(entries, entry{
			id:   asset.ID(filepath.ToSlash(rel)),
			info: fileInfo{size: fi.Size(), modTime: fi.ModTime()},
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan library: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].info.modTime.Equal(entries[j].info.modTime) {
			return entries[i].info.modTime.Before(entries[j].info.modTime)
		}
		return entries[i].id < entries[j].id
	})

	l.mu.Lock()
	l.order = l.order[:0]
	l.info = make(map[asset.ID]fileInfo, len(entries))
	for _, e := range entries {
		l.order = append(l.order, e.id)
		l.info[e.id] = e.info
	}
	l.mu.Unlock()

	l.log.Debug("library scanned", "root", l.root, "assets", len(entries))
	return nil
}

// SetFilter replaces the active filter.
func (l *DirLibrary) SetFilter(f Filter) {
	l.mu.Lock()
	l.filter = f
	l.mu.Unlock()
}

// Filter returns the active filter.
func (l *DirLibrary) Filter() Filter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filter
}

// OrderedFilteredAssets returns the filtered, ordered asset sequence,
// derived fresh from the full list on every call.
func (l *DirLibrary) OrderedFilteredAssets() []asset.ID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]asset.ID, 0, len(l.order))
	for _, id := range l.order {
		tag, tagged := l.tags.Get(id)
		if l.filter.allows(id, tag, tagged) {
			out = append(out, id)
		}
	}
	return out
}

// TagOf returns the disposition for id, if any.
func (l *DirLibrary) TagOf(id asset.ID) (asset.Tag, bool) {
	return l.tags.Get(id)
}

// Len returns the unfiltered asset count.
func (l *DirLibrary) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// ExistingIDs returns the set of all known asset IDs, used to
// garbage-collect tags for assets that vanished externally.
func (l *DirLibrary) ExistingIDs() map[asset.ID]struct{} {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[asset.ID]struct{}, len(l.order))
	for _, id := range l.order {
		out[id] = struct{}{}
	}
	return out
}

// Path returns the absolute file path for id.
func (l *DirLibrary) Path(id asset.ID) string {
	return filepath.Join(l.root, filepath.FromSlash(string(id)))
}

// DeleteAssets removes the files for ids. It returns the count actually
// deleted and the per-file errors; a partial failure never aborts the
// batch. Successfully deleted assets are dropped from the sequence.
func (l *DirLibrary) DeleteAssets(ctx context.Context, ids []asset.ID) (int, []error) {
	deleted := make(map[asset.ID]struct{}, len(ids))
	var errs []error

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := os.Remove(l.Path(id)); err != nil {
			if os.IsNotExist(err) {
				// Already gone: counts as deleted for reconciliation.
				deleted[id] = struct{}{}
				continue
			}
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
			continue
		}
		deleted[id] = struct{}{}
	}

	if len(deleted) > 0 {
		l.mu.Lock()
		kept := l.order[:0]
		for _, id := range l.order {
			if _, gone := deleted[id]; gone {
				delete(l.info, id)
				continue
			}
			kept = append(kept, id)
		}
		l.order = kept
		l.mu.Unlock()
		l.thumbs.removeAll(deleted)
	}

	return len(deleted), errs
}
