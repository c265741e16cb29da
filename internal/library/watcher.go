package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a library directory for external changes (imports,
// deletions by other tools) and emits one coalesced change signal per
// burst, once the directory has been quiet for the debounce interval.
// The host reacts by rescanning and purging tags for vanished assets.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	quiet     time.Duration

	mu        sync.Mutex
	lastEvent time.Time
	dirty     bool

	changes chan struct{}
	errors  chan error

	done chan struct{}
	wg   sync.WaitGroup
}

const watcherPollInterval = 100 * time.Millisecond

// NewWatcher creates a watcher over root with the given quiet period.
func NewWatcher(root string, quiet time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		root:      root,
		quiet:     quiet,
		changes:   make(chan struct{}, 1),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}, nil
}

// Changes returns the coalesced change channel. At most one signal is
// buffered; a pending signal absorbs later bursts.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching the library tree.
func (w *Watcher) Start() error {
	// Watch the root and every existing subdirectory.
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return w.fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.changes)
	close(w.errors)
	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New subdirectories need their own watch; ignore failures,
			// the directory may already be gone.
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = w.fsWatcher.Add(event.Name)
				}
			}
			if !isImagePath(event.Name) && event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			w.mu.Lock()
			w.lastEvent = time.Now()
			w.dirty = true
			w.mu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// debounceLoop emits one change signal once the burst has been quiet for
// the full interval.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(watcherPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case now := <-ticker.C:
			w.mu.Lock()
			stable := w.dirty && now.Sub(w.lastEvent) >= w.quiet
			if stable {
				w.dirty = false
			}
			w.mu.Unlock()

			if stable {
				select {
				case w.changes <- struct{}{}:
				default:
				}
			}
		}
	}
}
