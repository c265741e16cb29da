// Package triage composes the library, tag store, and decision journal
// into the operations the UI and CLI invoke. Tag commits update the
// store synchronously and journal asynchronously; deletions reconcile
// only the confirmed-deleted subset.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"phototriage/internal/asset"
	"phototriage/internal/journal"
	"phototriage/internal/library"
	"phototriage/internal/tagstore"
)

// ErrClosed is returned by operations on a closed coordinator.
var ErrClosed = errors.New("triage: coordinator closed")

// ErrNothingToUndo is returned by Undo when the journal holds no
// reversible decision.
var ErrNothingToUndo = errors.New("triage: nothing to undo")

// journalQueueSize bounds the async journal pipeline. Appends beyond
// the bound block briefly rather than drop entries.
const journalQueueSize = 64

// Options configures a Coordinator.
type Options struct {
	// Journal is optional; without it decisions are not recorded and
	// Undo is unavailable.
	Journal *journal.Journal

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Notify, when set, is called with a human-readable summary after
	// bulk operations.
	Notify func(summary, body string)
}

// Coordinator wires the triage components together.
type Coordinator struct {
	lib   *library.DirLibrary
	store *tagstore.Store
	jrnl  *journal.Journal
	log   *slog.Logger
	note  func(summary, body string)

	mu     sync.Mutex
	closed bool

	appends chan []*journal.Decision
	done    chan struct{}
}

// New creates a coordinator over the given library and tag store.
func New(lib *library.DirLibrary, store *tagstore.Store, opts Options) *Coordinator {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &Coordinator{
		lib:     lib,
		store:   store,
		jrnl:    opts.Journal,
		log:     log.With("component", "triage"),
		note:    opts.Notify,
		appends: make(chan []*journal.Decision, journalQueueSize),
		done:    make(chan struct{}),
	}
	go c.journalLoop()
	return c
}

// SetNotify installs or replaces the bulk-operation notifier.
func (c *Coordinator) SetNotify(fn func(summary, body string)) {
	c.mu.Lock()
	c.note = fn
	c.mu.Unlock()
}

// journalLoop drains the async journal queue. Failures are logged: a
// journal outage must not block tagging.
func (c *Coordinator) journalLoop() {
	for batch := range c.appends {
		if c.jrnl == nil {
			continue
		}
		var err error
		if len(batch) == 1 {
			_, err = c.jrnl.Append(batch[0])
		} else {
			err = c.jrnl.AppendBatch(batch)
		}
		if err != nil {
			c.log.Warn("journal append failed", "decisions", len(batch), "err", err)
		}
	}
	close(c.done)
}

// CommitTag assigns tag to the asset and journals the transition.
func (c *Coordinator) CommitTag(id asset.ID, tag asset.Tag, source journal.Source) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	prev := c.previousTag(id)
	c.store.Set(id, tag)
	c.enqueue([]*journal.Decision{{
		AssetID:     id,
		PreviousTag: prev,
		NewTag:      &tag,
		Source:      source,
	}})
	return nil
}

// CommitBulk assigns tag to every asset in ids, journaling one entry
// per asset in a single batch.
func (c *Coordinator) CommitBulk(ids []asset.ID, tag asset.Tag, source journal.Source) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	note := c.note
	c.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	batch := make([]*journal.Decision, 0, len(ids))
	for _, id := range ids {
		prev := c.previousTag(id)
		c.store.Set(id, tag)
		t := tag
		batch = append(batch, &journal.Decision{
			AssetID:     id,
			PreviousTag: prev,
			NewTag:      &t,
			Source:      source,
		})
	}
	c.enqueue(batch)

	if note != nil {
		note("Photos tagged", fmt.Sprintf("%d photos tagged %s", len(ids), tag))
	}
	return nil
}

// ClearTag removes the asset's disposition and journals the clearing.
func (c *Coordinator) ClearTag(id asset.ID, source journal.Source) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	prev := c.previousTag(id)
	if prev == nil {
		return nil
	}
	c.store.Remove(id)
	c.enqueue([]*journal.Decision{{
		AssetID:     id,
		PreviousTag: prev,
		Source:      source,
	}})
	return nil
}

// DeleteSelected removes the files for ids and reconciles the tag
// store for the confirmed-deleted subset only. A partial failure never
// aborts the batch; the per-file errors are returned to the caller.
func (c *Coordinator) DeleteSelected(ctx context.Context, ids []asset.ID) (int, []error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, []error{ErrClosed}
	}
	note := c.note
	c.mu.Unlock()

	deleted, errs := c.lib.DeleteAssets(ctx, ids)
	if deleted > 0 {
		// Drop tags only for assets that are actually gone.
		removed := c.store.Purge(c.lib.ExistingIDs())
		c.log.Info("assets deleted", "deleted", deleted, "tags_purged", removed, "errors", len(errs))
	}

	if note != nil && deleted > 0 {
		body := fmt.Sprintf("%d photos deleted", deleted)
		if len(errs) > 0 {
			body = fmt.Sprintf("%d photos deleted, %d failed", deleted, len(errs))
		}
		note("Photos deleted", body)
	}
	return deleted, errs
}

// Undo reverts the most recent decision: the asset's tag is restored
// to the journaled previous value and the entry is marked undone. The
// reversal itself is journaled so history stays complete.
func (c *Coordinator) Undo() (*journal.Decision, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.mu.Unlock()

	if c.jrnl == nil {
		return nil, ErrNothingToUndo
	}

	last, err := c.jrnl.LastDecision()
	if err != nil {
		return nil, fmt.Errorf("find last decision: %w", err)
	}
	if last == nil {
		return nil, ErrNothingToUndo
	}

	if last.PreviousTag != nil {
		c.store.Set(last.AssetID, *last.PreviousTag)
	} else {
		c.store.Remove(last.AssetID)
	}

	if err := c.jrnl.MarkUndone(last.ID); err != nil {
		return nil, fmt.Errorf("mark decision undone: %w", err)
	}
	c.enqueue([]*journal.Decision{{
		AssetID:     last.AssetID,
		PreviousTag: last.NewTag,
		NewTag:      last.PreviousTag,
		Source:      journal.SourceUndo,
	}})
	return last, nil
}

// Rescan re-reads the library directory and purges tags for assets
// that vanished externally. It returns the number of purged tags.
func (c *Coordinator) Rescan() (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	c.mu.Unlock()

	if err := c.lib.Scan(); err != nil {
		return 0, fmt.Errorf("rescan library: %w", err)
	}
	removed := c.store.Purge(c.lib.ExistingIDs())
	if removed > 0 {
		c.log.Info("rescan purged stale tags", "purged", removed)
	}
	return removed, nil
}

// Close drains the journal queue and flushes the tag store.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.appends)
	<-c.done

	if err := c.store.Flush(); err != nil {
		return fmt.Errorf("flush tag store: %w", err)
	}
	return nil
}

func (c *Coordinator) previousTag(id asset.ID) *asset.Tag {
	if tag, ok := c.store.Get(id); ok {
		t := tag
		return &t
	}
	return nil
}

// enqueue hands a batch to the journal goroutine. The closed check and
// the send share the lock so a concurrent Close cannot close the channel
// between them; the writer goroutine never takes the lock, so a full
// queue drains without deadlock.
func (c *Coordinator) enqueue(batch []*journal.Decision) {
	if c.jrnl == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.appends <- batch
}
