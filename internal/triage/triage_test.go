package triage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phototriage/internal/asset"
	"phototriage/internal/journal"
	"phototriage/internal/library"
	"phototriage/internal/tagstore"
)

type fixture struct {
	coord *Coordinator
	lib   *library.DirLibrary
	store *tagstore.Store
	jrnl  *journal.Journal
}

func newFixture(t *testing.T, files ...string) *fixture {
	t.Helper()

	dir := t.TempDir()
	for _, name := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("jpegdata"), 0o644))
	}

	store := tagstore.Open(filepath.Join(t.TempDir(), "tags.json"), tagstore.Options{
		QuietPeriod: 10 * time.Millisecond,
	})
	<-store.Ready()

	lib := library.NewDirLibrary(dir, store, nil)
	require.NoError(t, lib.Scan())

	jrnl, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { jrnl.Close() })

	coord := New(lib, store, Options{Journal: jrnl})
	t.Cleanup(func() { coord.Close() })

	return &fixture{coord: coord, lib: lib, store: store, jrnl: jrnl}
}

// waitJournaled polls until the journal holds at least n entries.
func waitJournaled(t *testing.T, jrnl *journal.Journal, n int) []journal.Decision {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		recent, err := jrnl.Recent(n + 10)
		require.NoError(t, err)
		if len(recent) >= n {
			return recent
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("journal never reached %d entries", n)
	return nil
}

func TestCommitTagUpdatesStoreAndJournal(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.jpg")

	require.NoError(t, f.coord.CommitTag("a.jpg", asset.TagKeep, journal.SourceTap))

	tag, ok := f.store.Get("a.jpg")
	require.True(t, ok)
	assert.Equal(t, asset.TagKeep, tag)

	recent := waitJournaled(t, f.jrnl, 1)
	require.NotNil(t, recent[0].NewTag)
	assert.Equal(t, asset.TagKeep, *recent[0].NewTag)
	assert.Nil(t, recent[0].PreviousTag)
	assert.Equal(t, journal.SourceTap, recent[0].Source)
}

func TestCommitTagRecordsPreviousTag(t *testing.T) {
	f := newFixture(t, "a.jpg")

	require.NoError(t, f.coord.CommitTag("a.jpg", asset.TagKeep, journal.SourceTap))
	require.NoError(t, f.coord.CommitTag("a.jpg", asset.TagDelete, journal.SourceTap))

	recent := waitJournaled(t, f.jrnl, 2)
	require.NotNil(t, recent[0].PreviousTag)
	assert.Equal(t, asset.TagKeep, *recent[0].PreviousTag)
	require.NotNil(t, recent[0].NewTag)
	assert.Equal(t, asset.TagDelete, *recent[0].NewTag)
}

func TestCommitBulk(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.jpg", "c.jpg")

	var gotSummary string
	f.coord.SetNotify(func(summary, body string) { gotSummary = summary })

	ids := []asset.ID{"a.jpg", "b.jpg", "c.jpg"}
	require.NoError(t, f.coord.CommitBulk(ids, asset.TagDelete, journal.SourceBulk))

	for _, id := range ids {
		tag, ok := f.store.Get(id)
		require.True(t, ok, "id %s untagged", id)
		assert.Equal(t, asset.TagDelete, tag)
	}

	recent := waitJournaled(t, f.jrnl, 3)
	assert.Len(t, recent[:3], 3)
	for _, d := range recent[:3] {
		assert.Equal(t, journal.SourceBulk, d.Source)
	}
	assert.Equal(t, "Photos tagged", gotSummary)
}

func TestClearTag(t *testing.T) {
	f := newFixture(t, "a.jpg")

	require.NoError(t, f.coord.CommitTag("a.jpg", asset.TagUnsure, journal.SourceTap))
	require.NoError(t, f.coord.ClearTag("a.jpg", journal.SourceCLI))

	_, ok := f.store.Get("a.jpg")
	assert.False(t, ok)

	recent := waitJournaled(t, f.jrnl, 2)
	assert.Nil(t, recent[0].NewTag)
	require.NotNil(t, recent[0].PreviousTag)
	assert.Equal(t, asset.TagUnsure, *recent[0].PreviousTag)
}

func TestClearTagNoopWhenUntagged(t *testing.T) {
	f := newFixture(t, "a.jpg")

	require.NoError(t, f.coord.ClearTag("a.jpg", journal.SourceCLI))

	// Give the writer goroutine a moment; nothing should land.
	time.Sleep(50 * time.Millisecond)
	recent, err := f.jrnl.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestDeleteSelectedReconcilesConfirmedOnly(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.jpg", "c.jpg")

	require.NoError(t, f.coord.CommitBulk([]asset.ID{"a.jpg", "b.jpg", "c.jpg"}, asset.TagDelete, journal.SourceBulk))

	// b.jpg vanishes out from under us; the library treats a missing
	// file as already deleted.
	require.NoError(t, os.Remove(filepath.Join(f.lib.Root(), "b.jpg")))

	deleted, errs := f.coord.DeleteSelected(context.Background(), []asset.ID{"a.jpg", "b.jpg"})
	assert.Equal(t, 2, deleted)
	assert.Empty(t, errs)

	_, ok := f.store.Get("a.jpg")
	assert.False(t, ok)
	_, ok = f.store.Get("b.jpg")
	assert.False(t, ok)

	// The survivor keeps its tag.
	tag, ok := f.store.Get("c.jpg")
	require.True(t, ok)
	assert.Equal(t, asset.TagDelete, tag)
}

func TestDeleteSelectedCancelledContext(t *testing.T) {
	f := newFixture(t, "a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deleted, errs := f.coord.DeleteSelected(ctx, []asset.ID{"a.jpg"})
	assert.Zero(t, deleted)
	assert.NotEmpty(t, errs)

	_, err := os.Stat(filepath.Join(f.lib.Root(), "a.jpg"))
	assert.NoError(t, err, "file should survive a cancelled delete")
}

func TestUndoRestoresPreviousTag(t *testing.T) {
	f := newFixture(t, "a.jpg")

	require.NoError(t, f.coord.CommitTag("a.jpg", asset.TagKeep, journal.SourceTap))
	require.NoError(t, f.coord.CommitTag("a.jpg", asset.TagDelete, journal.SourceTap))
	waitJournaled(t, f.jrnl, 2)

	reverted, err := f.coord.Undo()
	require.NoError(t, err)
	require.NotNil(t, reverted.NewTag)
	assert.Equal(t, asset.TagDelete, *reverted.NewTag)

	tag, ok := f.store.Get("a.jpg")
	require.True(t, ok)
	assert.Equal(t, asset.TagKeep, tag)
}

func TestUndoRemovesTagWhenPreviouslyUntagged(t *testing.T) {
	f := newFixture(t, "a.jpg")

	require.NoError(t, f.coord.CommitTag("a.jpg", asset.TagKeep, journal.SourceTap))
	waitJournaled(t, f.jrnl, 1)

	_, err := f.coord.Undo()
	require.NoError(t, err)

	_, ok := f.store.Get("a.jpg")
	assert.False(t, ok)
}

func TestUndoEmptyJournal(t *testing.T) {
	f := newFixture(t, "a.jpg")

	_, err := f.coord.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestUndoTwiceRevertsTwoDecisions(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.jpg")

	require.NoError(t, f.coord.CommitTag("a.jpg", asset.TagKeep, journal.SourceTap))
	require.NoError(t, f.coord.CommitTag("b.jpg", asset.TagDelete, journal.SourceTap))
	waitJournaled(t, f.jrnl, 2)

	first, err := f.coord.Undo()
	require.NoError(t, err)
	assert.Equal(t, asset.ID("b.jpg"), first.AssetID)
	waitJournaled(t, f.jrnl, 3)

	second, err := f.coord.Undo()
	require.NoError(t, err)
	assert.Equal(t, asset.ID("a.jpg"), second.AssetID)

	_, ok := f.store.Get("a.jpg")
	assert.False(t, ok)
	_, ok = f.store.Get("b.jpg")
	assert.False(t, ok)
}

func TestRescanPurgesVanishedAssets(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.jpg")

	require.NoError(t, f.coord.CommitTag("a.jpg", asset.TagKeep, journal.SourceTap))
	require.NoError(t, f.coord.CommitTag("b.jpg", asset.TagKeep, journal.SourceTap))

	require.NoError(t, os.Remove(filepath.Join(f.lib.Root(), "b.jpg")))

	purged, err := f.coord.Rescan()
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, ok := f.store.Get("a.jpg")
	assert.True(t, ok)
	_, ok = f.store.Get("b.jpg")
	assert.False(t, ok)
	assert.Equal(t, 1, f.lib.Len())
}

func TestOperationsAfterClose(t *testing.T) {
	f := newFixture(t, "a.jpg")

	require.NoError(t, f.coord.Close())
	require.NoError(t, f.coord.Close(), "close is idempotent")

	assert.ErrorIs(t, f.coord.CommitTag("a.jpg", asset.TagKeep, journal.SourceTap), ErrClosed)
	assert.ErrorIs(t, f.coord.CommitBulk([]asset.ID{"a.jpg"}, asset.TagKeep, journal.SourceBulk), ErrClosed)
	_, err := f.coord.Undo()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.coord.Rescan()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseDrainsJournalQueue(t *testing.T) {
	f := newFixture(t, "a.jpg", "b.jpg", "c.jpg")

	require.NoError(t, f.coord.CommitBulk([]asset.ID{"a.jpg", "b.jpg", "c.jpg"}, asset.TagKeep, journal.SourceBulk))
	require.NoError(t, f.coord.Close())

	recent, err := f.jrnl.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestCoordinatorWithoutJournal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644))

	store := tagstore.Open(filepath.Join(t.TempDir(), "tags.json"), tagstore.Options{
		QuietPeriod: 10 * time.Millisecond,
	})
	<-store.Ready()

	lib := library.NewDirLibrary(dir, store, nil)
	require.NoError(t, lib.Scan())

	coord := New(lib, store, Options{})
	t.Cleanup(func() { coord.Close() })

	require.NoError(t, coord.CommitTag("a.jpg", asset.TagKeep, journal.SourceTap))
	_, err := coord.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
}
