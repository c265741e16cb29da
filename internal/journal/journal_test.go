package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phototriage/internal/asset"
)

func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func tagPtr(t asset.Tag) *asset.Tag { return &t }

func TestAppendAndRecent(t *testing.T) {
	j := createTestJournal(t)

	_, err := j.Append(&Decision{
		AssetID: "a.jpg",
		NewTag:  tagPtr(asset.TagKeep),
		Source:  SourceTap,
	})
	require.NoError(t, err)

	_, err = j.Append(&Decision{
		AssetID:     "b.jpg",
		PreviousTag: tagPtr(asset.TagKeep),
		NewTag:      tagPtr(asset.TagDelete),
		Source:      SourceDrag,
	})
	require.NoError(t, err)

	recent, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first.
	assert.Equal(t, asset.ID("b.jpg"), recent[0].AssetID)
	require.NotNil(t, recent[0].PreviousTag)
	assert.Equal(t, asset.TagKeep, *recent[0].PreviousTag)
	require.NotNil(t, recent[0].NewTag)
	assert.Equal(t, asset.TagDelete, *recent[0].NewTag)

	assert.Equal(t, asset.ID("a.jpg"), recent[1].AssetID)
	assert.Nil(t, recent[1].PreviousTag)
}

func TestAppendBatch(t *testing.T) {
	j := createTestJournal(t)

	batch := []*Decision{
		{AssetID: "a.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceBulk},
		{AssetID: "b.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceBulk},
		{AssetID: "c.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceBulk},
	}
	require.NoError(t, j.AppendBatch(batch))

	recent, err := j.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
	for _, d := range recent {
		assert.Equal(t, SourceBulk, d.Source)
	}
}

func TestHistoryForAsset(t *testing.T) {
	j := createTestJournal(t)

	base := time.Now().UnixNano()
	decisions := []*Decision{
		{AssetID: "a.jpg", NewTag: tagPtr(asset.TagUnsure), Source: SourceTap, TimestampNs: base},
		{AssetID: "b.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceTap, TimestampNs: base + 1},
		{AssetID: "a.jpg", PreviousTag: tagPtr(asset.TagUnsure), NewTag: tagPtr(asset.TagKeep), Source: SourceTap, TimestampNs: base + 2},
	}
	for _, d := range decisions {
		_, err := j.Append(d)
		require.NoError(t, err)
	}

	history, err := j.HistoryForAsset("a.jpg")
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Oldest first.
	assert.Nil(t, history[0].PreviousTag)
	require.NotNil(t, history[1].PreviousTag)
	assert.Equal(t, asset.TagUnsure, *history[1].PreviousTag)
}

func TestLastDecisionAndUndo(t *testing.T) {
	j := createTestJournal(t)

	last, err := j.LastDecision()
	require.NoError(t, err)
	assert.Nil(t, last)

	id1, err := j.Append(&Decision{AssetID: "a.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceTap})
	require.NoError(t, err)
	id2, err := j.Append(&Decision{AssetID: "b.jpg", NewTag: tagPtr(asset.TagDelete), Source: SourceTap})
	require.NoError(t, err)

	last, err = j.LastDecision()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, id2, last.ID)

	require.NoError(t, j.MarkUndone(id2))

	// The reversal itself is never a candidate for undo.
	_, err = j.Append(&Decision{AssetID: "b.jpg", PreviousTag: tagPtr(asset.TagDelete), Source: SourceUndo})
	require.NoError(t, err)

	last, err = j.LastDecision()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, id1, last.ID)
}

func TestMarkUndoneMissing(t *testing.T) {
	j := createTestJournal(t)
	assert.Error(t, j.MarkUndone(42))
}

func TestCountsByTag(t *testing.T) {
	j := createTestJournal(t)

	ds := []*Decision{
		{AssetID: "a.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceTap},
		{AssetID: "b.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceTap},
		{AssetID: "c.jpg", NewTag: tagPtr(asset.TagDelete), Source: SourceTap},
		{AssetID: "d.jpg", Source: SourceCLI}, // cleared
	}
	require.NoError(t, j.AppendBatch(ds))

	counts, err := j.CountsByTag()
	require.NoError(t, err)

	byTag := make(map[string]int64)
	for _, c := range counts {
		byTag[c.Tag] = c.Count
	}
	assert.Equal(t, int64(2), byTag["keep"])
	assert.Equal(t, int64(1), byTag["delete"])
	assert.Equal(t, int64(1), byTag[""])
}

func TestPrune(t *testing.T) {
	j := createTestJournal(t)

	old := time.Now().Add(-48 * time.Hour)
	_, err := j.Append(&Decision{AssetID: "a.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceTap, TimestampNs: old.UnixNano()})
	require.NoError(t, err)
	_, err = j.Append(&Decision{AssetID: "b.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceTap})
	require.NoError(t, err)

	removed, err := j.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	recent, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, asset.ID("b.jpg"), recent[0].AssetID)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	_, err = j.Append(&Decision{AssetID: "a.jpg", NewTag: tagPtr(asset.TagKeep), Source: SourceTap})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	recent, err := j2.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
