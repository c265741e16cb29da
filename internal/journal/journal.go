// Package journal records every tag decision in a SQLite database so
// sessions can be audited and the most recent decision undone.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"phototriage/internal/asset"
)

// Schema for the decision journal.
const schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    asset_id        TEXT NOT NULL,
    previous_tag    TEXT,
    new_tag         TEXT,
    source          TEXT NOT NULL,
    timestamp_ns    INTEGER NOT NULL,
    undone          INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_decisions_asset ON decisions(asset_id, timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp_ns);
`

// Source identifies what produced a decision.
type Source string

const (
	SourceTap  Source = "tap"
	SourceDrag Source = "drag"
	SourceBulk Source = "bulk"
	SourceCLI  Source = "cli"
	SourceUndo Source = "undo"
)

// Decision is one journal entry. Nil tag pointers mean "untagged" on
// that side of the transition.
type Decision struct {
	ID          int64
	AssetID     asset.ID
	PreviousTag *asset.Tag
	NewTag      *asset.Tag
	Source      Source
	TimestampNs int64
	Undone      bool
}

// TagCount is one row of a per-tag aggregate.
type TagCount struct {
	Tag   string
	Count int64
}

// Journal is the SQLite decision journal.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at the given path and runs
// migrations.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Append records a decision and returns its ID.
func (j *Journal) Append(d *Decision) (int64, error) {
	if d.TimestampNs == 0 {
		d.TimestampNs = time.Now().UnixNano()
	}

	result, err := j.db.Exec(`
		INSERT INTO decisions (asset_id, previous_tag, new_tag, source, timestamp_ns, undone)
		VALUES (?, ?, ?, ?, ?, 0)`,
		string(d.AssetID), tagToken(d.PreviousTag), tagToken(d.NewTag), string(d.Source), d.TimestampNs,
	)
	if err != nil {
		return 0, fmt.Errorf("insert decision: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	return id, nil
}

// AppendBatch records a set of decisions in one transaction. A bulk tag
// over a multiselection journals one row per asset.
func (j *Journal) AppendBatch(ds []*Decision) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO decisions (asset_id, previous_tag, new_tag, source, timestamp_ns, undone)
		VALUES (?, ?, ?, ?, ?, 0)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	for _, d := range ds {
		if d.TimestampNs == 0 {
			d.TimestampNs = now
		}
		if _, err := stmt.Exec(string(d.AssetID), tagToken(d.PreviousTag), tagToken(d.NewTag), string(d.Source), d.TimestampNs); err != nil {
			return fmt.Errorf("insert decision: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Recent retrieves the latest n decisions, newest first.
func (j *Journal) Recent(n int) ([]Decision, error) {
	rows, err := j.db.Query(`
		SELECT id, asset_id, previous_tag, new_tag, source, timestamp_ns, undone
		FROM decisions
		ORDER BY id DESC
		LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// HistoryForAsset retrieves every decision for an asset, oldest first.
func (j *Journal) HistoryForAsset(id asset.ID) ([]Decision, error) {
	rows, err := j.db.Query(`
		SELECT id, asset_id, previous_tag, new_tag, source, timestamp_ns, undone
		FROM decisions
		WHERE asset_id = ?
		ORDER BY timestamp_ns ASC, id ASC`, string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("query asset history: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// LastDecision retrieves the most recent decision that has not been
// undone, or nil when the journal holds none.
func (j *Journal) LastDecision() (*Decision, error) {
	var d Decision
	var prevTok, newTok sql.NullString
	var src string

	err := j.db.QueryRow(`
		SELECT id, asset_id, previous_tag, new_tag, source, timestamp_ns, undone
		FROM decisions
		WHERE undone = 0 AND source != ?
		ORDER BY id DESC
		LIMIT 1`, string(SourceUndo),
	).Scan(&d.ID, &d.AssetID, &prevTok, &newTok, &src, &d.TimestampNs, &d.Undone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last decision: %w", err)
	}

	d.Source = Source(src)
	d.PreviousTag = tokenTag(prevTok)
	d.NewTag = tokenTag(newTok)

	return &d, nil
}

// MarkUndone flags a decision as undone so it is skipped by future undo
// lookups.
func (j *Journal) MarkUndone(id int64) error {
	result, err := j.db.Exec(`UPDATE decisions SET undone = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark decision undone: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("decision not found: %d", id)
	}

	return nil
}

// CountsByTag aggregates the non-undone decisions by their new tag.
// Cleared tags appear under the empty string.
func (j *Journal) CountsByTag() ([]TagCount, error) {
	rows, err := j.db.Query(`
		SELECT COALESCE(new_tag, ''), COUNT(*)
		FROM decisions
		WHERE undone = 0
		GROUP BY new_tag
		ORDER BY COUNT(*) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query tag counts: %w", err)
	}
	defer rows.Close()

	var counts []TagCount
	for rows.Next() {
		var c TagCount
		if err := rows.Scan(&c.Tag, &c.Count); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag counts: %w", err)
	}

	return counts, nil
}

// Prune deletes decisions older than the cutoff and returns how many
// rows were removed.
func (j *Journal) Prune(before time.Time) (int64, error) {
	result, err := j.db.Exec(`DELETE FROM decisions WHERE timestamp_ns < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune decisions: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return removed, nil
}

// tagToken converts an optional tag to its nullable SQL form.
func tagToken(t *asset.Tag) any {
	if t == nil {
		return nil
	}
	return t.String()
}

// tokenTag converts a nullable SQL token back to an optional tag.
func tokenTag(tok sql.NullString) *asset.Tag {
	if !tok.Valid {
		return nil
	}
	t, err := asset.ParseTag(tok.String)
	if err != nil {
		return nil
	}
	return &t
}

// scanDecisions is a helper to scan decision rows into a slice.
func scanDecisions(rows *sql.Rows) ([]Decision, error) {
	var out []Decision

	for rows.Next() {
		var d Decision
		var prevTok, newTok sql.NullString
		var src string

		if err := rows.Scan(&d.ID, &d.AssetID, &prevTok, &newTok, &src, &d.TimestampNs, &d.Undone); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}

		d.Source = Source(src)
		d.PreviousTag = tokenTag(prevTok)
		d.NewTag = tokenTag(newTok)

		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}

	return out, nil
}
