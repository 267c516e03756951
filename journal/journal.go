package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/igkuzm/kdata2"
)

// Entry is one journal row: the net effect of every write to identifier
// ID since the last successful reconciliation.
type Entry struct {
	Table     string
	ID        string
	Timestamp int64
	Deleted   bool
}

// Journal is the dirty-tracking side table interface used by the
// replication engine.
type Journal interface {
	// MarkDirty upserts the entry for id: multiple writes to the same id
	// overwrite the timestamp and deleted flag, leaving only the net
	// effect ("what should remote do next").
	MarkDirty(ctx context.Context, table, id string, now int64, deleted bool) error

	// Drain streams every entry for the engine to process. The engine is
	// responsible for calling Forget once an entry has been successfully
	// reconciled; Drain itself does not remove anything.
	Drain(ctx context.Context, onEntry func(Entry) bool) error

	// Forget removes the entry for id.
	Forget(ctx context.Context, id string) error
}

// Make sure *SQLiteJournal satisfies Journal.
var _ Journal = (*SQLiteJournal)(nil)

// SQLiteJournal is a Journal backed by the reserved _kdata2_updates table,
// sharing the engine's *sql.DB connection with the local store adapter.
type SQLiteJournal struct {
	db *sql.DB
}

// Open ensures the reserved journal table exists on db and returns a
// SQLiteJournal backed by it.
func Open(ctx context.Context, db *sql.DB) (*SQLiteJournal, error) {
	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %q (
			tablename TEXT NOT NULL,
			%q TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			local INTEGER NOT NULL DEFAULT 1,
			deleted INTEGER NOT NULL DEFAULT 0
		)`,
		kdata2.JournalTable, kdata2.IdentifierColumn,
	)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, kdata2.Wrap(kdata2.KindLocalStoreFailed, "ensure journal table", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// MarkDirty implements Journal.
func (j *SQLiteJournal) MarkDirty(ctx context.Context, table, id string, now int64, deleted bool) error {
	q := fmt.Sprintf(
		`INSERT INTO %q (tablename, %q, timestamp, local, deleted)
		 VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(%q) DO UPDATE SET
		   tablename = excluded.tablename,
		   timestamp = excluded.timestamp,
		   deleted = excluded.deleted`,
		kdata2.JournalTable, kdata2.IdentifierColumn, kdata2.IdentifierColumn,
	)
	if _, err := j.db.ExecContext(ctx, q, table, id, now, boolToInt(deleted)); err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "mark journal entry dirty", err)
	}
	return nil
}

// Drain implements Journal.
func (j *SQLiteJournal) Drain(ctx context.Context, onEntry func(Entry) bool) error {
	q := fmt.Sprintf(`SELECT tablename, %q, timestamp, deleted FROM %q`, kdata2.IdentifierColumn, kdata2.JournalTable)
	rows, err := j.db.QueryContext(ctx, q)
	if err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "drain journal", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		var deleted int
		if err := rows.Scan(&e.Table, &e.ID, &e.Timestamp, &deleted); err != nil {
			return kdata2.Wrap(kdata2.KindLocalStoreFailed, "scan journal entry", err)
		}
		e.Deleted = deleted != 0
		if !onEntry(e) {
			break
		}
	}
	return rows.Err()
}

// Forget implements Journal.
func (j *SQLiteJournal) Forget(ctx context.Context, id string) error {
	q := fmt.Sprintf(`DELETE FROM %q WHERE %q = ?`, kdata2.JournalTable, kdata2.IdentifierColumn)
	if _, err := j.db.ExecContext(ctx, q, id); err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "forget journal entry", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
