package journal_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/igkuzm/kdata2/journal"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMarkDirtyUpsertsSingleEntry(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	j, err := journal.Open(ctx, db)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := j.MarkDirty(ctx, "pers", "U", 100, false); err != nil {
		t.Fatalf("MarkDirty: %v", err)
	}
	if err := j.MarkDirty(ctx, "pers", "U", 400, false); err != nil {
		t.Fatalf("MarkDirty: %v", err)
	}

	var entries []journal.Entry
	if err := j.Drain(ctx, func(e journal.Entry) bool {
		entries = append(entries, e)
		return true
	}); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 entry (upsert semantics), got %d: %+v", len(entries), entries)
	}
	if entries[0].Timestamp != 400 {
		t.Fatalf("expected latest timestamp to win, got %d", entries[0].Timestamp)
	}
}

func TestForgetRemovesEntry(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	j, _ := journal.Open(ctx, db)
	j.MarkDirty(ctx, "pers", "U", 1, false)

	if err := j.Forget(ctx, "U"); err != nil {
		t.Fatalf("Forget: %v", err)
	}

	var count int
	j.Drain(ctx, func(e journal.Entry) bool {
		count++
		return true
	})
	if count != 0 {
		t.Fatalf("expected journal empty after forget, found %d entries", count)
	}
}

func TestMarkDirtyDeleteFlag(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	j, _ := journal.Open(ctx, db)
	j.MarkDirty(ctx, "pers", "U", 1, true)

	var got journal.Entry
	j.Drain(ctx, func(e journal.Entry) bool {
		got = e
		return true
	})
	if !got.Deleted {
		t.Fatalf("expected deleted flag to be set")
	}
}
