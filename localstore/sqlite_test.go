package localstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/igkuzm/kdata2"
	"github.com/igkuzm/kdata2/localstore"
)

func openTestStore(t *testing.T) *localstore.SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	store, err := localstore.Open(context.Background(), filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpsertScalarAndQuery(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	columns := []kdata2.Column{kdata2.Text("name"), kdata2.Int("date")}
	if err := store.EnsureTable(ctx, "pers", columns); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	id := "U"
	if err := store.UpsertScalar(ctx, "pers", id, "name", kdata2.TextValue("Ada"), 100); err != nil {
		t.Fatalf("UpsertScalar name: %v", err)
	}
	if err := store.UpsertScalar(ctx, "pers", id, "date", kdata2.Int64Value(100), 100); err != nil {
		t.Fatalf("UpsertScalar date: %v", err)
	}

	rows, ok, err := store.Query(ctx, "pers", id)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !ok {
		t.Fatalf("expected row to exist")
	}
	got := map[string]kdata2.Value{}
	for _, r := range rows {
		got[r.Column] = r.Value
	}
	if got["name"].Text != "Ada" {
		t.Fatalf("expected name=Ada, got %+v", got["name"])
	}
	if got["date"].Int != 100 {
		t.Fatalf("expected date=100, got %+v", got["date"])
	}

	ts, ok, err := store.QueryTimestamp(ctx, "pers", id)
	if err != nil || !ok {
		t.Fatalf("QueryTimestamp: ts=%d ok=%v err=%v", ts, ok, err)
	}
	if ts != 100 {
		t.Fatalf("expected timestamp 100, got %d", ts)
	}
}

func TestUpsertBinaryRoundTrips(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.EnsureTable(ctx, "pers", []kdata2.Column{kdata2.Binary("photo")}); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	payload := []byte{0x00, 0xff, 0x10, 0x02, 0x00}
	if err := store.UpsertBinary(ctx, "pers", "U", "photo", payload, 1); err != nil {
		t.Fatalf("UpsertBinary: %v", err)
	}

	rows, ok, err := store.Query(ctx, "pers", "U")
	if err != nil || !ok {
		t.Fatalf("Query: ok=%v err=%v", ok, err)
	}
	if len(rows) != 1 || string(rows[0].Value.Binary) != string(payload) {
		t.Fatalf("expected photo bytes to round-trip exactly, got %+v", rows)
	}
}

func TestDeleteAndQueryTimestampMissing(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	store.EnsureTable(ctx, "pers", []kdata2.Column{kdata2.Text("name")})
	store.UpsertScalar(ctx, "pers", "U", "name", kdata2.TextValue("Ada"), 1)

	if err := store.Delete(ctx, "pers", "U"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, ok, err := store.QueryTimestamp(ctx, "pers", "U")
	if err != nil {
		t.Fatalf("QueryTimestamp after delete: %v", err)
	}
	if ok {
		t.Fatalf("expected no row after delete")
	}
}
