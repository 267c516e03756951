package localstore

import (
	"context"

	"github.com/igkuzm/kdata2"
)

// Row is one (column, type, value) triple yielded by Query. Binary values
// are copies owned by the caller; they stay valid after later calls into
// the Store.
type Row struct {
	Column string
	Type   kdata2.ColumnType
	Value  kdata2.Value
}

// JournalEntry is one row of the reserved journal table. It mirrors
// journal.Entry but lives here too so localstore has no dependency on
// package journal. No Store method reads journal rows; package journal
// reads them itself.
type JournalEntry struct {
	Table     string
	ID        string
	Timestamp int64
	Deleted   bool
}

// Store is the Local Store Adapter interface used by the rest of the
// replication engine. Implementations must never perform domain logic;
// they are typed wrappers around a relational store.
type Store interface {
	// EnsureTable idempotently creates table (if missing) with the given
	// user columns plus the reserved identifier and timestamp columns
	// appended.
	EnsureTable(ctx context.Context, table string, columns []kdata2.Column) error

	// UpsertScalar sets column=value, timestamp=now for (table, id),
	// inserting a bare row first if id doesn't exist yet. Atomic within
	// the call.
	UpsertScalar(ctx context.Context, table, id, column string, value kdata2.Value, now int64) error

	// UpsertBinary is UpsertScalar specialized for Binary columns: bytes
	// are bound as a parameter, never text-escaped.
	UpsertBinary(ctx context.Context, table, id, column string, data []byte, now int64) error

	// SetTimestamp unconditionally updates the reserved timestamp column.
	SetTimestamp(ctx context.Context, table, id string, t int64) error

	// Delete removes the row for id from table. A missing row is not an
	// error.
	Delete(ctx context.Context, table, id string) error

	// Query yields every non-reserved, non-NULL column for (table, id).
	// It reports ok=false if no row with id exists.
	Query(ctx context.Context, table, id string) (rows []Row, ok bool, err error)

	// QueryTimestamp returns the reserved timestamp column for (table,
	// id), and ok=false if table has no row with id. Only the given table
	// is checked.
	QueryTimestamp(ctx context.Context, table, id string) (ts int64, ok bool, err error)

	// RawQuery runs a raw SQL query of the form "SELECT * FROM <table>
	// <predicate>" and streams every matching row through onRow. onRow
	// receives column names, types, and values in declaration order
	// (identifier and timestamp columns included). Returning false from
	// onRow stops the scan early.
	RawQuery(ctx context.Context, table, predicate string, onRow func(names []string, types []kdata2.ColumnType, values []kdata2.Value) bool) error

	// Close releases the underlying connection.
	Close() error
}
