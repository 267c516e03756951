package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/igkuzm/kdata2"
)

// Make sure *SQLiteStore satisfies Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is a Store backed by a file-backed sqlite database via the
// pure-Go modernc.org/sqlite driver (no cgo dependency).
type SQLiteStore struct {
	db *sql.DB

	mu     sync.Mutex
	tables map[string][]kdata2.Column
}

// Open opens or creates a file-backed sqlite database at path. It fails
// with a kdata2.Error of kind KindLocalStoreFailed on I/O error.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, kdata2.Wrap(kdata2.KindLocalStoreFailed, "open sqlite database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, kdata2.Wrap(kdata2.KindLocalStoreFailed, "ping sqlite database", err)
	}
	return &SQLiteStore{
		db:     db,
		tables: make(map[string][]kdata2.Column),
	}, nil
}

// DB returns the underlying *sql.DB so the journal adapter (and the
// engine's raw queries) can share the connection instead of opening a
// second handle onto the same file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sqlType(t kdata2.ColumnType) string {
	switch t {
	case kdata2.TypeInteger:
		return "INTEGER"
	case kdata2.TypeFloat:
		return "REAL"
	case kdata2.TypeText:
		return "TEXT"
	case kdata2.TypeBinary:
		return "BLOB"
	default:
		return "BLOB"
	}
}

// EnsureTable idempotently creates table with the declared columns plus
// the reserved identifier and timestamp columns.
func (s *SQLiteStore) EnsureTable(ctx context.Context, table string, columns []kdata2.Column) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %q (", table)
	for _, c := range columns {
		if kdata2.IsReserved(c.Name) {
			continue
		}
		fmt.Fprintf(&b, "%q %s, ", c.Name, sqlType(c.Type))
	}
	fmt.Fprintf(&b, "%q TEXT PRIMARY KEY, %q INTEGER)", kdata2.IdentifierColumn, kdata2.TimestampColumn)

	if _, err := s.db.ExecContext(ctx, b.String()); err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "ensure table "+table, err)
	}

	s.mu.Lock()
	s.tables[table] = columns
	s.mu.Unlock()
	return nil
}

// UpsertScalar implements Store.UpsertScalar.
func (s *SQLiteStore) UpsertScalar(ctx context.Context, table, id, column string, value kdata2.Value, now int64) error {
	return s.upsert(ctx, table, id, column, scalarArg(value), now)
}

// UpsertBinary implements Store.UpsertBinary.
func (s *SQLiteStore) UpsertBinary(ctx context.Context, table, id, column string, data []byte, now int64) error {
	return s.upsert(ctx, table, id, column, data, now)
}

func (s *SQLiteStore) upsert(ctx context.Context, table, id, column string, arg interface{}, now int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "begin upsert tx", err)
	}
	defer tx.Rollback()

	insertSQL := fmt.Sprintf("INSERT OR IGNORE INTO %q (%q) VALUES (?)", table, kdata2.IdentifierColumn)
	if _, err := tx.ExecContext(ctx, insertSQL, id); err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "insert bare row", err)
	}

	updateSQL := fmt.Sprintf(
		"UPDATE %q SET %q = ?, %q = ? WHERE %q = ?",
		table, column, kdata2.TimestampColumn, kdata2.IdentifierColumn,
	)
	if _, err := tx.ExecContext(ctx, updateSQL, arg, now, id); err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "update column "+column, err)
	}

	if err := tx.Commit(); err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "commit upsert tx", err)
	}
	return nil
}

func scalarArg(v kdata2.Value) interface{} {
	switch v.Type {
	case kdata2.TypeInteger:
		return v.Int
	case kdata2.TypeFloat:
		return v.Float
	case kdata2.TypeText:
		return v.Text
	case kdata2.TypeBinary:
		return v.Binary
	default:
		return nil
	}
}

// SetTimestamp implements Store.SetTimestamp.
func (s *SQLiteStore) SetTimestamp(ctx context.Context, table, id string, t int64) error {
	q := fmt.Sprintf("UPDATE %q SET %q = ? WHERE %q = ?", table, kdata2.TimestampColumn, kdata2.IdentifierColumn)
	if _, err := s.db.ExecContext(ctx, q, t, id); err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "set timestamp", err)
	}
	return nil
}

// Delete implements Store.Delete.
func (s *SQLiteStore) Delete(ctx context.Context, table, id string) error {
	q := fmt.Sprintf("DELETE FROM %q WHERE %q = ?", table, kdata2.IdentifierColumn)
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "delete row", err)
	}
	return nil
}

// Query implements Store.Query.
func (s *SQLiteStore) Query(ctx context.Context, table, id string) ([]Row, bool, error) {
	s.mu.Lock()
	columns := s.tables[table]
	s.mu.Unlock()
	if columns == nil {
		return nil, false, nil
	}

	var cols strings.Builder
	for i, c := range columns {
		if i > 0 {
			cols.WriteString(", ")
		}
		fmt.Fprintf(&cols, "%q", c.Name)
	}
	q := fmt.Sprintf("SELECT %s FROM %q WHERE %q = ?", cols.String(), table, kdata2.IdentifierColumn)

	dest := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	row := s.db.QueryRowContext(ctx, q, id)
	if err := row.Scan(ptrs...); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, kdata2.Wrap(kdata2.KindLocalStoreFailed, "query row", err)
	}

	rows := make([]Row, 0, len(columns))
	for i, c := range columns {
		if dest[i] == nil {
			continue
		}
		rows = append(rows, Row{
			Column: c.Name,
			Type:   c.Type,
			Value:  valueFromDriver(c.Type, dest[i]),
		})
	}
	return rows, true, nil
}

func valueFromDriver(t kdata2.ColumnType, raw interface{}) kdata2.Value {
	switch t {
	case kdata2.TypeInteger:
		switch n := raw.(type) {
		case int64:
			return kdata2.Int64Value(n)
		}
	case kdata2.TypeFloat:
		switch n := raw.(type) {
		case float64:
			return kdata2.FloatValue(n)
		}
	case kdata2.TypeText:
		switch n := raw.(type) {
		case string:
			return kdata2.TextValue(n)
		case []byte:
			return kdata2.TextValue(string(n))
		}
	case kdata2.TypeBinary:
		switch n := raw.(type) {
		case []byte:
			cp := make([]byte, len(n))
			copy(cp, n)
			return kdata2.BinaryValue(cp)
		}
	}
	return kdata2.Value{Type: kdata2.TypeNull}
}

// QueryTimestamp implements Store.QueryTimestamp.
func (s *SQLiteStore) QueryTimestamp(ctx context.Context, table, id string) (int64, bool, error) {
	q := fmt.Sprintf("SELECT %q FROM %q WHERE %q = ?", kdata2.TimestampColumn, table, kdata2.IdentifierColumn)
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx, q, id).Scan(&ts)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, kdata2.Wrap(kdata2.KindLocalStoreFailed, "query timestamp", err)
	}
	return ts.Int64, true, nil
}

// RawQuery implements Store.RawQuery.
func (s *SQLiteStore) RawQuery(
	ctx context.Context,
	table, predicate string,
	onRow func(names []string, types []kdata2.ColumnType, values []kdata2.Value) bool,
) error {
	s.mu.Lock()
	columns := s.tables[table]
	s.mu.Unlock()
	if columns == nil {
		return kdata2.New(kdata2.KindSchemaInvalid, "unknown table "+table)
	}

	full := append(append([]kdata2.Column{}, columns...),
		kdata2.Column{Name: kdata2.IdentifierColumn, Type: kdata2.TypeText},
		kdata2.Column{Name: kdata2.TimestampColumn, Type: kdata2.TypeInteger},
	)

	q := fmt.Sprintf("SELECT * FROM %q", table)
	if strings.TrimSpace(predicate) != "" {
		q += " " + predicate
	}

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return kdata2.Wrap(kdata2.KindLocalStoreFailed, "raw query", err)
	}
	defer rows.Close()

	names := make([]string, len(full))
	types := make([]kdata2.ColumnType, len(full))
	for i, c := range full {
		names[i] = c.Name
		types[i] = c.Type
	}

	for rows.Next() {
		dest := make([]interface{}, len(full))
		ptrs := make([]interface{}, len(full))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return kdata2.Wrap(kdata2.KindLocalStoreFailed, "scan raw query row", err)
		}
		values := make([]kdata2.Value, len(full))
		for i, c := range full {
			if dest[i] == nil {
				values[i] = kdata2.Value{Type: kdata2.TypeNull}
				continue
			}
			values[i] = valueFromDriver(c.Type, dest[i])
		}
		if !onRow(names, types, values) {
			break
		}
	}
	return rows.Err()
}
