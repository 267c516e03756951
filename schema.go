package kdata2

// Reserved column names, shared by schema creation and every query. Kept
// as named constants (rather than hardcoded literals scattered across the
// local store, envelope, and engine) per the external interface
// requirement that implementations "parameterize it rather than hardcode
// it throughout".
const (
	// IdentifierColumn is the name of the reserved primary-key column
	// holding a record's 36-character identifier.
	IdentifierColumn = "ZRECORDNAME"

	// TimestampColumn is the name of the reserved column holding the
	// record's last-mutation timestamp, in seconds since epoch.
	TimestampColumn = "timestamp"
)

// JournalTable is the name of the single reserved table backing the
// Journal.
const JournalTable = "_kdata2_updates"

// Column is one user-declared column of a table.
type Column struct {
	Name string
	Type ColumnType
}

// Int declares an Integer column.
func Int(name string) Column { return Column{Name: name, Type: TypeInteger} }

// Float declares a Float column.
func Float(name string) Column { return Column{Name: name, Type: TypeFloat} }

// Text declares a Text column.
func Text(name string) Column { return Column{Name: name, Type: TypeText} }

// Binary declares a Binary column.
func Binary(name string) Column { return Column{Name: name, Type: TypeBinary} }

// Table is one user-declared table: a name plus an ordered list of
// user columns. Every table implicitly carries IdentifierColumn and
// TimestampColumn in addition to the declared columns.
type Table struct {
	Name    string
	Columns []Column
}

// IsReserved reports whether name collides with one of the reserved
// column names. Catalog construction silently drops attempts to declare
// them.
func IsReserved(name string) bool {
	return name == IdentifierColumn || name == TimestampColumn
}

// Catalog is the immutable, user-declared ordered list of tables,
// produced by CatalogBuilder. It is immutable after Open (per the
// ownership rule: the Schema Catalog is immutable after open).
type Catalog struct {
	tables []Table
	byName map[string]Table
}

// Tables returns the ordered list of declared tables.
func (c *Catalog) Tables() []Table {
	out := make([]Table, len(c.tables))
	copy(out, c.tables)
	return out
}

// Table looks up a declared table by name.
func (c *Catalog) Table(name string) (Table, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// CatalogBuilder builds an immutable Catalog from an ordered list of
// (name, columns...) declarations, following the same fluent
// Set/Build idiom used elsewhere in this module, as a type-safe
// builder.
type CatalogBuilder struct {
	tables []Table
	seen   map[string]bool
}

// NewCatalogBuilder creates an empty CatalogBuilder.
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{seen: make(map[string]bool)}
}

// Table declares a table with the given name and columns. Columns that
// collide with a reserved name are silently dropped. A table name seen
// twice keeps only the first declaration.
func (b *CatalogBuilder) Table(name string, columns ...Column) *CatalogBuilder {
	if b.seen[name] {
		return b
	}
	b.seen[name] = true
	kept := make([]Column, 0, len(columns))
	for _, c := range columns {
		if IsReserved(c.Name) {
			continue
		}
		kept = append(kept, c)
	}
	b.tables = append(b.tables, Table{Name: name, Columns: kept})
	return b
}

// Build finalizes the Catalog.
func (b *CatalogBuilder) Build() *Catalog {
	c := &Catalog{
		tables: make([]Table, len(b.tables)),
		byName: make(map[string]Table, len(b.tables)),
	}
	copy(c.tables, b.tables)
	for _, t := range c.tables {
		c.byName[t.Name] = t
	}
	return c
}
