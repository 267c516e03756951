package kdata2_test

import (
	"testing"

	"github.com/igkuzm/kdata2"
)

func TestCatalogBuilderDropsReservedColumns(t *testing.T) {
	cat := kdata2.NewCatalogBuilder().
		Table(
			"pers",
			kdata2.Text("name"),
			kdata2.Int(kdata2.IdentifierColumn),
			kdata2.Int(kdata2.TimestampColumn),
			kdata2.Int("date"),
		).
		Build()

	table, ok := cat.Table("pers")
	if !ok {
		t.Fatalf("expected table pers to exist")
	}
	if len(table.Columns) != 2 {
		t.Fatalf("expected 2 user columns, got %d: %+v", len(table.Columns), table.Columns)
	}
	for _, c := range table.Columns {
		if kdata2.IsReserved(c.Name) {
			t.Fatalf("reserved column %q leaked into catalog", c.Name)
		}
	}
}

func TestCatalogBuilderKeepsFirstDeclaration(t *testing.T) {
	cat := kdata2.NewCatalogBuilder().
		Table("pers", kdata2.Text("name")).
		Table("pers", kdata2.Text("other")).
		Build()

	table, _ := cat.Table("pers")
	if len(table.Columns) != 1 || table.Columns[0].Name != "name" {
		t.Fatalf("expected first declaration to win, got %+v", table.Columns)
	}
}

func TestCatalogTablesOrdered(t *testing.T) {
	cat := kdata2.NewCatalogBuilder().
		Table("b").
		Table("a").
		Build()
	tables := cat.Tables()
	if len(tables) != 2 || tables[0].Name != "b" || tables[1].Name != "a" {
		t.Fatalf("expected declaration order preserved, got %+v", tables)
	}
}
