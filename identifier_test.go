package kdata2_test

import (
	"testing"

	"github.com/igkuzm/kdata2"
)

func TestGenerateIdentifierDistinctAndValid(t *testing.T) {
	a := kdata2.GenerateIdentifier()
	b := kdata2.GenerateIdentifier()
	if a == b {
		t.Fatalf("expected distinct identifiers, got %q twice", a)
	}
	if len(a) != 36 || len(b) != 36 {
		t.Fatalf("expected 36-character identifiers, got %d and %d", len(a), len(b))
	}
	if !kdata2.ValidIdentifier(a) {
		t.Fatalf("expected generated identifier to be valid")
	}
	if kdata2.ValidIdentifier("") {
		t.Fatalf("expected empty identifier to be invalid")
	}
}
