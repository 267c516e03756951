package kdata2

import (
	"github.com/google/uuid"
)

// GenerateIdentifier returns a fresh 36-character hyphenated UUID v4, used
// whenever an embedder calls a setter without an existing identifier.
func GenerateIdentifier() string {
	return uuid.New().String()
}

// ValidIdentifier reports whether id is non-empty, per the Record
// invariant that "Identifier is non-empty and stable for the life of the
// record".
func ValidIdentifier(id string) bool {
	return id != ""
}
