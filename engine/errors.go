package engine

import (
	"fmt"
	"strings"
)

// syncFailure is one record's error during a sync cycle, tagged with the
// table/identifier it happened on so reporting doesn't need to re-derive
// it from the call site.
type syncFailure struct {
	Table string
	ID    string
	Err   error
}

func (f syncFailure) Error() string {
	if f.Table == "" && f.ID == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s/%s: %v", f.Table, f.ID, f.Err)
}

func (f syncFailure) Unwrap() error {
	return f.Err
}

// syncErrors aggregates every per-record failure observed during one sync
// cycle, so a bad sidecar on one record or a failed delete on another
// doesn't stop the rest of the cycle from being attempted and reported.
type syncErrors struct {
	failures []syncFailure
}

// add records err against table/id. A nested *syncErrors is flattened
// rather than nested, so compile never has to recurse. A nil err is a
// no-op.
func (b *syncErrors) add(table, id string, err error) {
	if err == nil {
		return
	}
	if nested, ok := err.(*syncErrors); ok {
		b.failures = append(b.failures, nested.failures...)
		return
	}
	b.failures = append(b.failures, syncFailure{Table: table, ID: id, Err: err})
}

// compile collapses the batch: zero failures to nil, one to that failure
// alone, more than one to the batch itself.
func (b *syncErrors) compile() error {
	switch len(b.failures) {
	case 0:
		return nil
	case 1:
		return b.failures[0]
	default:
		return b
	}
}

func (b *syncErrors) Error() string {
	parts := make([]string, len(b.failures))
	for i, f := range b.failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d failure(s) in sync cycle: %s", len(b.failures), strings.Join(parts, "; "))
}
