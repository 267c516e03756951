package remotestore_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/igkuzm/kdata2/remotestore"
)

func TestMockPutHeadGet(t *testing.T) {
	ctx := context.Background()
	m := remotestore.NewMock(nil)

	if err := m.Put(ctx, "kdata_database/U", bytes.NewReader([]byte("hello")), true); err != nil {
		t.Fatalf("Put: %v", err)
	}

	meta, err := m.Head(ctx, "kdata_database/U")
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if meta.Name != "U" {
		t.Fatalf("expected name U, got %q", meta.Name)
	}

	rc, err := m.Get(ctx, "kdata_database/U")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	buf := new(bytes.Buffer)
	buf.ReadFrom(rc)
	if buf.String() != "hello" {
		t.Fatalf("expected hello, got %q", buf.String())
	}
}

func TestMockHeadNotFound(t *testing.T) {
	m := remotestore.NewMock(nil)
	_, err := m.Head(context.Background(), "kdata_database/missing")
	if !remotestore.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMockUnauthorized(t *testing.T) {
	m := remotestore.NewMock(nil)
	m.Unauthorized("correct-token")
	_, err := m.Head(context.Background(), "kdata_database/U")
	if !remotestore.IsUnauthorized(err) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	m.SetAccessToken("correct-token")
	_, err = m.Head(context.Background(), "kdata_database/U")
	if !remotestore.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound once authorized, got %v", err)
	}
}

func TestMockMvAndLs(t *testing.T) {
	ctx := context.Background()
	m := remotestore.NewMock(nil)
	m.Put(ctx, "kdata_database/U", bytes.NewReader([]byte("x")), true)

	if err := m.Mv(ctx, "kdata_database/U", "kdata_deleted/U", true); err != nil {
		t.Fatalf("Mv: %v", err)
	}
	if _, err := m.Head(ctx, "kdata_database/U"); !remotestore.IsNotFound(err) {
		t.Fatalf("expected source gone, got %v", err)
	}

	var names []string
	m.Ls(ctx, "kdata_deleted", func(e remotestore.Entry) bool {
		names = append(names, e.Name)
		return true
	})
	if len(names) != 1 || names[0] != "U" {
		t.Fatalf("expected [U], got %v", names)
	}
}
