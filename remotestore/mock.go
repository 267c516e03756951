package remotestore

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"path"
	"strings"
	"sync"
	"time"
)

// Make sure *Mock satisfies Store.
var _ Store = (*Mock)(nil)

type mockEntry struct {
	data     []byte
	modified int64
}

// Mock is an in-memory Store, useful for engine and envelope tests in
// place of a real remote file API. It is backed directly by a map, since
// the engine needs hierarchical prefix listing that a flat key-value
// space doesn't offer.
type Mock struct {
	mu           sync.Mutex
	entries      map[string]mockEntry
	dirs         map[string]bool
	token        string
	requireToken string

	now func() int64
}

// NewMock creates an empty Mock store. now, if non-nil, is used to
// timestamp uploads (for deterministic tests); it defaults to
// time.Now().Unix().
func NewMock(now func() int64) *Mock {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &Mock{
		entries: make(map[string]mockEntry),
		dirs:    make(map[string]bool),
		now:     now,
	}
}

func clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// SetAccessToken implements Store.
func (m *Mock) SetAccessToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// Unauthorized marks the mock so subsequent calls return ErrUnauthorized
// until the access token is changed to want.
func (m *Mock) Unauthorized(want string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requireToken = want
}

func (m *Mock) checkAuth() error {
	if m.requireToken == "" {
		return nil
	}
	if m.token != m.requireToken {
		return &ErrUnauthorized{}
	}
	return nil
}

// Head implements Store.
func (m *Mock) Head(ctx context.Context, p string) (Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAuth(); err != nil {
		return Metadata{}, err
	}
	p = clean(p)
	e, ok := m.entries[p]
	if !ok {
		return Metadata{}, &ErrNotFound{Path: p}
	}
	return Metadata{Name: path.Base(p), Path: p, Modified: e.modified}, nil
}

// Get implements Store.
func (m *Mock) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAuth(); err != nil {
		return nil, err
	}
	p = clean(p)
	e, ok := m.entries[p]
	if !ok {
		return nil, &ErrNotFound{Path: p}
	}
	return ioutil.NopCloser(bytes.NewReader(e.data)), nil
}

// Put implements Store.
func (m *Mock) Put(ctx context.Context, p string, data io.Reader, overwrite bool) error {
	buf, err := ioutil.ReadAll(data)
	if err != nil {
		return &ErrOther{Path: p, Cause: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAuth(); err != nil {
		return err
	}
	p = clean(p)
	if _, exists := m.entries[p]; exists && !overwrite {
		return &ErrOther{Path: p, Cause: errAlreadyExists}
	}
	m.entries[p] = mockEntry{data: buf, modified: m.now()}
	return nil
}

// Mv implements Store.
func (m *Mock) Mv(ctx context.Context, src, dst string, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAuth(); err != nil {
		return err
	}
	src, dst = clean(src), clean(dst)
	e, ok := m.entries[src]
	if !ok {
		return &ErrNotFound{Path: src}
	}
	if _, exists := m.entries[dst]; exists && !overwrite {
		return &ErrOther{Path: dst, Cause: errAlreadyExists}
	}
	delete(m.entries, src)
	m.entries[dst] = e
	return nil
}

// Mkdir implements Store.
func (m *Mock) Mkdir(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkAuth(); err != nil {
		return err
	}
	m.dirs[clean(p)] = true
	return nil
}

// Ls implements Store.
func (m *Mock) Ls(ctx context.Context, p string, onEntry func(Entry) bool) error {
	m.mu.Lock()
	if err := m.checkAuth(); err != nil {
		m.mu.Unlock()
		return err
	}
	prefix := clean(p)
	var out []Entry
	for name, e := range m.entries {
		dir := path.Dir(name)
		if dir != prefix {
			continue
		}
		out = append(out, Metadata{Name: path.Base(name), Path: name, Modified: e.modified})
	}
	m.mu.Unlock()

	for _, entry := range out {
		if !onEntry(entry) {
			return nil
		}
	}
	return nil
}

type notExistError struct{ s string }

func (e *notExistError) Error() string { return e.s }

var errAlreadyExists = &notExistError{s: "already exists and overwrite is false"}
