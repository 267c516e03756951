package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/igkuzm/kdata2"
	"github.com/igkuzm/kdata2/journal"
	"github.com/igkuzm/kdata2/localstore"
	"github.com/igkuzm/kdata2/remotestore"
)

// Engine is the Replication Engine: it owns the background worker, the
// schema catalog, the local store handle, and the remote store
// credentials, for the lifetime between Open and Close.
type Engine struct {
	opts    Options
	catalog *kdata2.Catalog

	store   *localstore.SQLiteStore
	journal journal.Journal
	remote  remotestore.Store

	// storeMu serializes all Local Store access: every call from the
	// embedder-facing API and from the sync worker takes it, and every
	// Remote Store call runs off it.
	storeMu sync.Mutex

	// rowLocks gives push/reconciliation a finer-grained critical section
	// than storeMu alone: it's held only around the specific identifier
	// being reconciled, so unrelated identifiers aren't serialized against
	// each other.
	rowLocks *recordLocks

	workItems *workItemPool
	states    *stateTracker

	accessToken atomic.Value // string

	cancelled atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}

	// clock is overridden in tests that need deterministic timestamps
	// finer than wall-clock second granularity would otherwise allow.
	clock func() int64
}

// Open opens the replication engine: a local sqlite store at
// opts.localPath, the reserved journal table, and the given remote
// store. It ensures every declared table exists, then starts the
// background sync worker.
func Open(ctx context.Context, remote remotestore.Store, opts Options) (*Engine, error) {
	store, err := localstore.Open(ctx, opts.localPath)
	if err != nil {
		return nil, err
	}

	for _, t := range opts.catalog.Tables() {
		if err := store.EnsureTable(ctx, t.Name, t.Columns); err != nil {
			store.Close()
			return nil, err
		}
	}

	j, err := journal.Open(ctx, store.DB())
	if err != nil {
		store.Close()
		return nil, err
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:      opts,
		catalog:   opts.catalog,
		store:     store,
		journal:   j,
		remote:    remote,
		rowLocks:  newRecordLocks(),
		workItems: newWorkItemPool(),
		states:    newStateTracker(),
		cancel:    cancel,
		done:      make(chan struct{}),
		clock:     now,
	}
	e.accessToken.Store(opts.accessToken)
	remote.SetAccessToken(opts.accessToken)

	go e.runLoop(workerCtx)
	return e, nil
}

// SetAccessToken swaps the remote store access token. The change is
// picked up atomically at the start of the next sync iteration, since
// the worker snapshots it once per iteration.
func (e *Engine) SetAccessToken(token string) {
	e.accessToken.Store(token)
}

func (e *Engine) currentAccessToken() string {
	v, _ := e.accessToken.Load().(string)
	return v
}

// Close stops the background worker. In-flight work finishes to a
// terminal state before the worker exits; Close blocks until that
// happens or opts.closeTimeout elapses, whichever comes first.
func (e *Engine) Close() error {
	e.cancelled.Store(true)
	e.cancel()
	select {
	case <-e.done:
	case <-time.After(e.opts.closeTimeout):
	}
	return e.store.Close()
}

func now() int64 {
	return time.Now().Unix()
}

// SetInteger sets an Integer column, per the embedder API surface. An
// empty id generates and returns a fresh identifier.
func (e *Engine) SetInteger(ctx context.Context, table, id, column string, value int64) (string, error) {
	return e.setValue(ctx, table, id, column, kdata2.Int64Value(value))
}

// SetFloat sets a Float column.
func (e *Engine) SetFloat(ctx context.Context, table, id, column string, value float64) (string, error) {
	return e.setValue(ctx, table, id, column, kdata2.FloatValue(value))
}

// SetText sets a Text column.
func (e *Engine) SetText(ctx context.Context, table, id, column string, value string) (string, error) {
	return e.setValue(ctx, table, id, column, kdata2.TextValue(value))
}

// SetBinary sets a Binary column.
func (e *Engine) SetBinary(ctx context.Context, table, id, column string, value []byte) (string, error) {
	return e.setValue(ctx, table, id, column, kdata2.BinaryValue(value))
}

// setValue is the single generic set-value path backing the four typed
// setters above: one path parameterized by type, instead of four
// divergent copies.
func (e *Engine) setValue(ctx context.Context, table, id, column string, value kdata2.Value) (string, error) {
	if _, ok := e.catalog.Table(table); !ok {
		return "", kdata2.New(kdata2.KindSchemaInvalid, fmt.Sprintf("unknown table %q", table))
	}
	if id == "" {
		id = kdata2.GenerateIdentifier()
	}
	ts := e.clock()

	e.storeMu.Lock()
	var err error
	if value.Type == kdata2.TypeBinary {
		err = e.store.UpsertBinary(ctx, table, id, column, value.Binary, ts)
	} else {
		err = e.store.UpsertScalar(ctx, table, id, column, value, ts)
	}
	e.storeMu.Unlock()
	if err != nil {
		return "", err
	}

	if err := e.journal.MarkDirty(ctx, table, id, ts, false); err != nil {
		return "", err
	}
	e.states.set(id, StateDirtyPushPending)
	return id, nil
}

// Remove deletes the local row for id in table and marks it for a
// remote tombstone on the next sync cycle.
func (e *Engine) Remove(ctx context.Context, table, id string) error {
	ts := e.clock()

	e.storeMu.Lock()
	err := e.store.Delete(ctx, table, id)
	e.storeMu.Unlock()
	if err != nil {
		return err
	}

	if err := e.journal.MarkDirty(ctx, table, id, ts, true); err != nil {
		return err
	}
	e.states.set(id, StateDirtyDeletePending)
	return nil
}

// Query streams rows matching "SELECT * FROM <table> <predicate>"
// through onRow, as (names, types, values) tuples including the reserved
// identifier and timestamp columns.
func (e *Engine) Query(ctx context.Context, table, predicate string, onRow func(names []string, types []kdata2.ColumnType, values []kdata2.Value) bool) error {
	e.storeMu.Lock()
	defer e.storeMu.Unlock()
	return e.store.RawQuery(ctx, table, predicate, onRow)
}

// QueryString returns the Text value of column for id in table, or
// ok=false if no such row exists.
func (e *Engine) QueryString(ctx context.Context, table, id, column string) (value string, ok bool, err error) {
	e.storeMu.Lock()
	rows, found, err := e.store.Query(ctx, table, id)
	e.storeMu.Unlock()
	if err != nil || !found {
		return "", false, err
	}
	for _, r := range rows {
		if r.Column == column {
			return r.Value.Text, true, nil
		}
	}
	return "", false, nil
}

// State returns the last observed replication state for id, for
// diagnostics and tests.
func (e *Engine) State(id string) State {
	return e.states.get(id)
}

// RunOnce forces a single, synchronous sync cycle instead of waiting for
// the next scheduled one. It runs on the caller's goroutine; it is safe
// to call concurrently with the background worker, since every step it
// takes is already serialized through storeMu and rowLocks.
func (e *Engine) RunOnce(ctx context.Context) {
	e.remote.SetAccessToken(e.currentAccessToken())
	e.runIteration(ctx)
}
