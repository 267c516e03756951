package engine

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/igkuzm/kdata2/envelope"
	"github.com/igkuzm/kdata2/remotestore"
)

// pullDirectory lists dir and runs handle over every entry. Listing the
// full directory every cycle is deliberately repeated work: both
// handlers below are idempotent, so a record already at the right
// state is a cheap no-op.
func (e *Engine) pullDirectory(ctx context.Context, dir string, handle func(context.Context, remotestore.Metadata) error) error {
	var batch syncErrors
	lsCtx, cancel := e.callCtx(ctx)
	err := e.remote.Ls(lsCtx, dir, func(m remotestore.Metadata) bool {
		if e.cancelled.Load() {
			return false
		}
		w := e.workItems.get()
		w.kind, w.id = workPull, m.Name
		err := handle(ctx, m)
		e.workItems.put(w)
		if err != nil {
			batch.add("", m.Name, err)
		}
		return true
	})
	cancel()
	batch.add("", "", err)
	return batch.compile()
}

// materializeUpdate pulls one database-directory entry through the
// Pulling/Materializing states: download the envelope, decode it,
// resolve last-writer-wins against the local row, and if the remote
// entry wins, upsert every scalar and fetch every binary sidecar.
func (e *Engine) materializeUpdate(ctx context.Context, meta remotestore.Metadata) error {
	id := meta.Name
	e.rowLocks.Lock(id)
	defer e.rowLocks.Unlock(id)
	e.states.set(id, StatePulling)

	getCtx, cancel := e.callCtx(ctx)
	r, err := e.remote.Get(getCtx, meta.Path)
	cancel()
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return err
	}

	su, err := envelope.Decode(data, id)
	if err != nil {
		return err
	}

	e.storeMu.Lock()
	localTS, ok, err := e.store.QueryTimestamp(ctx, su.Table, id)
	e.storeMu.Unlock()
	if err != nil {
		return err
	}
	if ok && localTS >= meta.Modified {
		// Local write is at least as new: last-writer-wins keeps it.
		e.states.set(id, StateClean)
		return nil
	}

	e.states.set(id, StateMaterializing)

	for _, sc := range su.Scalars {
		e.storeMu.Lock()
		err := e.store.UpsertScalar(ctx, su.Table, id, sc.Name, sc.Value, meta.Modified)
		e.storeMu.Unlock()
		if err != nil {
			return err
		}
	}

	for _, sidecar := range su.Sidecars {
		if err := e.materializeSidecar(ctx, su.Table, id, sidecar.Name, sidecar.SidecarID, meta.Modified); err != nil {
			return err
		}
	}

	e.storeMu.Lock()
	err = e.store.SetTimestamp(ctx, su.Table, id, meta.Modified)
	e.storeMu.Unlock()
	if err != nil {
		return err
	}

	e.states.set(id, StateClean)
	return nil
}

// sidecarBufferPool recycles the byte buffers used to stage a downloaded
// sidecar before it is handed to UpsertBinary, instead of letting each
// fetch allocate its own. Buffers are reset before reuse; Put after a
// buffer has escaped into e.store's keeping would be a bug, so every Put
// below happens only after UpsertBinary has already consumed Bytes().
var sidecarBufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func (e *Engine) materializeSidecar(ctx context.Context, table, id, column, sidecarID string, ts int64) error {
	w := e.workItems.get()
	w.kind, w.table, w.id, w.column, w.sidecarID, w.timestamp = workFetchSidecar, table, id, column, sidecarID, ts
	defer e.workItems.put(w)

	getCtx, cancel := e.callCtx(ctx)
	r, err := e.remote.Get(getCtx, remotePath(DataFilesDir, sidecarID))
	cancel()
	if err != nil {
		return err
	}

	buf := sidecarBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	_, err = buf.ReadFrom(r)
	closeErr := r.Close()
	if err != nil {
		sidecarBufferPool.Put(buf)
		return err
	}
	if closeErr != nil {
		sidecarBufferPool.Put(buf)
		return closeErr
	}

	e.storeMu.Lock()
	err = e.store.UpsertBinary(ctx, table, id, column, buf.Bytes(), ts)
	e.storeMu.Unlock()
	sidecarBufferPool.Put(buf)
	return err
}

// materializeDeletion applies a remote tombstone. Deleted-directory
// entries carry only an identifier, not a table name, so the deletion
// fans out across every declared table (the Open Question decision
// recorded for this design).
func (e *Engine) materializeDeletion(ctx context.Context, meta remotestore.Metadata) error {
	id := meta.Name
	e.rowLocks.Lock(id)
	defer e.rowLocks.Unlock(id)

	var batch syncErrors
	e.storeMu.Lock()
	for _, t := range e.catalog.Tables() {
		if err := e.store.Delete(ctx, t.Name, id); err != nil {
			batch.add(t.Name, id, err)
		}
	}
	e.storeMu.Unlock()

	e.states.set(id, StateClean)
	return batch.compile()
}
