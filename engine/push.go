package engine

import (
	"bytes"
	"context"

	"github.com/igkuzm/kdata2"
	"github.com/igkuzm/kdata2/envelope"
	"github.com/igkuzm/kdata2/journal"
	"github.com/igkuzm/kdata2/remotestore"
)

// processPush runs the upload sub-protocol for one dirty, non-deleted
// journal entry: read the current row, encode it as a Remote Envelope,
// upload any binary sidecars, upload the envelope, then reconcile.
func (e *Engine) processPush(ctx context.Context, entry journal.Entry) error {
	e.rowLocks.Lock(entry.ID)
	defer e.rowLocks.Unlock(entry.ID)

	e.states.set(entry.ID, StateDirtyPushPending)

	headCtx, cancel := e.callCtx(ctx)
	meta, err := e.remote.Head(headCtx, remotePath(DatabaseDir, entry.ID))
	cancel()
	switch {
	case err == nil:
		if meta.Modified >= entry.Timestamp {
			// The remote copy is already at least as new as this journal
			// entry: pushing would overwrite a newer write with a stale
			// one. Discard the entry without touching the remote object.
			e.states.set(entry.ID, StateClean)
			return e.journal.Forget(ctx, entry.ID)
		}
	case remotestore.IsNotFound(err):
		// No remote copy yet: push unconditionally.
	case remotestore.IsUnauthorized(err):
		e.states.set(entry.ID, StateFatal)
		return err
	default:
		return err
	}

	e.storeMu.Lock()
	rows, ok, err := e.store.Query(ctx, entry.Table, entry.ID)
	ts, tsOK, tsErr := e.store.QueryTimestamp(ctx, entry.Table, entry.ID)
	e.storeMu.Unlock()
	if err != nil {
		return err
	}
	if tsErr != nil {
		return tsErr
	}
	if !ok || !tsOK {
		// Row was deleted locally after being journaled but before the
		// push ran: nothing to push, the entry is stale.
		return e.journal.Forget(ctx, entry.ID)
	}

	snapshot := kdata2.RowSnapshot{Table: entry.Table, ID: entry.ID, Timestamp: ts}
	for _, r := range rows {
		snapshot.Columns = append(snapshot.Columns, kdata2.ColumnSnapshot{
			Name: r.Column, Type: r.Type, Value: r.Value,
		})
	}

	for _, r := range rows {
		if r.Type != kdata2.TypeBinary {
			continue
		}
		putCtx, cancel := e.callCtx(ctx)
		err := e.remote.Put(putCtx, remotePath(DataFilesDir, sidecarRemoteName(entry.ID, r.Column)), bytes.NewReader(r.Value.Binary), true)
		cancel()
		if err != nil {
			return err
		}
	}

	data, err := envelope.Encode(snapshot)
	if err != nil {
		return err
	}
	putCtx, cancel := e.callCtx(ctx)
	err = e.remote.Put(putCtx, remotePath(DatabaseDir, entry.ID), bytes.NewReader(data), true)
	cancel()
	if err != nil {
		return err
	}

	return e.reconcileAfterPush(ctx, entry, ts)
}

func sidecarRemoteName(id, column string) string {
	return id + "_" + column
}

// reconcileAfterPush is the correctness core of the replication engine:
// re-read the local timestamp after a successful upload. If it is still
// what we just pushed, the upload is final: forget the journal entry.
// If a newer local write raced in while the upload was in flight, leave
// the journal entry alone so the next cycle pushes the newer value too.
func (e *Engine) reconcileAfterPush(ctx context.Context, entry journal.Entry, pushedTS int64) error {
	e.storeMu.Lock()
	currentTS, ok, err := e.store.QueryTimestamp(ctx, entry.Table, entry.ID)
	e.storeMu.Unlock()
	if err != nil {
		return err
	}
	if !ok {
		// Deleted locally during the upload: leave the journal entry for
		// the next cycle. Remove has re-journaled the id as a deletion,
		// which the delete sub-protocol then handles; a stale push entry
		// is forgotten by the next cycle's processPush.
		return nil
	}
	if currentTS > pushedTS {
		e.states.set(entry.ID, StateDirtyPushPending)
		return nil
	}

	// Absorb the server's clock: the remote store, not this process, is
	// the authority on modified times. Re-reading it here keeps the
	// local timestamp from trailing behind what was just written.
	headCtx, cancel := e.callCtx(ctx)
	meta, err := e.remote.Head(headCtx, remotePath(DatabaseDir, entry.ID))
	cancel()
	if err != nil {
		return err
	}
	if meta.Modified > currentTS {
		e.storeMu.Lock()
		err := e.store.SetTimestamp(ctx, entry.Table, entry.ID, meta.Modified)
		e.storeMu.Unlock()
		if err != nil {
			return err
		}
	}

	e.states.set(entry.ID, StateClean)
	return e.journal.Forget(ctx, entry.ID)
}

// processDelete runs the delete sub-protocol for one dirty, deleted
// journal entry: move the remote envelope from the database directory
// to the deleted directory, falling back to writing a bare tombstone
// if there was nothing to move, then forget the entry.
func (e *Engine) processDelete(ctx context.Context, entry journal.Entry) error {
	e.states.set(entry.ID, StateDirtyDeletePending)

	mvCtx, cancel := e.callCtx(ctx)
	err := e.remote.Mv(mvCtx, remotePath(DatabaseDir, entry.ID), remotePath(DeletedDir, entry.ID), true)
	cancel()
	if err != nil {
		if !remotestore.IsNotFound(err) {
			return err
		}
		putCtx, cancel := e.callCtx(ctx)
		err = e.remote.Put(putCtx, remotePath(DeletedDir, entry.ID), bytes.NewReader(nil), true)
		cancel()
		if err != nil {
			return err
		}
	}

	e.states.set(entry.ID, StateClean)
	return e.journal.Forget(ctx, entry.ID)
}
