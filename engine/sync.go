package engine

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/igkuzm/kdata2/journal"
	"github.com/igkuzm/kdata2/remotestore"
)

// runLoop is the background sync worker. One iteration:
// probe reachability, ensure the remote directory layout, drain the
// journal (push/delete sub-protocols), pull the database and deleted
// directories, then sleep.
func (e *Engine) runLoop(ctx context.Context) {
	defer close(e.done)
	for {
		if e.cancelled.Load() {
			return
		}
		e.remote.SetAccessToken(e.currentAccessToken())
		e.runIteration(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(e.opts.syncInterval):
		}
	}
}

func (e *Engine) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.opts.callDeadline)
}

// runIteration runs exactly one sync cycle. Errors are reported through
// the embedder's OnError/OnLog callbacks; none of them abort the
// background worker, which keeps running on the next scheduled cycle
// regardless of how the last one ended.
func (e *Engine) runIteration(ctx context.Context) {
	probeCtx, cancel := e.callCtx(ctx)
	_, err := e.remote.Head(probeCtx, rootProbePath)
	cancel()
	if err != nil && !remoteNotFound(err) {
		e.reportError(ctx, fmt.Sprintf("sync: remote unreachable: %v", err))
		return
	}

	if err := e.ensureRemoteLayout(ctx); err != nil {
		e.reportError(ctx, fmt.Sprintf("sync: ensure remote layout: %v", err))
		return
	}

	var batch syncErrors
	batch.add("", "", e.drainJournal(ctx))
	batch.add("", "", e.pullDirectory(ctx, DatabaseDir, e.materializeUpdate))
	batch.add("", "", e.pullDirectory(ctx, DeletedDir, e.materializeDeletion))
	if err := batch.compile(); err != nil {
		e.reportError(ctx, fmt.Sprintf("sync: %v", err))
		return
	}
	e.reportLog(ctx, "sync: cycle complete")
}

func (e *Engine) ensureRemoteLayout(ctx context.Context) error {
	for _, dir := range []string{DatabaseDir, DeletedDir, DataFilesDir} {
		mkCtx, cancel := e.callCtx(ctx)
		err := e.remote.Mkdir(mkCtx, dir)
		cancel()
		if err != nil {
			return err
		}
	}
	return nil
}

// drainJournal walks every dirty entry once, dispatching it to the push
// or delete sub-protocol depending on its deleted flag. An Unauthorized
// error on any record aborts the remaining per-record work for this
// cycle: the credentials are bad for every record, not just this one, so
// there is nothing to gain from trying the rest.
func (e *Engine) drainJournal(ctx context.Context) error {
	var batch syncErrors
	err := e.journal.Drain(ctx, func(entry journal.Entry) bool {
		if e.cancelled.Load() {
			return false
		}
		w := e.workItems.get()
		w.table, w.id, w.timestamp = entry.Table, entry.ID, entry.Timestamp
		var opErr error
		if entry.Deleted {
			w.kind = workDelete
			opErr = e.processDelete(ctx, entry)
		} else {
			w.kind = workPush
			opErr = e.processPush(ctx, entry)
		}
		e.workItems.put(w)
		if opErr != nil {
			batch.add(entry.Table, entry.ID, opErr)
			e.reportError(ctx, fmt.Sprintf("sync: entry %s/%s: %v", entry.Table, entry.ID, opErr))
			if remotestore.IsUnauthorized(opErr) {
				return false
			}
		}
		return true
	})
	batch.add("", "", err)
	return batch.compile()
}

func remotePath(dir, id string) string {
	return path.Join(dir, id)
}

func remoteNotFound(err error) bool {
	return remotestore.IsNotFound(err)
}

func (e *Engine) reportError(ctx context.Context, msg string) {
	e.opts.logger.Printf("%s", msg)
	if e.opts.onError != nil {
		e.opts.onError(ctx, msg)
	}
}

func (e *Engine) reportLog(ctx context.Context, msg string) {
	e.opts.logger.Printf("%s", msg)
	if e.opts.onLog != nil {
		e.opts.onLog(ctx, msg)
	}
}
