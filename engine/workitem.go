package engine

import "sync"

// workKind tags the kind of work a workItem carries, following the
// "global-by-callback state" note: rather than threading a single
// mutation struct through every step, each unit of work is a tagged
// union carried by the work item.
type workKind int

const (
	workPush workKind = iota
	workDelete
	workPull
	workFetchSidecar
)

// workItem is one per-operation unit of work. Its lifetime is bounded by
// the callback chain that created it: it is drawn from the engine's work
// item pool, used for exactly one push/pull/delete/sidecar-fetch, and
// returned to the pool once its terminal action completes — no
// self-referential pointers, no cycles.
type workItem struct {
	kind      workKind
	table     string
	id        string
	timestamp int64
	column    string
	sidecarID string
}

// workItemPool recycles workItem values across sync iterations.
type workItemPool struct {
	free sync.Pool
}

func newWorkItemPool() *workItemPool {
	return &workItemPool{free: sync.Pool{New: func() any { return new(workItem) }}}
}

func (p *workItemPool) get() *workItem {
	return p.free.Get().(*workItem)
}

func (p *workItemPool) put(w *workItem) {
	*w = workItem{}
	p.free.Put(w)
}
