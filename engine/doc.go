// Package engine implements the Replication Engine: the per-record state
// machine, the sync loop that pulls and pushes under last-writer-wins,
// upload/download orchestration, and the post-upload reconciliation that
// is the correctness core of the whole system.
//
// Engine owns a background worker, a cancellation flag, the schema
// catalog, and the local store / journal / remote store handles for the
// lifetime between Open and Close.
package engine
