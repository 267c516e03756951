// Package kdata2 defines the shared data model for a replication engine
// that keeps a local relational store two-way synchronized against a
// remote cloud file store: the schema catalog, column and value types,
// record snapshots, identifier generation, and the error kinds used
// throughout the subpackages.
//
// The replication engine itself lives in package engine; the local and
// remote store adapters live in packages localstore and remotestore; the
// envelope wire format lives in package envelope; the dirty-tracking
// journal lives in package journal.
package kdata2
