// Package localstore implements the Local Store Adapter: a typed wrapper
// around a file-backed relational database (sqlite, via
// modernc.org/sqlite) that ensures per-entity tables exist with the
// reserved identifier and timestamp columns, and exposes typed read/write
// primitives to the replication engine.
//
// The adapter never performs domain logic — it is a thin, typed wrapper.
// Every operation returns an error on failure; none of them abort the
// process, and parameter binding is used for every text/binary value
// (never string interpolation).
package localstore
