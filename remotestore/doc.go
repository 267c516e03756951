// Package remotestore implements the Remote Store Adapter: a thin
// wrapper around an authenticated remote file API offering head, get,
// put, mv, mkdir and ls, as described by the replication engine's needs.
//
// Every operation returns either success (with metadata or bytes) or one
// of the error kinds ErrNotFound, ErrUnauthorized, ErrTransient or
// ErrOther. Implementations are free to be synchronous or asynchronous;
// the engine treats every call as blocking on its own worker.
package remotestore
