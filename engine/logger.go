package engine

import "context"

// Logger is the engine's internal diagnostic sink. It is independent of
// the embedder-facing OnError/OnLog callbacks below: Logger is for the
// engine's own operational noise (scan summaries, retry notices);
// OnError/OnLog are the observability contract promised to embedders.
type Logger interface {
	Printf(format string, args ...interface{})
}

// OnError is invoked whenever a sync-loop operation fails in a way the
// embedder should know about (e.g. RemoteUnauthorized). It never aborts
// the process; the worker sleeps and retries on the next cycle.
type OnError func(ctx context.Context, msg string)

// OnLog is invoked for routine operational notices (the end-of-cycle
// summary). Failures, transient ones included, go to OnError.
type OnLog func(ctx context.Context, msg string)

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}
