package engine

import (
	"time"

	"github.com/igkuzm/kdata2"
)

// Default option values.
const (
	DefaultSyncInterval = 30 * time.Second
	DefaultCallDeadline = 15 * time.Second
	DefaultCloseTimeout = 10 * time.Second
)

// Remote directory layout.
const (
	DatabaseDir  = "kdata_database"
	DeletedDir   = "kdata_deleted"
	DataFilesDir = "kdata_data"

	// rootProbePath is the path Head is called on once per sync
	// iteration to test remote reachability.
	rootProbePath = "app:/"
)

// Options is a read-only view of engine configuration, built with
// OptionsBuilder's NewOptions(root).SetX().Build() fluent idiom.
type Options struct {
	localPath    string
	accessToken  string
	catalog      *kdata2.Catalog
	syncInterval time.Duration
	callDeadline time.Duration
	closeTimeout time.Duration
	logger       Logger
	onError      OnError
	onLog        OnLog
}

// OptionsBuilder builds an Options value.
type OptionsBuilder struct {
	opts Options
}

// NewOptions creates an OptionsBuilder for a local store at localPath,
// synchronizing the given tables.
func NewOptions(localPath string, tables ...kdata2.Table) *OptionsBuilder {
	cb := kdata2.NewCatalogBuilder()
	for _, t := range tables {
		cb.Table(t.Name, t.Columns...)
	}
	return &OptionsBuilder{
		opts: Options{
			localPath:    localPath,
			catalog:      cb.Build(),
			syncInterval: DefaultSyncInterval,
			callDeadline: DefaultCallDeadline,
			closeTimeout: DefaultCloseTimeout,
			logger:       noopLogger{},
		},
	}
}

// SetAccessToken sets the initial remote store access token.
func (b *OptionsBuilder) SetAccessToken(token string) *OptionsBuilder {
	b.opts.accessToken = token
	return b
}

// SetSyncInterval sets the delay between sync loop iterations.
func (b *OptionsBuilder) SetSyncInterval(d time.Duration) *OptionsBuilder {
	b.opts.syncInterval = d
	return b
}

// SetCallDeadline sets the per-remote-call deadline.
func (b *OptionsBuilder) SetCallDeadline(d time.Duration) *OptionsBuilder {
	b.opts.callDeadline = d
	return b
}

// SetCloseTimeout bounds how long Close waits for the in-flight
// iteration to reach a terminal state.
func (b *OptionsBuilder) SetCloseTimeout(d time.Duration) *OptionsBuilder {
	b.opts.closeTimeout = d
	return b
}

// SetLogger sets the internal diagnostic logger.
func (b *OptionsBuilder) SetLogger(l Logger) *OptionsBuilder {
	if l != nil {
		b.opts.logger = l
	}
	return b
}

// SetOnError sets the embedder error callback.
func (b *OptionsBuilder) SetOnError(f OnError) *OptionsBuilder {
	b.opts.onError = f
	return b
}

// SetOnLog sets the embedder log callback.
func (b *OptionsBuilder) SetOnLog(f OnLog) *OptionsBuilder {
	b.opts.onLog = f
	return b
}

// Build finalizes the Options.
func (b *OptionsBuilder) Build() Options {
	return b.opts
}
