package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/igkuzm/kdata2"
	"github.com/igkuzm/kdata2/engine"
	"github.com/igkuzm/kdata2/remotestore"
)

var (
	flagDB           string
	flagRemoteURL    string
	flagToken        string
	flagSyncInterval time.Duration
	flagCallDeadline time.Duration
	flagLogJSON      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kdatasync",
	Short: "kdatasync runs the kdata2 replication engine against a sqlite file",
	Long: `kdatasync demonstrates the kdata2 embedder surface: it opens a
local sqlite database, synchronizes it against a remote file store shaped
after the Yandex Disk resource API, and runs until interrupted.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "kdatasync.db", "path to the local sqlite database")
	rootCmd.PersistentFlags().StringVar(&flagRemoteURL, "remote-url", "", "base URL of the remote resource API")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "remote access token")
	rootCmd.PersistentFlags().DurationVar(&flagSyncInterval, "sync-interval", engine.DefaultSyncInterval, "delay between sync cycles")
	rootCmd.PersistentFlags().DurationVar(&flagCallDeadline, "call-deadline", engine.DefaultCallDeadline, "per remote-call deadline")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit structured JSON logs instead of console-formatted ones")

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "open the local store and run the sync loop until interrupted",
	RunE:  runRun,
}

// demoCatalog is the table declaration used by this CLI: one "notes"
// table with a title, a body, and a binary attachment.
func demoCatalog() []kdata2.Table {
	return []kdata2.Table{
		{
			Name: "notes",
			Columns: []kdata2.Column{
				kdata2.Text("title"),
				kdata2.Text("body"),
				kdata2.Binary("attachment"),
			},
		},
	}
}

func newLogger() zerolog.Logger {
	var w zerolog.ConsoleWriter
	if flagLogJSON {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).With().Timestamp().Logger()
}

// zerologAdapter satisfies engine.Logger by forwarding to a zerolog
// logger's debug level, for the engine's own operational noise.
type zerologAdapter struct {
	log zerolog.Logger
}

func (a zerologAdapter) Printf(format string, args ...interface{}) {
	a.log.Debug().Msgf(format, args...)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := newLogger()

	if flagRemoteURL == "" {
		return fmt.Errorf("--remote-url is required")
	}

	remote := remotestore.NewHTTPStore(flagRemoteURL, flagToken, flagCallDeadline)

	opts := engine.NewOptions(flagDB, demoCatalog()...).
		SetAccessToken(flagToken).
		SetSyncInterval(flagSyncInterval).
		SetCallDeadline(flagCallDeadline).
		SetLogger(zerologAdapter{log: log}).
		SetOnError(func(ctx context.Context, msg string) {
			log.Error().Msg(msg)
		}).
		SetOnLog(func(ctx context.Context, msg string) {
			log.Info().Msg(msg)
		}).
		Build()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := engine.Open(ctx, remote, opts)
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}
	log.Info().Str("db", flagDB).Str("remote", flagRemoteURL).Msg("kdatasync: engine open")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("kdatasync: shutting down")
	return e.Close()
}
