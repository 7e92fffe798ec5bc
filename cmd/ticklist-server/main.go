// Command ticklist-server serves task collections from a local sqlite file
// for development against the docstore backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/ticklist/internal/docdb"
	"github.com/five82/ticklist/internal/server"
)

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	addr     string
	dbPath   string
	failRate float64
	latency  time.Duration
	logLevel string
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ticklist-server: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:           "ticklist-server",
		Short:         "Serve task documents over HTTP for the docstore backend",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", "127.0.0.1:7488", "listen address")
	cmd.Flags().StringVar(&flags.dbPath, "db", "ticklist-server.sqlite3", "sqlite database path (:memory: for a throwaway store)")
	cmd.Flags().Float64Var(&flags.failRate, "fail-rate", 0, "probability (0..1) of answering a request with 503")
	cmd.Flags().DurationVar(&flags.latency, "latency", 0, "delay added to every request")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

func serve(ctx context.Context, flags *serveFlags) error {
	if flags.failRate < 0 || flags.failRate > 1 {
		return fmt.Errorf("--fail-rate must be between 0 and 1, got %v", flags.failRate)
	}
	if flags.latency < 0 {
		return fmt.Errorf("--latency must not be negative")
	}
	level, err := parseLevel(flags.logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := docdb.Open(flags.dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	srv := &http.Server{
		Addr: flags.addr,
		Handler: server.New(db, server.Options{
			FailRate: flags.failRate,
			Latency:  flags.latency,
			Logger:   logger,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", flags.addr, "db", flags.dbPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q", value)
	}
	return level, nil
}
