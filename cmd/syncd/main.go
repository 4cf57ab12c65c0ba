// syncd keeps one local git working copy continuously synchronized with its
// remote: fetch, commit-if-dirty, rebase pull, push, on a fixed interval,
// self-healing on transient failures.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gitsyncd/gitsyncd/internal/config"
	"github.com/gitsyncd/gitsyncd/internal/daemon"
	"github.com/gitsyncd/gitsyncd/internal/gitx"
	"github.com/gitsyncd/gitsyncd/internal/journal"
	"github.com/gitsyncd/gitsyncd/internal/logging"
	"github.com/gitsyncd/gitsyncd/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "syncd",
		Short: "Repository sync daemon",
		Long:  `Keeps a git working copy synchronized with its remote on a fixed interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	defaults := config.Defaults()
	flags := cmd.Flags()
	flags.String("repo", defaults.RepoPath, "Path to the working copy to synchronize")
	flags.Duration("interval", defaults.Interval, "Wall-clock period between sync attempts")
	flags.Duration("fetch-timeout", defaults.FetchTimeout, "Bound on the fetch stage (0 disables)")
	flags.Bool("detailed-logging", defaults.DetailedLogging, "Verbose logging mirrored to the log file")
	flags.Bool("error-recovery", defaults.ErrorRecovery, "Abort in-progress merges/rebases found by the health check")
	flags.String("log-file", defaults.LogFile, "Log file receiving a copy of output when detailed logging is on")
	flags.Bool("backoff", defaults.Backoff, "Double the wait after consecutive failed cycles")
	flags.Duration("max-backoff", defaults.MaxBackoff, "Upper bound on the backoff wait")
	flags.String("http-addr", defaults.HTTPAddr, "Status API listen address (empty disables)")
	flags.String("journal", defaults.JournalDriver, "Attempt journal driver: sqlite, postgres, or none")
	flags.String("journal-dsn", defaults.JournalDSN, "Journal SQLite path or Postgres DSN")

	config.BindEnv(v)
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	mirror := ""
	if cfg.DetailedLogging {
		level = slog.LevelDebug
		mirror = cfg.LogFile
	}
	logger, closeLog, err := logging.New(os.Stdout, logging.Options{
		Level:      level,
		Color:      true,
		MirrorPath: mirror,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	backend := gitx.NewCLI(logger)
	d := daemon.New(cfg, backend, store, logger)

	if cfg.HTTPAddr != "" {
		handler := server.NewHandler(d, store, logger)
		httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: handler.Router()}
		go func() {
			logger.Info("status API listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("status API server failed", "error", err.Error())
			}
		}()
		defer httpServer.Close()
	}

	d.Run(ctx)
	return nil
}

func openJournal(ctx context.Context, cfg config.Config) (journal.Store, error) {
	switch cfg.JournalDriver {
	case config.JournalSQLite:
		return journal.NewSQLiteStore(cfg.JournalDSN)
	case config.JournalPostgres:
		return journal.NewPostgresStore(ctx, cfg.JournalDSN)
	case config.JournalNone:
		return journal.Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown journal driver %q", cfg.JournalDriver)
	}
}
