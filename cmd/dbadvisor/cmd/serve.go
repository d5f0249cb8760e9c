package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/dbadvisor/internal/advisor"
	"github.com/Aman-CERP/dbadvisor/internal/check"
	"github.com/Aman-CERP/dbadvisor/internal/config"
	"github.com/Aman-CERP/dbadvisor/internal/logging"
	"github.com/Aman-CERP/dbadvisor/internal/output"
	"github.com/Aman-CERP/dbadvisor/internal/server"
	"github.com/Aman-CERP/dbadvisor/internal/stats"
	"github.com/Aman-CERP/dbadvisor/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var (
		listen string
		store  string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve advisories and query statistics over HTTP",
		Long: `Start the JSON API:

  GET /healthz           liveness and version
  GET /api/advisories    one advisory pass (?persist=1 saves a generated secret)
  GET /api/stats         query statistics and chart data (needs stats.counters)

With --watch, every change of the store file also runs a pass and logs its
summary.`,
		Example: `  # Serve on the configured address
  dbadvisor serve

  # Serve a specific store on all interfaces
  dbadvisor serve --store config.yaml --listen :8765`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, store, listen, watch)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (defaults to server.listen)")
	cmd.Flags().StringVar(&store, "store", "", "Configuration store (defaults to the configured store)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Run a pass whenever the store file changes")

	return cmd
}

func runServe(ctx context.Context, store, listen string, watch bool) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if store != "" {
		cfg.Store = store
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}

	logger := slog.Default()
	if !debugMode {
		logger = logging.NewStderrLogger(cfg.Server.LogLevel, os.Stderr)
	}

	a, err := check.NewAdvisor(cfg, logger)
	if err != nil {
		return err
	}
	runner := check.NewRunner(a, cfg.Store, logger)

	opts := []server.Option{server.WithLogger(logger)}
	if cfg.Stats.Counters != "" {
		counters, uptime := cfg.Stats.Counters, cfg.Stats.UptimeSeconds
		opts = append(opts, server.WithStats(func() (stats.Result, error) {
			return loadStats(counters, uptime)
		}))
	}
	srv := server.New(runner, opts...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, cfg.Server.Listen)
	})
	if watch {
		g.Go(func() error {
			return watchAndLog(ctx, cfg, runner, logger)
		})
	}
	return g.Wait()
}

// watchAndLog runs a pass after each store change and logs the counts.
func watchAndLog(ctx context.Context, cfg *config.Config, runner *check.Runner, logger *slog.Logger) error {
	debounce, err := cfg.WatchDebounce()
	if err != nil {
		return err
	}
	return watcher.WatchWithOptions(ctx, storePath(cfg.Store), watcher.Options{Debounce: debounce, Logger: logger}, func(ev watcher.FileEvent) {
		if ev.Operation == watcher.OpDelete || ev.Operation == watcher.OpRename {
			logger.Warn("store file gone", slog.String("path", ev.Path))
			return
		}
		sink := output.NewCollector()
		report, err := runner.Run(ctx, sink, false)
		if err != nil {
			logger.Error("advisory pass failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("advisory pass",
			slog.String("status", output.Status(report.Advisories)),
			slog.Int("errors", report.Count(advisor.Error)),
			slog.Int("warnings", report.Count(advisor.Warning)),
			slog.Int("notices", report.Count(advisor.Notice)))
	})
}
