package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dbadvisor/internal/advisor"
	"github.com/Aman-CERP/dbadvisor/internal/check"
	"github.com/Aman-CERP/dbadvisor/internal/config"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
	"github.com/Aman-CERP/dbadvisor/internal/output"
	"github.com/Aman-CERP/dbadvisor/internal/ui"
	"github.com/Aman-CERP/dbadvisor/internal/watcher"
)

type checkOptions struct {
	store      string
	jsonOutput bool
	persist    bool
	watch      bool
	strict     bool
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Inspect a configuration and report advisories",
		Long: `Run one advisory pass over the configuration store and print the findings
grouped by severity.

Checks:
  - Connections to arbitrary servers
  - Per server: cookie secret, SSL, stored credentials, passwordless root
  - Save and temp directory permissions
  - Login cookie validity against the session lifetime and store duration
  - Zip, bzip2 and gzip support for import and export

When a server uses cookie authentication and blowfish_secret is not a valid
key, a new secret is generated. It is only written back with --persist.`,
		Example: `  # Inspect a YAML configuration
  dbadvisor check --store /etc/dbadmin/config.yaml

  # Inspect a SQLite settings store and save a generated secret
  dbadvisor check --store sqlite:/var/lib/dbadmin/settings.db --persist

  # Re-run whenever the file changes
  dbadvisor check --store config.yaml --watch

  # Fail (exit status 2) when errors are found
  dbadvisor check --strict`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runCheck(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.store, "store", "", "Configuration store (path, file:<path> or sqlite:<path>)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Write a generated cookie secret back to the store")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-run when the store file changes")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit with status 2 when error advisories are found")

	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, opts checkOptions) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if opts.store != "" {
		cfg.Store = opts.store
	}

	logger := slog.Default()
	a, err := check.NewAdvisor(cfg, logger)
	if err != nil {
		return err
	}
	runner := check.NewRunner(a, cfg.Store, logger)

	out := cmd.OutOrStdout()
	jsonOutput := opts.jsonOutput || cfg.Output.Format == config.FormatJSON

	report, err := runner.Run(ctx, newSink(out, cfg, jsonOutput), opts.persist)
	if err != nil {
		return err
	}
	if !jsonOutput && report.SecretGenerated && !opts.persist {
		fmt.Fprintln(out, "A new blowfish_secret was generated; rerun with --persist to save it.")
	}

	if opts.watch {
		return watchStore(ctx, cmd, cfg, runner, jsonOutput, opts.persist)
	}

	if opts.strict && report.Count(advisor.Error) > 0 {
		return errAdvisoryErrors
	}
	return nil
}

// watchStore re-runs the pass after each change of the store file until ctx
// is cancelled. Failed passes are printed and watching continues.
func watchStore(ctx context.Context, cmd *cobra.Command, cfg *config.Config, runner *check.Runner, jsonOutput, persist bool) error {
	debounce, err := cfg.WatchDebounce()
	if err != nil {
		return dberrors.ConfigError("invalid watch.debounce", err)
	}

	path := storePath(cfg.Store)
	out := cmd.OutOrStdout()
	if !jsonOutput {
		output.New(out).Statusf("👀", "Watching %s (Ctrl+C to stop)", path)
	}

	return watcher.Watch(ctx, path, debounce, func(ev watcher.FileEvent) {
		slog.Debug("store changed", slog.String("path", ev.Path), slog.String("op", ev.Operation.String()))
		if ev.Operation == watcher.OpDelete || ev.Operation == watcher.OpRename {
			return
		}
		if !jsonOutput {
			fmt.Fprintln(out)
		}
		if _, err := runner.Run(ctx, newSink(out, cfg, jsonOutput), persist); err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), formatError(err))
		}
	})
}

func newSink(out io.Writer, cfg *config.Config, jsonOutput bool) advisor.Sink {
	if jsonOutput {
		return output.NewJSONSink(out, true)
	}
	return output.NewTextSink(out, ui.ColorEnabled(cfg.Output.Color, out))
}
