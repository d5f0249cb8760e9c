// Package cmd provides the CLI commands for dbadvisor.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dbadvisor/internal/config"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
	"github.com/Aman-CERP/dbadvisor/internal/logging"
	"github.com/Aman-CERP/dbadvisor/pkg/version"
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// errAdvisoryErrors is returned by `check --strict` when a pass found at
// least one error advisory. It is not printed; the advisories already were.
var errAdvisoryErrors = errors.New("configuration has error advisories")

// NewRootCmd creates the root command for the dbadvisor CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dbadvisor",
		Short: "Security and compatibility advisor for database admin tool settings",
		Long: `dbadvisor inspects the configuration of a browser-based database
administration tool and reports notices, warnings and errors about SSL usage,
stored credentials, cookie lifetimes and missing compression support.

Run 'dbadvisor check --store config.yaml' to inspect a configuration.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("dbadvisor version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.dbadvisor/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newSecretCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging sends slog output to the rotating debug log when --debug is
// set, and to stderr at warn level otherwise.
func startLogging(cmd *cobra.Command, _ []string) error {
	if !debugMode {
		slog.SetDefault(logging.NewStderrLogger("warn", cmd.ErrOrStderr()))
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("Debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Short()),
		slog.String("command", cmd.CommandPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and prints any error.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil && !errors.Is(err, errAdvisoryErrors) {
		fmt.Fprint(root.ErrOrStderr(), formatError(err))
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit status:
// 2 for error advisories under --strict, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errAdvisoryErrors):
		return 2
	default:
		return 1
	}
}

// formatError renders structured errors with their hint and code, and plain
// errors (bad flags, unknown commands) as cobra would.
func formatError(err error) string {
	if dberrors.GetCode(err) != "" {
		return dberrors.FormatForCLI(err)
	}
	msg := err.Error()
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	return "Error: " + msg
}

// loadSettings loads the dbadvisor settings for the working directory.
func loadSettings() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return config.Load(cwd)
}

// storePath returns the file behind a store URI.
func storePath(uri string) string {
	for _, prefix := range []string{"sqlite:", "file:"} {
		if rest, ok := strings.CutPrefix(uri, prefix); ok {
			return rest
		}
	}
	return uri
}
