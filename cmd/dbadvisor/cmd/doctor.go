package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dbadvisor/internal/capability"
	"github.com/Aman-CERP/dbadvisor/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
		store      string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that dbadvisor can inspect the configured store",
		Long: `Run diagnostics before trusting an advisory pass.

Checks:
  - The configuration store opens and its server profiles can be read
  - The store can be written, so generated secrets can be persisted
  - Capabilities the host lacks (capabilities.disabled and this build)
  - The debug log directory is writable
  - Disk space next to the store

Use --verbose for detailed diagnostic information.
Use --json for machine-readable output.`,
		Example: `  # Run diagnostics
  dbadvisor doctor

  # Diagnose a specific store
  dbadvisor doctor --store sqlite:/var/lib/dbadmin/settings.db --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, store, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&store, "store", "", "Configuration store (defaults to the configured store)")

	return cmd
}

type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func runDoctor(cmd *cobra.Command, store string, verbose, jsonOutput bool) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if store != "" {
		cfg.Store = store
	}

	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
		preflight.WithProbe(capability.WithDisabled(capability.Default(), cfg.Capabilities.Disabled...)),
	)
	results := checker.RunAll(cmd.Context(), cfg.Store)

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(doctorReport{Status: checker.SummaryStatus(results), Checks: results}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return fmt.Errorf("system check failed")
	}
	return nil
}
