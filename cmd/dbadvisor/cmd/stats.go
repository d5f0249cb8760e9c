package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
	"github.com/Aman-CERP/dbadvisor/internal/stats"
)

type statsOptions struct {
	counters   string
	uptime     int64
	jsonOutput bool
	chart      string
	lang       string
}

func newStatsCmd() *cobra.Command {
	var opts statsOptions

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show query statistics",
		Long: `Display per-statement query statistics from a dump of server status
variables (YAML or JSON, name to value):
  - Count, rate per hour and share of the total per statement type
  - Totals per hour, minute and second
  - Pie chart data for the statistics page

The uptime is taken from the Uptime variable unless --uptime is given.`,
		Example: `  # Show statistics as a table
  dbadvisor stats --counters status.yaml

  # Write the chart option document for the statistics page
  dbadvisor stats --counters status.yaml --chart chart.json

  # German number formatting
  dbadvisor stats --counters status.yaml --lang de`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.counters, "counters", "", "Status variables file (defaults to stats.counters)")
	cmd.Flags().Int64Var(&opts.uptime, "uptime", 0, "Server uptime in seconds")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&opts.chart, "chart", "", "Write the chart option document to this file")
	cmd.Flags().StringVar(&opts.lang, "lang", "en", "Language for number formatting")

	return cmd
}

func runStats(cmd *cobra.Command, opts statsOptions) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if opts.counters == "" {
		opts.counters = cfg.Stats.Counters
	}
	if opts.uptime == 0 {
		opts.uptime = cfg.Stats.UptimeSeconds
	}
	if opts.counters == "" {
		return dberrors.ValidationError("no status variables file given", nil).
			WithSuggestion("pass --counters or set stats.counters in the dbadvisor settings")
	}

	res, err := loadStats(opts.counters, opts.uptime)
	if err != nil {
		return err
	}

	if opts.chart != "" {
		data, err := res.ChartJSON(stats.ChartTitle)
		if err != nil {
			return dberrors.InternalError("failed to render chart", err)
		}
		if err := os.WriteFile(opts.chart, data, 0o644); err != nil {
			return fmt.Errorf("failed to write chart file: %w", err)
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	tag, err := language.Parse(opts.lang)
	if err != nil {
		return dberrors.ValidationError(fmt.Sprintf("unknown language %q", opts.lang), err)
	}
	return res.Format(cmd.OutOrStdout(), stats.NewPrinter(tag))
}

// loadStats computes statistics from a status file. A positive uptime
// overrides the file's Uptime variable.
func loadStats(path string, uptime int64) (stats.Result, error) {
	counters, fileUptime, err := stats.LoadStatus(path)
	if err != nil {
		return stats.Result{}, err
	}
	if uptime <= 0 {
		uptime = fileUptime
	}
	return stats.Compute(counters, uptime), nil
}
