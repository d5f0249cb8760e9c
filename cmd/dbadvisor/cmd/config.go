package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/dbadvisor/configs"
	"github.com/Aman-CERP/dbadvisor/internal/config"
	"github.com/Aman-CERP/dbadvisor/internal/configstore"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
	"github.com/Aman-CERP/dbadvisor/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dbadvisor settings",
		Long: `Manage dbadvisor's own settings: the store to inspect, host values such as
the session lifetime, capabilities the host lacks, output and server options.

Settings precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/dbadvisor/config.yaml)
  3. Project config (.dbadvisor.yaml)
  4. Environment variables (DBADVISOR_*)`,
		Example: `  # Create user settings from template
  dbadvisor config init

  # Create .dbadvisor.yaml in the current directory
  dbadvisor config init --project

  # Show effective settings
  dbadvisor config show

  # Print user settings path
  dbadvisor config path

  # Copy a YAML store into SQLite
  dbadvisor config import config.yaml --to sqlite:/var/lib/dbadvisor/config.db`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigImportCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force   bool
		project bool
		catalog bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a settings file",
		Long: `Create the user settings file from a template.

The file is created at ~/.config/dbadvisor/config.yaml
(or $XDG_CONFIG_HOME/dbadvisor/config.yaml if XDG_CONFIG_HOME is set).

With --project, .dbadvisor.yaml is created in the current directory.
With --catalog, catalog.yaml listing every advisory text is created there.`,
		Example: `  # Create user settings
  dbadvisor config init

  # Upgrade existing user settings with new defaults
  dbadvisor config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case project:
				return writeTemplate(cmd, config.ProjectConfigFile, configs.ProjectConfigTemplate, force)
			case catalog:
				return writeTemplate(cmd, "catalog.yaml", configs.CatalogTemplate, force)
			}
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&project, "project", false, "Create .dbadvisor.yaml in the current directory")
	cmd.Flags().BoolVar(&catalog, "catalog", false, "Create catalog.yaml in the current directory")
	cmd.MarkFlagsMutuallyExclusive("project", "catalog")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective settings",
		Long: `Show the effective settings after merging all sources.

By default, shows the merged settings from:
  1. Hardcoded defaults
  2. User config (~/.config/dbadvisor/config.yaml)
  3. Project config (.dbadvisor.yaml)
  4. Environment variables`,
		Example: `  # Show merged settings
  dbadvisor config show

  # Show as JSON
  dbadvisor config show --json

  # Show only user settings
  dbadvisor config show --source user`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Settings source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user settings file path",
		Long:  `Print the path to the user settings file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}

func newConfigImportCmd() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "import <store.yaml>",
		Short: "Copy a YAML store into a SQLite store",
		Long: `Load a YAML configuration store and upsert every value into a SQLite store
in one transaction. Values already in the SQLite store under other paths are
kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigImport(cmd, args[0], to)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target store (sqlite:PATH)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runConfigImport(cmd *cobra.Command, from, to string) error {
	out := output.New(cmd.OutOrStdout())

	dbPath, ok := strings.CutPrefix(to, "sqlite:")
	if !ok || dbPath == "" {
		return dberrors.ValidationError(fmt.Sprintf("import target %q is not a SQLite store", to), nil).
			WithSuggestion("pass --to sqlite:PATH")
	}

	src, err := configstore.LoadFile(storePath(from))
	if err != nil {
		return err
	}
	dst, err := configstore.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer closeStore(dst)

	values := src.Snapshot()
	if err := dst.Import(cmd.Context(), values); err != nil {
		return dberrors.WriteError(fmt.Sprintf("failed to import into %s", dbPath), err)
	}
	servers, err := dst.ServerCount()
	if err != nil {
		return dberrors.StoreError(fmt.Sprintf("imported store %s is inconsistent", dbPath), err)
	}

	out.Successf("Imported %d settings (%d servers)", len(values), servers)
	out.Statusf("📁", "Store: %s", to)
	return nil
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())

	configPath := config.GetUserConfigPath()

	if config.UserConfigExists() {
		if !force {
			out.Warning("User settings already exist")
			out.Statusf("📁", "Location: %s", configPath)
			out.Newline()
			out.Status("💡", "Use --force to upgrade with new defaults (preserves your settings)")
			return nil
		}
		return runConfigUpgrade(out, configPath)
	}

	if err := os.MkdirAll(config.GetUserConfigDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created user settings")
	out.Statusf("📁", "Location: %s", configPath)
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Set store: to the configuration you want to inspect")
	out.Status("", "  2. List capabilities your host lacks")
	out.Status("", "  3. Run 'dbadvisor config show' to verify")

	return nil
}

// runConfigUpgrade backs up the user settings and rewrites them on top of
// the current defaults, so new options appear with their default values.
func runConfigUpgrade(out *output.Writer, configPath string) error {
	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return fmt.Errorf("failed to backup config: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read user config: %w", err)
	}
	cfg := config.NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse user config: %w", err)
	}
	if err := cfg.WriteYAML(configPath); err != nil {
		return fmt.Errorf("failed to write upgraded config: %w", err)
	}

	out.Success("Settings upgraded")
	out.Statusf("📁", "Location: %s", configPath)
	out.Statusf("💾", "Backup: %s", backupPath)
	out.Newline()
	out.Status("💡", "Your existing settings have been preserved")
	return nil
}

// writeTemplate writes content to name in the working directory.
func writeTemplate(cmd *cobra.Command, name, content string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	path := filepath.Join(cwd, name)

	if _, err := os.Stat(path); err == nil && !force {
		out.Warningf("%s already exists", name)
		out.Status("💡", "Use --force to overwrite it")
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	out.Successf("Created %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var cfg *config.Config
	var sourceDesc string

	switch source {
	case "merged":
		var err error
		cfg, err = loadSettings()
		if err != nil {
			return err
		}
		sourceDesc = "merged (defaults + user + project + env)"

	case "user":
		configPath := config.GetUserConfigPath()
		if !config.UserConfigExists() {
			out.Warning("No user settings file found")
			out.Statusf("📁", "Expected at: %s", configPath)
			out.Status("💡", "Run 'dbadvisor config init' to create one")
			return nil
		}
		parsed, err := readSettingsFile(configPath)
		if err != nil {
			return err
		}
		cfg = parsed
		sourceDesc = fmt.Sprintf("user (%s)", configPath)

	case "project":
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		configPath := config.ProjectConfigPath(cwd)
		if configPath == "" {
			out.Warning("No project settings file found")
			out.Statusf("📁", "Expected at: %s", filepath.Join(cwd, config.ProjectConfigFile))
			out.Status("💡", "Run 'dbadvisor config init --project' to create one")
			return nil
		}
		parsed, err := readSettingsFile(configPath)
		if err != nil {
			return err
		}
		cfg = parsed
		sourceDesc = fmt.Sprintf("project (%s)", configPath)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", source)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out.Statusf("📋", "Configuration source: %s", sourceDesc)
	out.Newline()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// readSettingsFile parses one settings file on top of the defaults.
func readSettingsFile(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg := config.NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}
