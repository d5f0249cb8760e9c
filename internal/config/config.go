// Package config loads dbadvisor's own settings: where the inspected store
// lives, host values the advisor needs, output and server options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/dbadvisor/internal/capability"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

// Settings file names.
const (
	ProjectConfigFile    = ".dbadvisor.yaml"
	projectConfigFileAlt = ".dbadvisor.yml"
	userConfigFile       = "config.yaml"
	appDir               = "dbadvisor"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is dbadvisor's configuration.
type Config struct {
	Version int `yaml:"version"`

	// Store is the URI of the inspected configuration store:
	// a YAML path, "file:<path>" or "sqlite:<path>".
	Store string `yaml:"store"`

	// Catalog is an optional YAML file overriding advisory texts.
	Catalog string `yaml:"catalog,omitempty"`

	Host         HostConfig         `yaml:"host"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
	Output       OutputConfig       `yaml:"output"`
	Server       ServerConfig       `yaml:"server"`
	Stats        StatsConfig        `yaml:"stats"`
	Watch        WatchConfig        `yaml:"watch"`
}

// HostConfig holds values of the host the admin tool runs on.
type HostConfig struct {
	// SessionGCMaxLifetime is the host session garbage-collection max
	// lifetime in seconds.
	SessionGCMaxLifetime int `yaml:"session_gc_max_lifetime"`
}

// CapabilitiesConfig describes the real host's feature set.
type CapabilitiesConfig struct {
	// Disabled lists capabilities the host lacks, e.g. bz2_read.
	Disabled []string `yaml:"disabled,omitempty"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Format string `yaml:"format"` // text or json
	Color  string `yaml:"color"`  // auto, always or never
}

// ServerConfig controls the HTTP surface and logging.
type ServerConfig struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
}

// StatsConfig points at the query statistics source.
type StatsConfig struct {
	// Counters is a YAML or JSON file of counter name to value.
	Counters string `yaml:"counters,omitempty"`
	// UptimeSeconds is the server uptime the counters were collected over.
	UptimeSeconds int64 `yaml:"uptime_seconds,omitempty"`
}

// WatchConfig controls re-running on store changes.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Host: HostConfig{
			SessionGCMaxLifetime: 1440,
		},
		Output: OutputConfig{
			Format: FormatText,
			Color:  "auto",
		},
		Server: ServerConfig{
			Listen:   "127.0.0.1:8765",
			LogLevel: "info",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/dbadvisor/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/dbadvisor/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir, userConfigFile)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", appDir, userConfigFile)
	}
	return filepath.Join(home, ".config", appDir, userConfigFile)
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/dbadvisor/config.yaml)
//  3. Project config (.dbadvisor.yaml in dir)
//  4. Environment variables (DBADVISOR_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ProjectConfigPath returns the project settings file in dir, or "" when
// there is none.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectConfigFile, projectConfigFileAlt} {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

func (c *Config) loadFromDir(dir string) error {
	path := ProjectConfigPath(dir)
	if path == "" {
		return nil
	}
	if err := c.loadYAML(path); err != nil {
		return err
	}
	// A relative store in a project file is relative to that file.
	if c.Store != "" {
		c.Store = resolveStore(c.Store, filepath.Dir(path))
	}
	return nil
}

func resolveStore(uri, base string) string {
	scheme := ""
	path := uri
	for _, prefix := range []string{"sqlite:", "file:"} {
		if rest, ok := strings.CutPrefix(uri, prefix); ok {
			scheme, path = prefix, rest
			break
		}
	}
	if path == "" || filepath.IsAbs(path) {
		return uri
	}
	return scheme + filepath.Join(base, path)
}

// loadYAML overlays the non-zero values of the YAML file at path onto c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return dberrors.New(dberrors.ErrCodeConfigNotFound, fmt.Sprintf("failed to read config file %s", path), err).
			WithDetail("path", path)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return dberrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path).
			WithSuggestion("run 'dbadvisor config init --force' to regenerate it")
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Store != "" {
		c.Store = other.Store
	}
	if other.Catalog != "" {
		c.Catalog = other.Catalog
	}
	if other.Host.SessionGCMaxLifetime != 0 {
		c.Host.SessionGCMaxLifetime = other.Host.SessionGCMaxLifetime
	}
	if len(other.Capabilities.Disabled) > 0 {
		c.Capabilities.Disabled = append([]string{}, other.Capabilities.Disabled...)
	}
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.Color != "" {
		c.Output.Color = other.Output.Color
	}
	if other.Server.Listen != "" {
		c.Server.Listen = other.Server.Listen
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Stats.Counters != "" {
		c.Stats.Counters = other.Stats.Counters
	}
	if other.Stats.UptimeSeconds != 0 {
		c.Stats.UptimeSeconds = other.Stats.UptimeSeconds
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
}

// applyEnvOverrides applies DBADVISOR_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("DBADVISOR_STORE"); v != "" {
		c.Store = v
	}
	if v := os.Getenv("DBADVISOR_SESSION_GC_MAXLIFETIME"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return dberrors.ConfigError("DBADVISOR_SESSION_GC_MAXLIFETIME must be an integer", err).
				WithDetail("value", v)
		}
		c.Host.SessionGCMaxLifetime = n
	}
	if v := os.Getenv("DBADVISOR_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("DBADVISOR_OUTPUT_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("DBADVISOR_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Host.SessionGCMaxLifetime <= 0 {
		return dberrors.ConfigError(fmt.Sprintf("host.session_gc_max_lifetime must be positive, got %d", c.Host.SessionGCMaxLifetime), nil)
	}

	known := capability.All()
	for _, name := range c.Capabilities.Disabled {
		if !slices.Contains(known, name) {
			return dberrors.ConfigError(fmt.Sprintf("capabilities.disabled: unknown capability %q", name), nil).
				WithSuggestion("known capabilities: " + strings.Join(known, ", "))
		}
	}

	switch strings.ToLower(c.Output.Format) {
	case FormatText, FormatJSON:
	default:
		return dberrors.ConfigError(fmt.Sprintf("output.format must be 'text' or 'json', got %s", c.Output.Format), nil)
	}

	switch strings.ToLower(c.Output.Color) {
	case "auto", "always", "never":
	default:
		return dberrors.ConfigError(fmt.Sprintf("output.color must be 'auto', 'always' or 'never', got %s", c.Output.Color), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return dberrors.ConfigError(fmt.Sprintf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel), nil)
	}

	if c.Server.Listen == "" {
		return dberrors.ConfigError("server.listen must not be empty", nil)
	}

	if c.Stats.UptimeSeconds < 0 {
		return dberrors.ConfigError(fmt.Sprintf("stats.uptime_seconds must not be negative, got %d", c.Stats.UptimeSeconds), nil)
	}

	if _, err := c.WatchDebounce(); err != nil {
		return dberrors.ConfigError(fmt.Sprintf("watch.debounce is not a duration: %s", c.Watch.Debounce), err)
	}

	return nil
}

// WatchDebounce returns the parsed watch debounce interval.
func (c *Config) WatchDebounce() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
