package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

// isolate points the user config at an empty directory and clears env
// overrides.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, k := range []string{
		"DBADVISOR_STORE", "DBADVISOR_SESSION_GC_MAXLIFETIME", "DBADVISOR_LOG_LEVEL",
		"DBADVISOR_OUTPUT_FORMAT", "DBADVISOR_LISTEN",
	} {
		t.Setenv(k, "")
	}
	return xdg
}

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "", cfg.Store)
	assert.Equal(t, 1440, cfg.Host.SessionGCMaxLifetime)
	assert.Empty(t, cfg.Capabilities.Disabled)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "500ms", cfg.Watch.Debounce)
	assert.NoError(t, cfg.Validate())
}

func TestGetUserConfigPath_FollowsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "dbadvisor", "config.yaml"), GetUserConfigPath())
	assert.Equal(t, filepath.Join("/xdg", "dbadvisor"), GetUserConfigDir())
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	// Given: a user config, a project config and an env override
	xdg := isolate(t)
	writeYAML(t, filepath.Join(xdg, "dbadvisor", "config.yaml"), `
store: /etc/dbadmin/config.yaml
host:
  session_gc_max_lifetime: 3600
output:
  color: never
server:
  log_level: debug
`)
	project := t.TempDir()
	writeYAML(t, filepath.Join(project, ".dbadvisor.yaml"), `
store: sqlite:settings.db
capabilities:
  disabled: [bz2_read]
output:
  format: json
`)
	t.Setenv("DBADVISOR_LISTEN", "0.0.0.0:9000")

	// When: loading
	cfg, err := Load(project)
	require.NoError(t, err)

	// Then: later sources win, untouched fields keep earlier values
	assert.Equal(t, "sqlite:"+filepath.Join(project, "settings.db"), cfg.Store)
	assert.Equal(t, 3600, cfg.Host.SessionGCMaxLifetime)
	assert.Equal(t, []string{"bz2_read"}, cfg.Capabilities.Disabled)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, "never", cfg.Output.Color)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	project := t.TempDir()
	writeYAML(t, filepath.Join(project, ".dbadvisor.yml"), "store: /abs/config.yaml\n")

	cfg, err := Load(project)

	require.NoError(t, err)
	assert.Equal(t, "/abs/config.yaml", cfg.Store)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DBADVISOR_STORE", "file:/srv/x.yaml")
	t.Setenv("DBADVISOR_SESSION_GC_MAXLIFETIME", "7200")
	t.Setenv("DBADVISOR_LOG_LEVEL", "warn")
	t.Setenv("DBADVISOR_OUTPUT_FORMAT", "json")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "file:/srv/x.yaml", cfg.Store)
	assert.Equal(t, 7200, cfg.Host.SessionGCMaxLifetime)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		project string
		env     map[string]string
	}{
		{name: "invalid yaml", project: "store: [\n"},
		{name: "bad format", project: "output:\n  format: xml\n"},
		{name: "bad gc env", env: map[string]string{"DBADVISOR_SESSION_GC_MAXLIFETIME": "soon"}},
		{name: "unknown capability", project: "capabilities:\n  disabled: [lz4_read]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			project := t.TempDir()
			if tt.project != "" {
				writeYAML(t, filepath.Join(project, ".dbadvisor.yaml"), tt.project)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(project)

			require.Error(t, err)
			assert.Equal(t, dberrors.ErrCodeConfigInvalid, dberrors.GetCode(err))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero gc", func(c *Config) { c.Host.SessionGCMaxLifetime = 0 }, true},
		{"json upper case", func(c *Config) { c.Output.Format = "JSON" }, false},
		{"bad color", func(c *Config) { c.Output.Color = "rainbow" }, true},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "trace" }, true},
		{"empty listen", func(c *Config) { c.Server.Listen = "" }, true},
		{"negative uptime", func(c *Config) { c.Stats.UptimeSeconds = -1 }, true},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "soon" }, true},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = "-1s" }, true},
		{"known capability", func(c *Config) { c.Capabilities.Disabled = []string{"gz_write"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWatchDebounce(t *testing.T) {
	cfg := NewConfig()
	d, err := cfg.WatchDebounce()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)
}

func TestResolveStore(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"config.yaml", "/proj/config.yaml"},
		{"file:conf/x.yaml", "file:/proj/conf/x.yaml"},
		{"sqlite:db/settings.db", "sqlite:/proj/db/settings.db"},
		{"/etc/x.yaml", "/etc/x.yaml"},
		{"sqlite:/var/x.db", "sqlite:/var/x.db"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveStore(tt.uri, "/proj"))
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	// Given: a modified config
	isolate(t)
	cfg := NewConfig()
	cfg.Store = "/etc/dbadmin/config.yaml"
	cfg.Capabilities.Disabled = []string{"zip_write"}
	cfg.Stats.UptimeSeconds = 86400

	// When: writing it as the project file and loading it back
	project := t.TempDir()
	require.NoError(t, cfg.WriteYAML(filepath.Join(project, ProjectConfigFile)))
	loaded, err := Load(project)

	// Then: the values survive
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
