package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfig(t *testing.T) {
	xdg := isolate(t)
	configPath := filepath.Join(xdg, "dbadvisor", "config.yaml")

	t.Run("no config exists", func(t *testing.T) {
		backupPath, err := BackupUserConfig()
		require.NoError(t, err)
		assert.Empty(t, backupPath)
	})

	t.Run("backup existing config", func(t *testing.T) {
		content := "store: /etc/dbadmin/config.yaml\n"
		writeYAML(t, configPath, content)

		backupPath, err := BackupUserConfig()
		require.NoError(t, err)
		require.NotEmpty(t, backupPath)
		assert.True(t, filepath.IsAbs(backupPath))

		data, err := os.ReadFile(backupPath)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})
}

func TestListUserConfigBackups_NewestFirstAndPruned(t *testing.T) {
	// Given: several existing backups
	xdg := isolate(t)
	configPath := filepath.Join(xdg, "dbadvisor", "config.yaml")
	writeYAML(t, configPath, "version: 1\n")
	for _, ts := range []string{"20260101-000000.000", "20260102-000000.000", "20260103-000000.000"} {
		writeYAML(t, configPath+BackupSuffix+"."+ts, ts)
	}

	// When: taking one more backup
	newest, err := BackupUserConfig()
	require.NoError(t, err)

	// Then: only MaxBackups remain, newest first, the oldest is gone
	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	require.Len(t, backups, MaxBackups)
	assert.Equal(t, newest, backups[0])
	assert.NotContains(t, backups, configPath+BackupSuffix+".20260101-000000.000")
}

func TestListUserConfigBackups_NoDirectory(t *testing.T) {
	isolate(t)

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}
