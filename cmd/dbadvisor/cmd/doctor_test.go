package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_JSON(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", "Servers:\n  - host: a\n")

	// When: diagnosing a readable store
	out, err := run(t, "doctor", "--store", path, "--json")

	// Then: the only warning is the missing bzip2 encoder
	require.NoError(t, err)
	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "ready_with_warnings", report.Status)
	require.Len(t, report.Checks, 5)
	assert.Equal(t, "store", report.Checks[0].Name)
	assert.Equal(t, "pass", report.Checks[0].Status)
	assert.Equal(t, "warn", report.Checks[2].Status)
}

func TestDoctorCmd_MissingStoreFails(t *testing.T) {
	isolate(t)

	out, err := run(t, "doctor", "--store", filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.Contains(t, out, "[FAIL] store")
	assert.Contains(t, out, "Status: FAILED")
}

func TestServeCmd_HasFlags(t *testing.T) {
	cmd := NewRootCmd()

	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	for _, name := range []string{"listen", "store", "watch"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), "missing --%s", name)
	}
}

func TestLogsCmd_NoLogFile(t *testing.T) {
	isolate(t)

	_, err := run(t, "logs")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log file found")
}
