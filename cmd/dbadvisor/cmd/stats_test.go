package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dbadvisor/internal/stats"
)

const statusFile = `Uptime: 3600
Com_select: 3000
Com_insert: 1000
Threads_connected: 4
`

func TestStatsCmd_Table(t *testing.T) {
	isolate(t)
	path := writeFile(t, "status.yaml", statusFile)

	out, err := run(t, "stats", "--counters", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Total 4,000 queries over 3,600 seconds")
	assert.Contains(t, out, "select")
	assert.Contains(t, out, "75.00%")
	assert.NotContains(t, out, "Threads")
}

func TestStatsCmd_JSONWithUptimeOverride(t *testing.T) {
	isolate(t)
	path := writeFile(t, "status.yaml", statusFile)

	out, err := run(t, "stats", "--counters", path, "--uptime", "7200", "--json")

	require.NoError(t, err)
	var res stats.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, int64(7200), res.Uptime)
	require.Len(t, res.Rows, 2)
	assert.InDelta(t, 1500.0, res.Rows[0].PerHour, 0.001)
}

func TestStatsCmd_WritesChart(t *testing.T) {
	isolate(t)
	path := writeFile(t, "status.yaml", statusFile)
	chart := filepath.Join(t.TempDir(), "chart.json")

	_, err := run(t, "stats", "--counters", path, "--chart", chart)
	require.NoError(t, err)

	data, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Contains(t, string(data), "select")
}

func TestStatsCmd_RequiresCounters(t *testing.T) {
	isolate(t)

	_, err := run(t, "stats")

	require.Error(t, err)
	assert.Contains(t, formatError(err), "no status variables file given")
}
