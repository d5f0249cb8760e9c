package preflight

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dbadvisor/internal/capability"
	"github.com/Aman-CERP/dbadvisor/internal/configstore"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected bool
	}{
		{
			name:     "required pass is not critical",
			result:   CheckResult{Status: StatusPass, Required: true},
			expected: false,
		},
		{
			name:     "required fail is critical",
			result:   CheckResult{Status: StatusFail, Required: true},
			expected: true,
		},
		{
			name:     "optional fail is not critical",
			result:   CheckResult{Status: StatusFail, Required: false},
			expected: false,
		},
		{
			name:     "required warn is not critical",
			result:   CheckResult{Status: StatusWarn, Required: true},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsCritical())
		})
	}
}

func writeStore(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestChecker_CheckStore(t *testing.T) {
	t.Run("readable store with servers passes", func(t *testing.T) {
		// Given: a YAML store with two servers
		path := writeStore(t, "Servers:\n  - host: a\n  - host: b\n")

		// When: checking the store
		result := New().CheckStore(context.Background(), path)

		// Then: passes and reports the count
		assert.Equal(t, StatusPass, result.Status)
		assert.Equal(t, "2 server profile(s)", result.Message)
		assert.True(t, result.Required)
	})

	t.Run("store without servers warns", func(t *testing.T) {
		path := writeStore(t, "SaveDir: ''\n")

		result := New().CheckStore(context.Background(), path)

		assert.Equal(t, StatusWarn, result.Status)
		assert.False(t, result.IsCritical())
	})

	t.Run("missing store fails", func(t *testing.T) {
		result := New().CheckStore(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))

		assert.Equal(t, StatusFail, result.Status)
		assert.True(t, result.IsCritical())
	})

	t.Run("opener error fails", func(t *testing.T) {
		// Given: an opener that cannot reach the store
		checker := New(WithOpener(func(string) (configstore.Store, error) {
			return nil, errors.New("disk on fire")
		}))

		result := checker.CheckStore(context.Background(), "anything")

		assert.Equal(t, StatusFail, result.Status)
		assert.Contains(t, result.Message, "disk on fire")
	})
}

func TestChecker_CheckStoreWritable(t *testing.T) {
	t.Run("writable file passes", func(t *testing.T) {
		path := writeStore(t, "Servers: []\n")

		result := New().CheckStoreWritable("file:" + path)

		assert.Equal(t, StatusPass, result.Status)
	})

	t.Run("empty uri warns", func(t *testing.T) {
		result := New().CheckStoreWritable("")

		assert.Equal(t, StatusWarn, result.Status)
	})

	t.Run("read-only file warns", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("Skipping read-only test when running as root")
		}
		path := writeStore(t, "Servers: []\n")
		require.NoError(t, os.Chmod(path, 0o400))

		result := New().CheckStoreWritable(path)

		assert.Equal(t, StatusWarn, result.Status)
		assert.Contains(t, result.Message, "cannot be persisted")
	})
}

func TestChecker_CheckCapabilities(t *testing.T) {
	t.Run("all available passes", func(t *testing.T) {
		checker := New(WithProbe(capability.NewSet(capability.All()...)))

		result := checker.CheckCapabilities()

		assert.Equal(t, StatusPass, result.Status)
	})

	t.Run("default build lacks bzip2 writing", func(t *testing.T) {
		result := New().CheckCapabilities()

		assert.Equal(t, StatusWarn, result.Status)
		assert.Equal(t, "unavailable: bz2_write", result.Message)
	})

	t.Run("probe failure is critical", func(t *testing.T) {
		checker := New(WithProbe(capability.Func(func(string) (bool, error) {
			return false, errors.New("probe broke")
		})))

		result := checker.CheckCapabilities()

		assert.True(t, result.IsCritical())
		assert.Contains(t, result.Message, "probe broke")
	})
}

func TestChecker_CheckWritePermissions_Writable(t *testing.T) {
	// Given: a log directory that does not exist yet
	dir := filepath.Join(t.TempDir(), "logs")

	// When: checking write permissions
	result := New().CheckWritePermissions(dir)

	// Then: the directory is created and the check passes
	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, "log_dir", result.Name)
	assert.DirExists(t, dir)
}

func TestChecker_CheckWritePermissions_ReadOnly(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("Skipping read-only test when running as root")
	}

	tmpDir := t.TempDir()
	readOnlyDir := filepath.Join(tmpDir, "readonly")
	require.NoError(t, os.Mkdir(readOnlyDir, 0o555))
	defer func() { _ = os.Chmod(readOnlyDir, 0o755) }()

	result := New().CheckWritePermissions(readOnlyDir)

	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "permission denied")
}

func TestChecker_RunAll_ReturnsAllChecks(t *testing.T) {
	// Given: a valid store and log directory
	path := writeStore(t, "Servers:\n  - host: a\n")
	checker := New(WithLogDir(t.TempDir()))

	// When: running all checks
	results := checker.RunAll(context.Background(), path)

	// Then: every check is present in order
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"store", "store_writable", "capabilities", "log_dir", "disk_space"}, names)
	assert.False(t, checker.HasCriticalFailures(results))
}

func TestChecker_PrintResults(t *testing.T) {
	results := []CheckResult{
		{Name: "store", Status: StatusPass, Message: "1 server profile(s)", Required: true},
		{Name: "capabilities", Status: StatusWarn, Message: "unavailable: bz2_write", Details: "disable BZipDump"},
		{Name: "log_dir", Status: StatusFail, Message: "denied", Required: true},
	}

	buf := &bytes.Buffer{}
	checker := New(WithOutput(buf), WithVerbose(true))

	checker.PrintResults(results)

	out := buf.String()
	assert.Contains(t, out, "[PASS] store")
	assert.Contains(t, out, "[WARN] capabilities")
	assert.Contains(t, out, "[FAIL] log_dir")
	assert.Contains(t, out, "disable BZipDump")
	assert.Contains(t, out, "Status: FAILED")
	assert.Contains(t, out, "1 error(s)")
	assert.Contains(t, out, "1 warning(s)")
}

func TestChecker_SummaryStatus(t *testing.T) {
	checker := New()

	tests := []struct {
		name     string
		results  []CheckResult
		expected string
	}{
		{
			name:     "all pass",
			results:  []CheckResult{{Status: StatusPass}, {Status: StatusPass}},
			expected: "ready",
		},
		{
			name:     "with warnings",
			results:  []CheckResult{{Status: StatusPass}, {Status: StatusWarn}},
			expected: "ready_with_warnings",
		},
		{
			name:     "with critical failure",
			results:  []CheckResult{{Status: StatusPass}, {Status: StatusFail, Required: true}},
			expected: "failed",
		},
		{
			name:     "with optional failure",
			results:  []CheckResult{{Status: StatusPass}, {Status: StatusFail, Required: false}},
			expected: "ready_with_warnings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.SummaryStatus(tt.results))
		})
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "10.0 MB", formatBytes(MinDiskSpaceBytes))
}
