package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dbadvisor/internal/configstore"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
	"github.com/Aman-CERP/dbadvisor/internal/output"
)

func checkKeys(t *testing.T, uri string) []string {
	t.Helper()
	out, err := run(t, "check", "--store", uri, "--json")
	require.NoError(t, err)

	var doc output.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	keys := make([]string, 0, len(doc.Advisories))
	for _, a := range doc.Advisories {
		keys = append(keys, a.Key)
	}
	return keys
}

func TestConfigImport_SQLiteMatchesYAML(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", insecureStore)
	uri := "sqlite:" + filepath.Join(t.TempDir(), "config.db")

	// When: importing the YAML store into SQLite
	out, err := run(t, "config", "import", path, "--to", uri)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 5 settings (1 servers)")

	// Then: the SQLite store holds the values
	db, err := configstore.OpenSQLite(storePath(uri))
	require.NoError(t, err)
	v, ok, err := db.Get("Servers/1/auth_type")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cookie", v.AsString())
	require.NoError(t, db.Close())

	// And: checking either store gives the same advisories
	assert.Equal(t, checkKeys(t, path), checkKeys(t, uri))
}

func TestConfigImport_Rejections(t *testing.T) {
	isolate(t)
	good := writeFile(t, "config.yaml", insecureStore)
	gap := writeFile(t, "gap.yaml", "Servers:\n  1:\n    host: a\n  3:\n    host: c\n")
	db := "sqlite:" + filepath.Join(t.TempDir(), "config.db")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"target is not sqlite", []string{good, "--to", "other.yaml"}, dberrors.ErrCodeInvalidInput},
		{"empty sqlite path", []string{good, "--to", "sqlite:"}, dberrors.ErrCodeInvalidInput},
		{"server id gap", []string{gap, "--to", db}, dberrors.ErrCodeStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"config", "import"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.code, dberrors.GetCode(err))
		})
	}

	t.Run("missing --to", func(t *testing.T) {
		_, err := run(t, "config", "import", good)
		require.Error(t, err)
	})
}
