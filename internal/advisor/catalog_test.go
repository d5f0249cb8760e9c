package advisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dbadvisor/internal/configstore"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

func TestDefaultCatalog_CoversEveryText(t *testing.T) {
	c := DefaultCatalog()
	ids := []string{
		TextArbitraryServer, TextSSL, TextAuthConfig, TextAllowNoPassword,
		TextSecretGenerated, TextDirectory, TextCookieValidityGC,
		TextCookieValidityMax, TextCookieStore, TextZipImport, TextZipExport,
		TextBZip, TextGZip,
	}
	for _, id := range ids {
		assert.NotEqual(t, id, c.Text(id), id)
	}
	assert.Equal(t, "Use SSL", c.Title("Servers/ssl"))
}

func TestMapCatalog_FallsBackToKey(t *testing.T) {
	c := &MapCatalog{}
	assert.Equal(t, "Servers/ssl", c.Title("Servers/ssl"))
	assert.Equal(t, "unknown", c.Text("unknown"))
}

func TestTitleKey(t *testing.T) {
	assert.Equal(t, "Servers/ssl", titleKey("Servers/12/ssl"))
	assert.Equal(t, "TempDir", titleKey("TempDir"))
	assert.Equal(t, "Servers/", titleKey("Servers/"))
}

func TestParseCatalog_Overlay(t *testing.T) {
	// Given: a catalog overriding one title and one text
	c, err := ParseCatalog([]byte(`
titles:
  Servers/ssl: Verschlüsselte Verbindung
texts:
  ZipDump_import: "Entpacken braucht ({functions})."
`))
	require.NoError(t, err)

	// When: running a pass with it
	a := newTestAdvisor(WithCatalog(c))
	store := configstore.NewMemoryStore(values{"Servers/1/host": str("db"), "Servers/1/auth_type": str("http")})
	report, err := a.Run(context.Background(), store)
	require.NoError(t, err)

	// Then: overridden entries are used, the rest keep the defaults
	require.Len(t, report.Advisories, 1)
	assert.Equal(t, "Verschlüsselte Verbindung (db)", report.Advisories[0].Title)
	assert.Equal(t, DefaultCatalog().Text(TextSSL), report.Advisories[0].Body)
	assert.Equal(t, "Entpacken braucht ({functions}).", c.Text(TextZipImport))
	assert.Equal(t, "GZip", c.Title("GZipDump"))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("texts:\n  ssl: Use TLS.\n"), 0o600))
	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "Use TLS.", c.Text(TextSSL))

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, dberrors.ErrCodeConfigInvalid, dberrors.GetCode(err))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("texts: [\n"), 0o600))
	_, err = LoadCatalog(bad)
	assert.Error(t, err)
}

func TestSeverity_Text(t *testing.T) {
	for _, s := range []Severity{Notice, Warning, Error} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back Severity
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	var s Severity
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
}
