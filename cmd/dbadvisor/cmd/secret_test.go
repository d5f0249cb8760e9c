package cmd

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dbadvisor/internal/cookiecrypt"
)

func TestSecretGenerate_Prints(t *testing.T) {
	isolate(t)

	out, err := run(t, "secret", "generate")

	require.NoError(t, err)
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, key, cookiecrypt.KeySize)
}

func TestSecretGenerate_ThenVerify(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", "blowfish_secret: short\nServers:\n  - host: a\n")

	// Given: a store with an invalid secret
	_, err := run(t, "secret", "verify", "--store", path)
	require.Error(t, err)
	assert.Contains(t, formatError(err), "is not a 32-byte key")

	// When: generating into the store
	out, err := run(t, "secret", "generate", "--store", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote a new 32-byte blowfish_secret")

	// Then: verification passes
	out, err = run(t, "secret", "verify", "--store", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is a valid 32-byte key")
}

func TestSecretGenerate_SQLiteStore(t *testing.T) {
	isolate(t)
	uri := "sqlite:" + writeFile(t, "settings.db", "")

	_, err := run(t, "secret", "generate", "--store", uri)
	require.NoError(t, err)

	out, err := run(t, "secret", "verify", "--store", uri)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}
