package configstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SetGet(t *testing.T) {
	s := newTestSQLite(t)

	secret := string([]byte{0x00, 0xfe, 0x7f, 0x01})
	values := map[string]Value{
		"AllowArbitraryServer":      BoolValue(false),
		"LoginCookieValidity":       IntValue(7200),
		"TempDir":                   StringValue("/tmp"),
		"Servers/1/blowfish_secret": StringValue(secret),
		"Servers/1/verbose":         NullValue(),
	}
	for p, v := range values {
		require.NoError(t, s.Set(p, v))
	}

	for p, want := range values {
		t.Run(p, func(t *testing.T) {
			got, ok, err := s.Get(p)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}

	_, ok, err := s.Get("absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	s := newTestSQLite(t)

	require.NoError(t, s.Set("LoginCookieStore", IntValue(0)))
	require.NoError(t, s.Set("LoginCookieStore", StringValue("600")))

	v, _, err := s.Get("LoginCookieStore")
	require.NoError(t, err)
	assert.Equal(t, KindString, v.Kind())
	assert.Equal(t, int64(600), v.AsInt())
}

func TestSQLiteStore_ServerCountAndImport(t *testing.T) {
	s := newTestSQLite(t)

	require.NoError(t, s.Import(context.Background(), map[string]Value{
		"Servers/1/host": StringValue("a"),
		"Servers/2/host": StringValue("b"),
		"Servers/3/ssl":  BoolValue(true),
		"TempDir":        StringValue("/tmp"),
	}))

	n, err := s.ServerCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLiteStore_ServerCount_GapIsAnError(t *testing.T) {
	s := newTestSQLite(t)

	require.NoError(t, s.Import(context.Background(), map[string]Value{
		"Servers/1/host": StringValue("a"),
		"Servers/2/host": StringValue("b"),
		"Servers/4/host": StringValue("d"),
	}))

	_, err := s.ServerCount()
	require.ErrorIs(t, err, ErrServerGap)
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("Servers/1/host", StringValue("db")))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get("Servers/1/host")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "db", v.AsString())
}

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	writeFile(t, yamlPath, "TempDir: /tmp\n")

	s, err := Open("sqlite:" + filepath.Join(dir, "config.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.(*SQLiteStore).Close())

	s, err = Open("file:" + yamlPath)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(yamlPath)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open("")
	assert.Error(t, err)
}
