package database

import (
	"net/url"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg := Config{Name: "postbot", User: "bot", Password: "p@ss word"}
	require.NoError(t, cfg.Normalize())
	require.Equal(t, "localhost", cfg.Host)
	require.Equal(t, "5432", cfg.Port)
	require.Equal(t, "disable", cfg.SSLMode)
	require.Equal(t, 5, cfg.MaxConnections)

	u, err := url.Parse(cfg.DSN())
	require.NoError(t, err)
	require.Equal(t, "postgres", u.Scheme)
	require.Equal(t, "localhost:5432", u.Host)
	require.Equal(t, "/postbot", u.Path)
	pass, _ := u.User.Password()
	require.Equal(t, "p@ss word", pass)
	require.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestConfigURLTakesPrecedence(t *testing.T) {
	cfg := Config{URL: "postgres://u:p@db:6543/x?sslmode=require", Name: "ignored"}
	require.NoError(t, cfg.Normalize())
	require.Equal(t, cfg.URL, cfg.DSN())
}

func TestConfigRequiresName(t *testing.T) {
	cfg := Config{}
	require.Error(t, cfg.Normalize())
}

func TestMigrationFileAccounting(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_init.up.sql":    {Data: []byte("SELECT 1;")},
		"m/0001_init.down.sql":  {Data: []byte("SELECT 1;")},
		"m/0002_index.up.sql":   {Data: []byte("SELECT 1;")},
		"m/0003_caption.up.sql": {Data: []byte("SELECT 1;")},
		"m/README.md":           {Data: []byte("notes")},
	}
	files := listMigrationFiles(fsys, "m")
	require.Equal(t, []string{"0001_init.up.sql", "0002_index.up.sql", "0003_caption.up.sql"}, files)
	require.Equal(t, 2, countApplied(files, 1, 3))
	require.Equal(t, 0, countApplied(files, 3, 3))
	require.Equal(t, uint64(2), parseVersion("0002_index.up.sql"))
}
