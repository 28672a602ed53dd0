package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file is created with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "monies.toml")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1", cfg.Address)
		assert.Equal(t, 4000, cfg.Port)
		assert.Equal(t, "memory", cfg.DBFile)
		assert.Equal(t, 10, cfg.DBMaxConns)
		assert.Equal(t, 5*time.Second, cfg.DBAcquireTimeout)

		_, err = os.Stat(path)
		assert.NoError(t, err, "config file should have been written")

		again, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, again)
	})

	t.Run("existing file is read", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "monies.toml")
		contents := "address = \"0.0.0.0\"\nport = 9000\ndb_file = \"ledger.db\"\n"
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Address)
		assert.Equal(t, 9000, cfg.Port)
		assert.Equal(t, "ledger.db", cfg.DBFile)
		// Unset keys fall back to defaults.
		assert.Equal(t, 10, cfg.DBMaxConns)
	})

	t.Run("invalid port is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "monies.toml")
		require.NoError(t, os.WriteFile(path, []byte("port = -1\n"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("malformed file is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "monies.toml")
		require.NoError(t, os.WriteFile(path, []byte("port = = 4000\n"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestConfig_Addr(t *testing.T) {
	cfg := &Config{Address: "127.0.0.1", Port: 4000}
	assert.Equal(t, "127.0.0.1:4000", cfg.Addr())
}
