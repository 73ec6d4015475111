package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_LocalExample(t *testing.T) {
	cfg, err := Load("local.yaml")
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 4*time.Second, cfg.Timeout)
	assert.Equal(t, int64(1000), cfg.MasterOrder.Quantity)
	assert.Equal(t, int64(100), cfg.Production.MonthlyTarget)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: s3cret\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.Address)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, "./data/production.db", cfg.Storage.Path)
	assert.Equal(t, int64(100), cfg.Production.MonthlyTarget)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: s3cret\nstorage:\n  driver: sqlite\n")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("MONTHLY_TARGET", "250")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, int64(250), cfg.Production.MonthlyTarget)
}

func TestLoad_Rejects(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "auth:\n  jwt_secret: s\nstorage:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "unknown storage driver")

	_, err = Load(writeConfig(t, "env: local\n"))
	assert.Error(t, err, "jwt_secret is required")
}
