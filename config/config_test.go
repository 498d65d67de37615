package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PV_TEST_KEY", "set")
	assert.Equal(t, "set", getEnv("PV_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", getEnv("PV_TEST_MISSING", "fallback"))
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("PV_TEST_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("PV_TEST_INT", 7))

	t.Setenv("PV_TEST_INT", "not a number")
	assert.Equal(t, 7, getEnvAsInt("PV_TEST_INT", 7))

	assert.Equal(t, 7, getEnvAsInt("PV_TEST_INT_MISSING", 7))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg := Load()
	assert.Equal(t, "8180", cfg.AppPort)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, filepath.Join(cfg.DataDir, "vault"), cfg.VaultDir)
	assert.Equal(t, 1000, cfg.FlushDelayMs)
	assert.Equal(t, 24, cfg.SessionTTLHours)
	assert.Empty(t, cfg.AppKey)
}

func TestLoad_FileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: \"9999\"\nvault_dir: /custom/vault\napp_key: from-file\n"), 0o644))
	t.Setenv("CONFIG_FILE", file)

	cfg := Load()
	assert.Equal(t, "9999", cfg.AppPort)
	assert.Equal(t, "/custom/vault", cfg.VaultDir)
	assert.Equal(t, "from-file", cfg.AppKey)

	// env vars win over the file
	t.Setenv("APP_PORT", "7777")
	t.Setenv("APP_KEY", "from-env")
	cfg = Load()
	assert.Equal(t, "7777", cfg.AppPort)
	assert.Equal(t, "from-env", cfg.AppKey)
}

func TestLoad_MalformedFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: [unclosed"), 0o644))
	t.Setenv("CONFIG_FILE", file)

	cfg := Load()
	assert.Equal(t, "8180", cfg.AppPort)
}
