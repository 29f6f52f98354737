package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	unsetEnv(t, "DB_PATH", "PARSE_WORKERS", "ORACLE_PROVIDER", "OPENAI_MODEL", "SERVER_ADDR", "LISTENER_MAIL_ENABLED", "IMAP_PORT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data", "consultants.db"), cfg.DBPath)
	assert.Equal(t, 1, cfg.ParseWorkers)
	assert.Equal(t, "gemini", cfg.OracleProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, ":5000", cfg.ServerAddr)
	assert.Equal(t, 993, cfg.IMAPPort)
	assert.False(t, cfg.ListenerMailEnabled)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	unsetEnv(t, "PROFILES_DIR")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("PARSE_WORKERS", "4")
	t.Setenv("IMAP_SECURE", "off")
	t.Setenv("LISTENER_INTERVAL_SEC", "not-a-number")
	t.Setenv("ORACLE_PROVIDER", "openai")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 4, cfg.ParseWorkers)
	assert.False(t, cfg.IMAPSecure)
	assert.Equal(t, 60, cfg.ListenerIntervalSec)
	assert.Equal(t, "openai", cfg.OracleProvider)
	assert.Equal(t, filepath.Join(dir, "profiles"), cfg.ProfilesDir)
}

func TestParseWorkersClamped(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PARSE_WORKERS", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.ParseWorkers)
}

func TestRequire(t *testing.T) {
	var cfg Config
	assert.NoError(t, cfg.Require("X", "value"))
	assert.EqualError(t, cfg.Require("GEMINI_API_KEY", "  "), "missing required env var: GEMINI_API_KEY")
}
