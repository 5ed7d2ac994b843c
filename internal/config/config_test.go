package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadDefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".threadline", "config.yaml"), path)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	writeFile(t, filepath.Dir(path), "config.yaml", "instance: beehaw.org\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "beehaw.org", cfg.Instance)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
instance: lemmy.ml
strict_active: false
content_ttl: 90s
storage:
  driver: redis
  redis_addr: localhost:6379
  redis_db: 2
oauth:
  client_id: abc
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lemmy.ml", cfg.Instance)
	assert.False(t, cfg.StrictActive)
	assert.Equal(t, 90*time.Second, cfg.ContentTTL)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "localhost:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.Equal(t, "threadline", cfg.Storage.RedisPrefix, "unset fields keep defaults")
	assert.Equal(t, "abc", cfg.OAuth.ClientID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "instance: lemmy.ml\noauth:\n  user_agent: from-file\n")

	t.Setenv("THREADLINE_INSTANCE", "beehaw.org")
	t.Setenv("THREADLINE_STORAGE_DRIVER", "memory")
	t.Setenv("THREADLINE_STRICT_ACTIVE", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "beehaw.org", cfg.Instance)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.False(t, cfg.StrictActive)
	assert.Equal(t, "from-file", cfg.OAuth.UserAgent)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "THREADLINE_OAUTH_CLIENT_ID=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("THREADLINE_OAUTH_CLIENT_ID") })

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), envFile, filepath.Join(dir, "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.OAuth.ClientID)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown driver", content: "storage:\n  driver: etcd\n"},
		{name: "redis without addr", content: "storage:\n  driver: redis\n"},
		{name: "bad level", content: "log:\n  level: loud\n"},
		{name: "negative ttl", content: "content_ttl: -1s\n"},
		{name: "malformed yaml", content: "instance: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Instance = "programming.dev"
	cfg.ContentTTL = 5 * time.Minute
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
