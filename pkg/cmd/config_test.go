package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/boxnow-labels/pkg/client"
	"github.com/Sternrassler/boxnow-labels/pkg/lock"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(&args{})
	require.NoError(t, err)

	assert.Equal(t, client.DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Listing.PageTimeout)
	assert.Equal(t, lock.DefaultTTL, cfg.Lock.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Lock.RedisAddr)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://localhost:9999
  timeout: 5s
auth:
  client_id: file-id
  client_secret: file-secret
output:
  root: /tmp/labels
log:
  level: debug
`)

	cfg, err := loadConfig(&args{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "file-id", cfg.Auth.ClientID)
	assert.Equal(t, "file-secret", cfg.Auth.ClientSecret)
	assert.Equal(t, "/tmp/labels", cfg.Output.Root)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_EnvAndFlags(t *testing.T) {
	path := writeConfig(t, "auth:\n  client_id: file-id\n")

	t.Setenv("BOXNOW_AUTH_CLIENT_SECRET", "env-secret")
	t.Setenv("BOXNOW_LOCK_REDIS_ADDR", "localhost:6379")

	cfg, err := loadConfig(&args{
		ConfigPath: path,
		ClientID:   "flag-id",
		LogLevel:   "warn",
		LogPretty:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "flag-id", cfg.Auth.ClientID)
	assert.Equal(t, "env-secret", cfg.Auth.ClientSecret)
	assert.Equal(t, "localhost:6379", cfg.Lock.RedisAddr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(&args{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
