package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.RateLimit.FreeDailyLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.RetryDelay)
	assert.Equal(t, 30*24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "session", cfg.Auth.SessionCookie)
	assert.Equal(t, 30*time.Second, cfg.Captioner.Timeout)
	assert.Equal(t, "@every 24h", cfg.Worker.CachePurgeSchedule)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: "9090"
rateLimit:
  freeDailyLimit: 3
captioner:
  model: test-model
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CAPTIONER_APIKEY", "sk-test")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.RateLimit.FreeDailyLimit)
	assert.Equal(t, "test-model", cfg.Captioner.Model)
	assert.Equal(t, "sk-test", cfg.Captioner.APIKey)
}
