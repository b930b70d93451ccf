package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoad_ValidConfig(t *testing.T) {
	configContent := `
env: test
upstream_api:
  base_url: "https://panel.example.com/api"
  timeoutapi: 10s
redis_connection:
  addressredis: "localhost:6379"
  password: "redis_pass"
  user: "redis_user"
  db: 1
  max_retries: 3
  dial_timeout: 5s
  timeoutredis: 10s
http_server:
  addresshttp: ":8080"
  timeouthttp: 30s
  idle_timeout: 60s
session:
  cookie_name: "console_session"
  session_ttl: 720h
  secure: true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg := MustLoad()

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "https://panel.example.com/api", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.TimeoutAPI)
	assert.Equal(t, "localhost:6379", cfg.AddressRedis)
	assert.Equal(t, 1, cfg.DB)
	assert.Equal(t, ":8080", cfg.AddressHTTP)
	assert.Equal(t, "console_session", cfg.CookieName)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.Secure)
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{
		Env: "dev",
		UpstreamAPI: UpstreamAPI{
			BaseURL: "https://panel.example.com/api",
		},
		Session: Session{
			CookieName: "console_session",
		},
	}

	out := cfg.String()

	assert.Contains(t, out, "Env: dev")
	assert.Contains(t, out, "BaseURL: https://panel.example.com/api")
	assert.Contains(t, out, "CookieName: console_session")
}
