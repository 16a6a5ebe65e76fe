package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, EventsDriverNone, cfg.Events.Driver)
	assert.Equal(t, 256, cfg.WS.SendBuffer)
	assert.Equal(t, 54*time.Second, cfg.WS.PingPeriod)
	assert.Equal(t, 24*time.Hour, cfg.RTC.TokenTTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pphub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  node_id: hub-test
store:
  driver: memory
ws:
  send_buffer: 16
`), 0o600))

	t.Setenv("PPHUB_SERVER_HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hub-test", cfg.Server.NodeID)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 16, cfg.WS.SendBuffer)
	assert.Equal(t, ":9999", cfg.Server.HTTPAddr)
}

func TestValidateRejectsUnknownDrivers(t *testing.T) {
	t.Setenv("PPHUB_EVENTS_DRIVER", "carrier-pigeon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadSecretsFromEnv(t *testing.T) {
	t.Setenv("PPHUB_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("PPHUB_REDIS_ADDR", "redis:6379")
	t.Setenv("PPHUB_RTC_APP_ID", "app")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "app", cfg.RTC.AppID)
}
