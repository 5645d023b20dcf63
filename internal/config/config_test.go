package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ACCORD_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.DB.Driver)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, time.UTC, cfg.Location())
	require.Equal(t, time.Hour, cfg.Scheduler.Interval.Std())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  request_timeout: 10s
db:
  driver: postgres
  dsn: postgres://localhost/accord
calendar:
  timezone: America/New_York
contracts:
  allow_solo: true
`), 0o644))

	t.Setenv("ACCORD_CONFIG_PATH", path)
	t.Setenv("ACCORD_SERVER_PORT", "9100")
	t.Setenv("ACCORD_LOG_LEVEL", "debug")
	t.Setenv("ACCORD_RATE_LIMIT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, 10*time.Second, cfg.Server.RequestTimeout.Std())
	require.Equal(t, "postgres", cfg.DB.Driver)
	require.Equal(t, "postgres://localhost/accord", cfg.DB.DSN)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Contracts.AllowSolo)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, "America/New_York", cfg.Location().String())
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ACCORD_SERVER_PORT", "eighty")
	_, err := Load()
	require.ErrorContains(t, err, "ACCORD_SERVER_PORT")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Transport.Mode = "carrier-pigeon"
	cfg.Auth.Enabled = true
	cfg.Auth.Mode = "jwt"
	cfg.Calendar.Timezone = "Mars/Olympus"
	err := cfg.Validate()
	require.ErrorContains(t, err, "transport.mode")
	require.ErrorContains(t, err, "jwt_secret")
	require.ErrorContains(t, err, "calendar.timezone")

	cfg = Default()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Backend = "redis"
	require.ErrorContains(t, cfg.Validate(), "redis_addr")
}
