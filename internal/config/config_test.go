package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.ClickHouse.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "MOTOV Ad Server", cfg.Vast.AdSystemName)
	assert.Empty(t, cfg.Vast.TrackingBaseURL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VASTSERVE_HTTP_ADDR", ":9090")
	t.Setenv("VASTSERVE_ENV", "production")
	t.Setenv("VASTSERVE_DB_ENABLED", "true")
	t.Setenv("VASTSERVE_DB_PORT", "5433")
	t.Setenv("VASTSERVE_SHUTDOWN_TIMEOUT", "10s")
	t.Setenv("VASTSERVE_AUTH_SKIP_PATHS", "/health, /ads")
	t.Setenv("VASTSERVE_TRACKING_BASE_URL", "https://track.example.com/events")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"/health", "/ads"}, cfg.Auth.SkipPaths)
	assert.Equal(t, "https://track.example.com/events", cfg.Vast.TrackingBaseURL)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("VASTSERVE_DB_PORT", "not-a-number")
	t.Setenv("VASTSERVE_RATE_LIMIT_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestValidateAuthRequiresMasterKey(t *testing.T) {
	t.Setenv("VASTSERVE_AUTH_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VASTSERVE_API_KEY_MASTER")

	t.Setenv("VASTSERVE_API_KEY_MASTER", "secret")
	_, err = Load()
	assert.NoError(t, err)
}

func TestValidateTrackingBaseURL(t *testing.T) {
	t.Setenv("VASTSERVE_TRACKING_BASE_URL", "/events")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VASTSERVE_TRACKING_BASE_URL")
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db.internal", Port: 5432,
		User: "vastserve", Password: "pw",
		DBName: "vastserve", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://vastserve:pw@db.internal:5432/vastserve?sslmode=disable", d.DSN())
}
