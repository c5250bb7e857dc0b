package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("EVENT_BUS_BACKEND", "")
	t.Setenv("TENANT_CACHE_TTL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("TENANT_PUBLIC_PREFIXES", "")
	t.Setenv("INTERNAL_API_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendNone, cfg.Events.Backend)
	assert.Equal(t, "default", cfg.Events.EventBusName)
	assert.Equal(t, "us-east-1", cfg.Events.AWSRegion)
	assert.Equal(t, 5*time.Minute, cfg.Tenant.CacheTTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Tenant.PublicPrefixes)
	assert.Empty(t, cfg.Auth.InternalSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("EVENT_BUS_BACKEND", "NATS")
	t.Setenv("TENANT_CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com,")
	t.Setenv("TENANT_PUBLIC_PREFIXES", "/api/webhooks, /api/docs")
	t.Setenv("INTERNAL_API_SECRET", "hook-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendNATS, cfg.Events.Backend)
	assert.Equal(t, 30*time.Second, cfg.Tenant.CacheTTL)
	assert.InDelta(t, 2.5, cfg.RateLimit.RPS, 0.0001)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"/api/webhooks", "/api/docs"}, cfg.Tenant.PublicPrefixes)
	assert.Equal(t, "hook-secret", cfg.Auth.InternalSecret)
}

func TestLoadInvalidInt(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
}

func TestValidate(t *testing.T) {
	cfg := &Config{Events: EventsConfig{Backend: BackendNone}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	cfg.Database.URL = "postgres://localhost/saas"
	cfg.Auth.Enabled = true
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.Auth.JWTSecret = "secret"
	require.NoError(t, cfg.Validate())

	cfg.Events.Backend = "kafka"
	require.Error(t, cfg.Validate())
}
