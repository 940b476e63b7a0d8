package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all Cerbero-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL", "LISTEN_ADDR",
		"DB_DRIVER", "DATABASE_URL", "SQLITE_PATH",
		"JWT_SECRET",
		"COORDINATOR_BASE_URL", "COORDINATOR_INTERNAL_KEY", "COORDINATOR_TIMEOUT",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "FOUNDER_EMAILS",
		"EMAIL_WEBHOOK_URL",
		"REDIS_URL", "DEDUP_TTL",
		"RABBITMQ_URL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.CoordinatorTimeout)
	assert.Equal(t, 72*time.Hour, cfg.DedupTTL)
	assert.Empty(t, cfg.CoordinatorBaseURL)
	assert.Empty(t, cfg.FounderEmails)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("DB_DRIVER", "sqlite")
	os.Setenv("SQLITE_PATH", "/data/cerbero.db")
	os.Setenv("COORDINATOR_BASE_URL", "https://coordinator.internal")
	os.Setenv("COORDINATOR_TIMEOUT", "2s")
	os.Setenv("FOUNDER_EMAILS", "founder@example.com, second@example.com")
	os.Setenv("DEDUP_TTL", "24h")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/data/cerbero.db", cfg.SQLitePath)
	assert.Equal(t, "https://coordinator.internal", cfg.CoordinatorBaseURL)
	assert.Equal(t, 2*time.Second, cfg.CoordinatorTimeout)
	assert.Equal(t, "founder@example.com, second@example.com", cfg.FounderEmails)
	assert.Equal(t, 24*time.Hour, cfg.DedupTTL)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("COORDINATOR_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.CoordinatorTimeout)
}
