package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.yaml present

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 30, cfg.Auth.TokenTTLMinutes)
	assert.True(t, cfg.Auth.Enabled)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Empty(t, cfg.Auth.Secret, "secret has no default")
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REDLINE_AUTH_SECRET", "test-secret")
	t.Setenv("REDLINE_AUTH_ENABLED", "false")
	t.Setenv("REDLINE_RATE_LIMIT_DISABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-secret", cfg.Auth.Secret)
	assert.False(t, cfg.Auth.Enabled)
	assert.True(t, cfg.RateLimit.Disabled)
}

func TestValidateRejectsUnknownAlgorithm(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{Algorithm: "RS256"}}
	assert.Error(t, cfg.Validate())
}

func TestTokenTTLFallsBackToDefault(t *testing.T) {
	assert.Equal(t, 30*time.Minute, AuthConfig{}.TokenTTL())
	assert.Equal(t, 5*time.Minute, AuthConfig{TokenTTLMinutes: 5}.TokenTTL())
}
