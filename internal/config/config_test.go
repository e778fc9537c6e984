package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TWITTER_BEARER_TOKEN", "test-token")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.BearerToken)
	assert.True(t, cfg.FullArchiveEnabled)
	assert.Equal(t, 30, cfg.RequestsPerMinute)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 1500*time.Millisecond, cfg.BaseDelay)
	assert.Equal(t, 60*time.Second, cfg.MaxDelay)
	assert.Equal(t, 7, cfg.RecentWindowDays)
	assert.Equal(t, 180, cfg.RadiusDays)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("USE_SEARCH_ALL", "false")
	t.Setenv("REQUESTS_PER_MINUTE", "120")
	t.Setenv("RATE_LIMIT_MAX_RETRIES", "3")
	t.Setenv("RATE_LIMIT_BASE_DELAY_SECONDS", "0.5")
	t.Setenv("RATE_LIMIT_MAX_DELAY_SECONDS", "10")
	t.Setenv("RECENT_WINDOW_DAYS", "14")
	t.Setenv("WINDOW_RADIUS_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.FullArchiveEnabled)
	assert.Equal(t, 120, cfg.RequestsPerMinute)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.MaxDelay)
	assert.Equal(t, 14, cfg.RecentWindowDays)
	assert.Equal(t, 30, cfg.RadiusDays)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("TWITTER_BEARER_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TWITTER_BEARER_TOKEN")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero rpm", "REQUESTS_PER_MINUTE", "0"},
		{"zero retries", "RATE_LIMIT_MAX_RETRIES", "0"},
		{"zero recent window", "RECENT_WINDOW_DAYS", "0"},
		{"zero radius", "WINDOW_RADIUS_DAYS", "0"},
		{"non-numeric rpm", "REQUESTS_PER_MINUTE", "lots"},
		{"non-numeric delay", "RATE_LIMIT_BASE_DELAY_SECONDS", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MaxDelayBelowBase(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_BASE_DELAY_SECONDS", "30")
	t.Setenv("RATE_LIMIT_MAX_DELAY_SECONDS", "5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_MAX_DELAY_SECONDS")
}
