package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AQICN_TOKEN", "test-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "test-token", cfg.Providers.AQICNToken)
	assert.Equal(t, 10*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 14, cfg.Forecast.HorizonDays)
	assert.Equal(t, time.Hour, cfg.Forecast.CacheTTL)
	assert.Equal(t, "breathe-is-matter.com", cfg.Calendar.Host)
	assert.False(t, cfg.Observability.TracingEnabled)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("AQICN_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating configuration")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AQICN_TOKEN", "tok")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("FORECAST_HORIZON_DAYS", "7")
	t.Setenv("FORECAST_CACHE_TTL", "30m")
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("CALENDAR_HOST", "aqi.example.org")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Forecast.HorizonDays)
	assert.Equal(t, 30*time.Minute, cfg.Forecast.CacheTTL)
	assert.Equal(t, "gem", cfg.Providers.GeminiAPIKey)
	assert.Equal(t, "aqi.example.org", cfg.Calendar.Host)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("AQICN_TOKEN", "tok")
	t.Setenv("APP_ENV", "sandbox")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating configuration")
}

func TestLoad_InvalidHorizon(t *testing.T) {
	t.Setenv("AQICN_TOKEN", "tok")
	t.Setenv("FORECAST_HORIZON_DAYS", "0")

	_, err := Load()
	require.Error(t, err)
}
