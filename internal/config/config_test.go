package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv isolates a test from variables set on the host.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WEATHER_PROVIDER", "WEATHERSTACK_API_KEY", "WEATHERSTACK_BASE_URL",
		"WEATHERAPI_API_KEY", "WEATHERAPI_BASE_URL",
		"WIDGET_CITY", "WIDGET_BACKGROUND", "WIDGET_INTERVAL", "WIDGET_SEQUENCED",
		"HTTP_TIMEOUT", "FETCH_TIMEOUT", "PROVIDER_MAX_RETRIES",
		"STORE_BACKEND", "STORE_MAX_HISTORY", "STORE_MAX_AGE", "REDIS_ADDR",
		"PORT", "LOG_LEVEL", "ATTRIBUTE_RATE", "ATTRIBUTE_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHERSTACK_API_KEY", "secret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "weatherstack", cfg.Provider)
	assert.Equal(t, "secret", cfg.APIKey())
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 0, cfg.ProviderMaxRetries)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, 96, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Interval)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_PROVIDER", "WeatherAPI")
	t.Setenv("WEATHERAPI_API_KEY", "wa-key")
	t.Setenv("WEATHERAPI_BASE_URL", "http://localhost:9999/v1/current.json")
	t.Setenv("WIDGET_CITY", "Paris")
	t.Setenv("WIDGET_BACKGROUND", "#336699")
	t.Setenv("WIDGET_INTERVAL", "5")
	t.Setenv("WIDGET_SEQUENCED", "true")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("STORE_MAX_AGE", "90m")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "weatherapi", cfg.Provider)
	assert.Equal(t, "wa-key", cfg.APIKey())
	assert.Equal(t, "http://localhost:9999/v1/current.json", cfg.BaseURL())
	assert.Equal(t, "Paris", cfg.City)
	assert.Equal(t, "#336699", cfg.Background)
	assert.Equal(t, "5", cfg.Interval)
	assert.True(t, cfg.Sequenced)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, 90*time.Minute, cfg.StoreMaxAge)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yaml := "weatherstack:\n  api_key: from-file\nwidget:\n  city: Oslo\n  interval: \"15\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weather-box.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.APIKey())
	assert.Equal(t, "Oslo", cfg.City)
	assert.Equal(t, "15", cfg.Interval)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing api key", env: map[string]string{}},
		{name: "unknown provider", env: map[string]string{"WEATHER_PROVIDER": "darksky"}},
		{name: "bad duration", env: map[string]string{"STORE_MAX_AGE": "a day"}},
		{name: "redis without address", env: map[string]string{"STORE_BACKEND": "redis"}},
		{name: "non-numeric interval", env: map[string]string{"WIDGET_INTERVAL": "soon"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "chatty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.name != "missing api key" {
				t.Setenv("WEATHERSTACK_API_KEY", "secret")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger("chatty")
	assert.Error(t, err)
}
