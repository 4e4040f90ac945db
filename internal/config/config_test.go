package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"WEATHERBOT_CONFIG", "TELEGRAM_TOKEN", "WEATHER_API_KEY", "OPENWEATHER_BASE_URL",
		"CHART_DIR", "PORT", "WEATHER_RATE_LIMIT",
		"MAX_WORKERS", "HTTP_TIMEOUT", "HANDLER_TIMEOUT", "CHART_MAX_AGE", "JANITOR_INTERVAL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "tg")
	t.Setenv("WEATHER_API_KEY", "ow")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tg", cfg.TelegramToken)
	assert.Equal(t, "ow", cfg.OpenWeatherAPIKey)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.OpenWeatherBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Equal(t, "", cfg.Port)
}

func TestLoadFailsWithoutSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_API_KEY", "ow")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingSecret)
	assert.Contains(t, err.Error(), "TELEGRAM_TOKEN")

	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "tg")

	_, err = Load()
	assert.ErrorIs(t, err, ErrMissingSecret)
	assert.Contains(t, err.Error(), "WEATHER_API_KEY")
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "tg")
	t.Setenv("WEATHER_API_KEY", "ow")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("MAX_WORKERS", "4")
	t.Setenv("PORT", "8081")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 4, cfg.MaxWorkers)
	assert.Equal(t, "8081", cfg.Port)
}

func TestLoadInvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "tg")
	t.Setenv("WEATHER_API_KEY", "ow")
	t.Setenv("HANDLER_TIMEOUT", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "HANDLER_TIMEOUT")
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
openweather_base_url: http://localhost:9999/data/2.5
rate_limit: 30
http_timeout: 5s
chart_dir: ${CHARTS_HOME}/charts
`), 0o644))

	t.Setenv("CHARTS_HOME", dir)
	t.Setenv("WEATHERBOT_CONFIG", path)
	t.Setenv("TELEGRAM_TOKEN", "tg")
	t.Setenv("WEATHER_API_KEY", "ow")
	t.Setenv("WEATHER_RATE_LIMIT", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/data/2.5", cfg.OpenWeatherBaseURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, filepath.Join(dir, "charts"), cfg.ChartDir)
	// environment wins over the file
	assert.Equal(t, 10, cfg.RateLimit)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaults()
	cfg.TelegramToken = "tg"
	cfg.OpenWeatherAPIKey = "ow"
	require.NoError(t, cfg.Validate())

	cfg.MaxWorkers = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadYAMLRejectsUnitsAndLang(t *testing.T) {
	for _, body := range []string{"units: imperial\n", "lang: en\n"} {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bot.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		t.Setenv("WEATHERBOT_CONFIG", path)
		t.Setenv("TELEGRAM_TOKEN", "tg")
		t.Setenv("WEATHER_API_KEY", "ow")

		_, err := Load()
		assert.ErrorContains(t, err, "failed to parse yaml", "body %q", body)
	}
}

func TestLoadEmptyYAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	t.Setenv("WEATHERBOT_CONFIG", path)
	t.Setenv("TELEGRAM_TOKEN", "tg")
	t.Setenv("WEATHER_API_KEY", "ow")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.RateLimit)
}
