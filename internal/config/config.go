package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingSecret is returned when a required token is not configured.
var ErrMissingSecret = errors.New("required secret is not configured")

type AppConfig struct {
	// Secrets, only ever read from the environment.
	TelegramToken     string `yaml:"-"`
	OpenWeatherAPIKey string `yaml:"-"`

	OpenWeatherBaseURL string `yaml:"openweather_base_url" validate:"required,url"`

	// HTTPTimeout bounds every outbound weather API call.
	HTTPTimeout time.Duration `yaml:"http_timeout" validate:"gt=0"`
	// HandlerTimeout bounds the handling of one inbound message.
	HandlerTimeout time.Duration `yaml:"handler_timeout" validate:"gt=0"`
	// RateLimit is the weather API budget in requests per minute (0 = unlimited).
	RateLimit int `yaml:"rate_limit" validate:"gte=0"`
	// MaxWorkers caps how many sessions are handled at the same time.
	MaxWorkers int `yaml:"max_workers" validate:"gt=0"`

	// Chart artifacts and the janitor that removes leftovers.
	ChartDir        string        `yaml:"chart_dir" validate:"required"`
	ChartMaxAge     time.Duration `yaml:"chart_max_age" validate:"gt=0"`
	JanitorInterval time.Duration `yaml:"janitor_interval" validate:"gt=0"`

	// Port enables the HTTP API when set.
	Port string `yaml:"port" validate:"omitempty,numeric"`
}

// Load reads configuration from .env, an optional YAML file named by
// WEATHERBOT_CONFIG and the environment, in increasing precedence.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := defaults()

	if path := os.Getenv("WEATHERBOT_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.OpenWeatherAPIKey = os.Getenv("WEATHER_API_KEY")

	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", cfg.OpenWeatherBaseURL)
	cfg.ChartDir = getenvDefault("CHART_DIR", cfg.ChartDir)
	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.RateLimit = getenvInt("WEATHER_RATE_LIMIT", cfg.RateLimit)
	cfg.MaxWorkers = getenvInt("MAX_WORKERS", cfg.MaxWorkers)

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.HandlerTimeout, err = getenvDuration("HANDLER_TIMEOUT", cfg.HandlerTimeout); err != nil {
		return nil, err
	}
	if cfg.ChartMaxAge, err = getenvDuration("CHART_MAX_AGE", cfg.ChartMaxAge); err != nil {
		return nil, err
	}
	if cfg.JanitorInterval, err = getenvDuration("JANITOR_INTERVAL", cfg.JanitorInterval); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that both secrets are present and the rest is well formed.
func (c *AppConfig) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("%w: TELEGRAM_TOKEN", ErrMissingSecret)
	}
	if c.OpenWeatherAPIKey == "" {
		return fmt.Errorf("%w: WEATHER_API_KEY", ErrMissingSecret)
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func defaults() *AppConfig {
	return &AppConfig{
		OpenWeatherBaseURL: "https://api.openweathermap.org/data/2.5",
		HTTPTimeout:        10 * time.Second,
		HandlerTimeout:     30 * time.Second,
		RateLimit:          60,
		MaxWorkers:         16,
		ChartDir:           filepath.Join(os.TempDir(), "weather-bot-charts"),
		ChartMaxAge:        10 * time.Minute,
		JanitorInterval:    5 * time.Minute,
	}
}

// loadFile overlays a YAML file onto cfg. ${VAR} references are expanded
// and unknown keys are rejected.
func loadFile(path string, cfg *AppConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(raw))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
