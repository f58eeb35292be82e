package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the voxlingua service.
// Environment variables are parsed from the VOXLINGUA_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"3030"`

	// Storage
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"voxlingua.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Quota
	DailyLimitSeconds int `envconfig:"DAILY_LIMIT_SECONDS" default:"300"`

	// Realtime speech service
	RealtimeAPIKey  string `envconfig:"REALTIME_API_KEY" default:""`
	RealtimeBaseURL string `envconfig:"REALTIME_BASE_URL" default:"https://api.openai.com"`
	RealtimeModel   string `envconfig:"REALTIME_MODEL" default:"gpt-4o-realtime-preview-2024-12-17"`
	RealtimeVoice   string `envconfig:"REALTIME_VOICE" default:"alloy"`
	TranscribeModel string `envconfig:"TRANSCRIBE_MODEL" default:"gpt-4o-mini-transcribe"`

	// Identity provider. AuthMode "static" accepts the fixed dev token and
	// is only meant for local development and tests.
	AuthMode    string `envconfig:"AUTH_MODE" default:"remote"`
	AuthBaseURL string `envconfig:"AUTH_BASE_URL" default:""`
	AuthAnonKey string `envconfig:"AUTH_ANON_KEY" default:""`

	// Conversation log
	LogDir string `envconfig:"LOG_DIR" default:"conversations"`
}

// ResolveDefaults validates driver and mode selections.
func (c *Config) ResolveDefaults() error {
	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}
	switch c.AuthMode {
	case "remote", "static":
	default:
		return fmt.Errorf("unsupported AUTH_MODE: %s", c.AuthMode)
	}
	if c.AuthMode == "remote" && c.AuthBaseURL == "" {
		return fmt.Errorf("AUTH_MODE=remote requires AUTH_BASE_URL")
	}
	if c.DailyLimitSeconds <= 0 {
		return fmt.Errorf("DAILY_LIMIT_SECONDS must be positive, got %d", c.DailyLimitSeconds)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: VOXLINGUA_HTTP_PORT, VOXLINGUA_REALTIME_API_KEY.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("VOXLINGUA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Str("auth_mode", cfg.AuthMode).
		Int("daily_limit_seconds", cfg.DailyLimitSeconds).
		Str("realtime_model", cfg.RealtimeModel).
		Bool("realtime_key_present", cfg.RealtimeAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:       EnvTesting,
		HTTPPort:          3030,
		DBDriver:          "sqlite",
		SQLitePath:        ":memory:",
		DailyLimitSeconds: 300,
		RealtimeAPIKey:    "test-key",
		RealtimeBaseURL:   "http://localhost:0",
		RealtimeModel:     "test-realtime-model",
		RealtimeVoice:     "alloy",
		TranscribeModel:   "test-transcribe-model",
		AuthMode:          "static",
		LogDir:            "conversations",
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
