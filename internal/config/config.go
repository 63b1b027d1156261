// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/zapponejosh/yearcal/internal/display"
	"github.com/zapponejosh/yearcal/internal/locale"
)

// Config holds all application configuration.
// Fields are populated from environment variables; CLI flags may override them.
type Config struct {
	// Server settings
	Port int    // HTTP port for serve mode
	Env  string // development, staging, production

	// Calendar defaults
	Locale      string // locale tag for month and weekday names
	StartingDay int    // 0 = Sunday ... 6 = Saturday
	WeekNumbers bool   // show the week number gutter
	Color       string // auto, always, never

	// Rate limiting (serve mode)
	RateLimitRPS   float64 // sustained requests per second per client
	RateLimitBurst int     // burst size per client
	TrustProxy     bool    // identify clients by X-Forwarded-For

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Load reads configuration from environment variables, after loading a .env
// file if present. Only the settings every command uses are validated here;
// serve checks its own with ValidateServer.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Calendar defaults
	cfg.Locale = getEnv("YEARCAL_LOCALE", locale.FromEnvironment())
	cfg.StartingDay = getEnvInt("YEARCAL_STARTING_DAY", 0)
	cfg.WeekNumbers = getEnvBool("YEARCAL_WEEK_NUMBERS", false)
	cfg.Color = getEnv("YEARCAL_COLOR", "auto")

	// Rate limiting
	cfg.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", 10)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 20)
	cfg.TrustProxy = getEnvBool("TRUST_PROXY", false)

	// Logging, JSON by default in production
	format := "text"
	if cfg.IsProduction() {
		format = "json"
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", format)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings shared by all commands.
func (c *Config) Validate() error {
	var errs []error

	// Validate environment
	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.StartingDay < 0 || c.StartingDay > 6 {
		errs = append(errs, fmt.Errorf("YEARCAL_STARTING_DAY must be between 0 (Sunday) and 6 (Saturday), got %d", c.StartingDay))
	}

	if _, err := display.ParseColorMode(c.Color); err != nil {
		errs = append(errs, fmt.Errorf("YEARCAL_COLOR: %w", err))
	}

	// Validate log level
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	// Validate log format
	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateServer checks the settings only serve mode uses.
func (c *Config) ValidateServer() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.RateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %g", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst))
	}

	return errors.Join(errs...)
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool reads an environment variable as a boolean with a default fallback.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvFloat reads an environment variable as a float with a default fallback.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
