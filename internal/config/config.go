package config

import (
	"time"

	"github.com/sqllens/sqllens/internal/core/backend"
)

// Config represents the complete application configuration.
// Values are layered: built-in defaults, then the user config file,
// then SQLLENS_* environment variables and flag overrides.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Backends BackendsConfig `mapstructure:"backends"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Health   HealthConfig   `mapstructure:"health"`
	Workers  int            `mapstructure:"workers"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	Path          string        `mapstructure:"path"`
	URL           string        `mapstructure:"url"`
	AuthToken     string        `mapstructure:"auth_token"`
	RetentionDays int           `mapstructure:"retention_days"`
	CleanupEvery  time.Duration `mapstructure:"cleanup_every"`
}

// BackendsConfig selects and configures the scoring backends.
type BackendsConfig struct {
	// Enabled lists the backends evaluations run against. An empty list
	// falls back to Default.
	Enabled []string `mapstructure:"enabled"`

	// Default is the backend used when no backends are enabled.
	Default string `mapstructure:"default"`

	// Timeout bounds a single backend evaluation. Zero disables the bound.
	Timeout time.Duration `mapstructure:"timeout"`

	OpenAI     backend.OpenAIConfig     `mapstructure:"openai"`
	OpenRouter backend.OpenRouterConfig `mapstructure:"openrouter"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether the /metrics endpoint is exposed
	Enabled bool `mapstructure:"enabled"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}
