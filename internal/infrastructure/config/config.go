package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server" json:"server"`
	Engine    EngineConfig    `yaml:"engine" toml:"engine" json:"engine"`
	Logging   LogConfig       `yaml:"logging" toml:"logging" json:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`
	Breaker   BreakerConfig   `yaml:"breaker" toml:"breaker" json:"breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string   `envconfig:"JSGATE_PORT" default:"8000" yaml:"port" toml:"port" json:"port"`
	Host            string   `envconfig:"JSGATE_HOST" default:"0.0.0.0" yaml:"host" toml:"host" json:"host"`
	ShutdownTimeout Duration `envconfig:"JSGATE_SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout" toml:"shutdown_timeout" json:"shutdown_timeout"`
	Gzip            bool     `envconfig:"JSGATE_GZIP" default:"true" yaml:"gzip" toml:"gzip" json:"gzip"`
}

// EngineConfig holds guest engine configuration.
type EngineConfig struct {
	// Preload holds glob patterns of scripts run against every fresh engine.
	Preload          []string `envconfig:"JSGATE_PRELOAD" yaml:"preload" toml:"preload" json:"preload"`
	DefaultTimeout   Duration `envconfig:"JSGATE_DEFAULT_TIMEOUT" default:"5s" yaml:"default_timeout" toml:"default_timeout" json:"default_timeout"`
	MaxTimeout       Duration `envconfig:"JSGATE_MAX_TIMEOUT" default:"60s" yaml:"max_timeout" toml:"max_timeout" json:"max_timeout"`
	MaxCallStackSize int      `envconfig:"JSGATE_MAX_CALL_STACK" default:"0" yaml:"max_call_stack" toml:"max_call_stack" json:"max_call_stack"`
	Console          bool     `envconfig:"JSGATE_CONSOLE" default:"true" yaml:"console" toml:"console" json:"console"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level" json:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development" json:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"rps" toml:"rps" json:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst" json:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled" json:"enabled"`
}

// BreakerConfig holds circuit breaker configuration. The breaker trips on
// consecutive evaluation timeouts.
type BreakerConfig struct {
	Enabled     bool     `envconfig:"BREAKER_ENABLED" default:"false" yaml:"enabled" toml:"enabled" json:"enabled"`
	MaxTimeouts uint32   `envconfig:"BREAKER_MAX_TIMEOUTS" default:"5" yaml:"max_timeouts" toml:"max_timeouts" json:"max_timeouts"`
	Cooldown    Duration `envconfig:"BREAKER_COOLDOWN" default:"30s" yaml:"cooldown" toml:"cooldown" json:"cooldown"`
}

// Duration is a time.Duration that reads and writes as "1.5s" in every
// supported source.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load loads configuration from environment variables, after merging any
// .env file in the working directory.
func Load() (*Config, error) {
	if err := LoadEnvFiles(".env"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadEnvFiles merges the named dotenv files into the process environment.
// Missing files are skipped; variables already set are not overridden.
func LoadEnvFiles(files ...string) error {
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Engine.DefaultTimeout.Duration < 0 || c.Engine.MaxTimeout.Duration < 0 {
		return fmt.Errorf("invalid config: timeouts must not be negative")
	}
	if c.Engine.MaxTimeout.Duration > 0 && c.Engine.DefaultTimeout.Duration > c.Engine.MaxTimeout.Duration {
		return fmt.Errorf("invalid config: default timeout %s exceeds max timeout %s",
			c.Engine.DefaultTimeout, c.Engine.MaxTimeout)
	}
	if c.Engine.MaxCallStackSize < 0 {
		return fmt.Errorf("invalid config: max call stack size must not be negative")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid config: rate limit must be positive when enabled")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: Duration{10 * time.Second},
			Gzip:            true,
		},
		Engine: EngineConfig{
			DefaultTimeout: Duration{5 * time.Second},
			MaxTimeout:     Duration{60 * time.Second},
			Console:        true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Breaker: BreakerConfig{
			Enabled:     false,
			MaxTimeouts: 5,
			Cooldown:    Duration{30 * time.Second},
		},
	}
}
