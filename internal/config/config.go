package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	StoreDriver    string        `mapstructure:"STORE_DRIVER"`
	MigrationsPath string        `mapstructure:"MIGRATIONS_PATH"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	Port           string        `mapstructure:"PORT"`
	PrometheusPort string        `mapstructure:"PROMETHEUS_PORT"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	TelegramToken  string        `mapstructure:"TELEGRAM_TOKEN"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisChannel   string        `mapstructure:"REDIS_CHANNEL"`
	PushWorkers    int           `mapstructure:"PUSH_WORKERS"`
	PushBuffer     int           `mapstructure:"PUSH_BUFFER"`
}

var defaults = map[string]any{
	"DATABASE_URL":    "",
	"STORE_DRIVER":    StoreDriverPostgres,
	"MIGRATIONS_PATH": "migrations",
	"LOG_LEVEL":       "info",
	"PORT":            "8080",
	"PROMETHEUS_PORT": "9090",
	"JWT_SECRET":      "",
	"TOKEN_TTL":       "30m",
	"TELEGRAM_TOKEN":  "",
	"REDIS_ADDR":      "",
	"REDIS_PASSWORD":  "",
	"REDIS_CHANNEL":   "listshare:notifications",
	"PUSH_WORKERS":    4,
	"PUSH_BUFFER":     256,
}

// Load loads configuration from a .env file, when present, and environment variables
func Load() (*Config, error) {
	// Missing .env is fine, the environment alone is enough
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.PushWorkers < 1 {
		return fmt.Errorf("PUSH_WORKERS must be at least 1")
	}
	if c.PushBuffer < 1 {
		return fmt.Errorf("PUSH_BUFFER must be at least 1")
	}
	return nil
}

// TelegramEnabled returns true if the notification mirror bot should run
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// RedisEnabled returns true if pushes go through Redis pub/sub
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}
