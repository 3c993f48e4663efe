package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                    int    `env:"PORT" envDefault:"8080"`
	DatabaseURL             string `env:"DATABASE_URL,required"`
	RedisURL                string `env:"REDIS_URL,required"`
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
	PairingCodeTTLHours     int    `env:"PAIRING_CODE_TTL_HOURS" envDefault:"24"`
	CodeRetentionHours      int    `env:"CODE_RETENTION_HOURS" envDefault:"168"`
	ValidateRateLimitPerMin int    `env:"VALIDATE_RATE_LIMIT_PER_MIN" envDefault:"20"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	NotifyTimeoutSeconds    int    `env:"NOTIFY_TIMEOUT_SECONDS" envDefault:"10"`
	MaxBodyBytes            int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	AppEnv                  string `env:"APP_ENV" envDefault:"development"`
}

func (c *Config) PairingCodeTTL() time.Duration {
	return time.Duration(c.PairingCodeTTLHours) * time.Hour
}

func (c *Config) CodeRetention() time.Duration {
	return time.Duration(c.CodeRetentionHours) * time.Hour
}

func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) PushEnabled() bool {
	return c.FirebaseCredentialsPath != ""
}

func (c *Config) Validate() error {
	if c.PairingCodeTTLHours <= 0 {
		return fmt.Errorf("PAIRING_CODE_TTL_HOURS must be positive, got %d", c.PairingCodeTTLHours)
	}
	if c.CodeRetentionHours < 0 {
		return fmt.Errorf("CODE_RETENTION_HOURS must not be negative, got %d", c.CodeRetentionHours)
	}
	if c.ValidateRateLimitPerMin <= 0 {
		return fmt.Errorf("VALIDATE_RATE_LIMIT_PER_MIN must be positive, got %d", c.ValidateRateLimitPerMin)
	}

	if c.FirebaseCredentialsPath == "" {
		log.Warn().Msg("FIREBASE_CREDENTIALS_PATH is empty: push alerts will only be logged")
	}
	if strings.HasPrefix(c.RedisURL, "redis://") && c.IsProduction() {
		log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
	}

	return nil
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
