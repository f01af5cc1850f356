// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"lantern/internal/crypto"
	"lantern/internal/series"
)

type Config struct {
	Port        string `env:"PORT,default=8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	// 32-byte AES key, hex encoded.
	EncryptionKey string `env:"ENCRYPTION_KEY"`
	AppEnv        string `env:"APP_ENV,default=production"`
	WeekStartName string `env:"WEEK_START,default=sunday"`

	StoreTimeout       time.Duration `env:"STORE_TIMEOUT,default=5s"`
	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS,default=10"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST,default=20"`
	StoryPurgeSchedule string        `env:"STORY_PURGE_SCHEDULE,default=@every 1h"`

	// Derived by validate.
	WeekStart time.Weekday
	Key       []byte
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv decodes and validates the current environment.
func FromEnv() (*Config, error) {
	var c Config
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is required")
	}
	key, err := crypto.ParseKey(c.EncryptionKey)
	if err != nil {
		return fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}
	c.Key = key

	ws, err := series.ParseWeekday(c.WeekStartName)
	if err != nil {
		return fmt.Errorf("WEEK_START: %w", err)
	}
	c.WeekStart = ws

	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func (c *Config) Development() bool { return c.AppEnv == "development" }

// UseMemoryStore reports whether no database is configured.
func (c *Config) UseMemoryStore() bool { return c.DatabaseURL == "" }
