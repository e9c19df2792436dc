package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	// Challenge verification. An empty secret disables verification, which is
	// only acceptable in local development.
	BotVerifyURL    string `env:"BOT_VERIFY_URL" envDefault:"https://challenges.cloudflare.com/turnstile/v0/siteverify" validate:"required,url"`
	BotVerifySecret string `env:"BOT_VERIFY_SECRET"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	EncryptionKey string `env:"ENCRYPTION_KEY,required" validate:"required,len=32"`

	IPRateLimit    int `env:"IP_RATE_LIMIT" envDefault:"10" validate:"gt=0"`
	PhoneRateLimit int `env:"PHONE_RATE_LIMIT" envDefault:"3" validate:"gt=0"`

	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	TrackingTimeout time.Duration `env:"TRACKING_TIMEOUT" envDefault:"3s" validate:"gt=0"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	if c.TrackingTimeout > c.UpstreamTimeout {
		return fmt.Errorf("TRACKING_TIMEOUT must not exceed UPSTREAM_TIMEOUT")
	}

	return nil
}

// BotVerificationEnabled reports whether a verification secret is configured.
func (c *Config) BotVerificationEnabled() bool {
	return strings.TrimSpace(c.BotVerifySecret) != ""
}
