package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Security
	AdminJWTSecret string `envconfig:"ADMIN_JWT_SECRET" required:"true"`

	// Webhook delivery
	RetryInterval       time.Duration `envconfig:"WEBHOOK_RETRY_INTERVAL" default:"5m"`
	MaxAttempts         int           `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"5"`
	BaseBackoff         time.Duration `envconfig:"WEBHOOK_BASE_BACKOFF" default:"30s"`
	MaxBackoff          time.Duration `envconfig:"WEBHOOK_MAX_BACKOFF" default:"1h"`
	BatchSize           int           `envconfig:"WEBHOOK_BATCH_SIZE" default:"50"`
	RequestTimeout      time.Duration `envconfig:"WEBHOOK_REQUEST_TIMEOUT" default:"10s"`
	DeliveryConcurrency int           `envconfig:"WEBHOOK_CONCURRENCY" default:"8"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
