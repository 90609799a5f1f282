package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	// Supabase
	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseJWTSecret      string `env:"SUPABASE_JWT_SECRET"`
	SupabaseStorageBucket  string `env:"SUPABASE_STORAGE_BUCKET" env-default:"artwork-images"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// Stripe
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	// Printify
	PrintifyAPIToken      string `env:"PRINTIFY_API_TOKEN"`
	PrintifyShopID        string `env:"PRINTIFY_SHOP_ID"`
	PrintifyAPIBaseURL    string `env:"PRINTIFY_API_BASE_URL" env-default:"https://api.printify.com/v1"`
	PrintifyWebhookSecret string `env:"PRINTIFY_WEBHOOK_SECRET"`

	// fal.ai upscaler
	FalAPIKey      string        `env:"FAL_KEY"`
	FalBaseURL     string        `env:"FAL_BASE_URL" env-default:"https://fal.run"`
	UpscaleTimeout time.Duration `env:"UPSCALE_TIMEOUT" env-default:"5m"`

	// Redis, optional
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" env-default:"0"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" env-default:"720h"`
	LockTTL         time.Duration `env:"ORDER_LOCK_TTL" env-default:"10m"`

	// Kafka, optional
	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"pawpop.order-tasks"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" env-default:"pawpop-order-workers"`

	// Background jobs
	RetrySweepInterval       time.Duration `env:"RETRY_SWEEP_INTERVAL" env-default:"5m"`
	RetryWorkers             int           `env:"RETRY_WORKERS" env-default:"4"`
	RetryMaxAttempts         int           `env:"RETRY_MAX_ATTEMPTS" env-default:"5"`
	RetryBaseBackoff         time.Duration `env:"RETRY_BASE_BACKOFF" env-default:"1m"`
	RetryMaxBackoff          time.Duration `env:"RETRY_MAX_BACKOFF" env-default:"1h"`
	RetryStallWindow         time.Duration `env:"RETRY_STALL_WINDOW" env-default:"15m"`
	StaleOrderHours          int           `env:"STALE_ORDER_HOURS" env-default:"24"`
	StaleCleanupInterval     time.Duration `env:"STALE_CLEANUP_INTERVAL" env-default:"1h"`
	ReviewEscalationHours    int           `env:"REVIEW_ESCALATION_HOURS" env-default:"24"`
	ReviewEscalationInterval time.Duration `env:"REVIEW_ESCALATION_INTERVAL" env-default:"30m"`

	SupportEmail string `env:"SUPPORT_EMAIL" env-default:"support@pawpop.art"`

	// Server
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	BaseURL     string `env:"BASE_URL" env-default:"http://localhost:8080"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if c.PrintifyAPIToken == "" {
		return fmt.Errorf("PRINTIFY_API_TOKEN is required")
	}
	if c.PrintifyShopID == "" {
		return fmt.Errorf("PRINTIFY_SHOP_ID is required")
	}
	if c.FalAPIKey == "" {
		return fmt.Errorf("FAL_KEY is required")
	}
	if c.RetryWorkers < 1 {
		return fmt.Errorf("RETRY_WORKERS must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HumanReviewEnabled reads ENABLE_HUMAN_REVIEW on every call so the flag
// can be flipped without a restart.
func HumanReviewEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ENABLE_HUMAN_REVIEW"))) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
