package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the service configuration, read from the environment.
type Config struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":5200"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	GatewayToken   string `env:"GATEWAY_TOKEN"`
	BodyLimit      int    `env:"BODY_LIMIT" envDefault:"1048576"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	InventoryReportInterval time.Duration `env:"INVENTORY_REPORT_INTERVAL" envDefault:"1h"`
	LowStockThreshold       int           `env:"LOW_STOCK_THRESHOLD" envDefault:"5"`

	R2 R2Config
}

// R2Config points at the S3-compatible bucket inventory reports go to.
type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	Endpoint        string `env:"R2_ENDPOINT"`
}

// Enabled reports whether report uploads are configured.
func (c R2Config) Enabled() bool {
	return c.Bucket != ""
}

// EndpointURL is the explicit endpoint, or the account's R2 endpoint.
func (c R2Config) EndpointURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, reading environment variables directly")
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.BodyLimit <= 0 {
		return fmt.Errorf("BODY_LIMIT must be positive, got %d", c.BodyLimit)
	}
	if c.InventoryReportInterval < 0 {
		return fmt.Errorf("INVENTORY_REPORT_INTERVAL must not be negative")
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative")
	}
	if c.R2.Enabled() && c.R2.Endpoint == "" && c.R2.AccountID == "" {
		return fmt.Errorf("R2_BUCKET_NAME set without CLOUDFLARE_ACCOUNT_ID or R2_ENDPOINT")
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS and trims each entry.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
