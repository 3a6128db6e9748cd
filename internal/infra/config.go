package infra

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"luckytwelve"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"luckytwelve"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"luckytwelve"`

	// Tokens
	AccessTokenSecret  string `env:"ACCESS_TOKEN_SECRET" envDefault:"change-me-in-production"`
	RefreshTokenSecret string `env:"REFRESH_TOKEN_SECRET" envDefault:"change-me-in-production"`
	AccessTokenExpiry  string `env:"ACCESS_TOKEN_EXPIRY" envDefault:"24h"`
	RefreshTokenExpiry string `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Barcode
	BarcodeSecret string `env:"BARCODE_SECRET" envDefault:"change-me-in-production"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3100"`

	// Scheduler. Disable in tests so round transitions and settlement can be
	// driven deterministically.
	SchedulerEnabled bool `env:"SCHEDULER_ENABLED" envDefault:"true"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	secrets := []struct {
		name  string
		value string
	}{
		{"ACCESS_TOKEN_SECRET", c.AccessTokenSecret},
		{"REFRESH_TOKEN_SECRET", c.RefreshTokenSecret},
		{"BARCODE_SECRET", c.BarcodeSecret},
	}
	for _, s := range secrets {
		if s.value == "change-me-in-production" {
			return fmt.Errorf("%s is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev", s.name)
		}
		if len(s.value) < 32 {
			return fmt.Errorf("%s is too short (%d chars); minimum 32 characters required", s.name, len(s.value))
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
