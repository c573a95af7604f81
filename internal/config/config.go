package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultJWTSecret = "your-super-secret-key-change-in-production"

// Config holds runtime configuration for the API and the CLI tools.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	AppName  string `envconfig:"APP_NAME" default:"Warehouse Ledger v1.0"`
	Port     string `envconfig:"PORT" default:"3000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"inventory"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBTimeZone  string `envconfig:"DB_TIMEZONE" default:"UTC"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"inventory.db"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"5s"`

	LedgerMaxAttempts int `envconfig:"LEDGER_MAX_ATTEMPTS" default:"3"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"your-super-secret-key-change-in-production"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	SeedAdminEmail      string `envconfig:"SEED_ADMIN_EMAIL" default:"admin@inventory.com"`
	SeedAdminPassword   string `envconfig:"SEED_ADMIN_PASSWORD" default:"password"`
	SeedManagerEmail    string `envconfig:"SEED_MANAGER_EMAIL" default:"manager@inventory.com"`
	SeedManagerPassword string `envconfig:"SEED_MANAGER_PASSWORD" default:"password"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.LedgerMaxAttempts < 1 {
		return errors.New("LEDGER_MAX_ATTEMPTS must be at least 1")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// PostgresDSN builds the connection string, preferring DATABASE_URL.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimeZone,
	)
}
