// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Addr   string `env:"ADDR"    envDefault:":8080"`
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	StoreDriver  string        `env:"STORE_DRIVER"   envDefault:"memory"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	SQLitePath   string        `env:"SQLITE_PATH"    envDefault:"koerperwerte.db"`
	RedisURL     string        `env:"REDIS_URL"`
	GroupLockTTL time.Duration `env:"GROUP_LOCK_TTL" envDefault:"5s"`

	DefaultGroup    string `env:"DEFAULT_GROUP"     envDefault:"public_koerperwerte_group"`
	SeedEmptyGroups bool   `env:"SEED_EMPTY_GROUPS" envDefault:"false"`
	Timezone        string `env:"TIMEZONE"          envDefault:"Local"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	SessionTTL       time.Duration `env:"SESSION_TTL"        envDefault:"24h"`
	TrustForwardAuth bool          `env:"TRUST_FORWARD_AUTH" envDefault:"false"`

	OIDCIssuer       string `env:"OIDC_ISSUER"`
	OIDCClientID     string `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `env:"OIDC_REDIRECT_URL"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.StoreDriver == DriverSQLite && strings.TrimSpace(c.SQLitePath) == "" {
		errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
	}
	if strings.TrimSpace(c.DefaultGroup) == "" {
		errs = append(errs, errors.New("DEFAULT_GROUP must not be empty"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err))
	}
	if c.GroupLockTTL <= 0 {
		errs = append(errs, errors.New("GROUP_LOCK_TTL must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}

	if c.OIDCIssuer != "" || c.OIDCClientID != "" || c.OIDCClientSecret != "" || c.OIDCRedirectURL != "" {
		if c.OIDCIssuer == "" || c.OIDCClientID == "" || c.OIDCRedirectURL == "" {
			errs = append(errs, errors.New("OIDC_ISSUER, OIDC_CLIENT_ID and OIDC_REDIRECT_URL must be set together"))
		}
	}

	return errors.Join(errs...)
}

// Location returns the configured time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SSOEnabled reports whether an OIDC provider is configured.
func (c *Config) SSOEnabled() bool {
	return c.OIDCIssuer != ""
}
