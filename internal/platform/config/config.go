// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Mailer) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Email Backends

const (
	// EmailBackendSMTP delivers mail over a real SMTP connection.
	EmailBackendSMTP = "smtp"

	// EmailBackendConsole writes mail to the process log. Development only.
	EmailBackendConsole = "console"
)

// # Configuration Schema

// Config holds all runtime configuration for the LaunchKit API server and worker.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`
	ProjectName string `env:"PROJECT_NAME" envDefault:"LaunchKit"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Token lifetimes
	AccessTokenTTLMinutes int `env:"ACCESS_TOKEN_TTL_MINUTES" envDefault:"5"`
	RefreshTokenTTLHours  int `env:"REFRESH_TOKEN_TTL_HOURS"  envDefault:"24"`
	ResetTokenTTLMinutes  int `env:"RESET_TOKEN_TTL_MINUTES"  envDefault:"60"`

	// Login throttling and lockout
	AuthThrottleRPM       int `env:"AUTH_THROTTLE_RPM"       envDefault:"5"`
	LockoutFailureLimit   int `env:"LOCKOUT_FAILURE_LIMIT"   envDefault:"10"`
	LockoutCooloffMinutes int `env:"LOCKOUT_COOLOFF_MINUTES" envDefault:"60"`

	// Outbound email
	EmailBackend     string   `env:"EMAIL_BACKEND"      envDefault:"console"`
	EmailHost        string   `env:"EMAIL_HOST"`
	EmailPort        int      `env:"EMAIL_PORT"         envDefault:"587"`
	EmailUser        string   `env:"EMAIL_HOST_USER"`
	EmailPassword    string   `env:"EMAIL_HOST_PASSWORD"`
	DefaultFromEmail string   `env:"DEFAULT_FROM_EMAIL" envDefault:"no-reply@launchkit.dev"`
	AdminEmails      []string `env:"ADMIN_EMAILS"       envSeparator:","`

	// FrontendURL is the SPA origin used to build password-reset links.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// Background worker
	WorkerCount int `env:"WORKER_COUNT" envDefault:"4"`

	// MetricsPort is where the worker binary exposes /metrics. The API
	// server serves its own /metrics on ServerPort.
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// DBConnWarnThreshold is the open-connection count above which the
	// periodic database health task emails the admins.
	DBConnWarnThreshold int `env:"DB_CONN_WARN_THRESHOLD" envDefault:"80"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.EmailBackend != EmailBackendSMTP && cfg.EmailBackend != EmailBackendConsole {
		return nil, fmt.Errorf("config: unknown EMAIL_BACKEND %q", cfg.EmailBackend)
	}

	return cfg, nil
}

// # Derived Durations

// AccessTokenTTL returns the access token lifetime as a [time.Duration].
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime as a [time.Duration].
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLHours) * time.Hour
}

// ResetTokenTTL returns the password-reset token lifetime as a [time.Duration].
func (c *Config) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenTTLMinutes) * time.Minute
}

// LockoutCooloff returns the login lockout window as a [time.Duration].
func (c *Config) LockoutCooloff() time.Duration {
	return time.Duration(c.LockoutCooloffMinutes) * time.Minute
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
