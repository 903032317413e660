package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// devSecret keeps local development working without a configured secret.
// Outside development a missing JWT_SECRET is a fatal startup error.
const devSecret = "dev-secret-key"

// Config is the process configuration, loaded from the environment.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	Origin      string `env:"ORIGIN" envDefault:"http://localhost:5173"`
	Addr        string `env:"ADDR" envDefault:":8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`
}

// Development reports whether the process runs in development mode.
func (c Config) Development() bool { return c.Environment == "development" }

// Load parses and validates the environment. Validation failures here must
// abort startup; running without a database or signing secret is never safe.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		if !cfg.Development() {
			return Config{}, errors.New("JWT_SECRET must be set outside development")
		}
		cfg.JWTSecret = devSecret
	}
	return cfg, nil
}
