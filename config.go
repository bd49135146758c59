package identity

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all environment-driven settings for the identity service.
// The signing key default is deliberately insecure and must be overridden
// outside of development.
type Config struct {
	Env          string `env:"APP_ENV" envDefault:"development"`
	SigningKey   string `env:"SIGNING_KEY" envDefault:"insecure-dev-signing-key"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"identity.db"`

	// CORSOrigin is the public origin of the frontend; OAuth redirect URIs
	// are derived from it.
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:3002"`

	GithubClientID     string `env:"GITHUB_CLIENT_ID"`
	GithubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":3002"`
}

// LoadConfig parses the configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Production reports whether the service runs with production hardening
// (secure cookies).
func (c *Config) Production() bool {
	return c.Env == "production"
}

// GoogleRedirectURL is the redirect URI registered with Google.
func (c *Config) GoogleRedirectURL() string {
	return c.CORSOrigin + "/auth/google"
}
