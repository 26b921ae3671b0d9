// Package config loads the dashboard's runtime settings from the process
// environment, optionally seeded from a .env file in the working directory.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Development fallbacks. DefaultSecretKey is insecure and must be overridden
// outside local development.
const (
	DefaultSecretKey  = "a-very-secret-key-for-dev"
	DefaultAPIBaseURL = "http://localhost:8000"
)

// Config holds process-wide settings. It is read-only once Load returns.
type Config struct {
	SecretKey  string
	APIBaseURL string
	PublicURL  string

	DBPath string
	Host   string
	Port   string

	LogLevel  string
	LogFormat string

	SentryDSN   string
	Environment string

	SessionTimeoutMinutes int
	LoginMaxAttempts      int
	LoginBlockDuration    time.Duration
	CookieSecure          bool
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is the normal case in containers.
	_ = godotenv.Load()
	return FromViper(NewViper())
}

// NewViper returns a viper instance with every default registered and
// environment lookup enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("SECRET_KEY", DefaultSecretKey)
	v.SetDefault("API_BASE_URL", DefaultAPIBaseURL)
	v.SetDefault("AEGIS_PUBLIC_URL", "http://localhost:5000")
	v.SetDefault("AEGIS_DB_PATH", "./users.db")
	v.SetDefault("AEGIS_HOST", "0.0.0.0")
	v.SetDefault("AEGIS_PORT", "5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SESSION_TIMEOUT_MINUTES", 0)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 0)
	v.SetDefault("LOGIN_BLOCK_MINUTES", 15)
	v.SetDefault("COOKIE_SECURE", false)
	v.AutomaticEnv()
	return v
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		SecretKey:             v.GetString("SECRET_KEY"),
		APIBaseURL:            strings.TrimRight(strings.TrimSpace(v.GetString("API_BASE_URL")), "/"),
		PublicURL:             strings.TrimRight(strings.TrimSpace(v.GetString("AEGIS_PUBLIC_URL")), "/"),
		DBPath:                v.GetString("AEGIS_DB_PATH"),
		Host:                  v.GetString("AEGIS_HOST"),
		Port:                  v.GetString("AEGIS_PORT"),
		LogLevel:              strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:             strings.ToLower(v.GetString("LOG_FORMAT")),
		SentryDSN:             v.GetString("SENTRY_DSN"),
		Environment:           v.GetString("APP_ENV"),
		SessionTimeoutMinutes: v.GetInt("SESSION_TIMEOUT_MINUTES"),
		LoginMaxAttempts:      v.GetInt("LOGIN_MAX_ATTEMPTS"),
		LoginBlockDuration:    time.Duration(v.GetInt("LOGIN_BLOCK_MINUTES")) * time.Minute,
		CookieSecure:          v.GetBool("COOKIE_SECURE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY must not be empty")
	}
	for name, raw := range map[string]string{"API_BASE_URL": c.APIBaseURL, "AEGIS_PUBLIC_URL": c.PublicURL} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("invalid %s %q: want an absolute http(s) URL", name, raw)
		}
	}
	if c.DBPath == "" {
		return fmt.Errorf("AEGIS_DB_PATH must not be empty")
	}
	if c.SessionTimeoutMinutes < 0 {
		return fmt.Errorf("SESSION_TIMEOUT_MINUTES must be >= 0")
	}
	if c.LoginMaxAttempts < 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be >= 0")
	}
	return nil
}
