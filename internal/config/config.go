// Package config handles loading and validating runtime configuration for the Club League API.
// Configuration values (like the database URL and API port) are read from environment variables
// rather than being hardcoded, so the same binary runs in dev, staging, and production
// with only the environment changing.
package config

import (
	"errors"
	"fmt"
	"time"
	// Embedded zone database so MATCH_TIMEZONE resolves in images without /usr/share/zoneinfo.
	_ "time/tzdata"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	"github.com/joho/godotenv"
	// envconfig maps environment variables onto struct fields using `envconfig` tags,
	// including parsing of durations and integers and applying defaults.
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`                         // TCP port the HTTP server listens on
	Env            string `envconfig:"ENV" default:"development"`                   // "development", "staging", or "production"
	DatabaseURL    string `envconfig:"DATABASE_URL"`                                // PostgreSQL connection string (required)
	JWTSecret      string `envconfig:"JWT_SECRET"`                                  // HS256 key used to verify bearer tokens (required)
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`                    // zerolog level name
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"` // golang-migrate source URL

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// Per-client request budget: RateLimitRequests requests per RateLimitWindow.
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"120"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Domain defaults.
	DefaultMatchIntervalDays int `envconfig:"DEFAULT_MATCH_INTERVAL_DAYS" default:"2"`
	LineupLockMinutes        int `envconfig:"LINEUP_LOCK_MINUTES" default:"30"`

	// MatchTimezone is the IANA zone a league's match_start_time is read in.
	// Load resolves it into MatchLocation.
	MatchTimezone string         `envconfig:"MATCH_TIMEZONE" default:"UTC"`
	MatchLocation *time.Location `ignored:"true"`
}

// Load reads configuration from environment variables and returns a populated Config.
// It first tries to load a .env file for local development; a missing file is fine
// because real environment variables are set by the deployment platform.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	// The empty prefix means keys are read exactly as written in the tags (PORT, not APP_PORT).
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.resolveLocation(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadForTools reads the same environment as Load but only insists on the
// database settings. Command-line tools never verify tokens or serve HTTP.
func LoadForTools() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if err := cfg.resolveLocation(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RateLimitRequests <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be positive"))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.DefaultMatchIntervalDays <= 0 {
		errs = append(errs, errors.New("DEFAULT_MATCH_INTERVAL_DAYS must be positive"))
	}
	if c.LineupLockMinutes < 0 {
		errs = append(errs, errors.New("LINEUP_LOCK_MINUTES must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) resolveLocation() error {
	loc, err := time.LoadLocation(c.MatchTimezone)
	if err != nil {
		return fmt.Errorf("MATCH_TIMEZONE: %w", err)
	}
	c.MatchLocation = loc
	return nil
}

// IsDevelopment reports whether the server runs in local development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
