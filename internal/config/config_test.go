package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("expected 30s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
	if cfg.RateLimitRequests != 120 || cfg.RateLimitWindow != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %d per %s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.DefaultMatchIntervalDays != 2 {
		t.Fatalf("expected interval 2, got %d", cfg.DefaultMatchIntervalDays)
	}
	if cfg.LineupLockMinutes != 30 {
		t.Fatalf("expected lineup lock 30, got %d", cfg.LineupLockMinutes)
	}
	if cfg.MigrationsPath != "file://migrations" {
		t.Fatalf("unexpected migrations path %q", cfg.MigrationsPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("expected 30s window, got %s", cfg.RateLimitWindow)
	}
}

func TestValidateRequiresSecrets(t *testing.T) {
	cfg := Config{RateLimitRequests: 1, RateLimitWindow: time.Second, DefaultMatchIntervalDays: 2}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected error to mention %s, got %v", key, err)
		}
	}
}

func TestLoadForToolsNeedsOnlyTheDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadForTools()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultMatchIntervalDays != 2 {
		t.Fatalf("expected defaults to apply, got interval %d", cfg.DefaultMatchIntervalDays)
	}

	t.Setenv("DATABASE_URL", "")
	if _, err := LoadForTools(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestLoadResolvesMatchTimezone(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MATCH_TIMEZONE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MatchLocation != time.UTC {
		t.Fatalf("expected UTC by default, got %v", cfg.MatchLocation)
	}

	t.Setenv("MATCH_TIMEZONE", "Europe/Madrid")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MatchLocation.String() != "Europe/Madrid" {
		t.Fatalf("expected Europe/Madrid, got %v", cfg.MatchLocation)
	}

	tools, err := LoadForTools()
	if err != nil {
		t.Fatalf("load for tools: %v", err)
	}
	if tools.MatchLocation.String() != "Europe/Madrid" {
		t.Fatalf("expected tools to resolve the same zone, got %v", tools.MatchLocation)
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MATCH_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "MATCH_TIMEZONE") {
		t.Fatalf("expected MATCH_TIMEZONE error, got %v", err)
	}
}

func TestIsDevelopmentFollowsEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league")
	t.Setenv("JWT_SECRET", "secret")

	t.Setenv("ENV", "development")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development mode")
	}

	t.Setenv("ENV", "production")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production mode")
	}
}
