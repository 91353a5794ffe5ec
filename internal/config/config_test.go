package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
  path: data/test.db
jwt:
  secret: short
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Server.Mode != "debug" {
		t.Fatalf("server defaults = %+v", cfg.Server)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.Path != "data/test.db" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.RateLimit.MaxRequests != 600 || cfg.RateLimit.Window() != time.Minute {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Quiz.LockTTL() != 10*time.Second {
		t.Fatalf("lock ttl = %v, want 10s", cfg.Quiz.LockTTL())
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: mysql
`)
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("driver = %q, want sqlite from env", cfg.Database.Driver)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port = %q, want 9090 from env", cfg.Server.Port)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: oracle
`)
	_, err := LoadConfig(dir)
	if err == nil || !strings.Contains(err.Error(), "oracle") {
		t.Fatalf("error = %v, want unsupported driver", err)
	}
}

func TestLoadConfigReleaseRequiresStrongSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
`)
	if _, err := LoadConfig(dir); err == nil {
		t.Fatalf("expected weak secret to be rejected in release mode")
	}

	dir = writeConfig(t, `
server:
  mode: release
jwt:
  secret: 0123456789abcdef0123456789abcdef
`)
	if _, err := LoadConfig(dir); err != nil {
		t.Fatalf("LoadConfig with strong secret: %v", err)
	}
}

func TestDurationsFallBack(t *testing.T) {
	if got := (QuizConfig{LockTTLSeconds: 3}).LockTTL(); got != 3*time.Second {
		t.Fatalf("LockTTL = %v", got)
	}
	if got := (RateLimitConfig{WindowMinutes: 0}).Window(); got != time.Minute {
		t.Fatalf("Window = %v", got)
	}
}
