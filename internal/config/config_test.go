package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("REFRESH_LEEWAY", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("want default port 8080, got %q", cfg.Port)
	}
	if cfg.DBDSN != "clothshop.db" || cfg.Postgres() {
		t.Fatalf("want sqlite default dsn, got %q", cfg.DBDSN)
	}
	if cfg.RefreshLeeway != 5*time.Minute || cfg.RefreshCheckInterval != time.Minute {
		t.Fatalf("unexpected refresh timings: %+v", cfg)
	}
	if cfg.APITimeout != 0 {
		t.Fatalf("api timeout should default to none, got %s", cfg.APITimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.shop.test/")
	t.Setenv("DB_DSN", "postgres://shop@localhost/shop")
	t.Setenv("REFRESH_LEEWAY", "90s")
	t.Setenv("API_TIMEOUT", "not-a-duration")

	cfg := Load()
	if cfg.APIBaseURL != "https://api.shop.test" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.APIBaseURL)
	}
	if !cfg.Postgres() {
		t.Fatal("postgres dsn not detected")
	}
	if cfg.RefreshLeeway != 90*time.Second {
		t.Fatalf("want 90s leeway, got %s", cfg.RefreshLeeway)
	}
	if cfg.APITimeout != 0 {
		t.Fatalf("invalid duration should fall back, got %s", cfg.APITimeout)
	}
}
