package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("AUTO_MIGRATE", "")
	t.Setenv("TOKEN_RECHECK_SECONDS", "")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.RemoteTimeout != 10*time.Second {
		t.Fatalf("unexpected remote timeout %s", cfg.RemoteTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.TokenRecheck != 15*time.Second {
		t.Fatalf("unexpected token recheck %s", cfg.TokenRecheck)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CAROUSEL_INTERVAL_SECONDS", "7")
	t.Setenv("SESSION_IDLE_TTL_SECONDS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("APP_ENV", "production")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.CarouselInterval != 7*time.Second {
		t.Fatalf("unexpected carousel interval %s", cfg.CarouselInterval)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("expected default idle ttl on bad input, got %s", cfg.SessionIdleTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.AutoMigrate || !cfg.Production() {
		t.Fatalf("expected auto migrate in production, got %+v", cfg)
	}
}
