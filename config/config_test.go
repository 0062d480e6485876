package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "verify-me")
	t.Setenv("WHATSAPP_PHONE_ID", "12345")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := Get()
	if cfg.Port != "8003" {
		t.Errorf("expected default port 8003, got %s", cfg.Port)
	}
	if cfg.Relay.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.Relay.MaxRetries)
	}
	if cfg.Relay.RateLimitPerMin != 60 {
		t.Errorf("expected default rate limit 60, got %d", cfg.Relay.RateLimitPerMin)
	}
	if cfg.Relay.MessageTimeout != 30*time.Second {
		t.Errorf("expected default message timeout 30s, got %v", cfg.Relay.MessageTimeout)
	}
	if !cfg.Relay.EnableMedia {
		t.Error("media handling should default to enabled")
	}
}

func TestLoad_MissingVerifyToken(t *testing.T) {
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "")
	t.Setenv("WHATSAPP_PHONE_ID", "12345")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")

	if err := Load(); err == nil {
		t.Fatal("expected error for missing verify token")
	}
}

func TestLoad_TimeoutAsPlainSeconds(t *testing.T) {
	setRequiredEnv(t)
	// Old deployment scripts exported bare integers
	t.Setenv("MESSAGE_TIMEOUT", "45")
	t.Setenv("OPENCLAW_TIMEOUT", "90")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := Get()
	if cfg.Relay.MessageTimeout != 45*time.Second {
		t.Errorf("expected 45s, got %v", cfg.Relay.MessageTimeout)
	}
	if cfg.OpenClaw.Timeout != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.OpenClaw.Timeout)
	}
}

func TestLoad_OpenClawURLTrailingSlash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENCLAW_URL", "http://gateway:3000/")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := Get().OpenClaw.URL; got != "http://gateway:3000" {
		t.Errorf("expected trailing slash stripped, got %q", got)
	}
}

func TestLoad_CORSOrigins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://dashboard.example.com")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	origins := Get().Security.AllowedOrigins
	if len(origins) != 2 {
		t.Fatalf("expected 2 origins, got %d", len(origins))
	}
	if origins[1] != "https://dashboard.example.com" {
		t.Errorf("expected trimmed origin, got %q", origins[1])
	}
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-5")

	if err := Load(); err == nil {
		t.Fatal("expected error for negative rate limit")
	}
}
