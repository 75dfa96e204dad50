package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SOURCE_PROVIDER", "published")
	t.Setenv("STATE_KEY", "vaquero_state")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SourceProvider != "published" {
		t.Fatalf("provider=%q", cfg.SourceProvider)
	}
	if cfg.StateKey != "vaquero_state" {
		t.Fatalf("stateKey=%q", cfg.StateKey)
	}
	if cfg.SourceMaxAttempts <= 0 {
		t.Fatalf("maxAttempts=%d", cfg.SourceMaxAttempts)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SOURCE_RATE_LIMIT_RPS", "9")
	t.Setenv("SOURCE_TIMEOUT_MS", "not-a-number")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SourceRateLimitRPS != 9 {
		t.Fatalf("rps=%d", cfg.SourceRateLimitRPS)
	}
	if cfg.SourceTimeoutMs != 30000 {
		t.Fatalf("timeout fallback=%d", cfg.SourceTimeoutMs)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("format=%q", cfg.LogFormat)
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("SOURCE_URL", "  "); err == nil {
		t.Fatal("expected error for blank value")
	}
	if err := cfg.Require("SOURCE_URL", "https://example.test"); err != nil {
		t.Fatal(err)
	}
}
