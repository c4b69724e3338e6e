package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.SearchTTL != 5*time.Minute {
		t.Errorf("expected 5m search TTL, got %v", cfg.SearchTTL)
	}
	if cfg.MaxScrapers != 3 {
		t.Errorf("expected 3 scrapers, got %d", cfg.MaxScrapers)
	}
	if cfg.DefaultPincode != "411038" {
		t.Errorf("unexpected default pincode %s", cfg.DefaultPincode)
	}
	if !cfg.Headless {
		t.Error("expected headless by default")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("SEARCH_TTL_MINUTES", "10")
	t.Setenv("ETA_TTL_MINUTES", "-3")
	t.Setenv("MAX_SCRAPERS", "abc")
	t.Setenv("HEADLESS", "false")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8081" {
		t.Errorf("expected port 8081, got %s", cfg.Port)
	}
	if cfg.SearchTTL != 10*time.Minute {
		t.Errorf("expected 10m, got %v", cfg.SearchTTL)
	}
	if cfg.ETATTL != 5*time.Minute {
		t.Errorf("expected negative TTL to fall back to 5m, got %v", cfg.ETATTL)
	}
	if cfg.MaxScrapers != 3 {
		t.Errorf("expected invalid value to fall back to 3, got %d", cfg.MaxScrapers)
	}
	if cfg.Headless {
		t.Error("expected HEADLESS=false to be honoured")
	}
	if cfg.CacheBackend != "redis" {
		t.Errorf("expected redis backend, got %s", cfg.CacheBackend)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("expected 2.5 rps, got %v", cfg.RateLimitRPS)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
