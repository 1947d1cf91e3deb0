package config

import (
	"errors"
	"testing"

	"github.com/knadh/koanf/v2"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %q", cfg.LogLevel)
	}
	if cfg.CacheSize != 1000 {
		t.Errorf("expected CacheSize=1000, got %d", cfg.CacheSize)
	}
	if cfg.CacheFile != "filters_cache.txt" {
		t.Errorf("expected CacheFile=filters_cache.txt, got %q", cfg.CacheFile)
	}
	if cfg.CacheTTLHours != 24 {
		t.Errorf("expected CacheTTLHours=24, got %d", cfg.CacheTTLHours)
	}
	if cfg.FetchTimeoutSeconds != 10 {
		t.Errorf("expected FetchTimeoutSeconds=10, got %d", cfg.FetchTimeoutSeconds)
	}
	if len(cfg.Sources) != 4 {
		t.Errorf("expected 4 default sources, got %d: %v", len(cfg.Sources), cfg.Sources)
	}
	if cfg.DisableCache {
		t.Errorf("expected DisableCache=false by default")
	}
	if cfg.MetaDB != "" {
		t.Errorf("expected MetaDB empty by default, got %q", cfg.MetaDB)
	}
	if cfg.UpgradeHTTPS {
		t.Errorf("expected UpgradeHTTPS=false by default")
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("SHIELD_ENV", "dev")
	t.Setenv("SHIELD_LOG_LEVEL", "debug")
	t.Setenv("SHIELD_CACHE_SIZE", "500")
	t.Setenv("SHIELD_CACHE_TTL_HOURS", "48")
	t.Setenv("SHIELD_SOURCES", "https://one.test/list.txt,https://two.test/list.txt")
	t.Setenv("SHIELD_OVERRIDES", "tracker.evil doubleclick")
	t.Setenv("SHIELD_UPGRADE_HTTPS", "true")
	t.Setenv("SHIELD_DISABLE_CACHE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" {
		t.Errorf("expected Env=dev, got %q", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %q", cfg.LogLevel)
	}
	if cfg.CacheSize != 500 {
		t.Errorf("expected CacheSize=500, got %d", cfg.CacheSize)
	}
	if cfg.CacheTTLHours != 48 {
		t.Errorf("expected CacheTTLHours=48, got %d", cfg.CacheTTLHours)
	}
	wantSources := []string{"https://one.test/list.txt", "https://two.test/list.txt"}
	if len(cfg.Sources) != len(wantSources) {
		t.Fatalf("expected %d sources, got %d", len(wantSources), len(cfg.Sources))
	}
	for i, want := range wantSources {
		if cfg.Sources[i] != want {
			t.Errorf("expected Sources[%d]=%q, got %q", i, want, cfg.Sources[i])
		}
	}
	if len(cfg.Overrides) != 2 {
		t.Errorf("expected 2 overrides, got %v", cfg.Overrides)
	}
	if !cfg.UpgradeHTTPS {
		t.Errorf("expected UpgradeHTTPS=true")
	}
	if !cfg.DisableCache {
		t.Errorf("expected DisableCache=true")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("SHIELD_LOG_LEVEL", "silly")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for invalid log level")
	}
}

func TestLoad_InvalidSourceURL(t *testing.T) {
	t.Setenv("SHIELD_SOURCES", "not-a-url")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for non-http source")
	}
}

func TestLoad_EnvLoaderError(t *testing.T) {
	original := envLoader
	envLoader = func(k *koanf.Koanf) error {
		return errors.New("env load error")
	}
	defer func() { envLoader = original }()

	if _, err := Load(); err == nil {
		t.Fatalf("expected error from env loader")
	}
}

func TestLoad_DefaultLoaderError(t *testing.T) {
	original := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error {
		return errors.New("default load error")
	}
	defer func() { defaultLoader = original }()

	if _, err := Load(); err == nil {
		t.Fatalf("expected error from default loader")
	}
}
