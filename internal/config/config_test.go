package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg := Load(writeConfig(t, "server:\n  host: 127.0.0.1\n"))

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8080 {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Fetch.TimeoutMs != 20000 || cfg.Fetch.CacheTimeoutSeconds != 3600 {
		t.Fatalf("fetch defaults not applied: %+v", cfg.Fetch)
	}
	if cfg.Fetch.MemoryCacheSize != 128 {
		t.Fatalf("unexpected memory cache size: %d", cfg.Fetch.MemoryCacheSize)
	}
	if cfg.Sites.DefaultSite != "ovagames" {
		t.Fatalf("unexpected default site: %q", cfg.Sites.DefaultSite)
	}
	if cfg.Search.MaxResultsPerSite != 20 || cfg.Search.MaxResults != 50 {
		t.Fatalf("search defaults not applied: %+v", cfg.Search)
	}
}

func TestLoadNegativeCacheTimeout(t *testing.T) {
	cfg := Load(writeConfig(t, "fetch:\n  cacheTimeoutSeconds: -1\n"))

	// Negative means never expire; only 0 selects the default.
	if cfg.Fetch.CacheTimeoutSeconds != -1 {
		t.Fatalf("negative cache timeout must survive defaulting: %d", cfg.Fetch.CacheTimeoutSeconds)
	}
	if cfg.CacheTimeout() >= 0 {
		t.Fatalf("expected a negative duration, got %v", cfg.CacheTimeout())
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg := Load(writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
fetch:
  userAgent: test-agent
  timeoutMs: 5000
  cacheDir: /tmp/cache
  cacheTimeoutSeconds: 60
  proxies:
    - http://proxy.example:3128
  proxyMaxRetries: 2
  respectRobots: true
sites:
  defaultSite: gamepciso
  baseURLs:
    ovagames: https://mirror.example
redis:
  url: redis://localhost:6379/0
ratelimit:
  defaultPerMinute: 30
search:
  maxResults: 10
`))

	if cfg.Server.Port != 9090 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.FetchTimeout() != 5*time.Second || cfg.CacheTimeout() != time.Minute {
		t.Fatalf("unexpected durations: %v %v", cfg.FetchTimeout(), cfg.CacheTimeout())
	}
	if len(cfg.Fetch.Proxies) != 1 || cfg.Fetch.ProxyMaxRetries != 2 || !cfg.Fetch.RespectRobots {
		t.Fatalf("unexpected fetch config: %+v", cfg.Fetch)
	}
	if cfg.Sites.DefaultSite != "gamepciso" || cfg.Sites.BaseURLs["ovagames"] != "https://mirror.example" {
		t.Fatalf("unexpected sites config: %+v", cfg.Sites)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" || cfg.RateLimit.DefaultPerMinute != 30 {
		t.Fatalf("unexpected redis/ratelimit config: %+v %+v", cfg.Redis, cfg.RateLimit)
	}
	if cfg.Search.MaxResults != 10 {
		t.Fatalf("unexpected max results: %d", cfg.Search.MaxResults)
	}
}
