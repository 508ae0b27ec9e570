package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type FetchConfig struct {
	UserAgent string `yaml:"userAgent"`
	TimeoutMs int    `yaml:"timeoutMs"`
	CacheDir  string `yaml:"cacheDir"`
	// CacheTimeoutSeconds is the disk cache freshness window. 0 selects the
	// default; a negative value disables expiry entirely.
	CacheTimeoutSeconds int      `yaml:"cacheTimeoutSeconds"`
	MemoryCacheSize     int      `yaml:"memoryCacheSize"`
	Proxies             []string `yaml:"proxies"`
	ProxyMaxRetries     int      `yaml:"proxyMaxRetries"`
	RespectRobots       bool     `yaml:"respectRobots"`
}

// SitesConfig selects the default site for API requests that omit one and
// lets deployments point a site at a mirror without rebuilding.
type SitesConfig struct {
	DefaultSite string            `yaml:"defaultSite"`
	BaseURLs    map[string]string `yaml:"baseURLs"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type RateLimitConfig struct {
	DefaultPerMinute int `yaml:"defaultPerMinute"`
}

type SearchConfig struct {
	MaxResultsPerSite int `yaml:"maxResultsPerSite"`
	MaxResults        int `yaml:"maxResults"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Sites     SitesConfig     `yaml:"sites"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Search    SearchConfig    `yaml:"search"`
}

func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Fetch.TimeoutMs == 0 {
		c.Fetch.TimeoutMs = 20000
	}
	if c.Fetch.CacheTimeoutSeconds == 0 {
		c.Fetch.CacheTimeoutSeconds = 3600
	}
	if c.Fetch.MemoryCacheSize == 0 {
		c.Fetch.MemoryCacheSize = 128
	}
	if c.Sites.DefaultSite == "" {
		c.Sites.DefaultSite = "ovagames"
	}
	if c.Search.MaxResultsPerSite == 0 {
		c.Search.MaxResultsPerSite = 20
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = 50
	}
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutMs) * time.Millisecond
}

// CacheTimeout returns the disk cache freshness window as a duration.
func (c *Config) CacheTimeout() time.Duration {
	return time.Duration(c.Fetch.CacheTimeoutSeconds) * time.Second
}
