// Package fetch implements the HTML fetch provider: an http.Client wrapped
// with browser-like headers, an in-memory document cache, an on-disk response
// cache, a proxy retry ladder and a stale-cache fallback. Site parsers treat
// any error from Fetch as "no document" and degrade to empty results.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/temoto/robotstxt"

	"gamestore/internal/metrics"
)

// ErrUnavailable is returned when no content, fresh or stale, could be
// obtained for a URL.
var ErrUnavailable = errors.New("fetch: no content available")

// ErrRobotsDisallowed is returned when robots.txt gating is enabled and the
// target path is disallowed for our user agent.
var ErrRobotsDisallowed = errors.New("fetch: disallowed by robots.txt")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config configures a Client. Zero values get conservative defaults.
type Config struct {
	SiteID          string
	UserAgent       string
	Timeout         time.Duration
	CacheDir        string
	CacheTimeout    time.Duration // <= 0 means cached entries never expire
	Proxies         []string
	ProxyMaxRetries int
	RespectRobots   bool
	MemoryCacheSize int
	Logger          *slog.Logger

	// HTTPClient overrides the constructed clients for every attempt.
	// Used by tests to install a mock transport.
	HTTPClient *http.Client
}

// Client fetches and parses HTML documents for one site.
type Client struct {
	cfg    Config
	logger *slog.Logger

	cache  *diskCache
	memory *lru.Cache[string, *goquery.Document]

	direct  *http.Client
	proxied []*http.Client

	robotsMu sync.Mutex
	robots   map[string]*robotstxt.RobotsData
}

// New builds a Client from cfg. Invalid proxy URLs are skipped with a
// warning rather than failing construction.
func New(cfg Config) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
		cache:  newDiskCache(cfg.CacheDir, cfg.SiteID, cfg.CacheTimeout),
		robots: make(map[string]*robotstxt.RobotsData),
	}

	if size := cfg.MemoryCacheSize; size > 0 {
		c.memory, _ = lru.New[string, *goquery.Document](size)
	}

	if cfg.HTTPClient != nil {
		c.direct = cfg.HTTPClient
		return c
	}

	c.direct = &http.Client{Timeout: cfg.Timeout}
	for _, raw := range cfg.Proxies {
		pu, err := url.Parse(raw)
		if err != nil || pu.Host == "" {
			logger.Warn("skipping invalid proxy url", "site", cfg.SiteID, "proxy", raw)
			continue
		}
		c.proxied = append(c.proxied, &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(pu)},
		})
	}
	return c
}

// Fetch returns the parsed document for rawURL. Lookup order: in-memory
// cache, fresh disk cache, network (proxy attempts then a final direct
// attempt), stale disk cache. Returns ErrUnavailable when everything fails.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("fetch: empty url")
	}

	if c.memory != nil {
		if doc, ok := c.memory.Get(rawURL); ok {
			metrics.RecordFetch(c.cfg.SiteID, "memory")
			return doc, nil
		}
	}

	if c.cache != nil {
		if body, ok := c.cache.get(rawURL); ok {
			if doc, err := c.parse(rawURL, body); err == nil {
				metrics.RecordFetch(c.cfg.SiteID, "cache")
				c.logger.Debug("cache hit", "site", c.cfg.SiteID, "url", rawURL)
				return doc, nil
			}
		}
	}

	if c.cfg.RespectRobots {
		if allowed := c.robotsAllowed(ctx, rawURL); !allowed {
			metrics.RecordFetch(c.cfg.SiteID, "robots_denied")
			return nil, ErrRobotsDisallowed
		}
	}

	body, err := c.fetchNetwork(ctx, rawURL)
	if err == nil {
		if c.cache != nil {
			if werr := c.cache.put(rawURL, body); werr != nil {
				c.logger.Warn("cache write failed", "site", c.cfg.SiteID, "url", rawURL, "error", werr)
			}
		}
		doc, perr := c.parse(rawURL, body)
		if perr != nil {
			metrics.RecordFetch(c.cfg.SiteID, "error")
			return nil, perr
		}
		if c.memory != nil {
			c.memory.Add(rawURL, doc)
		}
		metrics.RecordFetch(c.cfg.SiteID, "network")
		return doc, nil
	}

	if c.cache != nil {
		if body, ok := c.cache.getStale(rawURL); ok {
			if doc, perr := c.parse(rawURL, body); perr == nil {
				metrics.RecordFetch(c.cfg.SiteID, "stale")
				c.logger.Info("using stale cache after failed fetch", "site", c.cfg.SiteID, "url", rawURL)
				return doc, nil
			}
		}
	}

	metrics.RecordFetch(c.cfg.SiteID, "error")
	return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, rawURL, err)
}

// ClearCache removes this site's on-disk cache entries and drops the
// in-memory document cache.
func (c *Client) ClearCache() (int, error) {
	if c.memory != nil {
		c.memory.Purge()
	}
	if c.cache == nil {
		return 0, nil
	}
	return c.cache.clear()
}

// fetchNetwork walks the attempt ladder: one attempt per configured proxy up
// to ProxyMaxRetries, then a final direct attempt. With no proxies there is a
// single direct attempt.
func (c *Client) fetchNetwork(ctx context.Context, rawURL string) (string, error) {
	attempts := 1
	if len(c.proxied) > 0 {
		retries := c.cfg.ProxyMaxRetries
		if retries <= 0 {
			retries = len(c.proxied)
		}
		attempts = retries + 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		client := c.direct
		via := "direct"
		if len(c.proxied) > 0 && i < attempts-1 {
			client = c.proxied[i%len(c.proxied)]
			via = "proxy"
		}

		body, err := c.doRequest(ctx, client, rawURL)
		if err == nil {
			c.logger.Debug("fetch ok", "site", c.cfg.SiteID, "via", via, "attempt", i+1, "url", rawURL)
			return body, nil
		}
		lastErr = err
		c.logger.Warn("fetch attempt failed",
			"site", c.cfg.SiteID, "via", via, "attempt", i+1, "attempts", attempts,
			"url", rawURL, "error", err)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

func (c *Client) doRequest(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("http status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) parse(rawURL, body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}

// robotsAllowed checks rawURL against the host's robots.txt, fetched once
// per host over the direct client. Unreachable or malformed robots.txt means
// allow.
func (c *Client) robotsAllowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	c.robotsMu.Lock()
	data, ok := c.robots[u.Host]
	c.robotsMu.Unlock()

	if !ok {
		robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
		if err != nil {
			return true
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		resp, err := c.direct.Do(req)
		if err == nil {
			parsed, perr := robotstxt.FromResponse(resp)
			resp.Body.Close()
			if perr == nil {
				data = parsed
			}
		}
		c.robotsMu.Lock()
		c.robots[u.Host] = data
		c.robotsMu.Unlock()
	}

	if data == nil {
		return true
	}
	return data.TestAgent(u.Path, c.cfg.UserAgent)
}
