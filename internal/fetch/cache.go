package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// diskCache stores raw HTML responses keyed by a filesystem-safe hash of the
// URL, prefixed with the owning site id so per-site clears are possible.
type diskCache struct {
	dir     string
	siteID  string
	timeout time.Duration
}

// newDiskCache returns nil when dir is empty or cannot be created, in which
// case caching is silently disabled.
func newDiskCache(dir, siteID string, timeout time.Duration) *diskCache {
	if dir == "" || siteID == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}
	return &diskCache{dir: dir, siteID: siteID, timeout: timeout}
}

func (c *diskCache) path(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.html", c.siteID, hex.EncodeToString(sum[:16])))
}

// get returns the cached body for rawURL if present and not expired.
// A timeout <= 0 means entries never expire.
func (c *diskCache) get(rawURL string) (string, bool) {
	path := c.path(rawURL)
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if c.timeout > 0 && time.Since(info.ModTime()) > c.timeout {
		return "", false
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(body), true
}

// getStale returns the cached body regardless of expiry. Used as a final
// fallback when every network attempt has failed.
func (c *diskCache) getStale(rawURL string) (string, bool) {
	body, err := os.ReadFile(c.path(rawURL))
	if err != nil {
		return "", false
	}
	return string(body), true
}

func (c *diskCache) put(rawURL, body string) error {
	return os.WriteFile(c.path(rawURL), []byte(body), 0o644)
}

// clear removes every cache file belonging to this cache's site.
func (c *diskCache) clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	prefix := c.siteID + "_"
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
