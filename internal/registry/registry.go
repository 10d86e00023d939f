// Package registry fetches the skill catalog from its CDN endpoint with
// on-disk caching.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

const (
	catalogCacheFile = "catalog.json"
	etagCacheFile    = "catalog.etag"
	fetchTimeout     = 15 * time.Second
)

// Catalog is the parsed skill catalog.
type Catalog struct {
	Version int          `json:"version"`
	Skills  []SkillEntry `json:"skills"`
}

// SkillEntry is one skill listed in the catalog.
type SkillEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
	Author      string `json:"author,omitempty"`
}

// Client fetches the catalog, revalidating the on-disk cache with ETags.
type Client struct {
	url      string
	cacheDir string
	http     *http.Client

	mu      sync.Mutex
	catalog *Catalog
}

// NewClient creates a Client for the given catalog URL. The cache lives
// under the user cache directory.
func NewClient(url string) *Client {
	return &Client{
		url:      url,
		cacheDir: filepath.Join(xdg.CacheHome, "quill"),
		http:     &http.Client{Timeout: fetchTimeout},
	}
}

// NewClientWithCacheDir creates a Client with a custom cache directory.
// Useful for testing.
func NewClientWithCacheDir(url, cacheDir string) *Client {
	return &Client{
		url:      url,
		cacheDir: cacheDir,
		http:     &http.Client{Timeout: fetchTimeout},
	}
}

// Refresh fetches the catalog, falling back to the cached copy when the
// CDN reports it unchanged or is unreachable.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.Fetch(ctx)
	return err
}

// Fetch returns the current catalog. A 304 response serves the cache; a
// network failure also serves the cache when one exists.
func (c *Client) Fetch(ctx context.Context) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building catalog request: %w", err)
	}
	if etag := c.cachedETag(); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if cached, cacheErr := c.readCache(); cacheErr == nil {
			return cached, nil
		}
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return c.readCache()
	case http.StatusOK:
		// fall through
	default:
		return nil, fmt.Errorf("fetching catalog: unexpected status %s", resp.Status)
	}

	var catalog Catalog
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if err := c.writeCache(&catalog, resp.Header.Get("ETag")); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.catalog = &catalog
	c.mu.Unlock()
	return &catalog, nil
}

// Cached returns the last fetched or cached catalog without touching the
// network. Returns nil when nothing is cached.
func (c *Client) Cached() *Catalog {
	c.mu.Lock()
	if c.catalog != nil {
		defer c.mu.Unlock()
		return c.catalog
	}
	c.mu.Unlock()

	cached, err := c.readCache()
	if err != nil {
		return nil
	}
	return cached
}

func (c *Client) cachedETag() string {
	data, err := os.ReadFile(filepath.Join(c.cacheDir, etagCacheFile))
	if err != nil {
		return ""
	}
	return string(data)
}

func (c *Client) readCache() (*Catalog, error) {
	data, err := os.ReadFile(filepath.Join(c.cacheDir, catalogCacheFile))
	if err != nil {
		return nil, fmt.Errorf("reading catalog cache: %w", err)
	}
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog cache: %w", err)
	}

	c.mu.Lock()
	c.catalog = &catalog
	c.mu.Unlock()
	return &catalog, nil
}

func (c *Client) writeCache(catalog *Catalog, etag string) error {
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog cache: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.cacheDir, catalogCacheFile), data, 0o644); err != nil {
		return fmt.Errorf("writing catalog cache: %w", err)
	}
	if etag != "" {
		if err := os.WriteFile(filepath.Join(c.cacheDir, etagCacheFile), []byte(etag), 0o644); err != nil {
			return fmt.Errorf("writing catalog etag: %w", err)
		}
	}
	return nil
}
