package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogBody = `{
  "version": 1,
  "skills": [
    {"name": "seo", "description": "Search engine optimization audits", "version": "1.2.0"},
    {"name": "access", "description": "Accessibility checks"}
  ]
}`

// catalogServer serves a fixed catalog with ETag revalidation and counts
// how requests arrived.
type catalogServer struct {
	mu       sync.Mutex
	etag     string
	requests int
	matched  int
}

func (s *catalogServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests++
	matched := r.Header.Get("If-None-Match") == s.etag && s.etag != ""
	if matched {
		s.matched++
	}
	s.mu.Unlock()

	if matched {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", s.etag)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(catalogBody))
}

func TestFetchAndCache(t *testing.T) {
	cs := &catalogServer{etag: `"v1"`}
	server := httptest.NewServer(http.HandlerFunc(cs.handler))
	defer server.Close()

	client := NewClientWithCacheDir(server.URL, t.TempDir())

	catalog, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog.Skills, 2)
	assert.Equal(t, "seo", catalog.Skills[0].Name)
	assert.Equal(t, "1.2.0", catalog.Skills[0].Version)

	// The second fetch revalidates with the stored ETag and gets a 304.
	catalog, err = client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog.Skills, 2)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Equal(t, 2, cs.requests)
	assert.Equal(t, 1, cs.matched, "second request should carry If-None-Match")
}

func TestFetchFallsBackToCacheWhenOffline(t *testing.T) {
	cs := &catalogServer{etag: `"v1"`}
	server := httptest.NewServer(http.HandlerFunc(cs.handler))

	cacheDir := t.TempDir()
	client := NewClientWithCacheDir(server.URL, cacheDir)

	_, err := client.Fetch(context.Background())
	require.NoError(t, err)

	// Take the CDN down; a fresh client must still serve the disk cache.
	server.Close()
	offline := NewClientWithCacheDir(server.URL, cacheDir)
	catalog, err := offline.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog.Skills, 2)
}

func TestFetchFailsWithoutCacheOrNetwork(t *testing.T) {
	client := NewClientWithCacheDir("http://127.0.0.1:0/catalog.json", t.TempDir())
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetchRejectsUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithCacheDir(server.URL, t.TempDir())
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
}

func TestCachedServesDiskWithoutNetwork(t *testing.T) {
	cs := &catalogServer{etag: `"v1"`}
	server := httptest.NewServer(http.HandlerFunc(cs.handler))
	defer server.Close()

	cacheDir := t.TempDir()
	client := NewClientWithCacheDir(server.URL, cacheDir)
	_, err := client.Fetch(context.Background())
	require.NoError(t, err)

	fresh := NewClientWithCacheDir(server.URL, cacheDir)
	catalog := fresh.Cached()
	require.NotNil(t, catalog)
	assert.Len(t, catalog.Skills, 2)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Equal(t, 1, cs.requests, "Cached must not touch the network")
}

func TestCachedReturnsNilWhenEmpty(t *testing.T) {
	client := NewClientWithCacheDir("http://example.invalid", t.TempDir())
	assert.Nil(t, client.Cached())
}
