package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

type releaseCacheEntry struct {
	Repo      string    `json:"repo"`
	Release   Release   `json:"release"`
	FetchedAt time.Time `json:"fetched_at"`
}

type releaseCache struct {
	Entries map[string]releaseCacheEntry `json:"entries"`
}

// CachedSource answers Latest from a JSON file while entries are younger than
// TTL, and falls through to Next otherwise. Cache I/O problems are ignored so
// the cache can never break an install.
type CachedSource struct {
	Next    ReleaseSource
	Fs      afero.Fs
	Path    string
	TTL     time.Duration
	Refresh bool

	mu  sync.Mutex
	now func() time.Time
}

// NewCachedSource wraps next with a file-backed cache at path.
func NewCachedSource(next ReleaseSource, fs afero.Fs, path string, ttl time.Duration) *CachedSource {
	return &CachedSource{Next: next, Fs: fs, Path: path, TTL: ttl, now: time.Now}
}

// Latest implements ReleaseSource.
func (c *CachedSource) Latest(ctx context.Context, repo string) (Release, error) {
	if c.TTL <= 0 {
		return c.Next.Latest(ctx, repo)
	}

	if !c.Refresh {
		c.mu.Lock()
		rc := c.load()
		c.mu.Unlock()
		if entry, ok := rc.Entries[repo]; ok && c.clock().Sub(entry.FetchedAt) <= c.TTL {
			return entry.Release, nil
		}
	}

	release, err := c.Next.Latest(ctx, repo)
	if err != nil {
		return Release{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	rc := c.load()
	rc.Entries[repo] = releaseCacheEntry{Repo: repo, Release: release, FetchedAt: c.clock()}
	c.save(rc)
	return release, nil
}

func (c *CachedSource) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c *CachedSource) load() releaseCache {
	data, err := afero.ReadFile(c.Fs, c.Path)
	if err != nil {
		return releaseCache{Entries: map[string]releaseCacheEntry{}}
	}
	var rc releaseCache
	if err := json.Unmarshal(data, &rc); err != nil {
		return releaseCache{Entries: map[string]releaseCacheEntry{}}
	}
	if rc.Entries == nil {
		rc.Entries = map[string]releaseCacheEntry{}
	}
	return rc
}

func (c *CachedSource) save(rc releaseCache) {
	if err := c.Fs.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return
	}
	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return
	}
	_ = afero.WriteFile(c.Fs, c.Path, data, 0o644)
}
