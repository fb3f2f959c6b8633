// Package cache provides the processed-URL cache behind the crawler.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"news-rag/internal/domain"
)

// cacheFile is the on-disk shape. URLs are kept sorted so the file diffs
// cleanly between runs.
type cacheFile struct {
	ProcessedURLs []string `json:"processed_urls"`
}

// FileCache persists the processed-URL set as a JSON file. The whole set is
// loaded once and written back on every mark.
type FileCache struct {
	path string
	log  *slog.Logger

	mu   sync.Mutex
	urls map[string]struct{}
}

var _ domain.CacheStore = (*FileCache)(nil)

// NewFileCache loads the cache file if it exists. A missing or corrupt file
// starts an empty set rather than failing.
func NewFileCache(path string, log *slog.Logger) *FileCache {
	c := &FileCache{
		path: path,
		log:  log,
		urls: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("Failed to read url cache, starting empty", "path", path, "error", err)
		}
		return c
	}

	var stored cacheFile
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Warn("Corrupt url cache, starting empty", "path", path, "error", err)
		return c
	}
	for _, u := range stored.ProcessedURLs {
		c.urls[u] = struct{}{}
	}
	log.Info("Loaded url cache", "path", path, "urls", len(c.urls))
	return c
}

func (c *FileCache) Contains(ctx context.Context, url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.urls[url]
	return ok
}

// MarkProcessed records the URL and rewrites the file. Write failures are
// logged and swallowed so one bad disk never fails an otherwise good crawl.
func (c *FileCache) MarkProcessed(ctx context.Context, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.urls[url]; ok {
		return
	}
	c.urls[url] = struct{}{}

	if err := c.persistLocked(); err != nil {
		c.log.Warn("Failed to persist url cache", "path", c.path, "error", err)
	}
}

func (c *FileCache) All(ctx context.Context) map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]struct{}, len(c.urls))
	for u := range c.urls {
		out[u] = struct{}{}
	}
	return out
}

func (c *FileCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.urls = make(map[string]struct{})
	return c.persistLocked()
}

func (c *FileCache) persistLocked() error {
	urls := make([]string, 0, len(c.urls))
	for u := range c.urls {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	data, err := json.MarshalIndent(cacheFile{ProcessedURLs: urls}, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
