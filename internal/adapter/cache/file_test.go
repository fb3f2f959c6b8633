package cache_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"news-rag/internal/adapter/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFileCache_MarkAndContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	c := cache.NewFileCache(path, testLogger())
	ctx := context.Background()

	assert.False(t, c.Contains(ctx, "https://example.com/a"))

	c.MarkProcessed(ctx, "https://example.com/a")
	assert.True(t, c.Contains(ctx, "https://example.com/a"))
	assert.False(t, c.Contains(ctx, "https://example.com/b"))
}

func TestFileCache_MarkIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	c := cache.NewFileCache(path, testLogger())
	ctx := context.Background()

	c.MarkProcessed(ctx, "https://example.com/a")
	c.MarkProcessed(ctx, "https://example.com/a")
	c.MarkProcessed(ctx, "https://example.com/a")

	assert.Len(t, c.All(ctx), 1)
}

func TestFileCache_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	ctx := context.Background()

	first := cache.NewFileCache(path, testLogger())
	first.MarkProcessed(ctx, "https://example.com/a")
	first.MarkProcessed(ctx, "https://example.com/b")

	second := cache.NewFileCache(path, testLogger())
	assert.True(t, second.Contains(ctx, "https://example.com/a"))
	assert.True(t, second.Contains(ctx, "https://example.com/b"))
	assert.Len(t, second.All(ctx), 2)
}

func TestFileCache_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	ctx := context.Background()

	c := cache.NewFileCache(path, testLogger())
	c.MarkProcessed(ctx, "https://example.com/b")
	c.MarkProcessed(ctx, "https://example.com/a")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var stored struct {
		ProcessedURLs []string `json:"processed_urls"`
	}
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, stored.ProcessedURLs)
}

func TestFileCache_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := cache.NewFileCache(path, testLogger())
	assert.Empty(t, c.All(context.Background()))
}

func TestFileCache_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	ctx := context.Background()

	c := cache.NewFileCache(path, testLogger())
	c.MarkProcessed(ctx, "https://example.com/a")
	require.NoError(t, c.Clear(ctx))

	assert.False(t, c.Contains(ctx, "https://example.com/a"))
	assert.Empty(t, cache.NewFileCache(path, testLogger()).All(ctx))
}

func TestFileCache_ConcurrentMarks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	c := cache.NewFileCache(path, testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	urls := []string{"u1", "u2", "u3", "u4", "u5"}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, u := range urls {
				c.MarkProcessed(ctx, u)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, c.All(ctx), len(urls))
}
