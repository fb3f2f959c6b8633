package usecase_test

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"news-rag/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockVectorStore struct {
	mock.Mock
}

func (m *mockVectorStore) Store(ctx context.Context, article domain.Article) error {
	args := m.Called(ctx, article)
	return args.Error(0)
}

func (m *mockVectorStore) Update(ctx context.Context, article domain.Article) error {
	args := m.Called(ctx, article)
	return args.Error(0)
}

func (m *mockVectorStore) Search(ctx context.Context, query string, k int) ([]domain.RetrievedDocument, error) {
	args := m.Called(ctx, query, k)
	if docs, ok := args.Get(0).([]domain.RetrievedDocument); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVectorStore) Info(ctx context.Context) (domain.CollectionInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.CollectionInfo), args.Error(1)
}

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Generate(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func (m *mockLLMClient) Model() string { return "mock-model" }

type mockMonitoring struct {
	mu     sync.Mutex
	events []domain.MonitoringEvent
}

func (m *mockMonitoring) TrackRequest(ctx context.Context, event domain.MonitoringEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockMonitoring) Events() []domain.MonitoringEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MonitoringEvent, len(m.events))
	copy(out, m.events)
	return out
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) DiscoverURLs(ctx context.Context, indexURL string, maxCount int) ([]string, error) {
	args := m.Called(ctx, indexURL, maxCount)
	if urls, ok := args.Get(0).([]string); ok {
		return urls, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockExtractor) Extract(ctx context.Context, url string) (*domain.Article, error) {
	args := m.Called(ctx, url)
	if article, ok := args.Get(0).(*domain.Article); ok {
		return article, args.Error(1)
	}
	return nil, args.Error(1)
}

// memoryCache is a plain in-memory CacheStore for crawl tests.
type memoryCache struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

func newMemoryCache() *memoryCache {
	return &memoryCache{urls: make(map[string]struct{})}
}

func (c *memoryCache) Contains(ctx context.Context, url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.urls[url]
	return ok
}

func (c *memoryCache) MarkProcessed(ctx context.Context, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls[url] = struct{}{}
}

func (c *memoryCache) All(ctx context.Context) map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]struct{}, len(c.urls))
	for u := range c.urls {
		out[u] = struct{}{}
	}
	return out
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = make(map[string]struct{})
	return nil
}
