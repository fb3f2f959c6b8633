// Package articlestore keeps crawled article records for change detection
// and operational stats.
package articlestore

import (
	"context"
	"sync"

	"news-rag/internal/domain"
)

// Memory is an in-process ArticleRepository. Vector chunks are the durable
// record; this store only backs change detection and the stats endpoint, so
// losing it on restart just means one extra re-embed pass.
type Memory struct {
	mu      sync.RWMutex
	byURL   map[string]domain.Article
	crawls  []domain.CrawlResult
	updated int
	failed  int
}

var _ domain.ArticleRepository = (*Memory)(nil)

// NewMemory creates an empty repository.
func NewMemory() *Memory {
	return &Memory{byURL: make(map[string]domain.Article)}
}

func (m *Memory) Save(ctx context.Context, article domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch article.Status {
	case domain.StatusUpdated:
		m.updated++
	case domain.StatusFailed:
		m.failed++
	}
	m.byURL[article.URL] = article
	return nil
}

func (m *Memory) GetByURL(ctx context.Context, url string) (*domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	article, ok := m.byURL[url]
	if !ok {
		return nil, nil
	}
	return &article, nil
}

func (m *Memory) RecordCrawl(ctx context.Context, result domain.CrawlResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crawls = append(m.crawls, result)
}

func (m *Memory) Stats(ctx context.Context) (domain.CrawlerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var processed int
	for _, a := range m.byURL {
		if a.Status == domain.StatusProcessed || a.Status == domain.StatusUpdated {
			processed++
		}
	}

	stats := domain.CrawlerStats{
		TotalArticles:  len(m.byURL),
		ProcessedCount: processed,
		UpdatedCount:   m.updated,
		FailedCount:    m.failed,
	}
	if n := len(m.crawls); n > 0 {
		last := m.crawls[n-1]
		stats.LastCrawl = &last
		stats.LastCrawlAt = last.StartedAt.Add(last.Duration)
	}
	return stats, nil
}
