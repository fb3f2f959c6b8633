package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news-rag/internal/domain"
	"news-rag/internal/pipeline"
)

// urlOutcome classifies one URL after its worker slot finishes.
type urlOutcome int

const (
	outcomeProcessed urlOutcome = iota
	outcomeUpdated
	outcomeSkipped
	outcomeFailed
)

// CrawlOrchestrator runs one crawl cycle: discover, filter against the
// cache, extract with bounded concurrency, and push into the vector store.
type CrawlOrchestrator struct {
	extractor   domain.ContentExtractor
	cache       domain.CacheStore
	store       domain.VectorStore
	articles    domain.ArticleRepository
	indexURL    string
	maxArticles int
	concurrency int
	log         *slog.Logger
}

func NewCrawlOrchestrator(
	extractor domain.ContentExtractor,
	cache domain.CacheStore,
	store domain.VectorStore,
	articles domain.ArticleRepository,
	indexURL string,
	maxArticles, concurrency int,
	log *slog.Logger,
) *CrawlOrchestrator {
	if maxArticles <= 0 {
		maxArticles = 20
	}
	if concurrency <= 0 {
		concurrency = 3
	}
	return &CrawlOrchestrator{
		extractor:   extractor,
		cache:       cache,
		store:       store,
		articles:    articles,
		indexURL:    indexURL,
		maxArticles: maxArticles,
		concurrency: concurrency,
		log:         log,
	}
}

// Crawl executes one cycle. A discovery failure aborts the run with zero
// counts; per-URL failures are isolated and tallied.
func (c *CrawlOrchestrator) Crawl(ctx context.Context) domain.CrawlResult {
	start := time.Now()
	result := domain.CrawlResult{StartedAt: start}

	c.log.Info("Starting crawl cycle", "index_url", c.indexURL, "max_articles", c.maxArticles)

	urls, err := c.extractor.DiscoverURLs(ctx, c.indexURL, c.maxArticles)
	if err != nil {
		c.log.Error("Discovery failed, aborting crawl", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("discovery: %v", err))
		result.Duration = time.Since(start)
		c.articles.RecordCrawl(ctx, result)
		return result
	}

	result.Discovered = len(urls)

	processed := c.cache.All(ctx)
	var fresh []string
	for _, url := range urls {
		if _, done := processed[url]; !done {
			fresh = append(fresh, url)
		}
	}
	result.Skipped = len(urls) - len(fresh)

	c.log.Info("Filtered discovered urls",
		"discovered", len(urls),
		"new", len(fresh),
		"already_processed", result.Skipped,
	)

	stage := pipeline.Stage[string, urlOutcome]{
		Name:        "extract-and-store",
		Concurrency: c.concurrency,
		Process:     c.processURL,
	}

	for _, r := range pipeline.RunStage(ctx, stage, fresh) {
		switch {
		case r.Err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", fresh[r.Index], r.Err))
		case r.Value == outcomeProcessed:
			result.Processed++
		case r.Value == outcomeUpdated:
			result.Updated++
		case r.Value == outcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	result.Duration = time.Since(start)
	c.articles.RecordCrawl(ctx, result)

	c.log.Info("Crawl cycle finished",
		"discovered", result.Discovered,
		"processed", result.Processed,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"success_rate", result.SuccessRate(),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result
}

// processURL handles one URL inside a worker slot. The URL is marked in the
// cache whatever the outcome so a failing page is not retried this run.
func (c *CrawlOrchestrator) processURL(ctx context.Context, url string) (outcome urlOutcome, err error) {
	defer c.cache.MarkProcessed(ctx, url)

	// Race guard: another worker may have finished this URL since the
	// initial filter pass.
	if c.cache.Contains(ctx, url) {
		return outcomeSkipped, nil
	}

	article, err := c.extractor.Extract(ctx, url)
	if err != nil {
		return outcomeFailed, fmt.Errorf("extract: %w", err)
	}
	if article == nil {
		return outcomeFailed, fmt.Errorf("extract: no usable content")
	}

	existing, err := c.articles.GetByURL(ctx, url)
	if err != nil {
		return outcomeFailed, fmt.Errorf("lookup existing: %w", err)
	}

	switch {
	case existing == nil:
		if err := c.store.Store(ctx, *article); err != nil {
			_ = c.articles.Save(ctx, article.WithStatus(domain.StatusFailed))
			return outcomeFailed, fmt.Errorf("store: %w", err)
		}
		if err := c.articles.Save(ctx, article.WithStatus(domain.StatusProcessed)); err != nil {
			return outcomeFailed, fmt.Errorf("save record: %w", err)
		}
		return outcomeProcessed, nil

	case existing.Content != article.Content:
		if err := c.store.Update(ctx, *article); err != nil {
			_ = c.articles.Save(ctx, article.WithStatus(domain.StatusFailed))
			return outcomeFailed, fmt.Errorf("update: %w", err)
		}
		if err := c.articles.Save(ctx, article.WithStatus(domain.StatusUpdated)); err != nil {
			return outcomeFailed, fmt.Errorf("save record: %w", err)
		}
		return outcomeUpdated, nil

	default:
		return outcomeSkipped, nil
	}
}
