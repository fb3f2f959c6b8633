package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ArticleStatus tracks where an article sits in the ingestion lifecycle.
type ArticleStatus string

const (
	StatusDiscovered ArticleStatus = "discovered"
	StatusProcessed  ArticleStatus = "processed"
	StatusUpdated    ArticleStatus = "updated"
	StatusFailed     ArticleStatus = "failed"
)

// Article is one extracted news article. The ID is derived from the URL so
// re-crawling the same page always maps to the same stored chunks.
type Article struct {
	ID           string
	Title        string
	Content      string
	Summary      string
	URL          string
	Author       string
	Category     string
	Tags         []string
	PublishedAt  time.Time
	DiscoveredAt time.Time
	Status       ArticleStatus
}

// ArticleID derives a stable identifier from the article URL.
func ArticleID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:16])
}

// WithStatus returns a copy of the article with the status replaced.
func (a Article) WithStatus(status ArticleStatus) Article {
	a.Status = status
	return a
}

// WithID returns a copy of the article with the id replaced.
func (a Article) WithID(id string) Article {
	a.ID = id
	return a
}

// CrawlResult summarizes one crawl run.
type CrawlResult struct {
	Discovered int
	Processed  int
	Updated    int
	Skipped    int
	Failed     int
	Errors     []string
	Duration   time.Duration
	StartedAt  time.Time
}

// SuccessRate is processed over discovered. An empty run counts as fully
// successful.
func (r CrawlResult) SuccessRate() float64 {
	if r.Discovered == 0 {
		return 1.0
	}
	return float64(r.Processed) / float64(r.Discovered)
}

// CrawlerStats aggregates repository counters for the stats endpoint.
type CrawlerStats struct {
	TotalArticles  int
	ProcessedCount int
	UpdatedCount   int
	FailedCount    int
	LastCrawl      *CrawlResult
	LastCrawlAt    time.Time
}
