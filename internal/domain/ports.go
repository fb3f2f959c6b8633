package domain

import (
	"context"
	"time"
)

// VectorStore persists chunk-level documents and serves nearest-neighbor
// text search. Implementations establish their connection lazily; the first
// failing use returns ErrVectorStoreUnavailable.
type VectorStore interface {
	// Store chunks the article and bulk-inserts all chunks in one batch.
	Store(ctx context.Context, article Article) error

	// Update replaces every chunk stored for the article's id with freshly
	// generated chunks.
	Update(ctx context.Context, article Article) error

	// Search returns up to k hits for the query text, each carrying a
	// distance-derived similarity score.
	Search(ctx context.Context, query string, k int) ([]RetrievedDocument, error)

	// Info reports collection name, document count and connection status.
	Info(ctx context.Context) (CollectionInfo, error)
}

// CacheStore tracks URLs already handled by the crawler. MarkProcessed must
// be safe under concurrent calls from in-flight extraction workers.
type CacheStore interface {
	// Contains reports whether the URL was already processed.
	Contains(ctx context.Context, url string) bool

	// MarkProcessed records the URL. Best effort: failures are logged, never
	// returned, and must not fail the crawl of that URL.
	MarkProcessed(ctx context.Context, url string)

	// All returns the full processed set. On read failure it returns an
	// empty set so ingestion degrades to "process everything".
	All(ctx context.Context) map[string]struct{}

	// Clear drops the whole set.
	Clear(ctx context.Context) error
}

// ContentExtractor discovers candidate article URLs and extracts structured
// article records from pages.
type ContentExtractor interface {
	// DiscoverURLs fetches the index page and returns up to maxCount
	// candidate article URLs.
	DiscoverURLs(ctx context.Context, indexURL string, maxCount int) ([]string, error)

	// Extract fetches one page and returns the article, or nil when the page
	// is unreachable, has no locatable title, or the body is too sparse.
	// Malformed HTML never raises; parse failures degrade to nil.
	Extract(ctx context.Context, url string) (*Article, error)
}

// ArticleRepository stores crawled articles for change detection and stats.
type ArticleRepository interface {
	Save(ctx context.Context, article Article) error
	GetByURL(ctx context.Context, url string) (*Article, error)
	Stats(ctx context.Context) (CrawlerStats, error)
	RecordCrawl(ctx context.Context, result CrawlResult)
}

// LLMClient sends a system/user prompt pair to a generative backend.
// Failures map onto the ErrLLM* sentinels where the cause is known.
type LLMClient interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Model() string
}

// VectorEncoder turns texts into embedding vectors.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

// MonitoringEvent is emitted once per answered question.
type MonitoringEvent struct {
	Question   string
	Response   string
	UserID     string
	Username   string
	Duration   time.Duration
	Confidence float64
	Sources    int
}

// Monitoring receives answer-pipeline events. Implementations must never
// fail the caller.
type Monitoring interface {
	TrackRequest(ctx context.Context, event MonitoringEvent)
}
