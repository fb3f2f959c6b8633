// Package vectorstore provides the chunk-level vector search backends.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"news-rag/internal/domain"
	"news-rag/internal/infra"
)

// PgVector stores article chunks in PostgreSQL with the pgvector extension.
// The connection is established lazily on first use so the service can boot
// while the database is still coming up.
type PgVector struct {
	dsn        string
	collection string
	chunker    domain.Chunker
	encoder    domain.VectorEncoder
	log        *slog.Logger

	mu     sync.Mutex
	pool   *pgxpool.Pool
	schema bool
}

var _ domain.VectorStore = (*PgVector)(nil)

// NewPgVector creates the backend without touching the database.
func NewPgVector(dsn, collection string, chunker domain.Chunker, encoder domain.VectorEncoder, log *slog.Logger) *PgVector {
	return &PgVector{
		dsn:        dsn,
		collection: collection,
		chunker:    chunker,
		encoder:    encoder,
		log:        log,
	}
}

func (s *PgVector) getPool(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool != nil {
		return s.pool, nil
	}

	pool, err := infra.NewPostgresDB(ctx, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	s.pool = pool
	s.log.Info("Connected to pgvector backend", "collection", s.collection)
	return s.pool, nil
}

func (s *PgVector) ensureSchema(ctx context.Context, pool *pgxpool.Pool, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema {
		return nil
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL,
			chunk_type TEXT NOT NULL,
			chunk_index INT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			published_at TEXT NOT NULL DEFAULT '',
			discovered_at TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, s.collection, dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_article_id_idx ON %s (article_id)`, s.collection, s.collection),
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.schema = true
	return nil
}

// Store chunks the article, embeds every chunk, and bulk-inserts them in one
// transaction. Any chunks previously stored for the same article id are
// replaced.
func (s *PgVector) Store(ctx context.Context, article domain.Article) error {
	return s.replaceChunks(ctx, article)
}

// Update re-chunks the article and swaps the stored set.
func (s *PgVector) Update(ctx context.Context, article domain.Article) error {
	return s.replaceChunks(ctx, article)
}

func (s *PgVector) replaceChunks(ctx context.Context, article domain.Article) error {
	pool, err := s.getPool(ctx)
	if err != nil {
		return err
	}

	chunks := s.chunker.Chunk(article)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := s.encoder.Encode(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	if len(embeddings) == 0 {
		return nil
	}

	if err := s.ensureSchema(ctx, pool, len(embeddings[0])); err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE article_id = $1`, s.collection), article.ID); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}

	rows := make([][]any, len(chunks))
	for i, c := range chunks {
		rows[i] = []any{
			c.ID, c.Meta.ArticleID, string(c.Type), c.Index,
			c.Meta.Title, c.Meta.URL, c.Meta.Summary, c.Meta.Author,
			c.Meta.Category, c.Meta.Tags, c.Meta.PublishedAt, c.Meta.DiscoveredAt,
			c.Text, pgvector.NewVector(embeddings[i]),
		}
	}

	copied, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{s.collection},
		[]string{"id", "article_id", "chunk_type", "chunk_index", "title", "url",
			"summary", "author", "category", "tags", "published_at", "discovered_at",
			"content", "embedding"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("bulk insert chunks: %w", err)
	}
	if int(copied) != len(rows) {
		return fmt.Errorf("bulk insert chunks: copied %d of %d", copied, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Debug("Stored article chunks", "article_id", article.ID, "chunks", len(chunks))
	return nil
}

// Search embeds the query and returns the k nearest chunks by L2 distance,
// scored as 1/(1+distance).
func (s *PgVector) Search(ctx context.Context, query string, k int) ([]domain.RetrievedDocument, error) {
	if k <= 0 {
		return nil, nil
	}

	pool, err := s.getPool(ctx)
	if err != nil {
		return nil, err
	}

	vectors, err := s.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: empty response")
	}

	sql := fmt.Sprintf(`
		SELECT id, content, title, url, summary, chunk_type, published_at,
		       embedding <-> $1 AS distance
		FROM %s
		ORDER BY embedding <-> $1
		LIMIT $2`, s.collection)

	rows, err := pool.Query(ctx, sql, pgvector.NewVector(vectors[0]), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var docs []domain.RetrievedDocument
	for rows.Next() {
		var doc domain.RetrievedDocument
		var distance float64
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.Title, &doc.URL,
			&doc.Summary, &doc.ChunkType, &doc.PublishedAt, &distance); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		doc.Similarity = 1.0 / (1.0 + distance)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return docs, nil
}

func (s *PgVector) Info(ctx context.Context) (domain.CollectionInfo, error) {
	info := domain.CollectionInfo{Name: s.collection, Backend: "pgvector", Status: "unavailable"}

	pool, err := s.getPool(ctx)
	if err != nil {
		return info, err
	}

	var count int
	err = pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.collection)).Scan(&count)
	if err != nil {
		// The table appears after the first stored article.
		info.Status = "connected"
		return info, nil
	}

	info.DocumentCount = count
	info.Status = "connected"
	return info, nil
}

// Close releases the pool if a connection was ever established.
func (s *PgVector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}
