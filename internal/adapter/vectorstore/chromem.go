package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"news-rag/internal/domain"
)

// Chromem is an embedded file-backed vector store. It needs no external
// service, which makes it the default for local development.
type Chromem struct {
	collection *chromem.Collection
	chunker    domain.Chunker
	encoder    domain.VectorEncoder
	name       string
	log        *slog.Logger

	mu sync.Mutex
}

var _ domain.VectorStore = (*Chromem)(nil)

// NewChromem opens or creates the persistent database at path.
func NewChromem(path, collectionName string, chunker domain.Chunker, encoder domain.VectorEncoder, log *slog.Logger) (*Chromem, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}

	metadata := map[string]string{"hnsw:space": "cosine"}
	collection, err := db.GetOrCreateCollection(collectionName, metadata, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}

	return &Chromem{
		collection: collection,
		chunker:    chunker,
		encoder:    encoder,
		name:       collectionName,
		log:        log,
	}, nil
}

func (s *Chromem) Store(ctx context.Context, article domain.Article) error {
	return s.replaceChunks(ctx, article)
}

func (s *Chromem) Update(ctx context.Context, article domain.Article) error {
	return s.replaceChunks(ctx, article)
}

func (s *Chromem) replaceChunks(ctx context.Context, article domain.Article) error {
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

	ids := make([]string, len(chunks))
	metadatas := make([]map[string]string, len(chunks))
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		contents[i] = c.Text
		metadatas[i] = map[string]string{
			"article_id":    c.Meta.ArticleID,
			"chunk_type":    string(c.Type),
			"chunk_index":   fmt.Sprintf("%d", c.Index),
			"title":         c.Meta.Title,
			"url":           c.Meta.URL,
			"summary":       c.Meta.Summary,
			"author":        c.Meta.Author,
			"category":      c.Meta.Category,
			"tags":          c.Meta.Tags,
			"published_at":  c.Meta.PublishedAt,
			"discovered_at": c.Meta.DiscoveredAt,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.collection.Delete(ctx, map[string]string{"article_id": article.ID}, nil); err != nil {
		s.log.Debug("No stale chunks to delete", "article_id", article.ID, "error", err)
	}

	if err := s.collection.Add(ctx, ids, embeddings, metadatas, contents); err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}

	s.log.Debug("Stored article chunks", "article_id", article.ID, "chunks", len(chunks))
	return nil
}

func (s *Chromem) Search(ctx context.Context, query string, k int) ([]domain.RetrievedDocument, error) {
	if k <= 0 {
		return nil, nil
	}

	// chromem rejects queries asking for more results than stored documents.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	vectors, err := s.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: empty response")
	}

	results, err := s.collection.QueryEmbedding(ctx, vectors[0], k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]domain.RetrievedDocument, 0, len(results))
	for _, r := range results {
		distance := 1.0 - float64(r.Similarity)
		doc := domain.RetrievedDocument{
			ID:         r.ID,
			Content:    r.Content,
			Similarity: 1.0 / (1.0 + distance),
		}
		if r.Metadata != nil {
			doc.Title = r.Metadata["title"]
			doc.URL = r.Metadata["url"]
			doc.Summary = r.Metadata["summary"]
			doc.ChunkType = r.Metadata["chunk_type"]
			doc.PublishedAt = r.Metadata["published_at"]
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Chromem) Info(ctx context.Context) (domain.CollectionInfo, error) {
	return domain.CollectionInfo{
		Name:          s.name,
		DocumentCount: s.collection.Count(),
		Status:        "connected",
		Backend:       "chromem",
	}, nil
}
