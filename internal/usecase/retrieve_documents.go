package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"news-rag/internal/domain"
)

const (
	retrievalCacheSize = 256
	retrievalCacheTTL  = 2 * time.Minute
)

// DocumentRetriever fans one question out across expanded query variants,
// merges the hits, and returns the top-k by similarity.
type DocumentRetriever struct {
	store    domain.VectorStore
	expander *QueryExpander
	cache    *expirable.LRU[string, []domain.RetrievedDocument]
	log      *slog.Logger
}

func NewDocumentRetriever(store domain.VectorStore, expander *QueryExpander, log *slog.Logger) *DocumentRetriever {
	return &DocumentRetriever{
		store:    store,
		expander: expander,
		cache:    expirable.NewLRU[string, []domain.RetrievedDocument](retrievalCacheSize, nil, retrievalCacheTTL),
		log:      log,
	}
}

// Retrieve searches every expanded variant concurrently. A failing variant is
// logged and skipped; only when every variant fails does the result degrade
// to an empty list. Duplicates are dropped by document id, first variant
// wins, and the merged set is sorted by similarity descending.
func (r *DocumentRetriever) Retrieve(ctx context.Context, query string, k int) []domain.RetrievedDocument {
	if k <= 0 {
		return nil
	}

	cacheKey := fmt.Sprintf("%d:%s", k, query)
	if cached, ok := r.cache.Get(cacheKey); ok {
		r.log.Debug("Retrieval cache hit", "query_length", len(query))
		return cached
	}

	variants := r.expander.Expand(query)
	perVariant := make([][]domain.RetrievedDocument, len(variants))

	var mu sync.Mutex
	var failures int

	g, gctx := errgroup.WithContext(ctx)
	for i, variant := range variants {
		g.Go(func() error {
			docs, err := r.store.Search(gctx, variant, k)
			if err != nil {
				r.log.Warn("Search failed for query variant", "variant", variant, "error", err)
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}
			for j := range docs {
				docs[j].MatchedQuery = variant
			}
			perVariant[i] = docs
			return nil
		})
	}
	_ = g.Wait()

	if failures == len(variants) {
		r.log.Warn("All query variants failed, answering without context", "query_length", len(query))
		return nil
	}

	// Merge in variant order so the first occurrence of an id is
	// deterministic regardless of search completion order.
	seen := make(map[string]struct{})
	var merged []domain.RetrievedDocument
	for _, docs := range perVariant {
		for _, doc := range docs {
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			seen[doc.ID] = struct{}{}
			merged = append(merged, doc)
		}
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Similarity > merged[b].Similarity
	})
	if len(merged) > k {
		merged = merged[:k]
	}

	r.log.Info("Retrieved context documents",
		"query_length", len(query),
		"variants", len(variants),
		"retrieved", len(merged),
		"requested", k,
	)

	r.cache.Add(cacheKey, merged)
	return merged
}
