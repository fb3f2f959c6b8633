package domain_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"news-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArticle(body string) domain.Article {
	return domain.Article{
		ID:           "abc123",
		Title:        "Patch Notes",
		Content:      body,
		Summary:      "Summary of the patch.",
		URL:          "https://news.example.com/patch-notes",
		PublishedAt:  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		DiscoveredAt: time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
		Tags:         []string{"news", "patch"},
	}
}

func TestChunker_Chunk(t *testing.T) {
	chunker := domain.NewChunker()

	t.Run("Emits title chunk first", func(t *testing.T) {
		chunks := chunker.Chunk(testArticle("Some body text."))
		require.NotEmpty(t, chunks)
		assert.Equal(t, "abc123_title", chunks[0].ID)
		assert.Equal(t, domain.ChunkTypeTitleSummary, chunks[0].Type)
		assert.Equal(t, "Patch Notes\n\nSummary of the patch.", chunks[0].Text)
	})

	t.Run("Short body yields one content chunk", func(t *testing.T) {
		chunks := chunker.Chunk(testArticle("Short body."))
		require.Len(t, chunks, 2)
		assert.Equal(t, "abc123_content_1", chunks[1].ID)
		assert.Equal(t, domain.ChunkTypeContent, chunks[1].Type)
		assert.Equal(t, 0, chunks[1].StartPos)
		assert.Equal(t, len("Short body."), chunks[1].EndPos)
	})

	t.Run("Empty body yields only the title chunk", func(t *testing.T) {
		chunks := chunker.Chunk(testArticle(""))
		assert.Len(t, chunks, 1)
	})

	t.Run("Content chunks are title prefixed", func(t *testing.T) {
		chunks := chunker.Chunk(testArticle("body words here"))
		require.Len(t, chunks, 2)
		assert.True(t, strings.HasPrefix(chunks[1].Text, "Patch Notes\n\n"))
	})

	t.Run("Chunk metadata carries article fields", func(t *testing.T) {
		chunks := chunker.Chunk(testArticle("body"))
		meta := chunks[0].Meta
		assert.Equal(t, "abc123", meta.ArticleID)
		assert.Equal(t, "https://news.example.com/patch-notes", meta.URL)
		assert.Equal(t, "news, patch", meta.Tags)
		assert.Equal(t, "Unknown", meta.Author)
	})
}

func TestChunker_Coverage(t *testing.T) {
	bodies := map[string]string{
		"long prose":           strings.Repeat("some words in a sentence that keeps going ", 200),
		"no whitespace":        strings.Repeat("x", 5000),
		"exactly window size":  strings.Repeat("a", domain.DefaultChunkSize),
		"window plus one":      strings.Repeat("b ", domain.DefaultChunkSize/2+1),
		"shorter than overlap": strings.Repeat("c", domain.DefaultChunkOverlap-10),
	}

	chunker := domain.NewChunker()
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			article := testArticle(body)
			chunks := chunker.Chunk(article)
			require.Greater(t, len(chunks), 1, "non-empty body must produce a content chunk")

			var content []domain.Chunk
			for _, c := range chunks {
				if c.Type == domain.ChunkTypeContent {
					content = append(content, c)
				}
			}
			trimmed := strings.TrimSpace(body)

			// Ranges must cover [0, len) with no gap.
			assert.Equal(t, 0, content[0].StartPos)
			for i := 1; i < len(content); i++ {
				assert.LessOrEqual(t, content[i].StartPos, content[i-1].EndPos,
					"window %d leaves a gap", i)
				assert.Greater(t, content[i].EndPos, content[i-1].EndPos)
			}
			assert.Equal(t, len(trimmed), content[len(content)-1].EndPos)
		})
	}
}

func TestChunker_TerminatesOnTinyWindows(t *testing.T) {
	chunker := domain.NewChunkerWithSize(100, 20)
	body := strings.Repeat("word ", 300)

	done := make(chan []domain.Chunk, 1)
	go func() { done <- chunker.Chunk(testArticle(body)) }()

	select {
	case chunks := <-done:
		assert.NotEmpty(t, chunks)
	case <-time.After(5 * time.Second):
		t.Fatal("chunking did not terminate")
	}
}

func TestChunker_IDsAreSequential(t *testing.T) {
	chunker := domain.NewChunkerWithSize(200, 40)
	chunks := chunker.Chunk(testArticle(strings.Repeat("alpha beta gamma ", 100)))

	seen := 0
	for _, c := range chunks {
		if c.Type != domain.ChunkTypeContent {
			continue
		}
		seen++
		assert.Equal(t, fmt.Sprintf("abc123_content_%d", seen), c.ID)
		assert.Equal(t, seen, c.Index)
	}
	assert.Greater(t, seen, 1)
}
