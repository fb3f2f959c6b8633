package domain

import (
	"fmt"
	"strings"
)

// ChunkType distinguishes the high-level title chunk from body chunks.
type ChunkType string

const (
	ChunkTypeTitleSummary ChunkType = "title_summary"
	ChunkTypeContent      ChunkType = "content"
)

const (
	// DefaultChunkSize is the sliding window width in characters.
	DefaultChunkSize = 1500
	// DefaultChunkOverlap is how far consecutive windows overlap.
	DefaultChunkOverlap = 300
	// boundaryLookback is how far back from a window edge we search for
	// whitespace before accepting a mid-word cut.
	boundaryLookback = 100
)

// Chunk is one embeddable text segment derived from an article.
// Content chunks carry the character offset range they cover in the source
// body; the ranges of all content chunks together cover the full body.
type Chunk struct {
	ID       string
	Type     ChunkType
	Text     string
	Index    int // 1-based position among content chunks, 0 for title_summary
	StartPos int
	EndPos   int
	Meta     ChunkMetadata
}

// ChunkMetadata is the article back-reference stored with every chunk.
type ChunkMetadata struct {
	ArticleID    string
	Title        string
	URL          string
	Author       string
	Category     string
	PublishedAt  string
	DiscoveredAt string
	Tags         string
	Summary      string
}

// Chunker splits an article into embeddable chunks.
type Chunker interface {
	Chunk(article Article) []Chunk
}

type slidingWindowChunker struct {
	chunkSize int
	overlap   int
}

// NewChunker returns the default sliding-window chunker.
func NewChunker() Chunker {
	return &slidingWindowChunker{chunkSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
}

// NewChunkerWithSize returns a chunker with explicit window and overlap sizes.
func NewChunkerWithSize(chunkSize, overlap int) Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &slidingWindowChunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk emits one title_summary chunk followed by overlapping content windows.
// Window edges retract to the nearest preceding whitespace within
// boundaryLookback characters, but never past half the window, so every pass
// makes forward progress. The final window always reaches the end of the body.
func (c *slidingWindowChunker) Chunk(article Article) []Chunk {
	meta := ChunkMetadata{
		ArticleID:    article.ID,
		Title:        article.Title,
		URL:          article.URL,
		Author:       orDefault(article.Author, "Unknown"),
		Category:     article.Category,
		PublishedAt:  article.PublishedAt.Format("2006-01-02T15:04:05Z07:00"),
		DiscoveredAt: article.DiscoveredAt.Format("2006-01-02T15:04:05Z07:00"),
		Tags:         strings.Join(article.Tags, ", "),
		Summary:      article.Summary,
	}

	chunks := []Chunk{{
		ID:   article.ID + "_title",
		Type: ChunkTypeTitleSummary,
		Text: article.Title + "\n\n" + article.Summary,
		Meta: meta,
	}}

	content := strings.TrimSpace(article.Content)
	if content == "" {
		return chunks
	}

	index := 0
	start := 0
	for start < len(content) {
		end := start + c.chunkSize
		if end > len(content) {
			end = len(content)
		}

		if end < len(content) {
			// Retract to a word boundary, but never past half the window.
			lookFrom := end - boundaryLookback
			if lookFrom < start {
				lookFrom = start
			}
			lastSpace := strings.LastIndexByte(content[lookFrom:end], ' ')
			if lastSpace >= 0 {
				candidate := lookFrom + lastSpace
				if candidate > start+c.chunkSize/2 {
					end = candidate
				}
			}
		}

		text := strings.TrimSpace(content[start:end])
		if text != "" {
			index++
			chunks = append(chunks, Chunk{
				ID:       fmt.Sprintf("%s_content_%d", article.ID, index),
				Type:     ChunkTypeContent,
				Text:     article.Title + "\n\n" + text,
				Index:    index,
				StartPos: start,
				EndPos:   end,
				Meta:     meta,
			})
		}

		if end >= len(content) {
			break
		}
		next := start + c.chunkSize - c.overlap
		if overlapped := end - c.overlap; overlapped > next {
			next = overlapped
		}
		// A retracted boundary must not open a gap before the next window.
		if next > end {
			next = end
		}
		start = next
	}

	return chunks
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
