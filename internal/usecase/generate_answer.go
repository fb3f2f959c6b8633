package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"news-rag/internal/domain"
)

const (
	contentExcerptLength = 1000
	confidenceCap        = 0.95
	noContextConfidence  = 0.1
)

// Fallback messages returned instead of raw backend errors.
const (
	fallbackRejected  = "I cannot process this request due to security policy restrictions. Please rephrase your question."
	fallbackRateLimit = "I'm currently handling too many requests. Please try again in a moment."
	fallbackTimeout   = "The request is taking too long to process. Please try again."
	fallbackGeneric   = "I'm sorry, I'm having trouble processing your question right now. Please try again in a moment."
)

const systemMessage = `You are a helpful World of Warcraft news assistant.
Your role is to provide accurate, up-to-date information about World of Warcraft based on the provided context.

Guidelines:
- Answer questions clearly and concisely
- Base your responses primarily on the provided context documents
- If the context doesn't contain relevant information, say so politely
- Keep responses under 500 words
- Focus on factual information about WoW news, updates, and changes
- Mention specific sources when relevant`

// AnswerGenerator builds the prompt, calls the generative backend, and
// derives confidence and provenance. It never returns an error: every
// backend failure mode resolves to a safe fallback AnswerResult.
type AnswerGenerator struct {
	client          domain.LLMClient
	sourceThreshold float64
	log             *slog.Logger
}

func NewAnswerGenerator(client domain.LLMClient, sourceThreshold float64, log *slog.Logger) *AnswerGenerator {
	if sourceThreshold <= 0 {
		sourceThreshold = 0.7
	}
	return &AnswerGenerator{
		client:          client,
		sourceThreshold: sourceThreshold,
		log:             log,
	}
}

// Generate answers the question against the ranked context documents.
func (g *AnswerGenerator) Generate(ctx context.Context, question string, docs []domain.RetrievedDocument) domain.AnswerResult {
	contextBlock := formatContext(docs)
	userMessage := fmt.Sprintf("Context documents:\n%s\n\nQuestion: %s\n\nPlease provide a helpful response based on the context above.", contextBlock, question)

	content, err := g.client.Generate(ctx, systemMessage, userMessage)
	if err != nil {
		return g.fallback(question, err)
	}

	return domain.AnswerResult{
		Content:        content,
		SourceArticles: g.sources(docs),
		Confidence:     calculateConfidence(docs, question),
		Timestamp:      time.Now(),
	}
}

func (g *AnswerGenerator) fallback(question string, err error) domain.AnswerResult {
	var message string
	switch {
	case errors.Is(err, domain.ErrLLMRejected):
		g.log.Warn("Request blocked by backend security policy", "question", truncateForLog(question))
		message = fallbackRejected
	case errors.Is(err, domain.ErrLLMRateLimited):
		g.log.Warn("Rate limit exceeded at generative backend")
		message = fallbackRateLimit
	case errors.Is(err, domain.ErrLLMTimeout):
		g.log.Error("Timeout from generative backend", "question", truncateForLog(question))
		message = fallbackTimeout
	default:
		g.log.Error("Generative backend call failed", "error", err, "question", truncateForLog(question))
		message = fallbackGeneric
	}

	return domain.AnswerResult{
		Content:        message,
		SourceArticles: []string{},
		Confidence:     0.0,
		Timestamp:      time.Now(),
	}
}

// sources lists the URL (or title when no URL is stored) of every context
// document scoring above the inclusion threshold.
func (g *AnswerGenerator) sources(docs []domain.RetrievedDocument) []string {
	sources := []string{}
	for _, doc := range docs {
		if doc.Similarity <= g.sourceThreshold {
			continue
		}
		ref := doc.URL
		if ref == "" {
			ref = doc.Title
		}
		if ref == "" {
			ref = fmt.Sprintf("Document %s", doc.ID)
		}
		sources = append(sources, ref)
	}
	return sources
}

func formatContext(docs []domain.RetrievedDocument) string {
	if len(docs) == 0 {
		return "No relevant context documents found."
	}

	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		var sb strings.Builder
		title := doc.Title
		if title == "" {
			title = fmt.Sprintf("Document %d", i+1)
		}
		fmt.Fprintf(&sb, "Document %d: %s", i+1, title)
		if doc.URL != "" {
			fmt.Fprintf(&sb, " (Source: %s)", doc.URL)
		}
		if doc.Similarity > 0 {
			fmt.Fprintf(&sb, " (Relevance: %.2f)", doc.Similarity)
		}

		excerpt := doc.Content
		if len(excerpt) > contentExcerptLength {
			excerpt = excerpt[:contentExcerptLength] + "..."
		}
		fmt.Fprintf(&sb, "\nContent: %s\n", excerpt)

		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n---\n")
}

// calculateConfidence blends average similarity, document count, and
// question specificity. Empty context pins confidence at 0.1.
func calculateConfidence(docs []domain.RetrievedDocument, question string) float64 {
	if len(docs) == 0 {
		return noContextConfidence
	}

	var sum float64
	for _, doc := range docs {
		score := doc.Similarity
		if score == 0 {
			score = 0.5
		}
		sum += score
	}
	avgSimilarity := sum / float64(len(docs))

	docCountFactor := math.Min(float64(len(docs))/3.0, 1.0)
	questionFactor := math.Min(float64(len(question))/30.0, 1.0)

	confidence := avgSimilarity*0.6 + docCountFactor*0.3 + questionFactor*0.1
	confidence = math.Min(confidence, confidenceCap)
	return math.Round(confidence*100) / 100
}

func truncateForLog(s string) string {
	if len(s) <= 100 {
		return s
	}
	return s[:100]
}
