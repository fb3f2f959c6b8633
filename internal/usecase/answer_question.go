package usecase

import (
	"context"
	"log/slog"
	"time"

	"news-rag/internal/domain"
)

// QuestionRequest carries one user question through the answer pipeline.
type QuestionRequest struct {
	Question  string
	UserID    string
	Username  string
	ChannelID string
	GuildID   string
}

// AnswerOrchestrator sequences retrieval, generation, and monitoring for one
// question.
type AnswerOrchestrator struct {
	retriever  *DocumentRetriever
	generator  *AnswerGenerator
	monitoring domain.Monitoring
	maxDocs    int
	log        *slog.Logger
}

func NewAnswerOrchestrator(
	retriever *DocumentRetriever,
	generator *AnswerGenerator,
	monitoring domain.Monitoring,
	maxDocs int,
	log *slog.Logger,
) *AnswerOrchestrator {
	if maxDocs <= 0 {
		maxDocs = 5
	}
	return &AnswerOrchestrator{
		retriever:  retriever,
		generator:  generator,
		monitoring: monitoring,
		maxDocs:    maxDocs,
		log:        log,
	}
}

// Answer retrieves context, generates a response, and emits one monitoring
// event. Failures surface as a single AnswerError carrying the original
// message.
func (o *AnswerOrchestrator) Answer(ctx context.Context, req QuestionRequest) (domain.AnswerResult, error) {
	start := time.Now()

	o.log.Info("Processing question",
		"user_id", req.UserID,
		"username", req.Username,
		"question_length", len(req.Question),
	)

	result, err := o.answer(ctx, req)
	duration := time.Since(start)
	if err != nil {
		o.log.Error("Failed to process question",
			"user_id", req.UserID,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return domain.AnswerResult{}, domain.NewAnswerError(err)
	}

	o.monitoring.TrackRequest(ctx, domain.MonitoringEvent{
		Question:   req.Question,
		Response:   result.Content,
		UserID:     req.UserID,
		Username:   req.Username,
		Duration:   duration,
		Confidence: result.Confidence,
		Sources:    len(result.SourceArticles),
	})

	o.log.Info("Generated answer",
		"user_id", req.UserID,
		"response_length", len(result.Content),
		"source_count", len(result.SourceArticles),
		"confidence", result.Confidence,
		"duration_ms", duration.Milliseconds(),
	)
	return result, nil
}

func (o *AnswerOrchestrator) answer(ctx context.Context, req QuestionRequest) (domain.AnswerResult, error) {
	docs := o.retriever.Retrieve(ctx, req.Question, o.maxDocs)

	o.log.Info("Retrieved context documents",
		"user_id", req.UserID,
		"document_count", len(docs),
	)

	if err := ctx.Err(); err != nil {
		return domain.AnswerResult{}, err
	}
	return o.generator.Generate(ctx, req.Question, docs), nil
}
