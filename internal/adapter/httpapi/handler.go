// Package httpapi exposes the answer and crawl pipelines over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"news-rag/internal/domain"
	"news-rag/internal/usecase"
)

// Handler wires the use cases to echo routes.
type Handler struct {
	answerer *usecase.AnswerOrchestrator
	crawler  *usecase.CrawlOrchestrator
	store    domain.VectorStore
	articles domain.ArticleRepository
	log      *slog.Logger
}

func NewHandler(
	answerer *usecase.AnswerOrchestrator,
	crawler *usecase.CrawlOrchestrator,
	store domain.VectorStore,
	articles domain.ArticleRepository,
	log *slog.Logger,
) *Handler {
	return &Handler{
		answerer: answerer,
		crawler:  crawler,
		store:    store,
		articles: articles,
		log:      log,
	}
}

// Register mounts all routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/ask", h.Ask)
	e.GET("/health", h.Health)
	e.POST("/crawl", h.Crawl)
	e.GET("/stats", h.Stats)
}

type askRequest struct {
	Question  string `json:"question"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
}

type askResponse struct {
	Response       string    `json:"response"`
	SourceArticles []string  `json:"source_articles"`
	Confidence     float64   `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`
}

// Ask answers one question. Validation failures return 422 before the
// orchestrator is touched; orchestrator failures return 500.
func (h *Handler) Ask(ctx echo.Context) error {
	var req askRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "question is required"})
	}
	if strings.TrimSpace(req.UserID) == "" {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "user_id is required"})
	}

	result, err := h.answerer.Answer(ctx.Request().Context(), usecase.QuestionRequest{
		Question:  req.Question,
		UserID:    req.UserID,
		Username:  req.Username,
		ChannelID: req.ChannelID,
		GuildID:   req.GuildID,
	})
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	sources := result.SourceArticles
	if sources == nil {
		sources = []string{}
	}
	return ctx.JSON(http.StatusOK, askResponse{
		Response:       result.Content,
		SourceArticles: sources,
		Confidence:     result.Confidence,
		Timestamp:      result.Timestamp,
	})
}

// Health reports vector-store reachability.
func (h *Handler) Health(ctx echo.Context) error {
	info, err := h.store.Info(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().Unix(),
		})
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"status": "healthy",
		"vector_db": map[string]any{
			"name":    info.Name,
			"count":   info.DocumentCount,
			"status":  info.Status,
			"backend": info.Backend,
		},
		"timestamp": time.Now().Unix(),
	})
}

// Crawl starts a crawl cycle in the background and returns immediately.
func (h *Handler) Crawl(ctx echo.Context) error {
	runID := uuid.New().String()
	h.log.Info("Crawl triggered via API", "run_id", runID)

	go func() {
		// The request context dies with the response; the crawl outlives it.
		result := h.crawler.Crawl(context.Background())
		h.log.Info("Triggered crawl finished",
			"run_id", runID,
			"processed", result.Processed,
			"failed", result.Failed,
		)
	}()

	return ctx.JSON(http.StatusOK, map[string]string{"status": "started", "run_id": runID})
}

// Stats reports crawler counters and vector-store introspection.
func (h *Handler) Stats(ctx echo.Context) error {
	stats, err := h.articles.Stats(ctx.Request().Context())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	payload := map[string]any{
		"total_articles":  stats.TotalArticles,
		"processed_count": stats.ProcessedCount,
		"updated_count":   stats.UpdatedCount,
		"failed_count":    stats.FailedCount,
	}
	if stats.LastCrawl != nil {
		payload["last_crawl"] = map[string]any{
			"discovered":   stats.LastCrawl.Discovered,
			"processed":    stats.LastCrawl.Processed,
			"updated":      stats.LastCrawl.Updated,
			"skipped":      stats.LastCrawl.Skipped,
			"failed":       stats.LastCrawl.Failed,
			"success_rate": stats.LastCrawl.SuccessRate(),
			"duration_ms":  stats.LastCrawl.Duration.Milliseconds(),
			"started_at":   stats.LastCrawl.StartedAt,
		}
	}

	if info, err := h.store.Info(ctx.Request().Context()); err == nil {
		payload["vector_db"] = map[string]any{
			"name":    info.Name,
			"count":   info.DocumentCount,
			"status":  info.Status,
			"backend": info.Backend,
		}
	}

	return ctx.JSON(http.StatusOK, payload)
}
