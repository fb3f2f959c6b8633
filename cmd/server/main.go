package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"news-rag/internal/adapter/articlestore"
	"news-rag/internal/adapter/cache"
	"news-rag/internal/adapter/httpapi"
	"news-rag/internal/adapter/llm"
	"news-rag/internal/adapter/monitoring"
	"news-rag/internal/adapter/scraper"
	"news-rag/internal/adapter/vectorstore"
	"news-rag/internal/domain"
	"news-rag/internal/infra/config"
	"news-rag/internal/infra/logger"
	"news-rag/internal/usecase"
	"news-rag/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.New()
	slog.SetDefault(log)

	encoder := newEncoder(cfg)

	chunker := domain.NewChunker()
	store, err := newVectorStore(cfg, chunker, encoder, log)
	if err != nil {
		log.Error("failed to initialize vector store", "error", err)
		os.Exit(1)
	}

	urlCache, err := newCache(cfg, log)
	if err != nil {
		log.Error("failed to initialize url cache", "error", err)
		os.Exit(1)
	}

	extractor := scraper.New(cfg.SourceBaseURL, scraper.Options{
		RequestsPerSecond: cfg.RequestsPerSecond,
		RequestTimeout:    time.Duration(cfg.RequestTimeout) * time.Second,
	}, log)

	articles := articlestore.NewMemory()

	crawler := usecase.NewCrawlOrchestrator(
		extractor,
		urlCache,
		store,
		articles,
		cfg.SourceBaseURL,
		cfg.CrawlMaxArticles,
		cfg.ConcurrentRequests,
		log,
	)

	retriever := usecase.NewDocumentRetriever(store, usecase.NewQueryExpander(), log)
	generator := usecase.NewAnswerGenerator(newLLMClient(cfg, log), cfg.SourceThreshold, log)
	answerer := usecase.NewAnswerOrchestrator(retriever, generator, monitoring.NewSlog(log), cfg.MaxContextDocuments, log)

	crawlScheduler := worker.NewScheduler(func(ctx context.Context) {
		crawler.Crawl(ctx)
	}, time.Duration(cfg.CrawlIntervalHours)*time.Hour, log)
	crawlScheduler.Start()
	defer crawlScheduler.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	handler := httpapi.NewHandler(answerer, crawler, store, articles, log)
	handler.Register(e)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
}

func newEncoder(cfg *config.Config) domain.VectorEncoder {
	timeout := time.Duration(cfg.EmbedderTimeout) * time.Second
	if cfg.EmbedderBackend == "openai" {
		return llm.NewOpenAIEmbedder(cfg.APIKey, cfg.GatewayURL, cfg.EmbeddingModel, timeout)
	}
	return llm.NewOllamaEmbedder(cfg.EmbedderURL, cfg.EmbeddingModel, timeout)
}

func newVectorStore(cfg *config.Config, chunker domain.Chunker, encoder domain.VectorEncoder, log *slog.Logger) (domain.VectorStore, error) {
	switch cfg.VectorBackend {
	case "chromem":
		return vectorstore.NewChromem(cfg.ChromemPath, cfg.CollectionName, chunker, encoder, log)
	default:
		return vectorstore.NewPgVector(cfg.DSN(), cfg.CollectionName, chunker, encoder, log), nil
	}
}

func newCache(cfg *config.Config, log *slog.Logger) (domain.CacheStore, error) {
	if cfg.CacheBackend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(ctx, cfg.RedisURL, cfg.RedisSetKey, log)
	}
	return cache.NewFileCache(cfg.CacheFile, log), nil
}

func newLLMClient(cfg *config.Config, log *slog.Logger) domain.LLMClient {
	timeout := time.Duration(cfg.LLMTimeout) * time.Second
	if cfg.LLMBackend == "ollama" {
		return llm.NewOllama(cfg.GatewayURL, cfg.ModelName, timeout, log)
	}
	return llm.NewOpenAI(cfg.APIKey, llm.OpenAIOptions{
		BaseURL:     cfg.GatewayURL,
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     timeout,
	}, log)
}
