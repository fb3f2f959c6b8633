package httpapi_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-rag/internal/adapter/articlestore"
	"news-rag/internal/adapter/httpapi"
	"news-rag/internal/adapter/monitoring"
	"news-rag/internal/domain"
	"news-rag/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubVectorStore struct {
	docs    []domain.RetrievedDocument
	infoErr error
}

func (s *stubVectorStore) Store(ctx context.Context, a domain.Article) error  { return nil }
func (s *stubVectorStore) Update(ctx context.Context, a domain.Article) error { return nil }
func (s *stubVectorStore) Search(ctx context.Context, q string, k int) ([]domain.RetrievedDocument, error) {
	return s.docs, nil
}
func (s *stubVectorStore) Info(ctx context.Context) (domain.CollectionInfo, error) {
	if s.infoErr != nil {
		return domain.CollectionInfo{}, s.infoErr
	}
	return domain.CollectionInfo{Name: "game_articles", DocumentCount: 42, Status: "connected", Backend: "chromem"}, nil
}

type stubLLM struct {
	answer string
}

func (s *stubLLM) Generate(ctx context.Context, system, user string) (string, error) {
	return s.answer, nil
}
func (s *stubLLM) Model() string { return "stub" }

type stubExtractor struct {
	mu        sync.Mutex
	discovers int
}

func (s *stubExtractor) DiscoverURLs(ctx context.Context, indexURL string, maxCount int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discovers++
	return nil, nil
}
func (s *stubExtractor) Extract(ctx context.Context, url string) (*domain.Article, error) {
	return nil, nil
}
func (s *stubExtractor) discoverCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discovers
}

type stubCache struct{}

func (stubCache) Contains(ctx context.Context, url string) bool { return false }
func (stubCache) MarkProcessed(ctx context.Context, url string) {}
func (stubCache) All(ctx context.Context) map[string]struct{}   { return map[string]struct{}{} }
func (stubCache) Clear(ctx context.Context) error               { return nil }

func newTestHandler(store *stubVectorStore, extractor *stubExtractor) (*httpapi.Handler, *echo.Echo) {
	log := testLogger()
	repo := articlestore.NewMemory()

	retriever := usecase.NewDocumentRetriever(store, usecase.NewQueryExpander(), log)
	generator := usecase.NewAnswerGenerator(&stubLLM{answer: "Here is the answer."}, 0.7, log)
	answerer := usecase.NewAnswerOrchestrator(retriever, generator, monitoring.Noop{}, 5, log)
	crawler := usecase.NewCrawlOrchestrator(extractor, stubCache{}, store, repo, "https://example.com", 20, 3, log)

	handler := httpapi.NewHandler(answerer, crawler, store, repo, log)
	e := echo.New()
	handler.Register(e)
	return handler, e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAsk_ReturnsAnswer(t *testing.T) {
	store := &stubVectorStore{docs: []domain.RetrievedDocument{
		{ID: "1", Title: "Patch notes", URL: "https://example.com/patch", Content: "content", Similarity: 0.9},
	}}
	_, e := newTestHandler(store, &stubExtractor{})

	rec := doRequest(e, http.MethodPost, "/ask", `{"question": "What changed?", "user_id": "u1", "username": "tester"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Response       string   `json:"response"`
		SourceArticles []string `json:"source_articles"`
		Confidence     float64  `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Here is the answer.", resp.Response)
	assert.Equal(t, []string{"https://example.com/patch"}, resp.SourceArticles)
	assert.Greater(t, resp.Confidence, 0.0)
}

func TestAsk_ValidationFailures(t *testing.T) {
	_, e := newTestHandler(&stubVectorStore{}, &stubExtractor{})

	cases := []struct {
		name string
		body string
	}{
		{"missing question", `{"user_id": "u1"}`},
		{"blank question", `{"question": "   ", "user_id": "u1"}`},
		{"missing user_id", `{"question": "What changed?"}`},
		{"malformed json", `{not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodPost, "/ask", tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestHealth_Healthy(t *testing.T) {
	_, e := newTestHandler(&stubVectorStore{}, &stubExtractor{})

	rec := doRequest(e, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	vectorDB, ok := resp["vector_db"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "game_articles", vectorDB["name"])
}

func TestHealth_Unhealthy(t *testing.T) {
	store := &stubVectorStore{infoErr: domain.ErrVectorStoreUnavailable}
	_, e := newTestHandler(store, &stubExtractor{})

	rec := doRequest(e, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp["status"])
}

func TestCrawl_FireAndForget(t *testing.T) {
	extractor := &stubExtractor{}
	_, e := newTestHandler(&stubVectorStore{}, extractor)

	rec := doRequest(e, http.MethodPost, "/crawl", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "started", resp["status"])
	assert.NotEmpty(t, resp["run_id"])

	assert.Eventually(t, func() bool { return extractor.discoverCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestStats_ReportsCrawlerAndStore(t *testing.T) {
	_, e := newTestHandler(&stubVectorStore{}, &stubExtractor{})

	rec := doRequest(e, http.MethodGet, "/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "total_articles")
	assert.Contains(t, resp, "vector_db")
}
