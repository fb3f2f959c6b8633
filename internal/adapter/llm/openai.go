// Package llm adapts generative and embedding backends behind the domain
// ports. The openai client also speaks to OpenAI-compatible gateways.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"news-rag/internal/domain"
	"news-rag/internal/infra/httpclient"
)

// OpenAIClient generates answers through the OpenAI chat API or any gateway
// exposing the same surface.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	log         *slog.Logger
}

var _ domain.LLMClient = (*OpenAIClient)(nil)

// OpenAIOptions tunes the client.
type OpenAIOptions struct {
	BaseURL     string // empty for api.openai.com
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewOpenAI builds the client. BaseURL points at a gateway when answers are
// proxied through one.
func NewOpenAI(apiKey string, opts OpenAIOptions, log *slog.Logger) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	config.HTTPClient = httpclient.NewPooledClient(timeout)

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(config),
		model:       opts.Model,
		temperature: float32(opts.Temperature),
		maxTokens:   opts.MaxTokens,
		log:         log,
	}
}

func (c *OpenAIClient) Model() string { return c.model }

// Generate sends a system/user prompt pair and returns the completion text.
// Known failure classes map to the domain sentinels so the answer pipeline
// can pick the right fallback.
func (c *OpenAIClient) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion from model %s", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %v", domain.ErrLLMRejected, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", domain.ErrLLMRateLimited, err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrLLMTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrLLMTimeout, err)
	}
	return err
}
