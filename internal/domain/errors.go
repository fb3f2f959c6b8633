// Domain-level sentinel errors, checked with errors.Is / errors.As.
package domain

import (
	"errors"
	"fmt"
)

// Connectivity errors. Raised once at first use and surfaced as unhealthy
// status; never retried automatically.
var (
	// ErrVectorStoreUnavailable indicates the vector store cannot be reached.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrCacheUnavailable indicates the URL cache backend cannot be reached.
	ErrCacheUnavailable = errors.New("cache store unavailable")
)

// Generative-backend failures. The answer generator maps each of these to a
// distinct safe fallback message instead of propagating them.
var (
	// ErrLLMTimeout indicates the backend did not answer within its deadline.
	ErrLLMTimeout = errors.New("llm request timed out")

	// ErrLLMRateLimited indicates the backend returned a rate-limit response.
	ErrLLMRateLimited = errors.New("llm rate limit exceeded")

	// ErrLLMRejected indicates the backend's security policy refused the prompt.
	ErrLLMRejected = errors.New("llm request rejected by security policy")
)

// Extraction errors.
var (
	// ErrNoContent indicates a page yielded no usable title or body text.
	ErrNoContent = errors.New("no extractable content")
)

// AnswerError is the single error type the presentation layer branches on.
// It wraps any failure raised while answering a question, preserving the
// original message.
type AnswerError struct {
	Err error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("failed to process question: %v", e.Err)
}

func (e *AnswerError) Unwrap() error {
	return e.Err
}

// NewAnswerError wraps err into the orchestrator-level error type.
func NewAnswerError(err error) *AnswerError {
	return &AnswerError{Err: err}
}
