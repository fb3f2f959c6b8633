// Package monitoring records answer-pipeline events.
package monitoring

import (
	"context"
	"log/slog"

	"news-rag/internal/domain"
)

// SlogMonitoring emits one structured log record per answered question.
type SlogMonitoring struct {
	log *slog.Logger
}

var _ domain.Monitoring = (*SlogMonitoring)(nil)

func NewSlog(log *slog.Logger) *SlogMonitoring {
	return &SlogMonitoring{log: log}
}

func (m *SlogMonitoring) TrackRequest(ctx context.Context, event domain.MonitoringEvent) {
	m.log.Info("Question answered",
		"user_id", event.UserID,
		"username", event.Username,
		"question_length", len(event.Question),
		"response_length", len(event.Response),
		"duration_ms", event.Duration.Milliseconds(),
		"confidence", event.Confidence,
		"sources", event.Sources,
	)
}

// Noop discards all events.
type Noop struct{}

var _ domain.Monitoring = Noop{}

func (Noop) TrackRequest(ctx context.Context, event domain.MonitoringEvent) {}
