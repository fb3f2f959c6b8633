package worker_test

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"news-rag/internal/worker"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	var runs atomic.Int32
	s := worker.NewScheduler(func(ctx context.Context) {
		runs.Add(1)
	}, 30*time.Millisecond, testLogger())

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, 5*time.Millisecond)
}

func TestScheduler_SkipsOverlappingCycles(t *testing.T) {
	var started atomic.Int32
	block := make(chan struct{})

	s := worker.NewScheduler(func(ctx context.Context) {
		started.Add(1)
		<-block
	}, 20*time.Millisecond, testLogger())

	s.Start()

	// Several ticks elapse while the first crawl is blocked.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, int32(1), started.Load())

	close(block)
	s.Stop()
}

func TestScheduler_StopPreventsFurtherRuns(t *testing.T) {
	var runs atomic.Int32
	s := worker.NewScheduler(func(ctx context.Context) {
		runs.Add(1)
	}, 20*time.Millisecond, testLogger())

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 },
		time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(80 * time.Millisecond)
	assert.LessOrEqual(t, runs.Load(), after+1)
}

func TestScheduler_DoubleStartIsNoop(t *testing.T) {
	var runs atomic.Int32
	s := worker.NewScheduler(func(ctx context.Context) {
		runs.Add(1)
		time.Sleep(10 * time.Millisecond)
	}, time.Hour, testLogger())

	s.Start()
	s.Start()
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}
