// Package worker runs the periodic crawl loop.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CrawlFunc runs one crawl cycle.
type CrawlFunc func(ctx context.Context)

// Scheduler triggers a crawl cycle on a fixed interval. Cycles never
// overlap: a tick arriving while a crawl is still running is dropped.
type Scheduler struct {
	crawl    CrawlFunc
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger

	ticker   *time.Ticker
	stopChan chan struct{}

	mu        sync.Mutex
	isRunning bool
	inFlight  bool
}

// NewScheduler creates a scheduler that invokes crawl every interval.
func NewScheduler(crawl CrawlFunc, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		crawl:    crawl,
		interval: interval,
		timeout:  interval,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Start launches the loop. An initial crawl runs immediately so a fresh
// deployment does not wait a full interval for its first content.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.log.Warn("Scheduler is already running")
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.interval)
	s.mu.Unlock()

	s.log.Info("Starting crawl scheduler", "interval", s.interval)

	go func() {
		s.runOnce()
		s.runLoop()
	}()
}

// Stop halts the loop. An in-flight crawl finishes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}

	s.log.Info("Stopping crawl scheduler")
	close(s.stopChan)
	s.ticker.Stop()
	s.isRunning = false
}

func (s *Scheduler) runLoop() {
	for {
		select {
		case <-s.stopChan:
			return
		case <-s.ticker.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.log.Warn("Previous crawl still running, skipping this cycle")
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.crawl(ctx)
}
