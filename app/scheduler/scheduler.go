package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/feedlab/topicast/app/database"
	"github.com/feedlab/topicast/app/sources"
)

// Ingestor drives periodic channel ingestion. Each cycle runs every
// configured adapter sequentially; the interval is measured from the
// end of one cycle to the start of the next, so a slow cycle never
// stacks up behind itself.
type Ingestor struct {
	adapters     []sources.Adapter
	contentRepo  database.ContentRepository
	interval     time.Duration
	initialSince time.Time
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewIngestor(adapters []sources.Adapter, contentRepo database.ContentRepository,
	interval time.Duration, initialSince time.Time) *Ingestor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Ingestor{
		adapters:     adapters,
		contentRepo:  contentRepo,
		interval:     interval,
		initialSince: initialSince,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the ingestion loop. The first cycle runs immediately.
func (s *Ingestor) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			s.runCycle()

			select {
			case <-s.ctx.Done():
				return
			case <-time.After(s.interval):
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-progress cycle to finish
func (s *Ingestor) Stop() {
	s.cancel()
	s.wg.Wait()
}

// runCycle fetches every configured channel once. A failing adapter is
// logged and skipped so one broken channel never blocks the rest.
func (s *Ingestor) runCycle() {
	if len(s.adapters) == 0 {
		slog.Debug("No channels configured, skipping ingestion cycle")
		return
	}

	start := time.Now()
	slog.Info("Starting ingestion cycle", "channels", len(s.adapters))

	failed := 0
	for _, adapter := range s.adapters {
		if s.ctx.Err() != nil {
			slog.Info("Ingestion cycle interrupted", "completed", len(s.adapters)-failed)
			return
		}

		since := s.sinceFor(adapter)
		if err := sources.Run(s.ctx, adapter, since); err != nil {
			failed++
		}
	}

	slog.Info("Ingestion cycle completed",
		"channels", len(s.adapters),
		"failed", failed,
		"duration", time.Since(start))
}

// sinceFor returns the watermark for one channel: the latest stored
// publish date, or the configured initial cutoff for a fresh channel
func (s *Ingestor) sinceFor(adapter sources.Adapter) time.Time {
	latest, err := s.contentRepo.LatestPublishDate(adapter.Source(), adapter.Account())
	if err != nil {
		slog.Warn("Failed to read latest publish date, using initial cutoff",
			"source", adapter.Source(), "account", adapter.Account(), "error", err)
		return s.initialSince
	}
	if latest == nil {
		return s.initialSince
	}
	return *latest
}
