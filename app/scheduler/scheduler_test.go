package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/feedlab/topicast/app/database"
	"github.com/feedlab/topicast/app/sources"
)

type fakeAdapter struct {
	mu      sync.Mutex
	source  string
	account string
	fetches []time.Time
	err     error
	delay   time.Duration
}

func (a *fakeAdapter) Source() string  { return a.source }
func (a *fakeAdapter) Account() string { return a.account }

func (a *fakeAdapter) Fetch(ctx context.Context, since time.Time) error {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	a.mu.Lock()
	a.fetches = append(a.fetches, since)
	a.mu.Unlock()
	return a.err
}

func (a *fakeAdapter) fetchCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fetches)
}

func (a *fakeAdapter) lastSince() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches[len(a.fetches)-1]
}

type fakeContentRepo struct {
	latest map[string]time.Time
	err    error
}

func (r *fakeContentRepo) UpsertItem(item database.ContentItem) error { return nil }
func (r *fakeContentRepo) ClaimNext() (*database.ContentItem, error)  { return nil, nil }
func (r *fakeContentRepo) SetStatus(itemID, status string) error      { return nil }
func (r *fakeContentRepo) RecoverOnStartup() (int, error)             { return 0, nil }
func (r *fakeContentRepo) GetItem(itemID string) (*database.ContentItem, error) {
	return nil, nil
}
func (r *fakeContentRepo) GetStatusCounts() (map[string]int, error) { return nil, nil }

func (r *fakeContentRepo) LatestPublishDate(source, account string) (*time.Time, error) {
	if r.err != nil {
		return nil, r.err
	}
	if t, ok := r.latest[source+"/"+account]; ok {
		return &t, nil
	}
	return nil, nil
}

var initialSince = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFirstCycleRunsImmediately(t *testing.T) {
	adapter := &fakeAdapter{source: "youtube", account: "@alpha"}
	ingestor := NewIngestor([]sources.Adapter{adapter}, &fakeContentRepo{}, time.Hour, initialSince)

	ingestor.Start()
	defer ingestor.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for adapter.fetchCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if adapter.fetchCount() != 1 {
		t.Fatalf("Expected exactly 1 fetch after startup, got %d", adapter.fetchCount())
	}
}

func TestFreshChannelUsesInitialCutoff(t *testing.T) {
	adapter := &fakeAdapter{source: "youtube", account: "@fresh"}
	ingestor := NewIngestor([]sources.Adapter{adapter}, &fakeContentRepo{}, time.Hour, initialSince)

	ingestor.runCycle()

	if got := adapter.lastSince(); !got.Equal(initialSince) {
		t.Errorf("Expected initial cutoff %v, got %v", initialSince, got)
	}
}

func TestKnownChannelUsesLatestPublishDate(t *testing.T) {
	latest := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeContentRepo{latest: map[string]time.Time{"rss/@known": latest}}
	adapter := &fakeAdapter{source: "rss", account: "@known"}
	ingestor := NewIngestor([]sources.Adapter{adapter}, repo, time.Hour, initialSince)

	ingestor.runCycle()

	if got := adapter.lastSince(); !got.Equal(latest) {
		t.Errorf("Expected latest publish date %v, got %v", latest, got)
	}
}

func TestWatermarkErrorFallsBackToInitialCutoff(t *testing.T) {
	repo := &fakeContentRepo{err: fmt.Errorf("database is locked")}
	adapter := &fakeAdapter{source: "rss", account: "@known"}
	ingestor := NewIngestor([]sources.Adapter{adapter}, repo, time.Hour, initialSince)

	ingestor.runCycle()

	if got := adapter.lastSince(); !got.Equal(initialSince) {
		t.Errorf("Expected fallback to initial cutoff, got %v", got)
	}
}

func TestFailingAdapterDoesNotBlockOthers(t *testing.T) {
	broken := &fakeAdapter{source: "youtube", account: "@broken", err: fmt.Errorf("channel not found")}
	healthy := &fakeAdapter{source: "rss", account: "@healthy"}
	ingestor := NewIngestor([]sources.Adapter{broken, healthy}, &fakeContentRepo{}, time.Hour, initialSince)

	ingestor.runCycle()

	if broken.fetchCount() != 1 {
		t.Errorf("Expected broken adapter to be attempted, got %d fetches", broken.fetchCount())
	}
	if healthy.fetchCount() != 1 {
		t.Errorf("Expected healthy adapter to run after a failure, got %d fetches", healthy.fetchCount())
	}
}

func TestStopWaitsForInProgressCycle(t *testing.T) {
	adapter := &fakeAdapter{source: "rss", account: "@slow", delay: 100 * time.Millisecond}
	ingestor := NewIngestor([]sources.Adapter{adapter}, &fakeContentRepo{}, time.Hour, initialSince)

	ingestor.Start()
	time.Sleep(20 * time.Millisecond)
	ingestor.Stop()

	if adapter.fetchCount() != 1 {
		t.Fatalf("Expected in-progress fetch to complete before Stop returned, got %d", adapter.fetchCount())
	}
}

func TestIntervalMeasuredFromCycleEnd(t *testing.T) {
	adapter := &fakeAdapter{source: "rss", account: "@fast"}
	ingestor := NewIngestor([]sources.Adapter{adapter}, &fakeContentRepo{}, 50*time.Millisecond, initialSince)

	ingestor.Start()
	time.Sleep(180 * time.Millisecond)
	ingestor.Stop()

	// 0ms, ~50ms, ~100ms, ~150ms
	count := adapter.fetchCount()
	if count < 2 || count > 5 {
		t.Errorf("Expected repeated cycles on the interval, got %d fetches", count)
	}
}
