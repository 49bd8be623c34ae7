package database

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func testItem(id string, publishDate time.Time) ContentItem {
	return ContentItem{
		ID:          id,
		Source:      "youtube",
		Account:     "@testchannel",
		Title:       "Test Video " + id,
		Content:     "Transcript for " + id,
		PublishDate: publishDate,
	}
}

func TestUpsertItemPreservesStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	item := testItem("yt:video:v1", time.Now().UTC())
	if err := repo.UpsertItem(item); err != nil {
		t.Fatal(err)
	}

	if err := repo.SetStatus(item.ID, StatusDone); err != nil {
		t.Fatal(err)
	}

	// Re-ingesting the same item must not reset its stage status
	item.Title = "Updated Title"
	if err := repo.UpsertItem(item); err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetItem(item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil {
		t.Fatal("Expected item to exist")
	}
	if stored.StageStatus != StatusDone {
		t.Errorf("Expected status 'done' after re-upsert, got '%s'", stored.StageStatus)
	}
	if stored.Title != "Updated Title" {
		t.Errorf("Expected title to be updated, got '%s'", stored.Title)
	}
}

func TestClaimNextOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	now := time.Now().UTC()
	// Insert out of order; the earliest published item must be claimed first
	for _, tc := range []struct {
		id     string
		offset time.Duration
	}{
		{"yt:video:t2", -2 * time.Hour},
		{"yt:video:t1", -3 * time.Hour},
		{"yt:video:t3", -1 * time.Hour},
	} {
		if err := repo.UpsertItem(testItem(tc.id, now.Add(tc.offset))); err != nil {
			t.Fatal(err)
		}
	}

	claimed, err := repo.ClaimNext()
	if err != nil {
		t.Fatal(err)
	}
	if claimed == nil {
		t.Fatal("Expected a claimed item")
	}
	if claimed.ID != "yt:video:t1" {
		t.Errorf("Expected earliest item 'yt:video:t1', got '%s'", claimed.ID)
	}
	if claimed.StageStatus != StatusProcessing {
		t.Errorf("Expected claimed item to be processing, got '%s'", claimed.StageStatus)
	}
}

func TestClaimNextEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	claimed, err := repo.ClaimNext()
	if err != nil {
		t.Fatal(err)
	}
	if claimed != nil {
		t.Errorf("Expected nil claim on empty store, got %+v", claimed)
	}
}

func TestClaimNextMutualExclusion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	if err := repo.UpsertItem(testItem("yt:video:only", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}

	const workers = 8

	var wg sync.WaitGroup
	results := make([]*ContentItem, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.ClaimNext()
		}(i)
	}
	wg.Wait()

	claimedCount := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Errorf("Worker %d claim failed: %v", i, errs[i])
		}
		if results[i] != nil {
			claimedCount++
		}
	}

	if claimedCount != 1 {
		t.Errorf("Expected exactly 1 successful claim with 1 pending item, got %d", claimedCount)
	}
}

func TestRecoverOnStartup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	now := time.Now().UTC()
	items := map[string]string{
		"yt:video:a": StatusProcessing,
		"yt:video:b": StatusError,
		"yt:video:c": StatusDone,
		"yt:video:d": StatusPending,
	}
	for id, status := range items {
		if err := repo.UpsertItem(testItem(id, now)); err != nil {
			t.Fatal(err)
		}
		if err := repo.SetStatus(id, status); err != nil {
			t.Fatal(err)
		}
	}

	recovered, err := repo.RecoverOnStartup()
	if err != nil {
		t.Fatal(err)
	}
	if recovered != 2 {
		t.Errorf("Expected 2 recovered items, got %d", recovered)
	}

	expected := map[string]string{
		"yt:video:a": StatusPending,
		"yt:video:b": StatusPending,
		"yt:video:c": StatusDone,
		"yt:video:d": StatusPending,
	}
	for id, want := range expected {
		stored, err := repo.GetItem(id)
		if err != nil {
			t.Fatal(err)
		}
		if stored.StageStatus != want {
			t.Errorf("Item %s: expected status '%s', got '%s'", id, want, stored.StageStatus)
		}
	}
}

func TestLatestPublishDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	latest, err := repo.LatestPublishDate("youtube", "@testchannel")
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Errorf("Expected nil watermark for unknown channel, got %v", latest)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpsertItem(testItem("yt:video:old", now.Add(-48*time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertItem(testItem("yt:video:new", now)); err != nil {
		t.Fatal(err)
	}

	latest, err = repo.LatestPublishDate("youtube", "@testchannel")
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil {
		t.Fatal("Expected a watermark")
	}
	if !latest.Equal(now) {
		t.Errorf("Expected watermark %v, got %v", now, latest)
	}
}

func TestGetStatusCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	now := time.Now().UTC()
	for i, id := range []string{"yt:video:1", "yt:video:2", "yt:video:3"} {
		if err := repo.UpsertItem(testItem(id, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.SetStatus("yt:video:3", StatusDone); err != nil {
		t.Fatal(err)
	}

	counts, err := repo.GetStatusCounts()
	if err != nil {
		t.Fatal(err)
	}
	if counts[StatusPending] != 2 {
		t.Errorf("Expected 2 pending items, got %d", counts[StatusPending])
	}
	if counts[StatusDone] != 1 {
		t.Errorf("Expected 1 done item, got %d", counts[StatusDone])
	}
}
