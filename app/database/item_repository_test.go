package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/devsignals/pipeline/app/normalizer"
	"github.com/devsignals/pipeline/app/sources"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func testItem(title, url, hash string) *normalizer.Item {
	return &normalizer.Item{
		SourceName:   "hackernews",
		Tier:         sources.TierHighSignal,
		Reliability:  0.9,
		ExternalID:   "42",
		Title:        title,
		URL:          url,
		Description:  "a description",
		FetchedAt:    time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		Categories:   []string{"database"},
		Technologies: []string{"postgres"},
		Ecosystems:   []string{},
		Traction:     map[string]float64{"score": 100, "comments": 10},
		ContentHash:  hash,
	}
}

func TestInsertItemsAndLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewItemRepository(db)

	items := []*normalizer.Item{
		testItem("Postgres replication deep dive", "https://example.com/pg", "hash-a"),
		testItem("Zig comptime explained", "https://example.com/zig", "hash-b"),
	}

	stored, failed, err := repo.InsertItems(items)
	if err != nil {
		t.Fatal(err)
	}
	if stored != 2 || failed != 0 {
		t.Fatalf("Expected 2 stored and 0 failed, got %d and %d", stored, failed)
	}
	for i, item := range items {
		if item.ID == "" {
			t.Errorf("Expected item %d to receive an ID", i)
		}
	}

	id, err := repo.GetIDByContentHash("hash-a")
	if err != nil {
		t.Fatal(err)
	}
	if id != items[0].ID {
		t.Errorf("Expected lookup to return %q, got %q", items[0].ID, id)
	}

	id, err = repo.GetIDByContentHash("hash-unknown")
	if err != nil {
		t.Fatal(err)
	}
	if id != "" {
		t.Errorf("Expected empty ID for unknown hash, got %q", id)
	}
}

func TestInsertItemsDuplicateHashPartialFailure(t *testing.T) {
	db := newTestDB(t)
	repo := NewItemRepository(db)

	first := []*normalizer.Item{testItem("Original", "https://example.com/1", "hash-dup")}
	if _, _, err := repo.InsertItems(first); err != nil {
		t.Fatal(err)
	}

	// Second batch: one row violates the content_hash constraint, the other
	// is fine. The good row must still land.
	second := []*normalizer.Item{
		testItem("Raced-in duplicate", "https://example.com/1", "hash-dup"),
		testItem("Independent item", "https://example.com/2", "hash-ok"),
	}

	stored, failed, err := repo.InsertItems(second)
	if err != nil {
		t.Fatal(err)
	}
	if stored != 1 {
		t.Errorf("Expected 1 stored, got %d", stored)
	}
	if failed != 1 {
		t.Errorf("Expected 1 failed, got %d", failed)
	}

	total, _, err := repo.CountItems()
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("Expected 2 rows in total, got %d", total)
	}
}

func TestUpdateTractionKeepsFieldwiseMax(t *testing.T) {
	db := newTestDB(t)
	repo := NewItemRepository(db)

	items := []*normalizer.Item{testItem("Story", "https://example.com/s", "hash-t")}
	if _, _, err := repo.InsertItems(items); err != nil {
		t.Fatal(err)
	}
	id := items[0].ID

	// Higher score, lower comments, new field.
	err := repo.UpdateTraction(id, map[string]float64{"score": 250, "comments": 3, "upvote_ratio": 0.97})
	if err != nil {
		t.Fatal(err)
	}

	recent, err := repo.GetRecentItems(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(recent))
	}

	traction := recent[0].Traction
	if traction["score"] != 250 {
		t.Errorf("Expected score upgraded to 250, got %v", traction["score"])
	}
	if traction["comments"] != 10 {
		t.Errorf("Expected comments to keep the stored max 10, got %v", traction["comments"])
	}
	if traction["upvote_ratio"] != 0.97 {
		t.Errorf("Expected new field upvote_ratio 0.97, got %v", traction["upvote_ratio"])
	}
}

func TestItemRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewItemRepository(db)

	published := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	item := testItem("Round trip", "https://example.com/rt", "hash-rt")
	item.PublishedAt = published

	if _, _, err := repo.InsertItems([]*normalizer.Item{item}); err != nil {
		t.Fatal(err)
	}

	recent, err := repo.GetRecentItems(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(recent))
	}

	got := recent[0]
	if got.Title != "Round trip" || got.URL != "https://example.com/rt" {
		t.Errorf("Unexpected title/url: %q %q", got.Title, got.URL)
	}
	if got.Source != "hackernews" || got.Tier != string(sources.TierHighSignal) {
		t.Errorf("Unexpected source/tier: %q %q", got.Source, got.Tier)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(published) {
		t.Errorf("Expected published at %v, got %v", published, got.PublishedAt)
	}
	if len(got.Categories) != 1 || got.Categories[0] != "database" {
		t.Errorf("Expected categories [database], got %v", got.Categories)
	}
	if got.Processed {
		t.Error("Expected item to start unprocessed")
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set by the database")
	}
}

func TestUnprocessedItemsAndMarkProcessed(t *testing.T) {
	db := newTestDB(t)
	repo := NewItemRepository(db)

	items := []*normalizer.Item{
		testItem("One", "https://example.com/1", "hash-1"),
		testItem("Two", "https://example.com/2", "hash-2"),
		testItem("Three", "https://example.com/3", "hash-3"),
	}
	if _, _, err := repo.InsertItems(items); err != nil {
		t.Fatal(err)
	}

	unprocessed, err := repo.GetUnprocessedItems(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(unprocessed) != 3 {
		t.Fatalf("Expected 3 unprocessed items, got %d", len(unprocessed))
	}

	if err := repo.MarkProcessed([]string{items[0].ID, items[2].ID}); err != nil {
		t.Fatal(err)
	}

	unprocessed, err = repo.GetUnprocessedItems(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(unprocessed) != 1 {
		t.Fatalf("Expected 1 unprocessed item, got %d", len(unprocessed))
	}
	if unprocessed[0].ID != items[1].ID {
		t.Errorf("Expected the untouched item to remain, got %q", unprocessed[0].ID)
	}

	total, processed, err := repo.CountItems()
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || processed != 2 {
		t.Errorf("Expected total 3 processed 2, got %d and %d", total, processed)
	}

	// Empty set is a no-op.
	if err := repo.MarkProcessed(nil); err != nil {
		t.Errorf("Expected no error for empty ID set, got %v", err)
	}
}
