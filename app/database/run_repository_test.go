package database

import (
	"testing"
	"time"
)

func TestInsertAndGetRecentRuns(t *testing.T) {
	db := newTestDB(t)
	repo := NewRunRepository(db)

	first := Run{
		TotalRaw:           80,
		TotalNormalized:    78,
		TotalNew:           60,
		TotalStored:        60,
		DuplicatesFiltered: 18,
		SourceCount:        5,
		ErrorCount:         1,
		Duration:           2500 * time.Millisecond,
		CompletedAt:        time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
	}
	second := Run{
		TotalRaw:    30,
		TotalNew:    30,
		SourceCount: 2,
		Duration:    900 * time.Millisecond,
		CompletedAt: time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC),
	}

	if _, err := repo.InsertRun(first); err != nil {
		t.Fatal(err)
	}
	id, err := repo.InsertRun(second)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Error("Expected InsertRun to return an ID")
	}

	runs, err := repo.GetRecentRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}

	// Most recent first.
	if !runs[0].CompletedAt.After(runs[1].CompletedAt) {
		t.Errorf("Expected runs ordered by completed_at descending, got %v then %v",
			runs[0].CompletedAt, runs[1].CompletedAt)
	}
	if runs[1].TotalRaw != 80 || runs[1].DuplicatesFiltered != 18 {
		t.Errorf("Unexpected first run counters: %+v", runs[1])
	}
	if runs[0].Duration != 900*time.Millisecond {
		t.Errorf("Expected duration 900ms, got %v", runs[0].Duration)
	}
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	itemRepo := NewItemRepository(db)
	runRepo := NewRunRepository(db)

	stats, err := runRepo.GetStats(itemRepo)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalItems != 0 || stats.TotalRuns != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
	if stats.LastCompletedAt != nil {
		t.Errorf("Expected no last run, got %v", stats.LastCompletedAt)
	}

	if _, err := runRepo.InsertRun(Run{SourceCount: 3, CompletedAt: time.Now().UTC()}); err != nil {
		t.Fatal(err)
	}

	stats, err = runRepo.GetStats(itemRepo)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRuns != 1 {
		t.Errorf("Expected 1 run, got %d", stats.TotalRuns)
	}
	if stats.LastCompletedAt == nil {
		t.Error("Expected last completed timestamp after a run")
	}
}
