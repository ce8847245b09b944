package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRepository persists pipeline run summaries for the stats endpoint.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) InsertRun(run Run) (string, error) {
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO runs (
			id, total_raw, total_normalized, total_new, total_stored,
			duplicates_filtered, source_count, error_count, duration_ms,
			completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, run.TotalRaw, run.TotalNormalized, run.TotalNew, run.TotalStored,
		run.DuplicatesFiltered, run.SourceCount, run.ErrorCount,
		run.Duration.Milliseconds(), run.CompletedAt.UTC())

	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	return id, nil
}

func (r *RunRepository) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`
		SELECT id, total_raw, total_normalized, total_new, total_stored,
		       duplicates_filtered, source_count, error_count, duration_ms,
		       completed_at
		FROM runs
		ORDER BY completed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var durationMs int64
		err := rows.Scan(&run.ID, &run.TotalRaw, &run.TotalNormalized,
			&run.TotalNew, &run.TotalStored, &run.DuplicatesFiltered,
			&run.SourceCount, &run.ErrorCount, &durationMs, &run.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

// GetStats returns the aggregate counters for the stats endpoint.
func (r *RunRepository) GetStats(items *ItemRepository) (Stats, error) {
	var stats Stats

	total, processed, err := items.CountItems()
	if err != nil {
		return stats, err
	}
	stats.TotalItems = total
	stats.ProcessedItems = processed

	err = r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&stats.TotalRuns)
	if err != nil {
		return stats, fmt.Errorf("failed to count runs: %w", err)
	}

	if stats.TotalRuns > 0 {
		var last time.Time
		err = r.db.QueryRow(`SELECT completed_at FROM runs ORDER BY completed_at DESC LIMIT 1`).Scan(&last)
		if err != nil {
			return stats, fmt.Errorf("failed to get last run: %w", err)
		}
		stats.LastCompletedAt = &last
	}

	return stats, nil
}
