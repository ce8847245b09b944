package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/devsignals/pipeline/app/normalizer"
)

// ItemRepository handles database operations for canonical items. It
// implements the store contract the deduplicator depends on.
type ItemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetIDByContentHash returns the ID of the stored item with the given
// content hash, or "" when the hash is unknown.
func (r *ItemRepository) GetIDByContentHash(contentHash string) (string, error) {
	var id string
	err := r.db.QueryRow(`SELECT id FROM items WHERE content_hash = ? LIMIT 1`, contentHash).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up content hash: %w", err)
	}
	return id, nil
}

// InsertItems stores a batch of canonical items, assigning each a fresh ID.
// Rows are inserted one at a time so a failing row (a hash raced in by a
// concurrent writer, malformed data) does not take its siblings down with
// it.
func (r *ItemRepository) InsertItems(items []*normalizer.Item) (int, int, error) {
	stored, failed := 0, 0

	for _, item := range items {
		id := uuid.NewString()

		categories, err := json.Marshal(emptyIfNil(item.Categories))
		if err != nil {
			failed++
			continue
		}
		technologies, err := json.Marshal(emptyIfNil(item.Technologies))
		if err != nil {
			failed++
			continue
		}
		ecosystems, err := json.Marshal(emptyIfNil(item.Ecosystems))
		if err != nil {
			failed++
			continue
		}
		traction, err := json.Marshal(item.Traction)
		if err != nil {
			failed++
			continue
		}

		var publishedAt any
		if !item.PublishedAt.IsZero() {
			publishedAt = item.PublishedAt.UTC()
		}

		_, err = r.db.Exec(`
			INSERT INTO items (
				id, source, tier, reliability, external_id, title, url,
				description, summary, published_at, fetched_at,
				categories, technologies, ecosystems, traction,
				processed, content_hash
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, item.SourceName, string(item.Tier), item.Reliability,
			item.ExternalID, item.Title, item.URL,
			item.Description, item.Summary, publishedAt, item.FetchedAt.UTC(),
			string(categories), string(technologies), string(ecosystems), string(traction),
			boolToInt(item.Processed), item.ContentHash)

		if err != nil {
			slog.Warn("Failed to store item", "source", item.SourceName,
				"title", item.Title, "error", err)
			failed++
			continue
		}

		item.ID = id
		stored++
	}

	return stored, failed, nil
}

// UpdateTraction merges an observed traction bag into the stored item's bag,
// keeping the field-wise maximum.
func (r *ItemRepository) UpdateTraction(id string, traction map[string]float64) error {
	var raw string
	err := r.db.QueryRow(`SELECT traction FROM items WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		return fmt.Errorf("failed to read traction: %w", err)
	}

	stored := make(map[string]float64)
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return fmt.Errorf("failed to decode stored traction: %w", err)
		}
	}

	changed := false
	for k, v := range traction {
		if existing, ok := stored[k]; !ok || v > existing {
			stored[k] = v
			changed = true
		}
	}
	if !changed {
		return nil
	}

	encoded, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode traction: %w", err)
	}

	if _, err := r.db.Exec(`UPDATE items SET traction = ? WHERE id = ?`, string(encoded), id); err != nil {
		return fmt.Errorf("failed to update traction: %w", err)
	}
	return nil
}

// GetRecentItems returns the most recently fetched items.
func (r *ItemRepository) GetRecentItems(limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT id, source, tier, reliability, external_id, title, url,
		       description, summary, published_at, fetched_at,
		       categories, technologies, ecosystems, traction,
		       processed, content_hash, created_at
		FROM items
		ORDER BY fetched_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetUnprocessedItems returns items the downstream analysis stage has not
// consumed yet.
func (r *ItemRepository) GetUnprocessedItems(limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT id, source, tier, reliability, external_id, title, url,
		       description, summary, published_at, fetched_at,
		       categories, technologies, ecosystems, traction,
		       processed, content_hash, created_at
		FROM items
		WHERE processed = 0
		ORDER BY fetched_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unprocessed items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// MarkProcessed flips the processing flag for a set of items.
func (r *ItemRepository) MarkProcessed(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := r.db.Exec(`UPDATE items SET processed = 1 WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to mark items processed: %w", err)
	}
	return nil
}

// CountItems returns total and processed item counts.
func (r *ItemRepository) CountItems() (total, processed int, err error) {
	err = r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN processed = 1 THEN 1 ELSE 0 END), 0)
		FROM items
	`).Scan(&total, &processed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count items: %w", err)
	}
	return total, processed, nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var (
			item         Item
			publishedAt  sql.NullTime
			categories   string
			technologies string
			ecosystems   string
			traction     string
			processed    int
		)
		err := rows.Scan(
			&item.ID, &item.Source, &item.Tier, &item.Reliability,
			&item.ExternalID, &item.Title, &item.URL,
			&item.Description, &item.Summary, &publishedAt, &item.FetchedAt,
			&categories, &technologies, &ecosystems, &traction,
			&processed, &item.ContentHash, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}

		if publishedAt.Valid {
			t := publishedAt.Time
			item.PublishedAt = &t
		}
		item.Processed = processed != 0

		if err := json.Unmarshal([]byte(categories), &item.Categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}
		if err := json.Unmarshal([]byte(technologies), &item.Technologies); err != nil {
			return nil, fmt.Errorf("failed to decode technologies: %w", err)
		}
		if err := json.Unmarshal([]byte(ecosystems), &item.Ecosystems); err != nil {
			return nil, fmt.Errorf("failed to decode ecosystems: %w", err)
		}
		if err := json.Unmarshal([]byte(traction), &item.Traction); err != nil {
			return nil, fmt.Errorf("failed to decode traction: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
