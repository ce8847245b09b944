package dedup

import (
	"fmt"
	"log/slog"

	"github.com/devsignals/pipeline/app/normalizer"
	"github.com/devsignals/pipeline/app/sources"
)

// ItemStore is the slice of the persistent store the deduplicator depends
// on: hash lookup, batch insert, and traction upgrade.
type ItemStore interface {
	// GetIDByContentHash returns the stored item's ID for a content hash,
	// or "" when the hash is unknown.
	GetIDByContentHash(contentHash string) (string, error)

	// InsertItems stores a batch, assigning IDs, and reports how many rows
	// were stored and how many failed. A partial failure does not roll back
	// the stored rows.
	InsertItems(items []*normalizer.Item) (stored int, failed int, err error)

	// UpdateTraction merges an observed traction bag into a stored item,
	// keeping the field-wise maximum.
	UpdateTraction(id string, traction map[string]float64) error
}

// Deduplicator partitions a batch of canonical items into first-seen items
// and repeats, merging the repeats' traction signals into the retained
// record. With a store it additionally filters items whose hash was seen in
// a previous run.
type Deduplicator struct {
	store ItemStore
}

func New(store ItemStore) *Deduplicator {
	return &Deduplicator{store: store}
}

// NewInMemory builds a deduplicator with no store access; only in-batch
// dedup is available. Used in dry-run mode.
func NewInMemory() *Deduplicator {
	return &Deduplicator{}
}

// HasStore reports whether persistent dedup and storage are available.
func (d *Deduplicator) HasStore() bool {
	return d.store != nil
}

// DedupInMemory collapses items sharing a content hash within the batch.
// Later occurrences merge their traction into the first-seen item. The
// near-duplicate pass runs on the survivors. Returns the retained items and
// the number filtered out.
func (d *Deduplicator) DedupInMemory(items []*normalizer.Item) ([]*normalizer.Item, int) {
	seen := make(map[string]*normalizer.Item, len(items))
	kept := make([]*normalizer.Item, 0, len(items))
	duplicates := 0

	for _, item := range items {
		if first, ok := seen[item.ContentHash]; ok {
			first.MergeTraction(item.Traction)
			duplicates++
			continue
		}
		seen[item.ContentHash] = item
		kept = append(kept, item)
	}

	kept, nearDuplicates := d.mergeNearDuplicates(kept)
	return kept, duplicates + nearDuplicates
}

// Dedup is the persistent variant: the in-batch pass first, then each
// batch-unique item's hash is checked against previously stored hashes.
// Store hits are counted as duplicates and their traction, if newly higher,
// updates the stored record.
func (d *Deduplicator) Dedup(items []*normalizer.Item) ([]*normalizer.Item, int, error) {
	if d.store == nil {
		return nil, 0, fmt.Errorf("deduplicator has no store; use DedupInMemory")
	}

	kept, duplicates := d.DedupInMemory(items)

	newItems := make([]*normalizer.Item, 0, len(kept))
	for _, item := range kept {
		id, err := d.store.GetIDByContentHash(item.ContentHash)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if id == "" {
			newItems = append(newItems, item)
			continue
		}

		duplicates++
		if len(item.Traction) > 0 {
			if err := d.store.UpdateTraction(id, item.Traction); err != nil {
				slog.Warn("Failed to update traction for stored duplicate",
					"item_id", id, "source", item.SourceName, "error", err)
			}
		}
	}

	return newItems, duplicates, nil
}

// StoreNewItems batch-inserts the admitted items. Partial failure keeps the
// successfully stored rows.
func (d *Deduplicator) StoreNewItems(items []*normalizer.Item) (int, int, error) {
	if d.store == nil {
		return 0, 0, fmt.Errorf("deduplicator has no store")
	}
	if len(items) == 0 {
		return 0, 0, nil
	}
	return d.store.InsertItems(items)
}

// mergeNearDuplicates collapses items that describe the same subject without
// sharing an exact hash: differently formatted titles for the same launch,
// or the same project surfacing on two feeds. The higher-tier (then more
// reliable) item is retained as canonical.
func (d *Deduplicator) mergeNearDuplicates(items []*normalizer.Item) ([]*normalizer.Item, int) {
	kept := make([]*normalizer.Item, 0, len(items))
	merged := 0

	for _, item := range items {
		matched := false
		for i, existing := range kept {
			if Similarity(existing, item) < NearDuplicateThreshold {
				continue
			}

			winner, loser := rankPair(existing, item)
			winner.MergeTraction(loser.Traction)
			kept[i] = winner
			merged++
			matched = true

			slog.Debug("Near-duplicate merged",
				"retained", winner.SourceName, "merged", loser.SourceName,
				"title", winner.Title)
			break
		}
		if !matched {
			kept = append(kept, item)
		}
	}

	return kept, merged
}

func rankPair(a, b *normalizer.Item) (winner, loser *normalizer.Item) {
	ra, rb := sources.TierRank(a.Tier), sources.TierRank(b.Tier)
	if rb < ra || (rb == ra && b.Reliability > a.Reliability) {
		return b, a
	}
	return a, b
}
