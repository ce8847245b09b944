package aggregator

import (
	"time"

	"github.com/devsignals/pipeline/app/normalizer"
	"github.com/devsignals/pipeline/app/sources"
)

// Options configures one pipeline run.
type Options struct {
	// SourceNames is an explicit source subset. Empty means all enabled
	// sources (subject to Tier and Stack below).
	SourceNames []string

	// Tier restricts the run to one signal tier. Ignored when SourceNames
	// is set.
	Tier sources.Tier

	// Stack restricts the run to sources applicable to a technology stack.
	// Ignored when SourceNames or Tier is set.
	Stack []string

	// DryRun skips persistent-store dedup and storage; only in-memory
	// dedup runs.
	DryRun bool

	MaxItemsPerSource int
	SourceTimeout     time.Duration

	// ContinueOnError keeps processing the remaining sources after one
	// fails. DefaultOptions sets it true.
	ContinueOnError bool

	// EnrichSummaries backfills summaries for description-less items by
	// extracting content from their pages. Off by default: it adds one
	// outbound request per enriched item.
	EnrichSummaries bool
}

// DefaultOptions returns the canonical run configuration.
func DefaultOptions() Options {
	return Options{
		MaxItemsPerSource: 50,
		SourceTimeout:     30 * time.Second,
		ContinueOnError:   true,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxItemsPerSource <= 0 {
		o.MaxItemsPerSource = 50
	}
	if o.SourceTimeout <= 0 {
		o.SourceTimeout = 30 * time.Second
	}
	return o
}

// Result is the structured outcome of one pipeline run. It is always
// produced, even when every source failed.
type Result struct {
	TotalRawItems        int                   `json:"total_raw_items"`
	TotalNormalizedItems int                   `json:"total_normalized_items"`
	TotalNewItems        int                   `json:"total_new_items"`
	TotalStoredItems     int                   `json:"total_stored_items"`
	DuplicatesFiltered   int                   `json:"duplicates_filtered"`
	SourceResults        []sources.FetchResult `json:"source_results"`
	NewItems             []*normalizer.Item    `json:"-"`
	Duration             time.Duration         `json:"duration"`
	CompletedAt          time.Time             `json:"completed_at"`
	Errors               []string              `json:"errors,omitempty"`

	// storeUnusable marks a run whose persistent dedup failed; storage is
	// skipped to avoid inserting rows the dedup pass never vetted.
	storeUnusable bool
}
