package aggregator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/devsignals/pipeline/app/database"
	"github.com/devsignals/pipeline/app/dedup"
	"github.com/devsignals/pipeline/app/normalizer"
	"github.com/devsignals/pipeline/app/sources"
)

// RunStore records run summaries. Nil is allowed; runs then go unrecorded.
type RunStore interface {
	InsertRun(run database.Run) (string, error)
}

// Aggregator orchestrates one pipeline run: select sources, fetch with
// bounded time and isolated failure, normalize, deduplicate batch-wide,
// store, report. Failures below the run level are data in the result, not
// control flow.
type Aggregator struct {
	registry   *sources.Registry
	normalizer *normalizer.Normalizer
	dedup      *dedup.Deduplicator
	runs       RunStore
	extractor  *normalizer.ContentExtractor
	client     *http.Client
	userAgent  string
}

func New(registry *sources.Registry, norm *normalizer.Normalizer, ddup *dedup.Deduplicator, runs RunStore, client *http.Client, userAgent string) *Aggregator {
	return &Aggregator{
		registry:   registry,
		normalizer: norm,
		dedup:      ddup,
		runs:       runs,
		extractor:  normalizer.NewContentExtractor(),
		client:     client,
		userAgent:  userAgent,
	}
}

// Run executes the full pipeline. It always returns a Result; the error
// return is reserved for unusable wiring (no store outside dry-run).
func (a *Aggregator) Run(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := time.Now()
	result := &Result{}

	defer func() {
		result.Duration = time.Since(start)
		result.CompletedAt = time.Now().UTC()
	}()

	if !opts.DryRun && !a.dedup.HasStore() {
		return result, fmt.Errorf("persistent dedup requested but no store is wired; use DryRun")
	}

	selected := a.selectSources(opts, result)
	if len(selected) == 0 {
		result.Errors = append(result.Errors, "no sources matched the run selection")
		slog.Warn("Aggregation run selected no sources")
		return result, nil
	}

	slog.Info("Aggregation run started", "sources", len(selected), "dry_run", opts.DryRun)

	batch := a.fetchAndNormalize(ctx, selected, opts, result)

	newItems, duplicates := a.deduplicate(batch, opts, result)
	result.TotalNewItems = len(newItems)
	result.DuplicatesFiltered = duplicates
	result.NewItems = newItems

	if opts.EnrichSummaries {
		a.enrichSummaries(ctx, newItems)
	}

	if !opts.DryRun {
		a.store(newItems, result)
		a.recordRun(result, len(selected), start)
	}

	slog.Info("Aggregation run completed",
		"raw", result.TotalRawItems,
		"normalized", result.TotalNormalizedItems,
		"new", result.TotalNewItems,
		"stored", result.TotalStoredItems,
		"duplicates", result.DuplicatesFiltered,
		"errors", len(result.Errors),
		"duration", time.Since(start))

	return result, nil
}

// RunSource runs the pipeline for a single named source.
func (a *Aggregator) RunSource(ctx context.Context, name string) (*Result, error) {
	opts := DefaultOptions()
	opts.SourceNames = []string{name}
	return a.Run(ctx, opts)
}

// RunTier1 runs the pipeline over tier-1 sources only.
func (a *Aggregator) RunTier1(ctx context.Context) (*Result, error) {
	opts := DefaultOptions()
	opts.Tier = sources.TierHighSignal
	return a.Run(ctx, opts)
}

// DryRun runs the pipeline without touching the store: in-memory dedup
// only, nothing persisted.
func (a *Aggregator) DryRun(ctx context.Context) (*Result, error) {
	opts := DefaultOptions()
	opts.DryRun = true
	return a.Run(ctx, opts)
}

// selectSources resolves the run's source set. Explicit names win over the
// tier filter, which wins over the stack filter; the default is every
// enabled source.
func (a *Aggregator) selectSources(opts Options, result *Result) []sources.Source {
	if len(opts.SourceNames) > 0 {
		selected := make([]sources.Source, 0, len(opts.SourceNames))
		for _, name := range opts.SourceNames {
			src := a.registry.Get(name)
			if src == nil {
				result.Errors = append(result.Errors, fmt.Sprintf("unknown source: %s", name))
				continue
			}
			selected = append(selected, src)
		}
		return selected
	}

	if opts.Tier != "" {
		return a.registry.ByTier(opts.Tier)
	}
	if len(opts.Stack) > 0 {
		return a.registry.ApplicableToStack(opts.Stack)
	}
	return a.registry.Enabled()
}

// fetchAndNormalize processes sources one at a time: a failure or timeout of
// one source never blocks or corrupts another's result. Items are
// normalized immediately after the capped fetch; per-source results and the
// item batch derive from a single fetch. Per-source overrides for the item
// cap and fetch timeout take precedence over the run's options.
func (a *Aggregator) fetchAndNormalize(ctx context.Context, selected []sources.Source, opts Options, result *Result) []*normalizer.Item {
	var batch []*normalizer.Item

	for _, src := range selected {
		srcCfg := a.registry.ConfigFor(src)

		timeout := opts.SourceTimeout
		if srcCfg.Timeout > 0 {
			timeout = srcCfg.Timeout
		}

		items, fres := sources.SafeFetch(ctx, src, timeout)

		if fres.Error != "" {
			result.SourceResults = append(result.SourceResults, fres)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", src.Name(), fres.Error))
			slog.Warn("Source fetch failed", "source", src.Name(), "error", fres.Error)

			if !opts.ContinueOnError {
				slog.Warn("Halting remaining sources after failure", "source", src.Name())
				break
			}
			continue
		}

		maxItems := opts.MaxItemsPerSource
		if srcCfg.MaxItems > 0 {
			maxItems = srcCfg.MaxItems
		}
		if maxItems > 0 && len(items) > maxItems {
			items = items[:maxItems]
		}
		result.TotalRawItems += len(items)

		normalized := a.normalizer.NormalizeBatch(items)
		fres.NormalizedCount = len(normalized)
		result.TotalNormalizedItems += len(normalized)
		result.SourceResults = append(result.SourceResults, fres)

		slog.Debug("Source processed", "source", src.Name(),
			"fetched", fres.ItemCount, "normalized", fres.NormalizedCount,
			"duration", fres.Duration)

		batch = append(batch, normalized...)
	}

	return batch
}

// deduplicate is always batch-wide across every source in the run, so the
// same subject reported by two sources in one run is merged.
func (a *Aggregator) deduplicate(batch []*normalizer.Item, opts Options, result *Result) ([]*normalizer.Item, int) {
	if opts.DryRun {
		return a.dedup.DedupInMemory(batch)
	}

	newItems, duplicates, err := a.dedup.Dedup(batch)
	if err != nil {
		// The store is unusable mid-run. Fall back to the in-batch view so
		// the result still reports what was observed, and skip storage.
		result.Errors = append(result.Errors, fmt.Sprintf("persistent dedup failed: %v", err))
		result.storeUnusable = true
		return a.dedup.DedupInMemory(batch)
	}
	return newItems, duplicates
}

func (a *Aggregator) store(newItems []*normalizer.Item, result *Result) {
	if result.storeUnusable || len(newItems) == 0 {
		return
	}

	stored, failed, err := a.dedup.StoreNewItems(newItems)
	result.TotalStoredItems = stored
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("storage failed: %v", err))
		return
	}
	if failed > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to store %d of %d items", failed, len(newItems)))
	}
}

func (a *Aggregator) recordRun(result *Result, sourceCount int, start time.Time) {
	if a.runs == nil {
		return
	}

	_, err := a.runs.InsertRun(database.Run{
		TotalRaw:           result.TotalRawItems,
		TotalNormalized:    result.TotalNormalizedItems,
		TotalNew:           result.TotalNewItems,
		TotalStored:        result.TotalStoredItems,
		DuplicatesFiltered: result.DuplicatesFiltered,
		SourceCount:        sourceCount,
		ErrorCount:         len(result.Errors),
		Duration:           time.Since(start),
		CompletedAt:        time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("Failed to record run summary", "error", err)
	}
}

const maxSummaryEnrichments = 5

// enrichSummaries backfills summaries for items that arrived with a URL but
// no description, via readability extraction over the linked page. Bounded
// per run; a failing page just leaves the summary empty.
func (a *Aggregator) enrichSummaries(ctx context.Context, items []*normalizer.Item) {
	enriched := 0
	for _, item := range items {
		if enriched >= maxSummaryEnrichments {
			return
		}
		if item.Description != "" || item.Summary != "" || item.URL == "" {
			continue
		}

		data, err := a.fetchPage(ctx, item.URL)
		if err != nil {
			slog.Debug("Summary enrichment fetch failed", "url", item.URL, "error", err)
			continue
		}

		summary, err := a.extractor.Run(data)
		if err != nil {
			slog.Debug("Summary extraction failed", "url", item.URL, "error", err)
			continue
		}

		item.Summary = summary
		enriched++
	}
}

func (a *Aggregator) fetchPage(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
