package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/devsignals/pipeline/app/aggregator"
)

// AggregateTask runs the full ingestion pipeline. Runs are serialized
// through a shared mutex: overlapping runs would race on duplicate
// detection against the store, so a tick that finds a run in flight skips
// instead of queueing behind it.
type AggregateTask struct {
	Task
	agg   *aggregator.Aggregator
	opts  aggregator.Options
	runMu *sync.Mutex
}

func NewAggregateTask(agg *aggregator.Aggregator, opts aggregator.Options, runMu *sync.Mutex) *AggregateTask {
	return &AggregateTask{
		Task:  NewTask(TaskTypeAggregate, "all"),
		agg:   agg,
		opts:  opts,
		runMu: runMu,
	}
}

func (t *AggregateTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.runMu.TryLock() {
		slog.Warn("Aggregation run already in flight, skipping", "id", t.ID())
		return nil
	}
	defer t.runMu.Unlock()

	result, err := t.agg.Run(ctx, t.opts)
	if err != nil {
		return fmt.Errorf("aggregation run failed: %w", err)
	}

	slog.Info("Task completed",
		"type", "Aggregate",
		"duration", t.Elapsed(),
		"raw", result.TotalRawItems,
		"new", result.TotalNewItems,
		"stored", result.TotalStoredItems,
		"duplicates", result.DuplicatesFiltered,
		"errors", len(result.Errors))

	return nil
}
