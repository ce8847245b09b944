package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devsignals/pipeline/app/sources"
)

// SyncSourceConfigTask reloads the per-source override files so enable
// flags and cadence changes take effect without a restart.
type SyncSourceConfigTask struct {
	Task
	configCache *sources.ConfigCache
}

func NewSyncSourceConfigTask(configCache *sources.ConfigCache) *SyncSourceConfigTask {
	return &SyncSourceConfigTask{
		Task:        NewTask(TaskTypeSyncSourceConfig, "config"),
		configCache: configCache,
	}
}

func (t *SyncSourceConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.configCache.Reload(); err != nil {
		return fmt.Errorf("failed to reload source overrides: %w", err)
	}

	slog.Debug("Task completed", "type", "SyncSourceConfig", "duration", t.Elapsed())
	return nil
}
