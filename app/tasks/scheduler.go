package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devsignals/pipeline/app/aggregator"
	"github.com/devsignals/pipeline/app/cfg"
	"github.com/devsignals/pipeline/app/sources"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// TaskSchedulerInterface is the surface the wiring code depends on: queue
// management and worker pool lifecycle.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

type Scheduler struct {
	agg         *aggregator.Aggregator
	configCache *sources.ConfigCache
	interval    time.Duration
	workerCount int
	runMu       sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(agg *aggregator.Aggregator, configCache *sources.ConfigCache) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		agg:         agg,
		configCache: configCache,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	// Check cancellation first: after Stop the queue is closed, and a send
	// racing the done channel would panic.
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	syncTask := NewSyncSourceConfigTask(s.configCache)
	if err := s.EnqueueTask(syncTask); err != nil {
		slog.Warn("Failed to enqueue SyncSourceConfigTask", "error", err)
	}

	appCfg := cfg.Get()
	opts := aggregator.DefaultOptions()
	opts.MaxItemsPerSource = appCfg.MaxItemsPerSource
	opts.SourceTimeout = time.Duration(appCfg.SourceTimeout) * time.Second

	aggregateTask := NewAggregateTask(s.agg, opts, &s.runMu)
	if err := s.EnqueueTask(aggregateTask); err != nil {
		slog.Warn("Failed to enqueue AggregateTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Begin()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.Type()), "id", task.ID(), "attempt", task.Attempt(), "error", err)

	if !task.Retry() {
		slog.Error("Task failed after maximum retries", "type", string(task.Type()), "id", task.ID(), "max_retries", task.MaxRetries(), "last_error", err)
		return
	}

	retryDelay := time.Duration(1<<uint(task.Attempt()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.Type()), "scope", task.Scope(), "attempt", task.Attempt(), "max_retries", task.MaxRetries(), "delay", retryDelay.String())

	// The retry sleeper joins the WaitGroup: Stop must drain it before
	// closing the queue, or a late re-enqueue would hit a closed channel.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, dropping task retry", "type", string(task.Type()), "id", task.ID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.Type()), "id", task.ID(), "attempt", task.Attempt(), "error", retryErr)
			}
		}
	}()
}
