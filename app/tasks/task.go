package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeAggregate        TaskType = "aggregate"
	TaskTypeSyncSourceConfig TaskType = "sync_source_config"
)

// DefaultMaxRetries bounds how many times a failed task is re-enqueued.
const DefaultMaxRetries = 3

// TaskInterface is what the scheduler's workers operate on.
type TaskInterface interface {
	Execute(ctx context.Context) error
	ID() string
	Type() TaskType
	Scope() string
	Attempt() int
	MaxRetries() int
	Retry() bool
	Begin()
	Elapsed() time.Duration
}

// Task carries the bookkeeping shared by every task kind: identity, retry
// accounting and timing. Concrete tasks embed it and provide Execute.
type Task struct {
	id       string
	taskType TaskType
	scope    string
	attempt  int
	maxTries int
	started  time.Time
}

func NewTask(taskType TaskType, scope string) Task {
	return Task{
		id:       uuid.NewString(),
		taskType: taskType,
		scope:    scope,
		maxTries: DefaultMaxRetries,
	}
}

func (t *Task) ID() string {
	return t.id
}

func (t *Task) Type() TaskType {
	return t.taskType
}

func (t *Task) Scope() string {
	return t.scope
}

// Attempt reports how many retries have been consumed so far.
func (t *Task) Attempt() int {
	return t.attempt
}

func (t *Task) MaxRetries() int {
	return t.maxTries
}

// Retry consumes a retry attempt and reports whether one was still
// available.
func (t *Task) Retry() bool {
	if t.attempt >= t.maxTries {
		return false
	}
	t.attempt++
	return true
}

// Begin marks the start of an execution attempt.
func (t *Task) Begin() {
	t.started = time.Now()
}

// Elapsed is the time since Begin, or zero for a task that never started.
func (t *Task) Elapsed() time.Duration {
	if t.started.IsZero() {
		return 0
	}
	return time.Since(t.started)
}
