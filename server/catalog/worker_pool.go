package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/metrics"
	"github.com/rs/zerolog"
)

// Package-specific error codes for the worker pool
var (
	WorkerPoolAlreadyRunning = errors.MustNewCode("catalog.worker_pool_already_running")
	WorkerPoolNotRunning     = errors.MustNewCode("catalog.worker_pool_not_running")
)

// Task is one request handled end-to-end by a single worker.
type Task interface {
	Execute(ctx context.Context) error
	GetID() string
}

// TaskFunc adapts a function to Task
type TaskFunc struct {
	ID string
	Fn func(ctx context.Context) error
}

func (t TaskFunc) Execute(ctx context.Context) error { return t.Fn(ctx) }
func (t TaskFunc) GetID() string                     { return t.ID }

type job struct {
	ctx      context.Context
	task     Task
	done     chan error
	enqueued time.Time
}

// WorkerPool runs tasks on a fixed set of workers. Each worker binds its id
// into the task context, so a task always runs on that worker's session.
type WorkerPool struct {
	workers   int
	taskQueue chan *job
	logger    zerolog.Logger
	mu        sync.RWMutex
	running   bool
	wg        sync.WaitGroup
	busy      atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	waited    atomic.Int64
}

// PoolStats tracks worker pool activity
type PoolStats struct {
	TotalWorkers    int           `json:"total_workers"`
	ActiveWorkers   int           `json:"active_workers"`
	TasksQueued     int           `json:"tasks_queued"`
	TasksCompleted  int64         `json:"tasks_completed"`
	TasksFailed     int64         `json:"tasks_failed"`
	TotalWaitTime   time.Duration `json:"total_wait_time"`
	AverageWaitTime time.Duration `json:"average_wait_time"`
}

// NewWorkerPool creates a pool of workers with room for queueSize waiting
// tasks.
func NewWorkerPool(workers, queueSize int, logger zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &WorkerPool{
		workers:   workers,
		taskQueue: make(chan *job, queueSize),
		logger:    logger.With().Str("component", "worker-pool").Logger(),
	}
}

// Start starts the workers
func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return errors.New(WorkerPoolAlreadyRunning, "worker pool is already running", nil)
	}
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.run(i)
	}
	wp.running = true
	wp.logger.Info().Int("workers", wp.workers).Msg("Worker pool started")
	return nil
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return errors.New(WorkerPoolNotRunning, "worker pool is not running", nil)
	}
	wp.running = false
	close(wp.taskQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.logger.Info().Msg("Worker pool stopped")
	return nil
}

// Do runs task on a free worker and waits for its result. It gives up
// when ctx is done before a worker picks the task up.
func (wp *WorkerPool) Do(ctx context.Context, task Task) error {
	j := &job{ctx: ctx, task: task, done: make(chan error, 1), enqueued: time.Now()}

	wp.mu.RLock()
	if !wp.running {
		wp.mu.RUnlock()
		return errors.New(WorkerPoolNotRunning, "worker pool is not running", nil)
	}
	metrics.QueueDepth.Inc()
	select {
	case wp.taskQueue <- j:
		wp.mu.RUnlock()
	case <-ctx.Done():
		wp.mu.RUnlock()
		metrics.QueueDepth.Dec()
		return ctx.Err()
	}

	return <-j.done
}

// GetStats returns worker pool statistics
func (wp *WorkerPool) GetStats() PoolStats {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	stats := PoolStats{
		TotalWorkers:   wp.workers,
		ActiveWorkers:  int(wp.busy.Load()),
		TasksQueued:    len(wp.taskQueue),
		TasksCompleted: wp.completed.Load(),
		TasksFailed:    wp.failed.Load(),
		TotalWaitTime:  time.Duration(wp.waited.Load()),
	}
	if done := stats.TasksCompleted + stats.TasksFailed; done > 0 {
		stats.AverageWaitTime = stats.TotalWaitTime / time.Duration(done)
	}
	return stats
}

func (wp *WorkerPool) run(id int) {
	defer wp.wg.Done()
	logger := wp.logger.With().Int("worker_id", id).Logger()
	logger.Debug().Msg("Worker started")

	for j := range wp.taskQueue {
		metrics.QueueDepth.Dec()
		wp.process(id, logger, j)
	}
	logger.Debug().Msg("Task queue closed, worker stopping")
}

func (wp *WorkerPool) process(id int, logger zerolog.Logger, j *job) {
	wp.waited.Add(int64(time.Since(j.enqueued)))
	wp.busy.Add(1)
	metrics.WorkersBusy.Inc()
	defer func() {
		wp.busy.Add(-1)
		metrics.WorkersBusy.Dec()
	}()

	if err := j.ctx.Err(); err != nil {
		wp.failed.Add(1)
		j.done <- err
		return
	}

	logger.Debug().Str("task_id", j.task.GetID()).Msg("Processing task")
	err := j.task.Execute(WithWorker(j.ctx, id))
	if err != nil {
		wp.failed.Add(1)
	} else {
		wp.completed.Add(1)
	}
	j.done <- err
}
