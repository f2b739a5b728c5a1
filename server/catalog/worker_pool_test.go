package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPool(t *testing.T, workers, queue int) *WorkerPool {
	t.Helper()
	wp := NewWorkerPool(workers, queue, zerolog.Nop())
	require.NoError(t, wp.Start())
	t.Cleanup(func() { wp.Stop() })
	return wp
}

func TestWorkerPoolBindsWorkerID(t *testing.T) {
	wp := startPool(t, 3, 10)

	var mu sync.Mutex
	seen := map[int]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := wp.Do(context.Background(), TaskFunc{ID: fmt.Sprint(i), Fn: func(ctx context.Context) error {
				mu.Lock()
				seen[WorkerFromContext(ctx)] = true
				mu.Unlock()
				return nil
			}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for id := range seen {
		assert.True(t, id >= 0 && id < 3, "worker %d", id)
	}
	assert.Equal(t, int64(30), wp.GetStats().TasksCompleted)
}

func TestWorkerPoolReturnsTaskError(t *testing.T) {
	wp := startPool(t, 1, 1)
	boom := errors.New(CatalogShuttingDown, "boom", nil)

	err := wp.Do(context.Background(), TaskFunc{ID: "t", Fn: func(context.Context) error { return boom }})
	assert.Equal(t, boom, err)

	stats := wp.GetStats()
	assert.Equal(t, int64(1), stats.TasksFailed)
	assert.Equal(t, 1, stats.TotalWorkers)
}

func TestWorkerPoolLifecycle(t *testing.T) {
	wp := NewWorkerPool(0, -1, zerolog.Nop())
	assert.Equal(t, 1, wp.GetStats().TotalWorkers)

	err := wp.Do(context.Background(), TaskFunc{ID: "early"})
	assert.True(t, errors.HasCode(err, WorkerPoolNotRunning))
	assert.True(t, errors.HasCode(wp.Stop(), WorkerPoolNotRunning))

	require.NoError(t, wp.Start())
	assert.True(t, errors.HasCode(wp.Start(), WorkerPoolAlreadyRunning))
	require.NoError(t, wp.Stop())

	err = wp.Do(context.Background(), TaskFunc{ID: "late"})
	assert.True(t, errors.HasCode(err, WorkerPoolNotRunning))
}

func TestWorkerPoolGivesUpWhenContextEnds(t *testing.T) {
	wp := startPool(t, 1, 0)

	release := make(chan struct{})
	started := make(chan struct{})
	go wp.Do(context.Background(), TaskFunc{ID: "blocker", Fn: func(context.Context) error {
		close(started)
		<-release
		return nil
	}})
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := wp.Do(ctx, TaskFunc{ID: "waiting", Fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatusReadsWhileWorkersServeCalls(t *testing.T) {
	env := newTestEnv(t)
	wp := startPool(t, 4, 16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := wp.Do(context.Background(), TaskFunc{ID: fmt.Sprint(i), Fn: func(ctx context.Context) error {
				_, err := env.h.GetDatabases(ctx)
				return err
			}})
			assert.NoError(t, err)
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for polling := true; polling; {
		select {
		case <-done:
			polling = false
		default:
			assert.NoError(t, env.h.BootstrapErr())
			stats := wp.GetStats()
			assert.Equal(t, 4, stats.TotalWorkers)
		}
	}

	stats := wp.GetStats()
	assert.Equal(t, int64(8), stats.TasksCompleted)
	assert.Zero(t, stats.TasksFailed)
	assert.NoError(t, env.h.BootstrapErr())
}
