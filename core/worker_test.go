package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 4, 64, "test", zap.NewNop().Sugar())
	pool.Start()

	var counter int64
	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		}))
	}
	pool.Stop()

	assert.Equal(t, int64(50), atomic.LoadInt64(&counter))
}

func TestWorkerPoolStopIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 1, "test", zap.NewNop().Sugar())
	pool.Start()
	pool.Stop()
	assert.NotPanics(t, pool.Stop)
}

func TestWorkerPoolSubmitAfterStop(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 1, "test", zap.NewNop().Sugar())
	pool.Start()
	pool.Stop()

	err := pool.Submit(func() {})
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestWorkerPoolSubmitWithoutStart(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 1, "test", zap.NewNop().Sugar())
	err := pool.Submit(func() {})
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestWorkerPoolStopUnblocksPendingSubmit(t *testing.T) {
	// Zero queue and a single occupied worker: the second Submit blocks
	// on the channel send until Stop unblocks it.
	pool := NewWorkerPool(context.Background(), 1, 0, "test", zap.NewNop().Sugar())
	pool.Start()

	gate := make(chan struct{})
	require.NoError(t, pool.Submit(func() { <-gate }))

	errCh := make(chan error, 1)
	go func() {
		errCh <- pool.Submit(func() {})
	}()
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrPoolStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("Submit stayed blocked across Stop")
	}

	close(gate)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestWorkerPoolRecoverFromPanickingTask(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 4, "test", zap.NewNop().Sugar())
	pool.Start()

	var mu sync.Mutex
	ran := false
	require.NoError(t, pool.Submit(func() { panic("task failure") }))
	require.NoError(t, pool.Submit(func() {
		mu.Lock()
		ran = true
		mu.Unlock()
	}))
	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, ran, "a panicking task must not take its worker down for good")
}
