package core

import (
	"context"
	"errors"
	"sync"

	"vigil/metrics"
	"vigil/util/goroutine"

	"go.uber.org/zap"
)

// ErrPoolStopped is returned by Submit after the pool has been stopped.
var ErrPoolStopped = errors.New("worker pool is not running")

// WorkerPool is a generic pool for parallel task processing. The engine
// uses it to spread event batches across CPUs; tasks must do their own
// result synchronization (the engine gives each task a private slice).
type WorkerPool struct {
	workers  int
	taskCh   chan func()
	stopCh   chan struct{}
	wg       sync.WaitGroup
	submitWG sync.WaitGroup
	logger   *zap.SugaredLogger
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	mu       sync.Mutex
	poolName string
}

// NewWorkerPool creates a pool with the given parallelism and queue
// size. Workers do not start until Start is called; cancelling the
// parent context stops them.
func NewWorkerPool(parentCtx context.Context, workers, queueSize int, poolName string, logger *zap.SugaredLogger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if poolName == "" {
		poolName = "default"
	}
	ctx, cancel := context.WithCancel(parentCtx)
	return &WorkerPool{
		workers:  workers,
		taskCh:   make(chan func(), queueSize),
		stopCh:   make(chan struct{}),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		poolName: poolName,
	}
}

// Start launches the worker goroutines. Calling Start twice is a no-op.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.running {
		return
	}
	wp.running = true

	metrics.WorkerPoolActiveWorkers.WithLabelValues(wp.poolName).Set(float64(wp.workers))

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case task, ok := <-wp.taskCh:
			if !ok {
				return
			}
			metrics.WorkerPoolQueueDepth.WithLabelValues(wp.poolName).Set(float64(len(wp.taskCh)))
			wp.runTask(task)
		}
	}
}

// runTask recovers per task so one bad task cannot take its worker down.
func (wp *WorkerPool) runTask(task func()) {
	defer goroutine.Recover(wp.poolName+"-worker", wp.logger)
	task()
}

// Submit queues a task, blocking when the queue is full. It returns
// ErrPoolStopped if the pool is not running, is stopping, or its
// context is done; a blocked Submit is unblocked by Stop.
func (wp *WorkerPool) Submit(task func()) error {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return ErrPoolStopped
	}
	// Counted under the lock so Stop cannot close taskCh while this
	// submitter is still in the select below.
	wp.submitWG.Add(1)
	wp.mu.Unlock()
	defer wp.submitWG.Done()

	select {
	case <-wp.ctx.Done():
		return ErrPoolStopped
	case <-wp.stopCh:
		return ErrPoolStopped
	case wp.taskCh <- task:
		return nil
	}
}

// Stop unblocks pending Submit calls, drains queued tasks, and waits
// for workers to exit. Safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return
	}
	wp.running = false
	close(wp.stopCh)
	wp.mu.Unlock()

	// taskCh is closed only once no submitter can still send on it.
	wp.submitWG.Wait()
	close(wp.taskCh)

	wp.wg.Wait()
	wp.cancel()
	metrics.WorkerPoolActiveWorkers.WithLabelValues(wp.poolName).Set(0)
}
