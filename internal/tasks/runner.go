package tasks

import (
	"context"
	"sync"

	"github.com/strandhq/strand/backend/internal/logger"
	"github.com/strandhq/strand/backend/internal/metrics"
	"go.uber.org/zap"
)

// task is one queued unit of background work.
type task struct {
	name string
	fn   func(context.Context) error
}

// Runner executes fire-and-forget background work on a fixed worker pool.
//
// Delivery is at-most-effort: tasks queued when the buffer is full are
// dropped, and nothing survives a process crash. Task errors and panics are
// logged and swallowed — they must never reach a caller that already got its
// response. Anything scheduled here has to be idempotent.
type Runner struct {
	queue   chan task
	workers int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a runner with the given queue capacity and worker count.
func NewRunner(queueSize, workers int) *Runner {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		queue:   make(chan task, queueSize),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker pool.
func (r *Runner) Start() {
	logger.Log.Info("Starting task runner", zap.Int("workers", r.workers))
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
}

// Stop cancels the worker context and waits for in-flight tasks to return.
// Queued-but-unstarted tasks are abandoned.
func (r *Runner) Stop() {
	r.cancel()
	close(r.queue)
	r.wg.Wait()
}

// Submit enqueues a task without blocking the caller. Returns false when the
// queue is full and the task was dropped.
func (r *Runner) Submit(name string, fn func(context.Context) error) bool {
	metrics.TasksSubmitted.WithLabelValues(name).Inc()

	select {
	case r.queue <- task{name: name, fn: fn}:
		metrics.TaskQueueDepth.Inc()
		return true
	default:
		metrics.TasksDropped.WithLabelValues(name).Inc()
		logger.Log.Warn("Task queue full, dropping task", zap.String("task", name))
		return false
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for t := range r.queue {
		metrics.TaskQueueDepth.Dec()
		r.run(t)
	}
}

func (r *Runner) run(t task) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.TasksFailed.WithLabelValues(t.name).Inc()
			logger.Log.Error("Background task panicked",
				zap.String("task", t.name),
				zap.Any("panic", rec),
			)
		}
	}()

	if err := t.fn(r.ctx); err != nil {
		metrics.TasksFailed.WithLabelValues(t.name).Inc()
		logger.Log.Warn("Background task failed",
			zap.String("task", t.name),
			zap.Error(err),
		)
	}
}
