package queue

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sift/core"
	"github.com/poiesic/sift/storage"
)

const (
	// maxAttempts bounds retries per task. Exhausted tasks land in the
	// error log instead of the queue.
	maxAttempts = 5

	// retryBase is the backoff unit; attempt n waits n * retryBase.
	retryBase = 30 * time.Second

	dequeueTimeout = 2 * time.Second
)

// Handler processes one task. Returning an error triggers a delayed
// retry until attempts are exhausted.
type Handler func(ctx context.Context, task *Task) error

// Worker consumes one class from a queue and runs tasks on a bounded
// pool.
type Worker struct {
	queue   Queue
	class   Class
	handler Handler
	errlog  storage.ErrorLog
	pool    *ants.Pool
	logger  *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker) error

// WithPoolSize sets the worker pool size for concurrent task handling.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) WorkerOption {
	return func(w *Worker) error {
		if size < 1 {
			size = 1
		}
		if w.pool != nil {
			w.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		w.pool = pool
		return nil
	}
}

// WithWorkerLogger sets a custom logger.
// Default is slog.Default().
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// WithErrorLog sets the error log exhausted tasks are recorded to.
func WithErrorLog(errlog storage.ErrorLog) WorkerOption {
	return func(w *Worker) error {
		w.errlog = errlog
		return nil
	}
}

// NewWorker creates a Worker for one class.
func NewWorker(q Queue, class Class, handler Handler, opts ...WorkerOption) (*Worker, error) {
	if q == nil {
		return nil, ErrQueueRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		queue:   q,
		class:   class,
		handler: handler,
		pool:    pool,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			pool.Release()
			return nil, err
		}
	}
	return w, nil
}

// Run consumes tasks until ctx is done. In-flight tasks finish before
// Run returns.
func (w *Worker) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		task, err := w.queue.Dequeue(ctx, w.class, dequeueTimeout)
		if errors.Is(err, ErrNoTask) {
			continue
		}
		if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if err != nil {
			w.logger.Warn("dequeue failed", "class", w.class, "error", err)
			continue
		}

		wg.Add(1)
		submitErr := w.pool.Submit(func() {
			defer wg.Done()
			w.run(ctx, task)
		})
		if submitErr != nil {
			wg.Done()
			w.logger.Error("pool submit failed", "task", task.Name, "error", submitErr)
		}
	}
}

// run executes one task and handles its retry lifecycle.
func (w *Worker) run(ctx context.Context, task *Task) {
	if !task.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, task.Deadline)
		defer cancel()
	}
	start := time.Now()
	err := w.handler(ctx, task)
	if err == nil {
		w.logger.Debug("task complete",
			"class", w.class,
			"task", task.Name,
			"attempt", task.Attempt,
			"elapsed", time.Since(start))
		return
	}

	task.Attempt++
	if task.Attempt < maxAttempts {
		delay := time.Duration(task.Attempt) * retryBase
		w.logger.Warn("task failed, retrying",
			"class", w.class,
			"task", task.Name,
			"attempt", task.Attempt,
			"delay", delay,
			"error", err)
		if qerr := w.queue.EnqueueIn(ctx, w.class, task, delay); qerr != nil {
			w.logger.Error("failed to requeue task", "task", task.Name, "error", qerr)
		}
		return
	}

	w.logger.Error("task failed permanently",
		"class", w.class,
		"task", task.Name,
		"attempts", task.Attempt,
		"error", err)
	if w.errlog != nil {
		row := &core.ProcessingError{
			Dataset:   task.Dataset,
			Hash:      task.Payload["hash"],
			Task:      task.Name,
			RunTime:   time.Since(start),
			Detail:    err.Error(),
			Timestamp: time.Now().UTC(),
		}
		if lerr := w.errlog.Record(ctx, row); lerr != nil {
			w.logger.Error("failed to record task error", "task", task.Name, "error", lerr)
		}
	}
}

// Close releases the worker pool.
func (w *Worker) Close() {
	w.pool.Release()
}
