package queue

import (
	"context"
	"time"
)

// Queue carries tasks between pipeline stages. Delivery is at-least-once;
// handlers must be idempotent.
type Queue interface {
	// Enqueue publishes a task to a class immediately.
	Enqueue(ctx context.Context, class Class, task *Task) error

	// EnqueueIn publishes a task to a class after a delay. Used for
	// retry backoff.
	EnqueueIn(ctx context.Context, class Class, task *Task, delay time.Duration) error

	// Dequeue blocks until a task is available for the class, the
	// timeout elapses (returning ErrNoTask), or ctx is done.
	Dequeue(ctx context.Context, class Class, timeout time.Duration) (*Task, error)

	// Close releases queue resources.
	Close() error
}
