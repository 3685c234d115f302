package queue

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue for tests and single-node runs.
type MemoryQueue struct {
	mu      sync.Mutex
	ready   map[Class][]*Task
	delayed map[Class][]delayedTask
	wake    chan struct{}
	closed  bool
}

type delayedTask struct {
	task *Task
	due  time.Time
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an empty in-process queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		ready:   make(map[Class][]*Task),
		delayed: make(map[Class][]delayedTask),
		wake:    make(chan struct{}, 1),
	}
}

func (q *MemoryQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Enqueue publishes a task immediately.
func (q *MemoryQueue) Enqueue(ctx context.Context, class Class, task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.ready[class] = append(q.ready[class], task)
	q.signal()
	return nil
}

// EnqueueIn parks a task until its due time.
func (q *MemoryQueue) EnqueueIn(ctx context.Context, class Class, task *Task, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, class, task)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.delayed[class] = append(q.delayed[class], delayedTask{task: task, due: time.Now().Add(delay)})
	return nil
}

// Dequeue returns the next ready task, polling for delayed promotions.
func (q *MemoryQueue) Dequeue(ctx context.Context, class Class, timeout time.Duration) (*Task, error) {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		q.promoteDueLocked(class)
		if tasks := q.ready[class]; len(tasks) > 0 {
			task := tasks[0]
			q.ready[class] = tasks[1:]
			q.mu.Unlock()
			return task, nil
		}
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrNoTask
		}
		poll := 10 * time.Millisecond
		if poll > remaining {
			poll = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		case <-time.After(poll):
		}
	}
}

func (q *MemoryQueue) promoteDueLocked(class Class) {
	parked := q.delayed[class]
	if len(parked) == 0 {
		return
	}
	sort.Slice(parked, func(i, j int) bool { return parked[i].due.Before(parked[j].due) })
	now := time.Now()
	promoted := 0
	for _, d := range parked {
		if d.due.After(now) {
			break
		}
		q.ready[class] = append(q.ready[class], d.task)
		promoted++
	}
	q.delayed[class] = parked[promoted:]
}

// Len returns the number of ready tasks for a class.
func (q *MemoryQueue) Len(class Class) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready[class])
}

// Close marks the queue closed.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.signal()
	return nil
}
