package taskqueue

import (
	"context"
	"errors"
)

// MemoryQueue is a channel-backed Queue for tests and single-process runs
// where serve hosts its own worker.
type MemoryQueue struct {
	tasks chan *Task
}

// NewMemoryQueue creates a queue with the given buffer capacity.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemoryQueue{tasks: make(chan *Task, capacity)}
}

// Enqueue accepts a task unless the buffer is full.
func (q *MemoryQueue) Enqueue(ctx context.Context, t *Task) error {
	select {
	case q.tasks <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("queue is full")
	}
}

// Dequeue blocks until a task is available or the context ends.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case t := <-q.tasks:
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
