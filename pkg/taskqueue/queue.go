// Package taskqueue carries accepted analysis requests from the trigger
// endpoint to the background worker. A real queue sits between the two so
// an enqueue failure is visible at trigger time, distinct from a failure
// during analysis.
package taskqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/koztechie/svitlogics/pkg/analysis"
)

// Task is one queued analysis request.
type Task struct {
	ID           string            `json:"id"`
	Text         string            `json:"text"`
	Language     analysis.Language `json:"language"`
	SystemPrompt string            `json:"system_prompt"`
	EnqueuedAt   time.Time         `json:"enqueued_at"`
}

// ToJSON serializes the task for the wire.
func (t *Task) ToJSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FromJSON deserializes a task.
func FromJSON(data string) (*Task, error) {
	var t Task
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Queue hands tasks from the trigger endpoint to workers.
type Queue interface {
	// Enqueue accepts a task. An error here means the task was never
	// admitted and the caller must not return 202.
	Enqueue(ctx context.Context, t *Task) error

	// Dequeue blocks until a task is available or the context ends.
	Dequeue(ctx context.Context) (*Task, error)
}
