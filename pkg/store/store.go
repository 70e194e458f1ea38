// Package store defines the key-value task-record store used by the
// asynchronous deployment shape, with redis and in-memory implementations.
package store

import (
	"context"
	"errors"

	"github.com/koztechie/svitlogics/pkg/analysis"
)

// ErrNotFound means no record exists for the task ID. Absence is how a
// pending task reads: no explicit pending row precedes the terminal write.
var ErrNotFound = errors.New("task record not found")

// Status is the terminal (or reported-pending) state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TaskRecord is the write-once terminal state of an analysis task.
type TaskRecord struct {
	Status Status           `json:"status"`
	Data   *analysis.Result `json:"data,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Store is an opaque key→record store. Records are single-writer and
// written once; reads are idempotent.
type Store interface {
	// Get returns the record for a task ID, or ErrNotFound.
	Get(ctx context.Context, taskID string) (*TaskRecord, error)

	// Set writes the terminal record for a task ID.
	Set(ctx context.Context, taskID string, rec *TaskRecord) error
}
