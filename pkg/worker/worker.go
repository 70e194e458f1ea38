// Package worker runs the background half of the asynchronous deployment
// shape: it consumes queued analysis tasks, runs the same cascade as the
// synchronous path, and writes the terminal record to the task store.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/koztechie/svitlogics/pkg/analysis"
	"github.com/koztechie/svitlogics/pkg/cascade"
	"github.com/koztechie/svitlogics/pkg/metrics"
	"github.com/koztechie/svitlogics/pkg/store"
	"github.com/koztechie/svitlogics/pkg/taskqueue"
)

const (
	defaultCascadeTimeout = 5 * time.Minute
	defaultRetryDelay     = time.Second
)

// Worker consumes analysis tasks until its context ends.
type Worker struct {
	queue          taskqueue.Queue
	store          store.Store
	orch           *cascade.Orchestrator
	logger         *zap.Logger
	cascadeTimeout time.Duration
	retryDelay     time.Duration
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the worker's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithCascadeTimeout caps the wall-clock time of one task's full cascade.
func WithCascadeTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.cascadeTimeout = d
		}
	}
}

// WithRetryDelay sets the pause after a failed dequeue.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.retryDelay = d
		}
	}
}

// New creates a Worker.
func New(q taskqueue.Queue, s store.Store, orch *cascade.Orchestrator, opts ...Option) *Worker {
	w := &Worker{
		queue:          q,
		store:          s,
		orch:           orch,
		logger:         zap.NewNop(),
		cascadeTimeout: defaultCascadeTimeout,
		retryDelay:     defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Info("worker stopped")
				return nil
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			// A broken queue backend fails instantly; pause so the
			// loop does not hammer it.
			select {
			case <-ctx.Done():
				w.logger.Info("worker stopped")
				return nil
			case <-time.After(w.retryDelay):
			}
			continue
		}
		w.Process(ctx, task)
	}
}

// Process runs one task's cascade and writes its terminal record. The
// record is written exactly once; a store failure on the success path
// degrades to a best-effort failed write so pollers are not left pending
// forever.
func (w *Worker) Process(ctx context.Context, task *taskqueue.Task) {
	w.logger.Info("processing task",
		zap.String("task_id", task.ID),
		zap.String("language", string(task.Language)))

	runCtx, cancel := context.WithTimeout(ctx, w.cascadeTimeout)
	defer cancel()

	result, err := w.orch.Analyze(runCtx, analysis.Request{
		Text:         task.Text,
		Language:     task.Language,
		SystemPrompt: task.SystemPrompt,
	})

	if err != nil {
		w.writeRecord(ctx, task.ID, &store.TaskRecord{
			Status: store.StatusFailed,
			Error:  err.Error(),
		})
		metrics.TasksTerminal.WithLabelValues(string(store.StatusFailed)).Inc()
		w.logger.Warn("task failed", zap.String("task_id", task.ID), zap.Error(err))
		return
	}

	rec := &store.TaskRecord{Status: store.StatusCompleted, Data: result}
	if werr := w.store.Set(ctx, task.ID, rec); werr != nil {
		w.logger.Error("failed to store completed task",
			zap.String("task_id", task.ID),
			zap.Error(werr))
		w.writeRecord(ctx, task.ID, &store.TaskRecord{
			Status: store.StatusFailed,
			Error:  "result could not be stored",
		})
		metrics.TasksTerminal.WithLabelValues(string(store.StatusFailed)).Inc()
		return
	}
	metrics.TasksTerminal.WithLabelValues(string(store.StatusCompleted)).Inc()
	w.logger.Info("task completed",
		zap.String("task_id", task.ID),
		zap.String("model", result.UsedModelName))
}

// writeRecord is the best-effort failure write.
func (w *Worker) writeRecord(ctx context.Context, taskID string, rec *store.TaskRecord) {
	if err := w.store.Set(ctx, taskID, rec); err != nil {
		w.logger.Error("failed to store task record",
			zap.String("task_id", taskID),
			zap.Error(err))
	}
}
