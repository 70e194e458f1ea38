package worker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koztechie/svitlogics/pkg/adapter"
	"github.com/koztechie/svitlogics/pkg/analysis"
	"github.com/koztechie/svitlogics/pkg/cascade"
	"github.com/koztechie/svitlogics/pkg/catalog"
	"github.com/koztechie/svitlogics/pkg/store"
	"github.com/koztechie/svitlogics/pkg/taskqueue"
)

const validJSON = `{"analysis_results":[],"overall_summary":"clean"}`

func testOrchestrator(t *testing.T, mock *adapter.MockAdapter) *cascade.Orchestrator {
	t.Helper()
	cat, err := catalog.New([]catalog.ModelDescriptor{{
		ID:                "m1",
		DisplayName:       "Model One",
		TokensPerMinute:   15000,
		RequestsPerMinute: 30,
		MaxOutputTokens:   8192,
		Priority:          1,
		Enabled:           true,
		Family:            catalog.FamilyGemma,
	}})
	require.NoError(t, err)
	return cascade.New(cat, adapter.Registry{catalog.FamilyGemma: mock})
}

func task(id string) *taskqueue.Task {
	return &taskqueue.Task{
		ID:           id,
		Text:         "text to analyze",
		Language:     analysis.LanguageEnglish,
		SystemPrompt: "system",
		EnqueuedAt:   time.Now().UTC(),
	}
}

func TestProcessWritesCompletedRecord(t *testing.T) {
	mock := adapter.NewMockAdapter().Respond("m1", validJSON)
	st := store.NewMemoryStore()
	w := New(taskqueue.NewMemoryQueue(1), st, testOrchestrator(t, mock))

	w.Process(context.Background(), task("task-ok"))

	rec, err := st.Get(context.Background(), "task-ok")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, rec.Status)
	require.NotNil(t, rec.Data)
	assert.Equal(t, "Model One", rec.Data.UsedModelName)
	assert.Empty(t, rec.Error)
}

func TestProcessWritesFailedRecord(t *testing.T) {
	mock := adapter.NewMockAdapter().
		Fail("m1", &adapter.Error{Status: http.StatusTooManyRequests, Message: "rate limited"})
	st := store.NewMemoryStore()
	w := New(taskqueue.NewMemoryQueue(1), st, testOrchestrator(t, mock))

	w.Process(context.Background(), task("task-fail"))

	rec, err := st.Get(context.Background(), "task-fail")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, rec.Status)
	assert.Nil(t, rec.Data)
	assert.Contains(t, rec.Error, "at capacity")
}

// brokenQueue fails every Dequeue immediately, like a down redis.
type brokenQueue struct {
	mu    sync.Mutex
	calls int
}

func (q *brokenQueue) Enqueue(context.Context, *taskqueue.Task) error { return nil }

func (q *brokenQueue) Dequeue(context.Context) (*taskqueue.Task, error) {
	q.mu.Lock()
	q.calls++
	q.mu.Unlock()
	return nil, errors.New("connection refused")
}

func (q *brokenQueue) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func TestRunBacksOffOnDequeueFailure(t *testing.T) {
	mock := adapter.NewMockAdapter()
	q := &brokenQueue{}
	w := New(q, store.NewMemoryStore(), testOrchestrator(t, mock),
		WithRetryDelay(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	// 100ms at a 20ms pause is about 5 attempts; a busy spin would be
	// in the millions.
	assert.LessOrEqual(t, q.callCount(), 10)
	assert.GreaterOrEqual(t, q.callCount(), 1)
}

func TestRunConsumesUntilCancelled(t *testing.T) {
	mock := adapter.NewMockAdapter().Respond("m1", validJSON)
	q := taskqueue.NewMemoryQueue(4)
	st := store.NewMemoryStore()
	w := New(q, st, testOrchestrator(t, mock))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Enqueue(ctx, task("t1")))
	require.NoError(t, q.Enqueue(ctx, task("t2")))

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err1 := st.Get(context.Background(), "t1")
		_, err2 := st.Get(context.Background(), "t2")
		return err1 == nil && err2 == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
