package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koztechie/svitlogics/pkg/analysis"
)

func completedRecord() *TaskRecord {
	return &TaskRecord{
		Status: StatusCompleted,
		Data: &analysis.Result{
			Categories: []analysis.Category{
				{Name: "Disinformation", Score: 5, Justification: "none"},
			},
			OverallSummary: "clean",
			UsedModelName:  "Gemma 3 27B",
		},
	}
}

func runStoreTests(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key is not found", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("terminal record round trip", func(t *testing.T) {
		want := completedRecord()
		require.NoError(t, s.Set(ctx, "task-1", want))

		got, err := s.Get(ctx, "task-1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("reads are idempotent", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "task-2", completedRecord()))

		first, err := s.Get(ctx, "task-2")
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := s.Get(ctx, "task-2")
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("failed record carries error only", func(t *testing.T) {
		rec := &TaskRecord{Status: StatusFailed, Error: "all models failed or are at capacity"}
		require.NoError(t, s.Set(ctx, "task-3", rec))

		got, err := s.Get(ctx, "task-3")
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, got.Status)
		assert.Nil(t, got.Data)
		assert.NotEmpty(t, got.Error)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := NewRedisStore(mr.Addr(), time.Hour)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	runStoreTests(t, s)
}

func TestRedisStoreInvalidAddress(t *testing.T) {
	_, err := NewRedisStore("invalid:99999", time.Hour)
	assert.Error(t, err)
}

func TestRedisStoreRecordsExpire(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := NewRedisStore(mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "task-ttl", completedRecord()))

	mr.FastForward(2 * time.Minute)

	_, err = s.Get(ctx, "task-ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}
