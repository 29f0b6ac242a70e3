package batcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueFlushesAtBatchSize(t *testing.T) {
	var mu sync.Mutex
	var flushed [][]any

	b := New(Config{BatchSize: 3, FlushTimeout: time.Hour}, func(ctx context.Context, sessionID string, msgs []any) error {
		mu.Lock()
		defer mu.Unlock()
		batch := append([]any(nil), msgs...)
		flushed = append(flushed, batch)
		return nil
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Enqueue(ctx, "s1", i))
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, flushed, 1)
	assert.Equal(t, []any{0, 1, 2}, flushed[0])
	assert.Equal(t, 0, b.PendingCount())
}

func TestEnqueuePreservesArrivalOrder(t *testing.T) {
	var mu sync.Mutex
	var got []any

	b := New(Config{BatchSize: 100, FlushTimeout: 20 * time.Millisecond}, func(ctx context.Context, sessionID string, msgs []any) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msgs...)
		return nil
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Enqueue(ctx, "s1", i))
	}

	require.NoError(t, b.CompleteSession(ctx, "s1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{0, 1, 2, 3, 4}, got)
}

func TestFlushFailureReprepends(t *testing.T) {
	attempt := 0
	b := New(Config{BatchSize: 2, FlushTimeout: time.Hour}, func(ctx context.Context, sessionID string, msgs []any) error {
		attempt++
		if attempt == 1 {
			return errors.New("storage unavailable")
		}
		return nil
	})

	ctx := context.Background()
	require.NoError(t, b.Enqueue(ctx, "s1", "a"))
	err := b.Enqueue(ctx, "s1", "b")
	require.Error(t, err)
	assert.Equal(t, 2, b.PendingCount())

	require.NoError(t, b.CompleteSession(ctx, "s1"))
	assert.Equal(t, 0, b.PendingCount())
}

func TestFlushAllDrainsEverySession(t *testing.T) {
	b := New(Config{BatchSize: 100, FlushTimeout: time.Hour}, func(ctx context.Context, sessionID string, msgs []any) error {
		return nil
	})

	ctx := context.Background()
	require.NoError(t, b.Enqueue(ctx, "s1", "a"))
	require.NoError(t, b.Enqueue(ctx, "s2", "b"))
	assert.Equal(t, 2, b.PendingCount())

	require.NoError(t, b.FlushAll(ctx))
	assert.Equal(t, 0, b.PendingCount())
}
