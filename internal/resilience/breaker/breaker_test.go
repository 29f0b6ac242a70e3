package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("llm", Config{FailureThreshold: 5, RecoveryTimeout: 20 * time.Millisecond, SuccessThreshold: 2})

	for i := 0; i < 4; i++ {
		err := b.Do(func() error { return errors.New("boom") })
		require.Error(t, err)
		assert.Equal(t, Closed, b.State())
	}

	// 5th consecutive failure trips the breaker.
	err := b.Do(func() error { return errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, Open, b.State())

	// Immediately rejected fast while open.
	err = b.Allow()
	var ra *RetryAfter
	require.ErrorAs(t, err, &ra)
}

func TestBreakerRecoversAfterSuccesses(t *testing.T) {
	b := New("llm", Config{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond, SuccessThreshold: 2})

	_ = b.Do(func() error { return errors.New("boom") })
	require.Equal(t, Open, b.State())

	time.Sleep(15 * time.Millisecond)

	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, HalfOpen, b.State())

	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, Closed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("llm", Config{FailureThreshold: 1, RecoveryTimeout: 5 * time.Millisecond, SuccessThreshold: 2})
	_ = b.Do(func() error { return errors.New("boom") })
	time.Sleep(10 * time.Millisecond)
	_ = b.Do(func() error { return errors.New("still broken") })
	assert.Equal(t, Open, b.State())
}

func TestRegistryReusesBreakerByName(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	a := r.Get("llm")
	b := r.Get("llm")
	assert.Same(t, a, b)
	other := r.Get("embeddings")
	assert.NotSame(t, a, other)
}
