package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunOnceCallsJobForEveryUserAndContinuesPastErrors(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	job := Job{
		Name:     "test_job",
		Interval: time.Hour,
		Run: func(ctx context.Context, userID string) error {
			mu.Lock()
			seen = append(seen, userID)
			mu.Unlock()
			if userID == "bad-user" {
				return assert.AnError
			}
			return nil
		},
	}

	s := New([]Job{job}, func() []string { return []string{"user-a", "bad-user", "user-b"} })
	s.runOnce(context.Background(), job)

	assert.Equal(t, []string{"user-a", "bad-user", "user-b"}, seen)
}

func TestStartStopsWhenContextIsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	job := Job{
		Name:     "ticking_job",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context, userID string) error {
			return nil
		},
	}

	s := New([]Job{job}, func() []string { return []string{"user-a"} })

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
