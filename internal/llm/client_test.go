package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuum-dev/continuum/internal/resilience/breaker"
	"github.com/continuum-dev/continuum/internal/resilience/cache"
)

func newTestCache(t *testing.T) *cache.Tiered {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewTiered(client, time.Minute, time.Minute)
}

type fakeProvider struct {
	name     string
	calls    int
	err      error
	response string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, Usage, error) {
	f.calls++
	if f.err != nil {
		return "", Usage{}, f.err
	}
	return f.response, Usage{PromptTokens: 10, CompletionTokens: 5}, nil
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func TestGenerateFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("upstream 500")}
	fallback := &fakeProvider{name: "fallback", response: "fallback answer"}

	c := New(primary, WithFallback(fallback))

	text, _, err := c.Generate(context.Background(), "tenant-a", []Message{{Role: "user", Content: "hi"}}, 0.2, 100)
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestGeneratePropagatesErrorWithNoFallback(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("boom")}
	c := New(primary)

	_, _, err := c.Generate(context.Background(), "tenant-a", []Message{{Role: "user", Content: "hi"}}, 0, 100)
	require.Error(t, err)
}

func TestGenerateRespectsOpenBreaker(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("fails every time")}
	b := breaker.New("test-provider", breaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Hour, SuccessThreshold: 1})
	c := New(primary, WithBreaker(b))

	_, _, err := c.Generate(context.Background(), "tenant-a", []Message{{Role: "user", Content: "hi"}}, 0, 100)
	require.Error(t, err)
	assert.Equal(t, 1, primary.calls)

	// Second call should be rejected fast by the open breaker, not dispatched to the provider again.
	_, _, err = c.Generate(context.Background(), "tenant-a", []Message{{Role: "user", Content: "hi"}}, 0, 100)
	require.Error(t, err)
	assert.Equal(t, 1, primary.calls)
}

func TestGenerateCachesZeroTemperatureResponses(t *testing.T) {
	primary := &fakeProvider{name: "primary", response: "cached answer"}
	c := New(primary)
	c.cache = newTestCache(t)

	ctx := context.Background()
	msgs := []Message{{Role: "user", Content: "what is the decision"}}

	text1, _, err := c.Generate(ctx, "tenant-a", msgs, 0, 100)
	require.NoError(t, err)
	text2, _, err := c.Generate(ctx, "tenant-a", msgs, 0, 100)
	require.NoError(t, err)

	assert.Equal(t, text1, text2)
	assert.Equal(t, 1, primary.calls, "second call should be served from cache, not dispatched again")
}

func TestTruncateToFitKeepsSystemAndRecentTurns(t *testing.T) {
	long := make([]byte, MaxPromptChars)
	for i := range long {
		long[i] = 'x'
	}
	messages := []Message{
		{Role: "system", Content: "system prompt"},
		{Role: "user", Content: string(long)},
		{Role: "assistant", Content: "ok"},
		{Role: "user", Content: "most recent question"},
	}

	out := truncateToFit(messages)
	require.NotEmpty(t, out)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "most recent question", out[len(out)-1].Content)
}
