package embed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuum-dev/continuum/internal/llm"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/resilience/cache"
)

type fakeEmbedProvider struct {
	calls      int
	batchSizes []int
}

func (f *fakeEmbedProvider) Name() string { return "fake" }

func (f *fakeEmbedProvider) Generate(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, llm.Usage, error) {
	return "", llm.Usage{}, nil
}

func (f *fakeEmbedProvider) Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	f.calls++
	f.batchSizes = append(f.batchSizes, len(texts))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

func newTestEmbedCache(t *testing.T) *cache.Tiered {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewTiered(client, time.Minute, time.Minute)
}

func TestEmbedBatchCachesResultsAboveMinLength(t *testing.T) {
	provider := &fakeEmbedProvider{}
	llmClient := llm.New(provider)
	e := New(llmClient, newTestEmbedCache(t), DefaultConfig())

	texts := []string{"a reasonably long piece of text to embed"}
	_, err := e.EmbedBatch(context.Background(), "user-1", texts, "passage")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)

	_, err = e.EmbedBatch(context.Background(), "user-1", texts, "passage")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls, "second call should be served from cache")
}

func TestEmbedBatchBypassesCacheForShortText(t *testing.T) {
	provider := &fakeEmbedProvider{}
	llmClient := llm.New(provider)
	e := New(llmClient, newTestEmbedCache(t), DefaultConfig())

	_, err := e.EmbedBatch(context.Background(), "user-1", []string{"hi"}, "passage")
	require.NoError(t, err)
	_, err = e.EmbedBatch(context.Background(), "user-1", []string{"hi"}, "passage")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls, "short text should never be served from cache")
}

func TestEmbedBatchSplitsIntoConfiguredBatchSize(t *testing.T) {
	provider := &fakeEmbedProvider{}
	llmClient := llm.New(provider)
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	e := New(llmClient, nil, cfg)

	texts := []string{
		"first reasonably long text",
		"second reasonably long text",
		"third reasonably long text",
	}
	_, err := e.EmbedBatch(context.Background(), "user-1", texts, "passage")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, provider.batchSizes)
}

func TestEmbedDecisionBlendsWeightedFields(t *testing.T) {
	provider := &fakeEmbedProvider{}
	llmClient := llm.New(provider)
	e := New(llmClient, nil, DefaultConfig())

	d := &model.Decision{
		AgentDecision:  "use postgres for the billing service",
		AgentRationale: "it has strong transactional guarantees",
		Context:        "choosing a datastore under a deadline",
		Trigger:        "need durable storage",
	}

	vec, err := e.EmbedDecision(context.Background(), "user-1", d)
	require.NoError(t, err)
	require.NotEmpty(t, vec)

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, norm, 1e-4)
}

func TestEmbedEntityUsesTypeNameFormat(t *testing.T) {
	provider := &fakeEmbedProvider{}
	llmClient := llm.New(provider)
	e := New(llmClient, nil, DefaultConfig())

	ent := &model.Entity{Name: "PostgreSQL", Type: model.EntityTechnology}
	vec, err := e.EmbedEntity(context.Background(), "user-1", ent)
	require.NoError(t, err)
	require.NotEmpty(t, vec)
}
