package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuum-dev/continuum/internal/llm"
	"github.com/continuum-dev/continuum/internal/model"
)

// stubProvider is a minimal llm.Provider double local to this package;
// internal/llm's own fakeProvider is unexported and lives in its test
// binary only.
type stubProvider struct {
	calls    int
	err      error
	response string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, llm.Usage, error) {
	s.calls++
	if s.err != nil {
		return "", llm.Usage{}, s.err
	}
	return s.response, llm.Usage{}, nil
}

func (s *stubProvider) Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	return nil, nil
}

func TestEffectiveContextLimitIsEightyFivePercent(t *testing.T) {
	assert.Equal(t, 108800, EffectiveContextLimit(128_000))
}

func TestCompressPassesThroughUnderBudget(t *testing.T) {
	conv := &model.Conversation{Turns: []model.Turn{
		{Role: model.RoleUser, Content: "short conversation"},
	}}
	c := NewCompressor(nil)
	out, err := c.Compress(context.Background(), "user-1", conv, 10_000, 20)
	require.NoError(t, err)
	assert.Contains(t, out, "short conversation")
}

func TestCompressSummarizesOverBudgetKeepingRecentTurns(t *testing.T) {
	var turns []model.Turn
	for i := 0; i < 50; i++ {
		turns = append(turns, model.Turn{Role: model.RoleUser, Content: "filler message padding out the transcript with enough text to blow the budget"})
	}
	turns = append(turns, model.Turn{Role: model.RoleAssistant, Content: "the most recent decision"})
	conv := &model.Conversation{Turns: turns}

	provider := &stubProvider{response: "condensed summary of older turns"}
	client := llm.New(provider)
	c := NewCompressor(client)

	out, err := c.Compress(context.Background(), "user-1", conv, 200, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "condensed summary of older turns")
	assert.Contains(t, out, "the most recent decision")
	assert.Equal(t, 1, provider.calls)
}

func TestCompressFallsBackToTruncationOnSummarizeFailure(t *testing.T) {
	var turns []model.Turn
	for i := 0; i < 50; i++ {
		turns = append(turns, model.Turn{Role: model.RoleUser, Content: "filler message padding out the transcript with enough text to blow the budget"})
	}
	conv := &model.Conversation{Turns: turns}

	provider := &stubProvider{err: assert.AnError}
	client := llm.New(provider)
	c := NewCompressor(client)

	out, err := c.Compress(context.Background(), "user-1", conv, 100, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 100)
}

func TestExtractQuotesPullsDoubleQuotedPhrases(t *testing.T) {
	quotes := extractQuotes(`We agreed the timeout is "30 seconds" and the retry budget is "3 attempts".`)
	assert.Equal(t, []string{"30 seconds", "3 attempts"}, quotes)
}
