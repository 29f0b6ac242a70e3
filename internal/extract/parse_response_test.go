package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraftsCleanArray(t *testing.T) {
	drafts, err := parseDrafts(`[{"trigger":"t","agent_decision":"use postgres","confidence":0.8}]`)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "use postgres", drafts[0].AgentDecision)
}

func TestParseDraftsFencedBlockWithProse(t *testing.T) {
	response := "Here is my analysis:\n```json\n[{\"agent_decision\": \"use redis\"}]\n```\nLet me know if you need more."
	drafts, err := parseDrafts(response)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "use redis", drafts[0].AgentDecision)
}

func TestParseDraftsSingleObjectAutoWraps(t *testing.T) {
	drafts, err := parseDrafts(`{"agent_decision": "use kafka"}`)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "use kafka", drafts[0].AgentDecision)
}

func TestParseDraftsEmptyArray(t *testing.T) {
	drafts, err := parseDrafts(`[]`)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestParseDraftsMalformedReturnsError(t *testing.T) {
	_, err := parseDrafts("not json at all, just prose")
	require.Error(t, err)
}

func TestParseDraftsWithEntityMentions(t *testing.T) {
	response := `[{"agent_decision": "use postgres", "entity_mentions": [{"name": "PostgreSQL", "type": "technology", "role": "chosen"}]}]`
	drafts, err := parseDrafts(response)
	require.NoError(t, err)
	require.Len(t, drafts[0].Mentions, 1)
	assert.Equal(t, "PostgreSQL", drafts[0].Mentions[0].Name)
}
