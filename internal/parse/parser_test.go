package parse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuum-dev/continuum/internal/model"
)

func TestParseLineDelimitedLog(t *testing.T) {
	log := `{"role":"user","content":"should we use postgres?","timestamp":"2026-01-01T10:00:00Z"}
{"role":"assistant","content":"yes, postgres for durability","timestamp":"2026-01-01T10:00:05Z","tool_calls":[{"name":"edit","file_paths":["apps/api/db.py"]}]}
`
	conv, err := Parse(strings.NewReader(log), "continuum", time.Now())
	require.NoError(t, err)
	require.Len(t, conv.Turns, 2)
	assert.Equal(t, model.RoleUser, conv.Turns[0].Role)
	assert.Equal(t, model.RoleAssistant, conv.Turns[1].Role)
	require.Len(t, conv.Turns[1].ToolCalls, 1)
	assert.Equal(t, []string{"apps/api/db.py"}, conv.Turns[1].ToolCalls[0].FilePaths)
}

func TestParseEmptyConversation(t *testing.T) {
	conv, err := Parse(strings.NewReader(""), "continuum", time.Now())
	require.NoError(t, err)
	assert.Empty(t, conv.Turns)
}

func TestParseRejectsUnknownRole(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"role":"bot","content":"hi"}`), "p", time.Now())
	assert.Error(t, err)
}

func TestSplitEpisodesByGap(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	turns := []model.Turn{
		{Role: model.RoleUser, Timestamp: base},
		{Role: model.RoleAssistant, Timestamp: base.Add(1 * time.Minute)},
		// gap > 10m starts a new episode
		{Role: model.RoleUser, Timestamp: base.Add(25 * time.Minute)},
		{Role: model.RoleAssistant, Timestamp: base.Add(26 * time.Minute)},
	}

	episodes := SplitEpisodes(turns, 10*time.Minute)
	require.Len(t, episodes, 2)
	assert.Len(t, episodes[0].Turns, 2)
	assert.Len(t, episodes[1].Turns, 2)
}

func TestSplitEpisodesEmpty(t *testing.T) {
	assert.Nil(t, SplitEpisodes(nil, time.Minute))
}
