package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuum-dev/continuum/internal/model"
)

func TestAttachGroundingLocatesExactSubstring(t *testing.T) {
	turns := []model.Turn{
		{Role: model.RoleUser, Content: "We need a datastore for the billing service."},
		{Role: model.RoleAssistant, Content: "I'll use PostgreSQL because it has the transactional guarantees we need."},
	}
	d := &DecisionDraft{AgentDecision: "use PostgreSQL", AgentRationale: "transactional guarantees we need"}
	attachGrounding(d, turns)

	require.NotNil(t, d.Grounding.DecisionSpan)
	assert.Equal(t, 1, d.Grounding.DecisionSpan.TurnIndex)
	assert.Equal(t, "transactional guarantees we need", d.Grounding.VerbatimRationale)
}

func TestAttachGroundingLeavesUngroundedWhenNoMatch(t *testing.T) {
	turns := []model.Turn{{Role: model.RoleUser, Content: "Let's talk about deployment."}}
	d := &DecisionDraft{AgentDecision: "something never said verbatim"}
	attachGrounding(d, turns)
	assert.Nil(t, d.Grounding.DecisionSpan)
	assert.Empty(t, d.Grounding.VerbatimDecision)
}
