package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/continuum-dev/continuum/internal/model"
)

func TestMergeByDecisionIDSetsVectorScoreOnExistingLexicalHit(t *testing.T) {
	lexical := []SearchResult{{Decision: &model.Decision{ID: "d1"}, LexicalScore: 0.7}}
	vector := []SearchResult{{Decision: &model.Decision{ID: "d1"}, LexicalScore: 0.9}}

	merged := mergeByDecisionID(lexical, vector)
	require := assert.New(t)
	require.Len(merged, 1)
	require.Equal(0.7, merged[0].LexicalScore)
	require.Equal(0.9, merged[0].VectorScore)
}

func TestMergeByDecisionIDAppendsVectorOnlyHits(t *testing.T) {
	lexical := []SearchResult{{Decision: &model.Decision{ID: "d1"}, LexicalScore: 0.5}}
	vector := []SearchResult{{Decision: &model.Decision{ID: "d2"}, LexicalScore: 0.95}}

	merged := mergeByDecisionID(lexical, vector)
	assert.Len(t, merged, 2)
	assert.Equal(t, "d2", merged[1].Decision.ID)
	assert.Equal(t, 0.95, merged[1].VectorScore)
	assert.Equal(t, 0.0, merged[1].LexicalScore)
}
