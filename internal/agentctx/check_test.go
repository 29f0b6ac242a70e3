package agentctx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/model"
)

func TestDetermineRecommendationContradictionWinsOverSimilarity(t *testing.T) {
	assert.Equal(t, RecommendResolveContradiction, DetermineRecommendation(true, 0.95, 0.6))
}

func TestDetermineRecommendationReviewsStrongSimilarityWithoutContradiction(t *testing.T) {
	assert.Equal(t, RecommendReviewSimilar, DetermineRecommendation(false, 0.7, 0.6))
}

func TestDetermineRecommendationProceedsWhenNothingStandsOut(t *testing.T) {
	assert.Equal(t, RecommendProceed, DetermineRecommendation(false, 0.1, 0.6))
}

func TestHasSupersededEdgeTrueWhenDecisionIsOlderEnd(t *testing.T) {
	edges := []graph.EvolutionEdge{{Kind: model.EdgeSupersedes, OtherID: "newer", NewerFirst: false}}
	assert.True(t, hasSupersededEdge(edges, "old"))
}

func TestHasSupersededEdgeFalseWhenDecisionIsNewerEnd(t *testing.T) {
	edges := []graph.EvolutionEdge{{Kind: model.EdgeSupersedes, OtherID: "old", NewerFirst: true}}
	assert.False(t, hasSupersededEdge(edges, "new"))
}

func TestBestSearchScorePicksHigherOfLexicalAndVector(t *testing.T) {
	hits := []graph.SearchResult{
		{Decision: &model.Decision{ID: "d1"}, LexicalScore: 0.2, VectorScore: 0.9},
	}
	assert.Equal(t, 0.9, bestSearchScore(hits, "d1"))
}

func TestBestSearchScoreZeroForUnknownDecision(t *testing.T) {
	hits := []graph.SearchResult{{Decision: &model.Decision{ID: "d1"}, LexicalScore: 0.5}}
	assert.Equal(t, 0.0, bestSearchScore(hits, "missing"))
}
