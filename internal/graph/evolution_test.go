package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePairedAnalysisCleanJSON(t *testing.T) {
	result, err := parsePairedAnalysis(`{"relationship": "SUPERSEDES", "confidence": 0.92, "reasoning": "replaces the old choice"}`)
	require.NoError(t, err)
	assert.Equal(t, "SUPERSEDES", result.Relationship)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
}

func TestParsePairedAnalysisFencedBlock(t *testing.T) {
	response := "```json\n{\"relationship\": \"CONTRADICTS\", \"confidence\": 0.8, \"reasoning\": \"conflicting choice\"}\n```"
	result, err := parsePairedAnalysis(response)
	require.NoError(t, err)
	assert.Equal(t, "CONTRADICTS", result.Relationship)
}

func TestParsePairedAnalysisMalformedReturnsError(t *testing.T) {
	_, err := parsePairedAnalysis("no json here")
	assert.Error(t, err)
}
