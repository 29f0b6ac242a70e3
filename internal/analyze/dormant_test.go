package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/continuum-dev/continuum/internal/graph"
)

func TestScoreDormantWeightsAgeAndLowConfidence(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	row := graph.DormantCandidateRow{
		RejectedAt:         now.Add(-365 * 24 * time.Hour),
		OriginalConfidence: 0.5,
	}
	days, score := ScoreDormant(row, now)
	assert.Equal(t, 365, days)
	assert.InDelta(t, 1.0*0.6+0.5*0.4, score, 1e-9)
}

func TestScoreDormantZeroForUnrejected(t *testing.T) {
	days, score := ScoreDormant(graph.DormantCandidateRow{}, time.Now())
	assert.Equal(t, 0, days)
	assert.Equal(t, 0.0, score)
}

func TestScoreDormantDefaultsMissingConfidenceToPointSeven(t *testing.T) {
	now := time.Now()
	row := graph.DormantCandidateRow{RejectedAt: now.Add(-30 * 24 * time.Hour)}
	_, score := ScoreDormant(row, now)
	ageScore := 30.0 / 365
	assert.InDelta(t, ageScore*0.6+(1-0.7)*0.4, score, 1e-9)
}
