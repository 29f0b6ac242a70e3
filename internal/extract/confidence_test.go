package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrateConfidenceHeuristicRewardsCompleteness(t *testing.T) {
	sparse := &DecisionDraft{AgentDecision: "use postgres"}
	calibrateConfidence(sparse, CalibrationHeuristic)

	complete := &DecisionDraft{
		AgentDecision:  "use postgres",
		AgentRationale: "Postgres gives us transactional guarantees the alternatives lack and the team already knows it well.",
		Context:        "We're choosing a datastore for the new billing service under a tight deadline.",
		Options:        []string{"postgres", "mysql"},
		Assumptions:    []string{"write volume stays under 10k/s"},
		Scope:          "architectural",
	}
	calibrateConfidence(complete, CalibrationHeuristic)

	assert.Greater(t, complete.Confidence, sparse.Confidence)
}

func TestCalibrateConfidenceTemperatureScalesDown(t *testing.T) {
	d := &DecisionDraft{Confidence: 1.0}
	calibrateConfidence(d, CalibrationTemperature)
	assert.Less(t, d.Confidence, 1.0)
	assert.Greater(t, d.Confidence, 0.0)
}

func TestCalibrateConfidenceClampsToUnitInterval(t *testing.T) {
	over := &DecisionDraft{Confidence: 5.0}
	calibrateConfidence(over, CalibrationTemperature)
	assert.LessOrEqual(t, over.Confidence, 1.0)

	under := &DecisionDraft{Confidence: -3.0}
	calibrateConfidence(under, CalibrationTemperature)
	assert.GreaterOrEqual(t, under.Confidence, 0.0)
}

func TestCalibrateConfidenceCompositeBlendsBoth(t *testing.T) {
	d := &DecisionDraft{
		AgentDecision:  "use kafka",
		AgentRationale: "Kafka handles the throughput we need and the ops team already runs it elsewhere.",
		Confidence:     0.9,
	}
	calibrateConfidence(d, CalibrationComposite)
	assert.Greater(t, d.Confidence, 0.0)
	assert.LessOrEqual(t, d.Confidence, 1.0)
}
