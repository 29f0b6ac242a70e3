package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDecisionTypeArchitecture(t *testing.T) {
	d := &DecisionDraft{AgentDecision: "split the monolith into microservices", AgentRationale: "service boundaries were unclear"}
	ClassifyDecisionType(d)
	assert.Equal(t, TypeArchitecture, d.DecisionType)
}

func TestClassifyDecisionTypeTechnologyChoice(t *testing.T) {
	d := &DecisionDraft{AgentDecision: "use the requests library", AgentRationale: "simpler than urllib"}
	ClassifyDecisionType(d)
	assert.Equal(t, TypeTechnologyChoice, d.DecisionType)
}

func TestClassifyDecisionTypeDefaultsToGeneral(t *testing.T) {
	d := &DecisionDraft{AgentDecision: "rename the variable", AgentRationale: "clarity"}
	ClassifyDecisionType(d)
	assert.Equal(t, TypeGeneral, d.DecisionType)
}

func TestClassifyDecisionTypeFillsDefaultOption(t *testing.T) {
	d := &DecisionDraft{AgentDecision: "use postgres"}
	ClassifyDecisionType(d)
	assert.Equal(t, []string{"use postgres"}, d.Options)
}

func TestClassifyDecisionTypeDefaultsScope(t *testing.T) {
	d := &DecisionDraft{AgentDecision: "use postgres"}
	ClassifyDecisionType(d)
	assert.Equal(t, "unknown", string(d.Scope))
}
