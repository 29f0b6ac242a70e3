package extract

import "strings"

// Decision types named in spec.md section 4.2 step 5, used as defaults
// when a keyword match fails to fire.
const (
	TypeTechnologyChoice = "technology-choice"
	TypePatternChoice    = "pattern-choice"
	TypeArchitecture     = "architecture"
	TypeProcess          = "process"
	TypeGeneral          = "general"
)

// classificationKeywords maps a decision type to the phrases whose
// presence in the decision, rationale and context text suggests that type, checked
// in order of specificity. Kept as a plain keyword rule set rather than
// a second LLM round-trip (spec.md section 4.2 step 5 allows either; a
// keyword pass is cheap enough to run on every draft and avoids a
// second network call per decision).
var classificationKeywords = []struct {
	decisionType string
	keywords     []string
}{
	{TypeArchitecture, []string{"architecture", "microservice", "monolith", "service boundary", "system design"}},
	{TypeTechnologyChoice, []string{"library", "framework", "database", "language", "package", "dependency", "sdk", "tool"}},
	{TypePatternChoice, []string{"pattern", "approach", "strategy", "algorithm", "design pattern"}},
	{TypeProcess, []string{"workflow", "process", "pipeline", "ci/cd", "deployment", "release"}},
}

// ClassifyDecisionType assigns a decision type via keyword rules over
// the decision, rationale and context text, and fills required-field defaults
// for the detected type (spec.md section 4.2 step 5: "require at least
// one option").
func ClassifyDecisionType(d *DecisionDraft) {
	haystack := strings.ToLower(d.AgentDecision + " " + d.AgentRationale + " " + d.Context)

	d.DecisionType = TypeGeneral
	for _, rule := range classificationKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				d.DecisionType = rule.decisionType
				break
			}
		}
		if d.DecisionType != TypeGeneral {
			break
		}
	}

	if len(d.Options) == 0 && d.AgentDecision != "" {
		d.Options = []string{d.AgentDecision}
	}
	if d.Scope == "" {
		d.Scope = "unknown"
	}
}
