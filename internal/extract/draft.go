// Package extract implements the conversation -> decision-draft pipeline
// of spec.md section 4.2: budget and compress the input, run a single
// structured-extraction prompt, calibrate confidence, classify decision
// type, and attach verbatim grounding.
package extract

import "github.com/continuum-dev/continuum/internal/model"

// MentionCandidate is a free-text entity mention pulled out of a draft,
// left unresolved until the graph writer hands it to internal/resolve.
type MentionCandidate struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Role string `json:"role,omitempty"` // relationship role for the eventual INVOLVES edge
}

// DecisionDraft is a decision in its pre-graph form: the full field set
// from spec.md section 3, plus unresolved entity mentions, before any
// graph write or entity resolution occurs.
type DecisionDraft struct {
	Trigger        string   `json:"trigger"`
	Context        string   `json:"context"`
	AgentDecision  string   `json:"agent_decision"`
	AgentRationale string   `json:"agent_rationale"`
	Options        []string `json:"options"`
	Confidence     float64  `json:"confidence"`
	Scope          model.Scope `json:"scope"`
	Assumptions    []string `json:"assumptions,omitempty"`
	DecisionType   string   `json:"decision_type,omitempty"`

	Mentions []MentionCandidate `json:"entity_mentions,omitempty"`

	Grounding model.Grounding `json:"-"`
}

// rawDraft is the shape the extraction prompt is asked to emit; field
// names track the prompt's JSON schema rather than model.Decision's Go
// naming, so this stays a private intermediate type.
type rawDraft struct {
	Trigger        string   `json:"trigger"`
	Context        string   `json:"context"`
	AgentDecision  string   `json:"agent_decision"`
	AgentRationale string   `json:"agent_rationale"`
	Options        []string `json:"options"`
	Confidence     *float64 `json:"confidence"`
	Scope          string   `json:"scope"`
	Assumptions    []string `json:"assumptions"`
	EntityMentions []struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Role string `json:"role"`
	} `json:"entity_mentions"`
}

func (r rawDraft) toDraft() DecisionDraft {
	d := DecisionDraft{
		Trigger:        r.Trigger,
		Context:        r.Context,
		AgentDecision:  r.AgentDecision,
		AgentRationale: r.AgentRationale,
		Options:        r.Options,
		Scope:          parseScope(r.Scope),
		Assumptions:    r.Assumptions,
	}
	if r.Confidence != nil {
		d.Confidence = *r.Confidence
	}
	for _, m := range r.EntityMentions {
		d.Mentions = append(d.Mentions, MentionCandidate{Name: m.Name, Type: m.Type, Role: m.Role})
	}
	return d
}

func parseScope(s string) model.Scope {
	switch model.Scope(s) {
	case model.ScopeTactical, model.ScopeStrategic, model.ScopeArchitectural:
		return model.Scope(s)
	default:
		return model.ScopeUnknown
	}
}
