// Package model defines Continuum's core knowledge-graph entities,
// independent of how they're persisted (spec.md section 3).
package model

import "time"

// Scope controls which staleness threshold a Decision is judged against.
type Scope string

const (
	ScopeTactical      Scope = "tactical"
	ScopeStrategic     Scope = "strategic"
	ScopeArchitectural Scope = "architectural"
	ScopeUnknown       Scope = "unknown"
)

// SourceType is where a Decision's content originated.
type SourceType string

const (
	SourceClaudeLog SourceType = "claude_log"
	SourceInterview SourceType = "interview"
	SourceManual    SourceType = "manual"
	SourceImport    SourceType = "import"
	SourceAPI       SourceType = "api"
	SourceExternal  SourceType = "external"
)

// ExtractionMethod records how a Decision's fields were produced.
type ExtractionMethod string

const (
	ExtractionLLM           ExtractionMethod = "llm_extraction"
	ExtractionPatternMatch  ExtractionMethod = "pattern_matching"
	ExtractionManual        ExtractionMethod = "manual_entry"
	ExtractionResolution    ExtractionMethod = "entity_resolution"
	ExtractionInference     ExtractionMethod = "inference"
	ExtractionImport        ExtractionMethod = "import"
)

// SourceReference pins a Decision's content to its place of origin.
type SourceReference struct {
	SourcePath        string    `json:"source_path,omitempty"`
	LineStart         int       `json:"line_start,omitempty"`
	LineEnd           int       `json:"line_end,omitempty"`
	TurnIndex         int       `json:"turn_index,omitempty"`
	OriginalTimestamp time.Time `json:"original_timestamp,omitempty"`
	// Snippet is truncated to 500 chars by SetSnippet, per spec.md section 3.
	Snippet string `json:"snippet,omitempty"`
}

func (r *SourceReference) SetSnippet(s string) {
	const max = 500
	if len(s) > max {
		s = s[:max]
	}
	r.Snippet = s
}

// Provenance records the full lineage of a Decision's extraction.
type Provenance struct {
	Method             ExtractionMethod `json:"method"`
	Model              string           `json:"model,omitempty"`
	PromptTemplateVer  string           `json:"prompt_template_version,omitempty"`
	InputTokens        int              `json:"input_tokens,omitempty"`
	OutputTokens       int              `json:"output_tokens,omitempty"`
	RetryCount         int              `json:"retry_count,omitempty"`
	ValidationFlags    []string         `json:"validation_flags,omitempty"`
	Source             SourceReference  `json:"source"`
	HumanDecision      string           `json:"human_decision,omitempty"`
	HumanRationale     string           `json:"human_rationale,omitempty"`
}

// Span pins a verbatim grounding quote to its location in the source
// conversation (spec.md section 3, "Grounding").
type Span struct {
	StartChar int `json:"start_char"`
	EndChar   int `json:"end_char"`
	TurnIndex int `json:"turn_index"`
}

// Grounding holds the optional verbatim substrings backing a Decision's
// content fields.
type Grounding struct {
	VerbatimDecision  string `json:"verbatim_decision,omitempty"`
	VerbatimTrigger   string `json:"verbatim_trigger,omitempty"`
	VerbatimRationale string `json:"verbatim_rationale,omitempty"`
	DecisionSpan      *Span  `json:"decision_span,omitempty"`
}

// Decision is Continuum's primary record (spec.md section 3).
type Decision struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Project string `json:"project,omitempty"`

	Trigger        string   `json:"trigger"`
	Context        string   `json:"context"`
	AgentDecision  string   `json:"agent_decision"`
	AgentRationale string   `json:"agent_rationale"`
	Options        []string `json:"options"`
	Confidence     float64  `json:"confidence"`
	Scope          Scope    `json:"scope"`
	Assumptions    []string `json:"assumptions,omitempty"`

	Source SourceType `json:"source"`

	Provenance Provenance `json:"provenance"`
	Grounding  Grounding  `json:"grounding"`

	Embedding []float32 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	EditedAt  time.Time `json:"edited_at,omitempty"`
	EditCount int       `json:"edit_count"`
}

// ClampConfidence enforces the [0,1] invariant from spec.md section 3.
func (d *Decision) ClampConfidence() {
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
}

// IsChosenOption reports whether option matches AgentDecision under the
// case-insensitive, whitespace-trimmed comparison spec.md section 3
// mandates for CandidateDecision creation.
func (d *Decision) IsChosenOption(option string) bool {
	return normalizeOption(option) == normalizeOption(d.AgentDecision)
}
