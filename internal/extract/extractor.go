package extract

import (
	"context"
	"fmt"

	"github.com/continuum-dev/continuum/internal/errors"
	"github.com/continuum-dev/continuum/internal/llm"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/sanitize"
)

const systemPrompt = `You extract architectural and technical decisions from AI coding agent conversations.

Return a JSON array of decision objects, one per distinct decision discussed. Each object has:
{
  "trigger": "what prompted the decision",
  "context": "surrounding situation",
  "agent_decision": "what was decided",
  "agent_rationale": "why",
  "options": ["alternatives considered, including the chosen one"],
  "confidence": 0.0 to 1.0,
  "scope": "tactical" | "strategic" | "architectural",
  "assumptions": ["assumptions the decision depends on"],
  "entity_mentions": [{"name": "...", "type": "technology|concept|pattern|system|person|organization", "role": "..."}]
}

If no decisions are present, return an empty array. Return only the JSON array.`

// Config controls the extractor's budget, calibration method, and
// grounding behavior, all overridable per spec.md section 6.
type Config struct {
	ModelContextWindow int
	KeepRecentTurns    int
	Calibration        CalibrationMethod
	AttachGrounding    bool
	MaxOutputTokens    int
}

func DefaultConfig() Config {
	return Config{
		ModelContextWindow: 128_000,
		KeepRecentTurns:    20,
		Calibration:        CalibrationComposite,
		AttachGrounding:    true,
		MaxOutputTokens:    4000,
	}
}

// Extractor implements the pipeline of spec.md section 4.2.
type Extractor struct {
	llm        *llm.Client
	compressor *Compressor
	cfg        Config
}

func New(llmClient *llm.Client, cfg Config) *Extractor {
	return &Extractor{llm: llmClient, compressor: NewCompressor(llmClient), cfg: cfg}
}

// Extract transforms conv into a list of decision drafts. Transient LLM
// failures surface as a typed errors.Error (KindUpstream); malformed
// model output returns an empty slice with a wrapped parse error rather
// than panicking, per the "structured warning, not an exception"
// failure semantics of spec.md section 4.2.
func (e *Extractor) Extract(ctx context.Context, userID string, conv *model.Conversation) ([]DecisionDraft, error) {
	sanitizedTurns := make([]model.Turn, len(conv.Turns))
	for i, t := range conv.Turns {
		result := sanitize.SanitizePrompt(t.Content)
		sanitizedTurn := t
		if result.RiskLevel == sanitize.RiskHigh || result.RiskLevel == sanitize.RiskCritical {
			sanitizedTurn.Content = "[content removed: possible prompt injection]"
		} else {
			sanitizedTurn.Content = result.SanitizedText
		}
		sanitizedTurns[i] = sanitizedTurn
	}
	sanitizedConv := &model.Conversation{Project: conv.Project, SessionTimestamp: conv.SessionTimestamp, Turns: sanitizedTurns}

	budget := EffectiveContextLimit(e.cfg.ModelContextWindow) * 4 // rough chars-per-token estimate
	text, err := e.compressor.Compress(ctx, userID, sanitizedConv, budget, e.cfg.KeepRecentTurns)
	if err != nil {
		return nil, errors.Upstream(err, "extract: compression failed")
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: text},
	}

	response, _, err := e.llm.Generate(ctx, userID, messages, 0.3, e.cfg.MaxOutputTokens)
	if err != nil {
		return nil, errors.Upstream(err, "extract: decision extraction call failed")
	}

	drafts, err := parseDrafts(response)
	if err != nil {
		// Malformed JSON: return no drafts with a descriptive warning
		// rather than failing the whole conversation.
		return []DecisionDraft{}, fmt.Errorf("extract: %w (draft list empty, not an extraction failure)", err)
	}

	for i := range drafts {
		calibrateConfidence(&drafts[i], e.cfg.Calibration)
		ClassifyDecisionType(&drafts[i])
		if e.cfg.AttachGrounding {
			attachGrounding(&drafts[i], conv.Turns)
		}
	}

	return drafts, nil
}
