package extract

import (
	"strings"

	"github.com/continuum-dev/continuum/internal/model"
)

// attachGrounding locates each of trigger/decision/rationale as a
// verbatim substring within the conversation's turns and records the
// matched text (spec.md section 4.2 step 6). Only the decision also gets
// a (start_char, end_char, turn_index) span; trigger and rationale are
// stored as text without a position. A field with no exact match in the source is left
// ungrounded rather than treated as an error — the model may have
// paraphrased.
func attachGrounding(d *DecisionDraft, turns []model.Turn) {
	if span, text, ok := locate(d.AgentDecision, turns); ok {
		d.Grounding.VerbatimDecision = text
		d.Grounding.DecisionSpan = &span
	}
	if _, text, ok := locate(d.Trigger, turns); ok {
		d.Grounding.VerbatimTrigger = text
	}
	if _, text, ok := locate(d.AgentRationale, turns); ok {
		d.Grounding.VerbatimRationale = text
	}
}

// locate finds the first occurrence of needle within any turn's
// content, trying an exact match first and falling back to a
// whitespace-normalized comparison so minor formatting differences
// introduced by the model don't prevent grounding.
func locate(needle string, turns []model.Turn) (model.Span, string, bool) {
	trimmed := strings.TrimSpace(needle)
	if trimmed == "" {
		return model.Span{}, "", false
	}

	for i, turn := range turns {
		if idx := strings.Index(turn.Content, trimmed); idx != -1 {
			return model.Span{StartChar: idx, EndChar: idx + len(trimmed), TurnIndex: i}, trimmed, true
		}
	}

	normalizedNeedle := normalizeWhitespace(trimmed)
	for i, turn := range turns {
		normalizedContent := normalizeWhitespace(turn.Content)
		if idx := strings.Index(normalizedContent, normalizedNeedle); idx != -1 {
			return model.Span{StartChar: idx, EndChar: idx + len(normalizedNeedle), TurnIndex: i}, trimmed, true
		}
	}

	return model.Span{}, "", false
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
