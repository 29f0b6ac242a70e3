package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseDrafts tolerates the three response shapes spec.md section 4.2
// step 2 names: a clean JSON array, an array or object wrapped in a
// fenced code block with surrounding prose, or a single decision object
// (auto-wrapped into a one-element array). Malformed JSON returns an
// empty slice and a descriptive error rather than panicking, per the
// "structured warning, not an exception" failure semantics.
func parseDrafts(response string) ([]DecisionDraft, error) {
	candidate := extractJSONPayload(response)
	if candidate == "" {
		return nil, fmt.Errorf("extract: no JSON payload found in response")
	}

	var rawArray []rawDraft
	if err := json.Unmarshal([]byte(candidate), &rawArray); err == nil {
		return toDrafts(rawArray), nil
	}

	var single rawDraft
	if err := json.Unmarshal([]byte(candidate), &single); err == nil {
		return toDrafts([]rawDraft{single}), nil
	}

	return nil, fmt.Errorf("extract: response is neither a decision array nor a single decision object")
}

func toDrafts(raw []rawDraft) []DecisionDraft {
	drafts := make([]DecisionDraft, 0, len(raw))
	for _, r := range raw {
		drafts = append(drafts, r.toDraft())
	}
	return drafts
}

// extractJSONPayload strips a surrounding fenced code block (```json ...
// ``` or plain ``` ... ```) if present, then narrows to the first
// top-level JSON array or object found in whatever prose remains.
func extractJSONPayload(response string) string {
	text := strings.TrimSpace(response)

	if idx := strings.Index(text, "```"); idx != -1 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		rest = strings.TrimPrefix(rest, "JSON")
		if end := strings.Index(rest, "```"); end != -1 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	start := -1
	var openChar, closeChar byte
	for i := 0; i < len(text); i++ {
		if text[i] == '[' || text[i] == '{' {
			start = i
			openChar = text[i]
			if openChar == '[' {
				closeChar = ']'
			} else {
				closeChar = '}'
			}
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// no-op, inside a string literal
		case c == openChar:
			depth++
		case c == closeChar:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
