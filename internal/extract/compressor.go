package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/continuum-dev/continuum/internal/llm"
	"github.com/continuum-dev/continuum/internal/model"
)

// EffectiveContextLimit returns 85% of a model's advertised context
// window, per spec.md section 4.2 step 1.
func EffectiveContextLimit(modelWindow int) int {
	return int(float64(modelWindow) * 0.85)
}

// quotedPhrase pulls out double-quoted spans, the cheapest proxy for
// "identified critical constraints" the original memory-compression
// service preserves verbatim (grounded on
// original_source/apps/api/services/memory_compressor.py's quote
// preservation step).
var quotedPhrase = regexp.MustCompile(`"([^"]{3,200})"`)

// Compressor summarizes the oldest turns of an over-budget conversation
// while preserving quoted constraints verbatim, keeping the most recent
// turns untouched so near-term context survives compression intact.
type Compressor struct {
	llm *llm.Client
}

func NewCompressor(llmClient *llm.Client) *Compressor {
	return &Compressor{llm: llmClient}
}

// Compress renders conv as text, summarizing everything but the most
// recent keepRecent turns if the full text exceeds budgetChars.
func (c *Compressor) Compress(ctx context.Context, userID string, conv *model.Conversation, budgetChars, keepRecent int) (string, error) {
	full := renderTurns(conv.Turns)
	if len(full) <= budgetChars {
		return full, nil
	}

	if keepRecent > len(conv.Turns) {
		keepRecent = len(conv.Turns)
	}
	splitAt := len(conv.Turns) - keepRecent
	older := conv.Turns[:splitAt]
	recent := conv.Turns[splitAt:]

	olderText := renderTurns(older)
	quotes := extractQuotes(olderText)

	summary, err := c.summarize(ctx, userID, olderText, quotes)
	if err != nil {
		// Fall back to a hard truncation rather than failing extraction
		// outright: the caller still gets something to work with.
		return truncate(full, budgetChars), nil
	}

	return summary + "\n\n" + renderTurns(recent), nil
}

func (c *Compressor) summarize(ctx context.Context, userID, text string, quotes []string) (string, error) {
	if c.llm == nil {
		return "", fmt.Errorf("extract: no llm client configured for compression")
	}

	var quoteBlock strings.Builder
	for _, q := range quotes {
		quoteBlock.WriteString("- \"")
		quoteBlock.WriteString(q)
		quoteBlock.WriteString("\"\n")
	}

	systemPrompt := "You compress AI coding agent conversation transcripts into concise summaries for future reference. " +
		"Preserve every decision, constraint, and technical choice. Quote the following critical constraints verbatim, " +
		"do not paraphrase them:\n" + quoteBlock.String()

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: text},
	}

	summary, _, err := c.llm.Generate(ctx, userID, messages, 0.2, 2000)
	if err != nil {
		return "", fmt.Errorf("extract: compress: %w", err)
	}
	return summary, nil
}

func extractQuotes(text string) []string {
	matches := quotedPhrase.FindAllStringSubmatch(text, 10)
	quotes := make([]string, 0, len(matches))
	for _, m := range matches {
		quotes = append(quotes, m[1])
	}
	return quotes
}

func renderTurns(turns []model.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
