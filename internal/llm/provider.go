// Package llm provides the shared LLM client used by the extractor,
// entity resolver, graph writer, and analyzers (spec.md section 4.8):
// one interface over pluggable providers, with rate limiting, retry,
// circuit breaking, response caching, an observability hook, a
// prompt-size guard, and an optional fallback model — each composed as
// an explicit wrapper at construction time rather than via decorators
// (spec.md section 9 design note).
package llm

import "context"

// Message is one turn of a chat-style completion request.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Usage reports token accounting for a single call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Provider is the minimal contract spec.md section 6 requires of an LLM
// backend: generate(messages, T, max_tokens) and embed(texts, input_type).
type Provider interface {
	Name() string
	Generate(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, Usage, error)
	Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error)
}

// StreamChunk is one piece of a streaming generation, per spec.md
// section 9's "producer of a finite, non-restartable sequence".
type StreamChunk struct {
	Text string
	Done bool
	Err  error
}
