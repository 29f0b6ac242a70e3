package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIProvider wraps Google's Generative AI SDK as the "alternative
// model host" of spec.md section 6, grounded on the teacher's
// internal/llm/gemini_client.go.
type GenAIProvider struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

func NewGenAIProvider(ctx context.Context, apiKey, model, embeddingModel string) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("genai: new client: %w", err)
	}
	return &GenAIProvider{client: client, model: model, embeddingModel: embeddingModel}, nil
}

func (p *GenAIProvider) Name() string { return "genai" }

func (p *GenAIProvider) Generate(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, Usage, error) {
	var systemInstruction *genai.Content
	var userParts []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case "system":
			systemInstruction = genai.Text(m.Content)[0]
		default:
			userParts = append(userParts, genai.Text(m.Content)[0])
		}
	}

	temp := float32(temperature)
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       &temp,
		MaxOutputTokens:   int32(maxTokens),
	}

	var combined string
	for _, c := range userParts {
		for _, part := range c.Parts {
			combined += part.Text
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(combined), genConfig)
	if err != nil {
		return "", Usage{}, fmt.Errorf("genai: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", Usage{}, fmt.Errorf("genai: no content returned")
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	usage := Usage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return text, usage, nil
}

func (p *GenAIProvider) Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	var contents []*genai.Content
	for _, t := range texts {
		contents = append(contents, genai.Text(t)[0])
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.embeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("genai: embed content: %w", err)
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}
