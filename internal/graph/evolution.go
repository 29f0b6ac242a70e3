package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/continuum-dev/continuum/internal/llm"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/vectors"
)

// EvolutionConfig controls the relationship analyzer's thresholds, all
// overridable per spec.md section 6's configuration table.
type EvolutionConfig struct {
	RecentCandidates    int
	SimilarityThreshold float64
	MinConfidence       float64
}

func DefaultEvolutionConfig() EvolutionConfig {
	return EvolutionConfig{RecentCandidates: 10, SimilarityThreshold: 0.85, MinConfidence: 0.6}
}

const pairedAnalysisPrompt = `Compare two architectural decisions made by the same user over time. Classify their relationship as exactly one of SUPERSEDES, CONTRADICTS, SIMILAR_TO, or UNRELATED.

- SUPERSEDES: the newer decision replaces or overrides the older one.
- CONTRADICTS: the two decisions conflict and cannot both hold.
- SIMILAR_TO: the two decisions address closely related concerns without conflicting.
- UNRELATED: neither decision bears on the other.

Return JSON: {"relationship": "...", "confidence": 0.0-1.0, "reasoning": "..."}`

type pairedAnalysisResult struct {
	Relationship string  `json:"relationship"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// EvolutionAnalyzer discovers SUPERSEDES/CONTRADICTS/SIMILAR_TO edges
// between a newly written decision and the user's recent, entity-sharing
// decisions (spec.md section 4.5, "Evolution analysis").
type EvolutionAnalyzer struct {
	c   *Client
	llm *llm.Client
	cfg EvolutionConfig
}

func NewEvolutionAnalyzer(c *Client, llmClient *llm.Client, cfg EvolutionConfig) *EvolutionAnalyzer {
	return &EvolutionAnalyzer{c: c, llm: llmClient, cfg: cfg}
}

// Analyze fetches the user's most recent decisions sharing at least one
// entity with newDecision, pairs each against it, and persists the
// resulting edges.
func (a *EvolutionAnalyzer) Analyze(ctx context.Context, newDecision *model.Decision) error {
	candidates, err := a.recentSharedEntityDecisions(ctx, newDecision)
	if err != nil {
		return fmt.Errorf("graph: evolution: find candidates: %w", err)
	}

	for _, prior := range candidates {
		if err := a.analyzePair(ctx, newDecision, prior); err != nil {
			return fmt.Errorf("graph: evolution: pair %s/%s: %w", newDecision.ID, prior.ID, err)
		}
	}
	return nil
}

func (a *EvolutionAnalyzer) recentSharedEntityDecisions(ctx context.Context, d *model.Decision) ([]*model.Decision, error) {
	query := `
		MATCH (d:Decision {id: $id})-[:INVOLVES]->(e:Entity)<-[:INVOLVES]-(prior:Decision)
		WHERE prior.id <> $id AND prior.user_id = $user_id
		RETURN DISTINCT prior.id AS id, prior.agent_decision AS agent_decision,
		       prior.embedding AS embedding, prior.created_at AS created_at
		ORDER BY prior.created_at DESC
		LIMIT $limit
	`
	result, err := a.c.run(ctx, query, map[string]any{"id": d.ID, "user_id": d.UserID, "limit": a.cfg.RecentCandidates})
	if err != nil {
		return nil, err
	}

	out := make([]*model.Decision, 0, len(result.Records))
	for _, rec := range result.Records {
		prior := &model.Decision{UserID: d.UserID}
		if v, ok := rec.Get("id"); ok {
			prior.ID, _ = v.(string)
		}
		if v, ok := rec.Get("agent_decision"); ok {
			prior.AgentDecision, _ = v.(string)
		}
		if v, ok := rec.Get("embedding"); ok {
			if list, ok := v.([]any); ok {
				for _, x := range list {
					if f, ok := x.(float64); ok {
						prior.Embedding = append(prior.Embedding, float32(f))
					}
				}
			}
		}
		out = append(out, prior)
	}
	return out, nil
}

func (a *EvolutionAnalyzer) analyzePair(ctx context.Context, newer, prior *model.Decision) error {
	similarity := vectors.CosineSimilarity(newer.Embedding, prior.Embedding)
	if similarity >= a.cfg.SimilarityThreshold {
		if err := a.writeEdge(ctx, model.EdgeSimilarTo, newer.ID, prior.ID, similarity); err != nil {
			return err
		}
	}

	if a.llm == nil {
		return nil
	}

	messages := []llm.Message{
		{Role: "system", Content: pairedAnalysisPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"Older decision: %s\n\nNewer decision: %s", prior.AgentDecision, newer.AgentDecision)},
	}
	response, _, err := a.llm.Generate(ctx, newer.UserID, messages, 0.1, 300)
	if err != nil {
		return fmt.Errorf("paired analysis call failed: %w", err)
	}

	result, err := parsePairedAnalysis(response)
	if err != nil || result.Confidence < a.cfg.MinConfidence {
		return nil
	}

	switch strings.ToUpper(result.Relationship) {
	case "SUPERSEDES":
		return a.writeEdge(ctx, model.EdgeSupersedes, newer.ID, prior.ID, result.Confidence)
	case "CONTRADICTS":
		return a.writeEdge(ctx, model.EdgeContradicts, newer.ID, prior.ID, result.Confidence)
	case "SIMILAR_TO":
		return a.writeEdge(ctx, model.EdgeSimilarTo, newer.ID, prior.ID, result.Confidence)
	default:
		return nil
	}
}

func parsePairedAnalysis(response string) (pairedAnalysisResult, error) {
	trimmed := strings.TrimSpace(response)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return pairedAnalysisResult{}, fmt.Errorf("graph: no JSON object in paired analysis response")
	}

	var result pairedAnalysisResult
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &result); err != nil {
		return pairedAnalysisResult{}, fmt.Errorf("graph: unmarshal paired analysis: %w", err)
	}
	return result, nil
}

// writeEdge persists an evolution edge newer -> prior. SUPERSEDES reads
// directionally that way; CONTRADICTS and SIMILAR_TO are stored once
// under the same newer->prior direction and treated as undirected by
// convention (spec.md section 4.5).
func (a *EvolutionAnalyzer) writeEdge(ctx context.Context, kind model.EdgeKind, newerID, priorID string, weight float64) error {
	query := fmt.Sprintf(`
		MATCH (newer:Decision {id: $newer_id})
		MATCH (prior:Decision {id: $prior_id})
		MERGE (newer)-[r:%s]->(prior)
		SET r.weight = $weight,
		    r.detected_at = datetime($detected_at)
	`, string(kind))

	return a.c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{
			"newer_id":    newerID,
			"prior_id":    priorID,
			"weight":      weight,
			"detected_at": time.Now().Format(time.RFC3339),
		})
		return nil, err
	})
}
