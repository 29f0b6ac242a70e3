package agentctx

import (
	"context"
	"sort"

	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/model"
)

// ContextRequest is `/api/agent/context`'s body: a free-text query plus
// how much subgraph expansion to perform around the hits.
type ContextRequest struct {
	Query        string `json:"query"`
	Limit        int    `json:"limit,omitempty"`
	ExpandEntities bool `json:"expand_entities,omitempty"`
	ExpandEvolution bool `json:"expand_evolution,omitempty"`
}

// DecisionContext is one search hit hydrated with whatever subgraph the
// request asked to expand.
type DecisionContext struct {
	Decision     *model.Decision       `json:"decision"`
	LexicalScore float64               `json:"lexical_score"`
	VectorScore  float64               `json:"vector_score"`
	Entities     []*model.Entity       `json:"entities,omitempty"`
	Evolution    []graph.EvolutionEdge `json:"evolution,omitempty"`
}

// ContextResponse is `/api/agent/context`'s payload.
type ContextResponse struct {
	Results []DecisionContext `json:"results"`
}

// Context implements `/api/agent/context`: hybrid search (lexical
// full-text with CONTAINS fallback, blended with vector cosine when an
// embedding is available) followed by optional subgraph expansion, per
// spec.md section 6's "Hybrid search + subgraph expansion".
func (s *Service) Context(ctx context.Context, userID string, req ContextRequest) (*ContextResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}

	var queryVector []float32
	if s.embedder != nil && req.Query != "" {
		vecs, err := s.embedder.EmbedBatch(ctx, userID, []string{req.Query}, "query")
		if err == nil && len(vecs) == 1 {
			queryVector = vecs[0]
		}
	}

	hits, err := s.store.Search(ctx, userID, req.Query, queryVector, limit)
	if err != nil {
		return nil, err
	}

	if s.reranker != nil && s.cfg.RerankEnabled {
		hits, err = s.reranker.Rerank(ctx, req.Query, hits, s.cfg.RerankTopK)
		if err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(hits))
	scoreByID := make(map[string]graph.SearchResult, len(hits))
	for _, h := range hits {
		if h.Decision == nil || h.Decision.ID == "" {
			continue
		}
		ids = append(ids, h.Decision.ID)
		scoreByID[h.Decision.ID] = h
	}

	decisions, err := s.store.GetDecisions(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	results := make([]DecisionContext, 0, len(decisions))
	for _, d := range decisions {
		hit := scoreByID[d.ID]
		dc := DecisionContext{Decision: d, LexicalScore: hit.LexicalScore, VectorScore: hit.VectorScore}

		if req.ExpandEntities {
			entities, err := s.store.InvolvedEntities(ctx, userID, d.ID)
			if err != nil {
				return nil, err
			}
			dc.Entities = entities
		}
		if req.ExpandEvolution {
			edges, err := s.store.EvolutionEdges(ctx, userID, d.ID)
			if err != nil {
				return nil, err
			}
			dc.Evolution = edges
		}
		results = append(results, dc)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].LexicalScore+results[i].VectorScore > results[j].LexicalScore+results[j].VectorScore
	})

	return &ContextResponse{Results: results}, nil
}
