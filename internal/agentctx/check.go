package agentctx

import (
	"context"

	"github.com/continuum-dev/continuum/internal/analyze"
	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/model"
)

// Recommendation is `/api/agent/check`'s verdict, per spec.md section
// 6's `{proceed|review_similar|resolve_contradiction}`.
type Recommendation string

const (
	RecommendProceed            Recommendation = "proceed"
	RecommendReviewSimilar      Recommendation = "review_similar"
	RecommendResolveContradiction Recommendation = "resolve_contradiction"
)

// CheckRequest is `/api/agent/check`'s body: the decision an agent is
// about to make, checked against prior art before it commits.
type CheckRequest struct {
	ProposedDecision string `json:"proposed_decision"`
	Context          string `json:"context,omitempty"`
}

// ContradictionHit pairs a prior decision with the confidence that it
// contradicts the proposed one, per internal/analyze's heuristic.
type ContradictionHit struct {
	Decision   *model.Decision `json:"decision"`
	Confidence float64         `json:"confidence"`
}

// CheckResponse is `/api/agent/check`'s payload.
type CheckResponse struct {
	Recommendation    Recommendation     `json:"recommendation"`
	SimilarDecisions  []*model.Decision  `json:"similar_decisions"`
	Contradictions    []ContradictionHit `json:"contradictions,omitempty"`
	AbandonedPatterns []*model.Decision  `json:"abandoned_patterns,omitempty"`
}

const checkSimilarityReviewThreshold = 0.6

// CheckPriorArt implements `/api/agent/check`: hybrid-searches for
// decisions similar to the proposed one, flags any whose text the
// assumption-invalidation heuristic judges contradicted, surfaces
// decisions that are themselves the "prior" end of a SUPERSEDES edge
// (an already-abandoned pattern), and reduces all of that to one
// recommendation, per spec.md section 6.
func (s *Service) CheckPriorArt(ctx context.Context, userID string, req CheckRequest) (*CheckResponse, error) {
	var queryVector []float32
	if s.embedder != nil {
		vecs, err := s.embedder.EmbedBatch(ctx, userID, []string{req.ProposedDecision}, "query")
		if err == nil && len(vecs) == 1 {
			queryVector = vecs[0]
		}
	}

	hits, err := s.store.Search(ctx, userID, req.ProposedDecision, queryVector, s.cfg.PriorArtSearchLimit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Decision != nil && h.Decision.ID != "" {
			ids = append(ids, h.Decision.ID)
		}
	}
	similar, err := s.store.GetDecisions(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	var contradictions []ContradictionHit
	var abandoned []*model.Decision
	bestScore := 0.0
	for _, d := range similar {
		if ok, confidence := analyze.Contradicted(d.AgentDecision, req.ProposedDecision); ok {
			contradictions = append(contradictions, ContradictionHit{Decision: d, Confidence: confidence})
		}

		edges, err := s.store.EvolutionEdges(ctx, userID, d.ID)
		if err != nil {
			return nil, err
		}
		if hasSupersededEdge(edges, d.ID) {
			abandoned = append(abandoned, d)
		}

		if score := bestSearchScore(hits, d.ID); score > bestScore {
			bestScore = score
		}
	}

	recommendation := DetermineRecommendation(len(contradictions) > 0, bestScore, checkSimilarityReviewThreshold)

	return &CheckResponse{
		Recommendation:    recommendation,
		SimilarDecisions:  similar,
		Contradictions:    contradictions,
		AbandonedPatterns: abandoned,
	}, nil
}

// DetermineRecommendation reduces a prior-art check's signals to one
// recommendation: a contradiction always wins, then a strong enough
// similarity hit asks for human review, otherwise it's clear to proceed.
func DetermineRecommendation(hasContradiction bool, bestSimilarity, reviewThreshold float64) Recommendation {
	switch {
	case hasContradiction:
		return RecommendResolveContradiction
	case bestSimilarity >= reviewThreshold:
		return RecommendReviewSimilar
	default:
		return RecommendProceed
	}
}

// hasSupersededEdge reports whether decisionID is the older end of a
// SUPERSEDES edge, i.e. something later replaced it.
func hasSupersededEdge(edges []graph.EvolutionEdge, decisionID string) bool {
	for _, e := range edges {
		if e.Kind == model.EdgeSupersedes && !e.NewerFirst {
			return true
		}
	}
	return false
}

func bestSearchScore(hits []graph.SearchResult, decisionID string) float64 {
	for _, h := range hits {
		if h.Decision != nil && h.Decision.ID == decisionID {
			score := h.LexicalScore
			if h.VectorScore > score {
				score = h.VectorScore
			}
			return score
		}
	}
	return 0
}
