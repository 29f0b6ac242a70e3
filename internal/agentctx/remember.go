package agentctx

import (
	"context"
	"time"

	"github.com/continuum-dev/continuum/internal/errors"
	"github.com/continuum-dev/continuum/internal/extract"
	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/model"
)

// RememberRequest is `/api/agent/remember`'s body: a decision draft
// already produced by internal/extract (or authored directly by a
// caller that skips extraction), ready for resolution and persistence.
type RememberRequest struct {
	Project string
	Source  model.SourceType
	Draft   DecisionDraft
}

// RememberResponse is `/api/agent/remember`'s payload.
type RememberResponse struct {
	DecisionID string `json:"decision_id"`
}

// Remember implements `/api/agent/remember`: resolves every entity
// mention in the draft to a canonical node, embeds the decision,
// persists it and its derived structure atomically, then runs the
// evolution analyzer to discover SUPERSEDES/CONTRADICTS/SIMILAR_TO edges
// against the user's recent, entity-sharing decisions. Requires a real
// (non-anonymous) user per spec.md section 6's tenancy rule.
func (s *Service) Remember(ctx context.Context, userID string, req RememberRequest) (*RememberResponse, error) {
	if userID == "" || userID == model.AnonymousUserID {
		return nil, errors.Auth("agentctx: remember requires an authenticated user")
	}
	if req.Draft.AgentDecision == "" {
		return nil, errors.Validation("agentctx: remember requires a non-empty agent_decision")
	}

	decision := &model.Decision{
		UserID:         userID,
		Project:        req.Project,
		Trigger:        req.Draft.Trigger,
		Context:        req.Draft.Context,
		AgentDecision:  req.Draft.AgentDecision,
		AgentRationale: req.Draft.AgentRationale,
		Options:        req.Draft.Options,
		Confidence:     req.Draft.Confidence,
		Scope:          req.Draft.Scope,
		Assumptions:    req.Draft.Assumptions,
		Source:         req.Source,
		Grounding:      req.Draft.Grounding,
		CreatedAt:      time.Now(),
	}
	if decision.Source == "" {
		decision.Source = model.SourceAPI
	}

	mentions, err := s.resolveMentions(ctx, userID, req.Draft.Mentions)
	if err != nil {
		return nil, err
	}

	if s.embedder != nil {
		vector, err := s.embedder.EmbedDecision(ctx, userID, decision)
		if err != nil {
			return nil, err
		}
		decision.Embedding = vector
	}

	if err := s.writer.Write(ctx, graph.DecisionWrite{Decision: decision, Mentions: mentions}); err != nil {
		return nil, err
	}

	if s.evolution != nil {
		if err := s.evolution.Analyze(ctx, decision); err != nil {
			return nil, err
		}
	}

	return &RememberResponse{DecisionID: decision.ID}, nil
}

func (s *Service) resolveMentions(ctx context.Context, userID string, candidates []extract.MentionCandidate) ([]graph.ResolvedMention, error) {
	if s.resolver == nil || len(candidates) == 0 {
		return nil, nil
	}

	out := make([]graph.ResolvedMention, 0, len(candidates))
	for _, m := range candidates {
		result, err := s.resolver.Resolve(ctx, userID, m.Name, model.EntityType(m.Type))
		if err != nil {
			return nil, err
		}
		out = append(out, graph.ResolvedMention{EntityID: result.EntityID, Role: m.Role})
	}
	return out, nil
}
