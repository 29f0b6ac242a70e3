package httpapi

import (
	"context"

	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/model"
)

// GraphAdapter satisfies GraphAPI by composing internal/graph.Client and
// internal/graph.EntityStore, translating between this package's wire
// structs and the graph package's native ones so httpapi never needs to
// expose graph.* types through its own route contracts.
type GraphAdapter struct {
	client   *graph.Client
	entities *graph.EntityStore
}

func NewGraphAdapter(client *graph.Client, entities *graph.EntityStore) *GraphAdapter {
	return &GraphAdapter{client: client, entities: entities}
}

func (a *GraphAdapter) ListDecisions(ctx context.Context, userID string, limit int) ([]*model.Decision, error) {
	return a.client.ListDecisions(ctx, userID, limit)
}

func (a *GraphAdapter) GetDecision(ctx context.Context, userID, decisionID string) (*model.Decision, error) {
	return a.client.GetDecision(ctx, userID, decisionID)
}

func (a *GraphAdapter) UpdateDecision(ctx context.Context, userID, decisionID string, fields GraphUpdateDecisionFields) error {
	return a.client.UpdateDecision(ctx, userID, decisionID, graph.UpdateDecisionFields{
		AgentDecision:  fields.AgentDecision,
		AgentRationale: fields.AgentRationale,
		Confidence:     fields.Confidence,
		Scope:          fields.Scope,
	})
}

func (a *GraphAdapter) DeleteDecision(ctx context.Context, userID, decisionID string) error {
	return a.client.DeleteDecision(ctx, userID, decisionID)
}

func (a *GraphAdapter) DecisionsAffectingFiles(ctx context.Context, userID string, paths []string, limit int) ([]*model.Decision, error) {
	return a.client.DecisionsAffectingFiles(ctx, userID, paths, limit)
}

func (a *GraphAdapter) ListEntities(ctx context.Context, userID string, entityType model.EntityType) ([]*model.Entity, error) {
	return a.entities.ListEntities(ctx, userID, entityType)
}

func (a *GraphAdapter) GetEntity(ctx context.Context, userID, entityID string) (*model.Entity, error) {
	return a.entities.GetEntity(ctx, userID, entityID)
}

func (a *GraphAdapter) CreateEntity(ctx context.Context, entity *model.Entity) error {
	return a.entities.CreateEntity(ctx, entity)
}

func (a *GraphAdapter) UpdateEntity(ctx context.Context, userID, entityID string, name *string, aliases []string) error {
	return a.entities.UpdateEntity(ctx, userID, entityID, name, aliases)
}

func (a *GraphAdapter) DeleteEntity(ctx context.Context, userID, entityID string) error {
	return a.entities.DeleteEntity(ctx, userID, entityID)
}

func (a *GraphAdapter) Search(ctx context.Context, userID, queryText string, queryVector []float32, limit int) ([]SearchHit, error) {
	hits, err := a.client.Search(ctx, userID, queryText, queryVector, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SearchHit, 0, len(hits))
	for _, h := range hits {
		hit := SearchHit{LexicalScore: h.LexicalScore, VectorScore: h.VectorScore}
		if h.Decision != nil {
			hit.DecisionID = h.Decision.ID
		}
		if h.Entity != nil {
			hit.EntityID = h.Entity.ID
			hit.EntityName = h.Entity.Name
		}
		if h.Candidate != nil {
			hit.CandidateID = h.Candidate.ID
			hit.CandidateText = h.Candidate.Text
			hit.RejectedByDecisionID = h.Candidate.DecisionID
		}
		if hit.DecisionID == "" && hit.EntityID == "" && hit.CandidateID == "" {
			continue
		}
		out = append(out, hit)
	}
	return out, nil
}
