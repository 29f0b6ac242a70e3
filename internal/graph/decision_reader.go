package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/continuum-dev/continuum/internal/model"
)

const decisionProjection = `
	d.id AS id, d.user_id AS user_id, d.project AS project,
	d.trigger AS trigger, d.context AS context,
	d.agent_decision AS agent_decision, d.agent_rationale AS agent_rationale,
	d.options AS options, d.confidence AS confidence, d.scope AS scope,
	d.assumptions AS assumptions, d.source AS source,
	d.embedding AS embedding, d.created_at AS created_at, d.edit_count AS edit_count
`

// GetDecision hydrates a full Decision by id, scoped to userID so one
// user's mentions can never leak another's content. Search and the
// analyzers return bare ids; this is how callers turn those back into
// full records for display.
func (c *Client) GetDecision(ctx context.Context, userID, decisionID string) (*model.Decision, error) {
	query := `
		MATCH (d:Decision {id: $id, user_id: $user_id})
		RETURN ` + decisionProjection + `
		LIMIT 1
	`
	result, err := c.run(ctx, query, map[string]any{"id": decisionID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	return decisionFromRecord(result.Records[0])
}

// GetDecisions hydrates many decisions in one round trip, preserving no
// particular order; callers that need search ranking re-sort by id.
func (c *Client) GetDecisions(ctx context.Context, userID string, ids []string) ([]*model.Decision, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		MATCH (d:Decision {user_id: $user_id})
		WHERE d.id IN $ids
		RETURN ` + decisionProjection
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "ids": ids})
	if err != nil {
		return nil, err
	}
	out := make([]*model.Decision, 0, len(result.Records))
	for _, rec := range result.Records {
		d, err := decisionFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// InvolvedEntities returns the entities a decision's INVOLVES edges
// point at, for agentctx's entity-context surface.
func (c *Client) InvolvedEntities(ctx context.Context, userID, decisionID string) ([]*model.Entity, error) {
	query := `
		MATCH (d:Decision {id: $id, user_id: $user_id})-[:INVOLVES]->(e:Entity)
		RETURN ` + entityProjection
	result, err := c.run(ctx, query, map[string]any{"id": decisionID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	out := make([]*model.Entity, 0, len(result.Records))
	for _, rec := range result.Records {
		e, err := entityFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// DecisionsInvolvingEntity returns every decision that mentions entityID,
// newest first, for agentctx's entity-context surface.
func (c *Client) DecisionsInvolvingEntity(ctx context.Context, userID, entityID string, limit int) ([]*model.Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		MATCH (d:Decision {user_id: $user_id})-[:INVOLVES]->(e:Entity {id: $entity_id})
		RETURN ` + decisionProjection + `
		ORDER BY d.created_at DESC
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "entity_id": entityID, "limit": limit})
	if err != nil {
		return nil, err
	}
	out := make([]*model.Decision, 0, len(result.Records))
	for _, rec := range result.Records {
		d, err := decisionFromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// EvolutionEdge is one SUPERSEDES/CONTRADICTS/SIMILAR_TO relationship
// touching a decision, in either direction.
type EvolutionEdge struct {
	Kind       model.EdgeKind
	OtherID    string
	Weight     float64
	NewerFirst bool // true if this decision is the edge's "newer" endpoint
}

// EvolutionEdges returns the SUPERSEDES/CONTRADICTS/SIMILAR_TO edges
// touching decisionID in either direction, for check-prior-art and the
// decision detail view.
func (c *Client) EvolutionEdges(ctx context.Context, userID, decisionID string) ([]EvolutionEdge, error) {
	query := `
		MATCH (d:Decision {id: $id, user_id: $user_id})-[r:SUPERSEDES|CONTRADICTS|SIMILAR_TO]-(other:Decision)
		RETURN type(r) AS kind, other.id AS other_id, r.weight AS weight,
		       startNode(r).id = $id AS newer_first
	`
	result, err := c.run(ctx, query, map[string]any{"id": decisionID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	out := make([]EvolutionEdge, 0, len(result.Records))
	for _, rec := range result.Records {
		var e EvolutionEdge
		if v, ok := rec.Get("kind"); ok {
			s, _ := v.(string)
			e.Kind = model.EdgeKind(s)
		}
		if v, ok := rec.Get("other_id"); ok {
			e.OtherID, _ = v.(string)
		}
		if v, ok := rec.Get("weight"); ok {
			e.Weight, _ = v.(float64)
		}
		if v, ok := rec.Get("newer_first"); ok {
			e.NewerFirst, _ = v.(bool)
		}
		out = append(out, e)
	}
	return out, nil
}

func decisionFromRecord(rec *neo4j.Record) (*model.Decision, error) {
	d := &model.Decision{}
	if v, ok := rec.Get("id"); ok {
		d.ID, _ = v.(string)
	}
	if v, ok := rec.Get("user_id"); ok {
		d.UserID, _ = v.(string)
	}
	if v, ok := rec.Get("project"); ok {
		d.Project, _ = v.(string)
	}
	if v, ok := rec.Get("trigger"); ok {
		d.Trigger, _ = v.(string)
	}
	if v, ok := rec.Get("context"); ok {
		d.Context, _ = v.(string)
	}
	if v, ok := rec.Get("agent_decision"); ok {
		d.AgentDecision, _ = v.(string)
	}
	if v, ok := rec.Get("agent_rationale"); ok {
		d.AgentRationale, _ = v.(string)
	}
	if v, ok := rec.Get("options"); ok {
		d.Options = stringList(v)
	}
	if v, ok := rec.Get("confidence"); ok {
		d.Confidence, _ = v.(float64)
	}
	if v, ok := rec.Get("scope"); ok {
		s, _ := v.(string)
		d.Scope = model.Scope(s)
	}
	if v, ok := rec.Get("assumptions"); ok {
		d.Assumptions = stringList(v)
	}
	if v, ok := rec.Get("source"); ok {
		s, _ := v.(string)
		d.Source = model.SourceType(s)
	}
	if v, ok := rec.Get("embedding"); ok {
		d.Embedding = float32List(v)
	}
	if v, ok := rec.Get("created_at"); ok {
		d.CreatedAt = neo4jTimeValue(v)
	}
	if v, ok := rec.Get("edit_count"); ok {
		switch n := v.(type) {
		case int64:
			d.EditCount = int(n)
		case float64:
			d.EditCount = int(n)
		}
	}
	return d, nil
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, x := range list {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func float32List(v any) []float32 {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(list))
	for _, x := range list {
		if f, ok := x.(float64); ok {
			out = append(out, float32(f))
		}
	}
	return out
}
