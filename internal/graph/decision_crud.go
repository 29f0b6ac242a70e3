package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/continuum-dev/continuum/internal/model"
)

// ListDecisions returns a user's decisions newest first, for
// `/api/decisions`'s GET (list) form.
func (c *Client) ListDecisions(ctx context.Context, userID string, limit int) ([]*model.Decision, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		MATCH (d:Decision {user_id: $user_id})
		RETURN ` + decisionProjection + `
		ORDER BY d.created_at DESC
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "limit": limit})
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

// UpdateDecisionFields is the editable subset of a Decision exposed to
// `/api/decisions`'s PUT form; owner-scoped, no entity/candidate
// restructuring (that stays a Remember-time concern).
type UpdateDecisionFields struct {
	AgentDecision  *string
	AgentRationale *string
	Confidence     *float64
	Scope          *model.Scope
}

// UpdateDecision applies a partial edit to an existing decision, owner
// scoped, bumping edit_count and edited_at so later staleness checks see
// the edit per spec.md section 3's decision lifecycle.
func (c *Client) UpdateDecision(ctx context.Context, userID, decisionID string, fields UpdateDecisionFields) error {
	query := `
		MATCH (d:Decision {id: $id, user_id: $user_id})
		SET d.agent_decision = coalesce($agent_decision, d.agent_decision),
		    d.agent_rationale = coalesce($agent_rationale, d.agent_rationale),
		    d.confidence = coalesce($confidence, d.confidence),
		    d.scope = coalesce($scope, d.scope),
		    d.edit_count = d.edit_count + 1,
		    d.edited_at = datetime()
		RETURN d.id AS id
	`
	params := map[string]any{"id": decisionID, "user_id": userID}
	if fields.AgentDecision != nil {
		params["agent_decision"] = *fields.AgentDecision
	}
	if fields.AgentRationale != nil {
		params["agent_rationale"] = *fields.AgentRationale
	}
	if fields.Confidence != nil {
		params["confidence"] = *fields.Confidence
	}
	if fields.Scope != nil {
		params["scope"] = string(*fields.Scope)
	}
	result, err := c.run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("graph: update decision: %w", err)
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("graph: update decision: %s not found for user %s", decisionID, userID)
	}
	return nil
}

// DeleteDecision removes a decision and every edge touching it,
// owner-scoped.
func (c *Client) DeleteDecision(ctx context.Context, userID, decisionID string) error {
	query := `
		MATCH (d:Decision {id: $id, user_id: $user_id})
		DETACH DELETE d
	`
	return c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"id": decisionID, "user_id": userID})
		return nil, err
	})
}

// DecisionsAffectingFiles returns decisions whose AFFECTS edges touch
// any of paths, for `/api/git/pr-context`.
func (c *Client) DecisionsAffectingFiles(ctx context.Context, userID string, paths []string, limit int) ([]*model.Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		MATCH (d:Decision {user_id: $user_id})-[:AFFECTS]->(f:CodeEntity)
		WHERE f.file_path IN $paths
		RETURN DISTINCT ` + decisionProjection + `
		ORDER BY d.created_at DESC
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "paths": paths, "limit": limit})
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
