package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/continuum-dev/continuum/internal/model"
)

// ResolvedMention is an entity mention after internal/resolve has
// mapped it to a canonical node, ready for an INVOLVES edge.
type ResolvedMention struct {
	EntityID string
	Role     string
}

// AffectedFile is a file path an AFFECTS edge should point at, tagged
// with how it was derived (spec.md section 4.5).
type AffectedFile struct {
	Path       string
	Source     model.AffectsSource
	Confidence float64
}

// DecisionWrite bundles everything DecisionWriter.Write persists
// atomically for one decision.
type DecisionWrite struct {
	Decision *model.Decision
	Mentions []ResolvedMention
	Files    []AffectedFile
}

// DecisionWriter persists decisions and their derived structure in the
// order spec.md section 4.5 mandates: Decision node, CandidateDecision
// + REJECTED_BY per rejected option, INVOLVES per resolved mention,
// AFFECTS per touched file. All writes use MERGE-on-key semantics so a
// retried write is a no-op rather than a duplicate.
type DecisionWriter struct {
	c *Client
}

func NewDecisionWriter(c *Client) *DecisionWriter { return &DecisionWriter{c: c} }

// Write persists w's decision and derived structure in a single
// transaction, per spec.md section 4.5's "atomically per-decision"
// requirement.
func (w *DecisionWriter) Write(ctx context.Context, dw DecisionWrite) error {
	d := dw.Decision
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.ClampConfidence()

	return w.c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := writeDecisionNode(ctx, tx, d); err != nil {
			return nil, err
		}
		for _, opt := range d.Options {
			if d.IsChosenOption(opt) {
				continue
			}
			if err := writeCandidateDecision(ctx, tx, d, opt); err != nil {
				return nil, err
			}
		}
		for _, m := range dw.Mentions {
			if err := writeInvolvesEdge(ctx, tx, d.ID, m); err != nil {
				return nil, err
			}
		}
		for _, f := range dw.Files {
			if err := writeAffectsEdge(ctx, tx, d.ID, f); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

func writeDecisionNode(ctx context.Context, tx neo4j.ManagedTransaction, d *model.Decision) error {
	query := `
		MERGE (d:Decision {id: $id})
		SET d.user_id = $user_id,
		    d.project = $project,
		    d.trigger = $trigger,
		    d.context = $context,
		    d.agent_decision = $agent_decision,
		    d.agent_rationale = $agent_rationale,
		    d.options = $options,
		    d.confidence = $confidence,
		    d.scope = $scope,
		    d.assumptions = $assumptions,
		    d.source = $source,
		    d.embedding = $embedding,
		    d.created_at = datetime($created_at),
		    d.edit_count = $edit_count
	`
	_, err := tx.Run(ctx, query, map[string]any{
		"id":              d.ID,
		"user_id":         d.UserID,
		"project":         d.Project,
		"trigger":         d.Trigger,
		"context":         d.Context,
		"agent_decision":  d.AgentDecision,
		"agent_rationale": d.AgentRationale,
		"options":         d.Options,
		"confidence":      d.Confidence,
		"scope":           string(d.Scope),
		"assumptions":     d.Assumptions,
		"source":          string(d.Source),
		"embedding":       d.Embedding,
		"created_at":      d.CreatedAt.Format(time.RFC3339),
		"edit_count":      d.EditCount,
	})
	if err != nil {
		return fmt.Errorf("graph: write decision node: %w", err)
	}
	return nil
}

// writeCandidateDecision materializes a rejected option as its own node
// so the dormant-alternative detector (spec.md section 4.6) can scan it
// independently of the decision that rejected it.
func writeCandidateDecision(ctx context.Context, tx neo4j.ManagedTransaction, d *model.Decision, option string) error {
	id := fmt.Sprintf("%s:candidate:%s", d.ID, option)
	query := `
		MATCH (d:Decision {id: $decision_id})
		MERGE (c:CandidateDecision {id: $id})
		SET c.user_id = $user_id,
		    c.text = $text,
		    c.status = 'rejected',
		    c.decision_id = $decision_id,
		    c.created_at = datetime($created_at)
		MERGE (c)-[:REJECTED_BY]->(d)
	`
	_, err := tx.Run(ctx, query, map[string]any{
		"id":          id,
		"decision_id": d.ID,
		"user_id":     d.UserID,
		"text":        option,
		"created_at":  d.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("graph: write candidate decision: %w", err)
	}
	return nil
}

func writeInvolvesEdge(ctx context.Context, tx neo4j.ManagedTransaction, decisionID string, m ResolvedMention) error {
	query := `
		MATCH (d:Decision {id: $decision_id})
		MATCH (e:Entity {id: $entity_id})
		MERGE (d)-[r:INVOLVES]->(e)
		SET r.role = $role
	`
	_, err := tx.Run(ctx, query, map[string]any{
		"decision_id": decisionID,
		"entity_id":   m.EntityID,
		"role":        m.Role,
	})
	if err != nil {
		return fmt.Errorf("graph: write involves edge: %w", err)
	}
	return nil
}

func writeAffectsEdge(ctx context.Context, tx neo4j.ManagedTransaction, decisionID string, f AffectedFile) error {
	query := `
		MATCH (d:Decision {id: $decision_id})
		MERGE (f:CodeEntity {file_path: $file_path, user_id: d.user_id})
		MERGE (d)-[r:AFFECTS]->(f)
		SET r.source = $source,
		    r.confidence = $confidence
	`
	_, err := tx.Run(ctx, query, map[string]any{
		"decision_id": decisionID,
		"file_path":   f.Path,
		"source":      string(f.Source),
		"confidence":  f.Confidence,
	})
	if err != nil {
		return fmt.Errorf("graph: write affects edge: %w", err)
	}
	return nil
}
