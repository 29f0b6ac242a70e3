package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// DormantCandidateRow is one rejected alternative plus the decision that
// rejected it, shaped for internal/analyze's dormant-alternative scorer.
type DormantCandidateRow struct {
	CandidateID        string    `json:"candidate_id"`
	Text               string    `json:"text"`
	RejectedAt         time.Time `json:"rejected_at"`
	DecisionID         string    `json:"rejected_by_decision_id"`
	Trigger            string    `json:"trigger"`
	ChosenDecision     string    `json:"chosen_decision"`
	OriginalConfidence float64   `json:"original_confidence"`
}

// DormantCandidates fetches rejected alternatives not yet superseded by
// a later decision whose chosen option overlaps them lexically, the
// same CONTAINS-either-way check spec.md section 4.6's dormant-detector
// performs in-query.
func (c *Client) DormantCandidates(ctx context.Context, userID string, limit int) ([]DormantCandidateRow, error) {
	query := `
		MATCH (cand:CandidateDecision)-[:REJECTED_BY]->(d:Decision)
		WHERE d.user_id = $user_id
		AND NOT EXISTS {
			MATCH (later:Decision)
			WHERE later.user_id = $user_id
			  AND later.created_at > d.created_at
			  AND (toLower(later.agent_decision) CONTAINS toLower(cand.text)
			       OR toLower(cand.text) CONTAINS toLower(later.agent_decision))
		}
		RETURN cand.id AS candidate_id, cand.text AS text, cand.created_at AS rejected_at,
		       d.id AS decision_id, d.trigger AS trigger, d.agent_decision AS chosen_decision,
		       d.confidence AS original_confidence
		ORDER BY cand.created_at ASC
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "limit": limit})
	if err != nil {
		return nil, err
	}

	out := make([]DormantCandidateRow, 0, len(result.Records))
	for _, rec := range result.Records {
		row := DormantCandidateRow{}
		if v, ok := rec.Get("candidate_id"); ok {
			row.CandidateID, _ = v.(string)
		}
		if v, ok := rec.Get("text"); ok {
			row.Text, _ = v.(string)
		}
		if v, ok := rec.Get("rejected_at"); ok {
			row.RejectedAt = neo4jTimeValue(v)
		}
		if v, ok := rec.Get("decision_id"); ok {
			row.DecisionID, _ = v.(string)
		}
		if v, ok := rec.Get("trigger"); ok {
			row.Trigger, _ = v.(string)
		}
		if v, ok := rec.Get("chosen_decision"); ok {
			row.ChosenDecision, _ = v.(string)
		}
		if v, ok := rec.Get("original_confidence"); ok {
			row.OriginalConfidence, _ = v.(float64)
		}
		out = append(out, row)
	}
	return out, nil
}

// AssumptionSourceRow is a decision with at least one stated assumption,
// a candidate for the assumption-violation monitor.
type AssumptionSourceRow struct {
	DecisionID  string
	Trigger     string
	Assumptions []string
	CreatedAt   time.Time
}

// LaterDecisionRow is a decision considered as evidence that may
// invalidate an earlier one's assumption.
type LaterDecisionRow struct {
	DecisionID string
	Trigger    string
	Context    string
	Text       string // agent_decision, checked alongside trigger/context
	CreatedAt  time.Time
}

func (c *Client) DecisionsWithAssumptions(ctx context.Context, userID string, limit int) ([]AssumptionSourceRow, error) {
	query := `
		MATCH (d:Decision {user_id: $user_id})
		WHERE size(d.assumptions) > 0
		RETURN d.id AS id, d.trigger AS trigger, d.assumptions AS assumptions, d.created_at AS created_at
		ORDER BY d.created_at ASC
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "limit": limit})
	if err != nil {
		return nil, err
	}
	out := make([]AssumptionSourceRow, 0, len(result.Records))
	for _, rec := range result.Records {
		row := AssumptionSourceRow{}
		if v, ok := rec.Get("id"); ok {
			row.DecisionID, _ = v.(string)
		}
		if v, ok := rec.Get("trigger"); ok {
			row.Trigger, _ = v.(string)
		}
		if v, ok := rec.Get("assumptions"); ok {
			if list, ok := v.([]any); ok {
				for _, x := range list {
					if s, ok := x.(string); ok {
						row.Assumptions = append(row.Assumptions, s)
					}
				}
			}
		}
		if v, ok := rec.Get("created_at"); ok {
			row.CreatedAt = neo4jTimeValue(v)
		}
		out = append(out, row)
	}
	return out, nil
}

func (c *Client) DecisionsAfter(ctx context.Context, userID string, after time.Time, limit int) ([]LaterDecisionRow, error) {
	query := `
		MATCH (d:Decision {user_id: $user_id})
		WHERE d.created_at > datetime($after)
		RETURN d.id AS id, d.trigger AS trigger, d.context AS context, d.agent_decision AS agent_decision, d.created_at AS created_at
		ORDER BY d.created_at ASC
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "after": after.Format(time.RFC3339), "limit": limit})
	if err != nil {
		return nil, err
	}
	out := make([]LaterDecisionRow, 0, len(result.Records))
	for _, rec := range result.Records {
		row := LaterDecisionRow{}
		if v, ok := rec.Get("id"); ok {
			row.DecisionID, _ = v.(string)
		}
		if v, ok := rec.Get("trigger"); ok {
			row.Trigger, _ = v.(string)
		}
		if v, ok := rec.Get("context"); ok {
			row.Context, _ = v.(string)
		}
		if v, ok := rec.Get("agent_decision"); ok {
			row.Text, _ = v.(string)
		}
		if v, ok := rec.Get("created_at"); ok {
			row.CreatedAt = neo4jTimeValue(v)
		}
		out = append(out, row)
	}
	return out, nil
}

// WriteAssumptionInvalidated persists an ASSUMPTION_INVALIDATED edge
// carrying the offending assumption text (spec.md section 4.6).
func (c *Client) WriteAssumptionInvalidated(ctx context.Context, invalidatingID, olderID, assumption string, detectedAt time.Time) error {
	query := `
		MATCH (inv:Decision {id: $inv_id})
		MATCH (old:Decision {id: $old_id})
		MERGE (inv)-[r:ASSUMPTION_INVALIDATED]->(old)
		SET r.assumption = $assumption, r.detected_at = datetime($detected_at)
	`
	return c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{
			"inv_id": invalidatingID, "old_id": olderID,
			"assumption": assumption, "detected_at": detectedAt.Format(time.RFC3339),
		})
		return nil, err
	})
}

// DecisionFilesRow is a decision and the files it AFFECTS, for the
// commit linker's Jaccard overlap scoring.
type DecisionFilesRow struct {
	DecisionID string
	Files      []string
}

func (c *Client) DecisionsAffectingWindow(ctx context.Context, userID string, from, to time.Time) ([]DecisionFilesRow, error) {
	query := `
		MATCH (d:Decision {user_id: $user_id})-[:AFFECTS]->(f:CodeEntity)
		WHERE d.created_at >= datetime($from) AND d.created_at <= datetime($to)
		RETURN d.id AS id, collect(f.file_path) AS files
	`
	result, err := c.run(ctx, query, map[string]any{
		"user_id": userID, "from": from.Format(time.RFC3339), "to": to.Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	out := make([]DecisionFilesRow, 0, len(result.Records))
	for _, rec := range result.Records {
		row := DecisionFilesRow{}
		if v, ok := rec.Get("id"); ok {
			row.DecisionID, _ = v.(string)
		}
		if v, ok := rec.Get("files"); ok {
			if list, ok := v.([]any); ok {
				for _, x := range list {
					if s, ok := x.(string); ok {
						row.Files = append(row.Files, s)
					}
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// CreateCommitAndTouches writes a CommitNode and its TOUCHES edges to
// each changed file (spec.md section 4.6, commit linker).
func (c *Client) CreateCommitAndTouches(ctx context.Context, userID, sha, shortSHA, message, author string, committedAt time.Time, filesChanged []string) error {
	return c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (commit:Commit {sha: $sha, user_id: $user_id})
			SET commit.short_sha = $short_sha, commit.message = $message,
			    commit.author = $author, commit.committed_at = datetime($committed_at),
			    commit.files_changed = $files_changed
		`, map[string]any{
			"sha": sha, "user_id": userID, "short_sha": shortSHA, "message": message,
			"author": author, "committed_at": committedAt.Format(time.RFC3339), "files_changed": filesChanged,
		})
		if err != nil {
			return nil, err
		}

		for _, path := range filesChanged {
			_, err := tx.Run(ctx, `
				MERGE (f:CodeEntity {file_path: $path, user_id: $user_id})
				WITH f
				MATCH (commit:Commit {sha: $sha, user_id: $user_id})
				MERGE (commit)-[:TOUCHES]->(f)
			`, map[string]any{"path": path, "user_id": userID, "sha": sha})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

// WriteImplementedBy links a decision to the commit that likely
// implements it, carrying the Jaccard overlap score.
func (c *Client) WriteImplementedBy(ctx context.Context, userID, decisionID, sha string, score float64, linkedAt time.Time) error {
	query := `
		MATCH (d:Decision {id: $decision_id})
		MATCH (commit:Commit {sha: $sha, user_id: $user_id})
		MERGE (d)-[r:IMPLEMENTED_BY]->(commit)
		SET r.score = $score, r.linked_at = datetime($linked_at)
	`
	return c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{
			"decision_id": decisionID, "sha": sha, "user_id": userID,
			"score": score, "linked_at": linkedAt.Format(time.RFC3339),
		})
		return nil, err
	})
}

// ScopedDecisionRow is a decision's age-relevant fields for the
// staleness classifier.
type ScopedDecisionRow struct {
	DecisionID string
	Scope      string
	CreatedAt  time.Time
}

// ActiveDecisions lists a user's decisions oldest first; a limit of zero
// or less returns all of them.
func (c *Client) ActiveDecisions(ctx context.Context, userID string, limit int) ([]ScopedDecisionRow, error) {
	limitClause := "LIMIT $limit"
	if limit <= 0 {
		limitClause = ""
	}
	query := `
		MATCH (d:Decision {user_id: $user_id})
		RETURN d.id AS id, d.scope AS scope, d.created_at AS created_at
		ORDER BY d.created_at ASC
		` + limitClause
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "limit": limit})
	if err != nil {
		return nil, err
	}
	out := make([]ScopedDecisionRow, 0, len(result.Records))
	for _, rec := range result.Records {
		row := ScopedDecisionRow{}
		if v, ok := rec.Get("id"); ok {
			row.DecisionID, _ = v.(string)
		}
		if v, ok := rec.Get("scope"); ok {
			row.Scope, _ = v.(string)
		}
		if v, ok := rec.Get("created_at"); ok {
			row.CreatedAt = neo4jTimeValue(v)
		}
		out = append(out, row)
	}
	return out, nil
}

// EntityNameCounts reports how many times each entity name occurs for a
// user, feeding the ontology updater's in-graph variant mining (spec.md
// section 4.6: "name variants with >=5 occurrences").
func (c *Client) EntityNameCounts(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		MATCH (e:Entity {user_id: $user_id})
		RETURN e.name AS name, count(*) AS occurrences
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID})
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(result.Records))
	for _, rec := range result.Records {
		name, _ := rec.Get("name")
		count, _ := rec.Get("occurrences")
		nameStr, _ := name.(string)
		countInt, _ := count.(int64)
		if nameStr != "" {
			out[strings.ToLower(nameStr)] = int(countInt)
		}
	}
	return out, nil
}

// neo4jTimeValue converts whatever temporal type the driver returned
// for a datetime() property into a time.Time, tolerating the couple of
// shapes the driver is known to hand back for DATETIME properties.
func neo4jTimeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err == nil {
			return parsed
		}
	case fmt.Stringer:
		parsed, err := time.Parse(time.RFC3339, t.String())
		if err == nil {
			return parsed
		}
	}
	return time.Time{}
}
