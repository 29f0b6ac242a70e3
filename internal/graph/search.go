package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/continuum-dev/continuum/internal/model"
)

// SearchResult is one hit from Search, carrying whichever scores the
// matching path produced so callers can blend or display them. A hit
// has one of four shapes: Decision alone (decision-text path), Decision
// with Entity (involving-entity path), Entity alone (a matched entity
// that isn't involved in any decision yet), or Candidate alone (a
// rejected alternative matched on its own text).
type SearchResult struct {
	Decision             *model.Decision
	Entity               *model.Entity
	Candidate            *model.CandidateDecision
	LexicalScore         float64
	VectorScore          float64
	UsedContainsFallback bool
}

// Search implements the hybrid lexical + vector search of spec.md
// sections 4.5/6's `/api/search`: full-text index first, falling back
// to a deterministic CONTAINS scan when the full-text index returns
// zero hits (spec.md's REDESIGN FLAGS resolve the source's mixed
// full-text/CONTAINS handling into this explicit fallback order).
// Decisions, entities (folded in via the decisions they're INVOLVES'd
// by), and rejected candidates are all searched, per spec.md section
// 6's "text search over decisions+entities".
func (c *Client) Search(ctx context.Context, userID, queryText string, queryVector []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	decisions, err := c.searchDecisionsFulltext(ctx, userID, queryText, limit)
	if err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		decisions, err = c.searchDecisionsContains(ctx, userID, queryText, limit)
		if err != nil {
			return nil, err
		}
		for i := range decisions {
			decisions[i].UsedContainsFallback = true
		}
	}

	if len(queryVector) > 0 {
		vectorHits, err := c.searchDecisionsByVector(ctx, userID, queryVector, limit)
		if err != nil {
			return nil, err
		}
		decisions = mergeByDecisionID(decisions, vectorHits)
	}

	entityHits, err := c.searchEntitiesFulltext(ctx, userID, queryText, limit)
	if err != nil {
		return nil, err
	}
	if len(entityHits) == 0 {
		entityHits, err = c.searchEntitiesContains(ctx, userID, queryText, limit)
		if err != nil {
			return nil, err
		}
		for i := range entityHits {
			entityHits[i].UsedContainsFallback = true
		}
	}

	candidateHits, err := c.searchCandidatesContains(ctx, userID, queryText, limit)
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(decisions)+len(entityHits)+len(candidateHits))
	out = append(out, decisions...)
	out = append(out, entityHits...)
	out = append(out, candidateHits...)
	return out, nil
}

func (c *Client) searchDecisionsFulltext(ctx context.Context, userID, queryText string, limit int) ([]SearchResult, error) {
	query := `
		CALL db.index.fulltext.queryNodes('decision_fulltext_idx', $query_text)
		YIELD node, score
		WHERE node.user_id = $user_id
		RETURN node.id AS id, score
		ORDER BY score DESC
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "query_text": queryText, "limit": limit})
	if err != nil {
		return nil, err
	}
	return decisionHitsFromIDScore(result.Records)
}

func (c *Client) searchDecisionsContains(ctx context.Context, userID, queryText string, limit int) ([]SearchResult, error) {
	query := `
		MATCH (d:Decision {user_id: $user_id})
		WHERE toLower(d.trigger) CONTAINS toLower($query_text)
		   OR toLower(d.context) CONTAINS toLower($query_text)
		   OR toLower(d.agent_decision) CONTAINS toLower($query_text)
		   OR toLower(d.agent_rationale) CONTAINS toLower($query_text)
		RETURN d.id AS id
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "query_text": queryText, "limit": limit})
	if err != nil {
		return nil, err
	}
	hits := make([]SearchResult, 0, len(result.Records))
	for _, rec := range result.Records {
		id, _ := rec.Get("id")
		idStr, _ := id.(string)
		hits = append(hits, SearchResult{Decision: &model.Decision{ID: idStr}})
	}
	return hits, nil
}

func (c *Client) searchDecisionsByVector(ctx context.Context, userID string, vector []float32, limit int) ([]SearchResult, error) {
	query := `
		CALL db.index.vector.queryNodes('decision_embedding_idx', $limit, $vector)
		YIELD node, score
		WHERE node.user_id = $user_id
		RETURN node.id AS id, score
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "vector": vector, "limit": limit})
	if err != nil {
		return nil, err
	}
	return decisionHitsFromIDScore(result.Records)
}

// searchEntitiesFulltext queries entity_fulltext_idx (over Entity.name)
// and folds each match into a SearchResult per Decision it's INVOLVES'd
// by, so a hit on an entity surfaces the decisions that mention it
// (spec.md section 8 scenario 1's "involving-decision path"). An entity
// matched by name but not yet involved in any decision still comes back
// as an entity-only hit.
func (c *Client) searchEntitiesFulltext(ctx context.Context, userID, queryText string, limit int) ([]SearchResult, error) {
	query := `
		CALL db.index.fulltext.queryNodes('entity_fulltext_idx', $query_text)
		YIELD node AS e, score
		WHERE e.user_id = $user_id
		OPTIONAL MATCH (d:Decision)-[:INVOLVES]->(e)
		WHERE d.user_id = $user_id
		RETURN e.id AS entity_id, e.name AS entity_name, e.type AS entity_type, score,
		       collect(DISTINCT d.id) AS decision_ids
		ORDER BY score DESC
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "query_text": queryText, "limit": limit})
	if err != nil {
		return nil, err
	}
	return entityHitsFromRecords(result.Records, true)
}

func (c *Client) searchEntitiesContains(ctx context.Context, userID, queryText string, limit int) ([]SearchResult, error) {
	query := `
		MATCH (e:Entity {user_id: $user_id})
		WHERE toLower(e.name) CONTAINS toLower($query_text)
		OPTIONAL MATCH (d:Decision)-[:INVOLVES]->(e)
		WHERE d.user_id = $user_id
		RETURN e.id AS entity_id, e.name AS entity_name, e.type AS entity_type,
		       collect(DISTINCT d.id) AS decision_ids
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "query_text": queryText, "limit": limit})
	if err != nil {
		return nil, err
	}
	return entityHitsFromRecords(result.Records, false)
}

func entityHitsFromRecords(records []*neo4j.Record, withScore bool) ([]SearchResult, error) {
	hits := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		id, ok := rec.Get("entity_id")
		if !ok {
			continue
		}
		entity := &model.Entity{ID: id.(string)}
		if v, ok := rec.Get("entity_name"); ok {
			entity.Name, _ = v.(string)
		}
		if v, ok := rec.Get("entity_type"); ok {
			if s, ok := v.(string); ok {
				entity.Type = model.EntityType(s)
			}
		}
		var score float64
		if withScore {
			if v, ok := rec.Get("score"); ok {
				score, _ = v.(float64)
			}
		}

		var decisionIDs []any
		if v, ok := rec.Get("decision_ids"); ok {
			decisionIDs, _ = v.([]any)
		}
		if len(decisionIDs) == 0 {
			hits = append(hits, SearchResult{Entity: entity, LexicalScore: score})
			continue
		}
		for _, dID := range decisionIDs {
			dIDStr, _ := dID.(string)
			hits = append(hits, SearchResult{
				Decision:     &model.Decision{ID: dIDStr},
				Entity:       entity,
				LexicalScore: score,
			})
		}
	}
	return hits, nil
}

// searchCandidatesContains matches rejected alternatives on their own
// text (spec.md section 8 scenario 1's "candidate path"). No fulltext
// index covers CandidateDecision.text, so this is CONTAINS-only,
// mirroring how dormant-alternative detection already scans candidate
// text lexically (internal/graph/analyzer_queries.go's DormantCandidates).
func (c *Client) searchCandidatesContains(ctx context.Context, userID, queryText string, limit int) ([]SearchResult, error) {
	query := `
		MATCH (cand:CandidateDecision)-[:REJECTED_BY]->(d:Decision)
		WHERE d.user_id = $user_id
		  AND toLower(cand.text) CONTAINS toLower($query_text)
		RETURN cand.id AS candidate_id, cand.text AS text, cand.created_at AS rejected_at,
		       d.id AS decision_id
		LIMIT $limit
	`
	result, err := c.run(ctx, query, map[string]any{"user_id": userID, "query_text": queryText, "limit": limit})
	if err != nil {
		return nil, err
	}

	hits := make([]SearchResult, 0, len(result.Records))
	for _, rec := range result.Records {
		id, ok := rec.Get("candidate_id")
		if !ok {
			continue
		}
		cand := &model.CandidateDecision{ID: id.(string), Status: "rejected"}
		if v, ok := rec.Get("text"); ok {
			cand.Text, _ = v.(string)
		}
		if v, ok := rec.Get("rejected_at"); ok {
			cand.CreatedAt = neo4jTimeValue(v)
		}
		var decisionID string
		if v, ok := rec.Get("decision_id"); ok {
			decisionID, _ = v.(string)
		}
		cand.DecisionID = decisionID
		hits = append(hits, SearchResult{Candidate: cand})
	}
	return hits, nil
}

func decisionHitsFromIDScore(records []*neo4j.Record) ([]SearchResult, error) {
	hits := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		id, ok := rec.Get("id")
		if !ok {
			continue
		}
		idStr, _ := id.(string)
		score, _ := rec.Get("score")
		scoreF, _ := score.(float64)
		hits = append(hits, SearchResult{Decision: &model.Decision{ID: idStr}, LexicalScore: scoreF})
	}
	return hits, nil
}

// mergeByDecisionID folds vector hits (which carry their similarity in
// LexicalScore) into lexical hits by decision id. For a decision present
// in both result sets the lexical hit keeps its LexicalScore and takes
// the vector similarity as its VectorScore; the two are not summed.
func mergeByDecisionID(lexical, vector []SearchResult) []SearchResult {
	byID := make(map[string]*SearchResult, len(lexical))
	out := make([]SearchResult, 0, len(lexical)+len(vector))
	for _, h := range lexical {
		h := h
		out = append(out, h)
		byID[h.Decision.ID] = &out[len(out)-1]
	}
	for _, h := range vector {
		if existing, ok := byID[h.Decision.ID]; ok {
			existing.VectorScore = h.LexicalScore
			continue
		}
		h.VectorScore = h.LexicalScore
		h.LexicalScore = 0
		out = append(out, h)
	}
	return out
}
