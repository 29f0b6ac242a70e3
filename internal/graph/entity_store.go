package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/continuum-dev/continuum/internal/model"
)

// EntityStore adapts Client to internal/resolve.Store: the only surface
// the entity resolver needs, kept separate from the rest of the graph
// API so resolve never imports graph directly.
type EntityStore struct {
	c *Client
}

func NewEntityStore(c *Client) *EntityStore { return &EntityStore{c: c} }

const entityProjection = `
	e.id AS id, e.user_id AS user_id, e.name AS name, e.type AS type,
	e.aliases AS aliases, e.embedding AS embedding
`

// FindByExactName looks up an entity by case-insensitive, trimmed name
// match within the user's scope (spec.md section 4.3 stage 1).
func (s *EntityStore) FindByExactName(ctx context.Context, userID string, entityType model.EntityType, normalizedName string) (*model.Entity, error) {
	query := `
		MATCH (e:Entity {user_id: $user_id, type: $type})
		WHERE toLower(trim(e.name)) = $name
		RETURN ` + entityProjection + `
		LIMIT 1
	`
	result, err := s.c.run(ctx, query, map[string]any{"user_id": userID, "type": string(entityType), "name": normalizedName})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	return entityFromRecord(result.Records[0])
}

// FindByAlias looks up an entity whose aliases[] contains mention
// (case-insensitive), per spec.md section 4.3 stage 3.
func (s *EntityStore) FindByAlias(ctx context.Context, userID string, entityType model.EntityType, mention string) (*model.Entity, error) {
	query := `
		MATCH (e:Entity {user_id: $user_id, type: $type})
		WHERE any(a IN e.aliases WHERE toLower(trim(a)) = $mention)
		RETURN ` + entityProjection + `
		LIMIT 1
	`
	result, err := s.c.run(ctx, query, map[string]any{
		"user_id": userID, "type": string(entityType), "mention": strings.ToLower(strings.TrimSpace(mention)),
	})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	return entityFromRecord(result.Records[0])
}

// ListCandidates returns all entities of entityType in scope, for the
// resolver's fuzzy-match stage (spec.md section 4.3 stage 4).
func (s *EntityStore) ListCandidates(ctx context.Context, userID string, entityType model.EntityType) ([]*model.Entity, error) {
	query := `
		MATCH (e:Entity {user_id: $user_id, type: $type})
		RETURN ` + entityProjection
	result, err := s.c.run(ctx, query, map[string]any{"user_id": userID, "type": string(entityType)})
	if err != nil {
		return nil, err
	}
	entities := make([]*model.Entity, 0, len(result.Records))
	for _, rec := range result.Records {
		e, err := entityFromRecord(rec)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// FindByEmbedding queries the vector index for the nearest entity of
// entityType to vector, returning it only if similarity ≥ threshold
// (spec.md section 4.3 stage 5).
func (s *EntityStore) FindByEmbedding(ctx context.Context, userID string, entityType model.EntityType, vector []float32, threshold float64) (*model.Entity, float64, error) {
	query := `
		CALL db.index.vector.queryNodes('entity_embedding_idx', 5, $vector)
		YIELD node, score
		WHERE node.user_id = $user_id AND node.type = $type AND score >= $threshold
		RETURN node.id AS id, node.user_id AS user_id, node.name AS name, node.type AS type,
		       node.aliases AS aliases, node.embedding AS embedding, score
		ORDER BY score DESC
		LIMIT 1
	`
	result, err := s.c.run(ctx, query, map[string]any{
		"vector": vector, "user_id": userID, "type": string(entityType), "threshold": threshold,
	})
	if err != nil {
		return nil, 0, err
	}
	if len(result.Records) == 0 {
		return nil, 0, nil
	}
	rec := result.Records[0]
	score, ok := rec.Get("score")
	if !ok {
		return nil, 0, fmt.Errorf("graph: vector query returned no score")
	}
	scoreF, ok := score.(float64)
	if !ok {
		return nil, 0, fmt.Errorf("graph: unexpected score type %T", score)
	}
	e, err := entityFromRecord(rec)
	if err != nil {
		return nil, 0, err
	}
	return e, scoreF, nil
}

// CreateEntity mints a new entity node (spec.md section 4.3 stage 6).
// Uses MERGE on id so a retried create is idempotent.
func (s *EntityStore) CreateEntity(ctx context.Context, entity *model.Entity) error {
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now()
	}
	query := `
		MERGE (e:Entity {id: $id})
		SET e.user_id = $user_id,
		    e.name = $name,
		    e.type = $type,
		    e.aliases = $aliases,
		    e.embedding = $embedding,
		    e.created_at = datetime($created_at)
	`
	return s.c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{
			"id":         entity.ID,
			"user_id":    entity.UserID,
			"name":       entity.Name,
			"type":       string(entity.Type),
			"aliases":    entity.Aliases,
			"embedding":  entity.Embedding,
			"created_at": entity.CreatedAt.Format(time.RFC3339),
		})
		return nil, err
	})
}

// AddAlias appends alias to entity.aliases if not already present, used
// by the ontology updater (spec.md section 4.6) to grow the dynamic
// alias table without overwriting existing mappings.
func (s *EntityStore) AddAlias(ctx context.Context, entityID, alias string) error {
	query := `
		MATCH (e:Entity {id: $id})
		WHERE NOT $alias IN e.aliases
		SET e.aliases = coalesce(e.aliases, []) + $alias
	`
	return s.c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"id": entityID, "alias": alias})
		return nil, err
	})
}

func entityFromRecord(rec *neo4j.Record) (*model.Entity, error) {
	e := &model.Entity{}
	if v, ok := rec.Get("id"); ok {
		if s, ok := v.(string); ok {
			e.ID = s
		}
	}
	if v, ok := rec.Get("user_id"); ok {
		if s, ok := v.(string); ok {
			e.UserID = s
		}
	}
	if v, ok := rec.Get("name"); ok {
		if s, ok := v.(string); ok {
			e.Name = s
		}
	}
	if v, ok := rec.Get("type"); ok {
		if s, ok := v.(string); ok {
			e.Type = model.EntityType(s)
		}
	}
	if v, ok := rec.Get("aliases"); ok {
		if list, ok := v.([]any); ok {
			for _, a := range list {
				if s, ok := a.(string); ok {
					e.Aliases = append(e.Aliases, s)
				}
			}
		}
	}
	if v, ok := rec.Get("embedding"); ok {
		if list, ok := v.([]any); ok {
			for _, x := range list {
				if f, ok := x.(float64); ok {
					e.Embedding = append(e.Embedding, float32(f))
				}
			}
		}
	}
	if e.ID == "" {
		return nil, fmt.Errorf("graph: record missing entity id")
	}
	return e, nil
}
