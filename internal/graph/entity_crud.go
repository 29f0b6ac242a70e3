package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/continuum-dev/continuum/internal/model"
)

// GetEntity hydrates a single entity by id, owner-scoped.
func (s *EntityStore) GetEntity(ctx context.Context, userID, entityID string) (*model.Entity, error) {
	query := `
		MATCH (e:Entity {id: $id, user_id: $user_id})
		RETURN ` + entityProjection + `
		LIMIT 1
	`
	result, err := s.c.run(ctx, query, map[string]any{"id": entityID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	return entityFromRecord(result.Records[0])
}

// ListEntities returns every entity of a user, optionally filtered by
// type, for `/api/entities`'s GET (list) form.
func (s *EntityStore) ListEntities(ctx context.Context, userID string, entityType model.EntityType) ([]*model.Entity, error) {
	query := `MATCH (e:Entity {user_id: $user_id}) `
	params := map[string]any{"user_id": userID}
	if entityType != "" {
		query += `WHERE e.type = $type `
		params["type"] = string(entityType)
	}
	query += `RETURN ` + entityProjection

	result, err := s.c.run(ctx, query, params)
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

// UpdateEntity renames an entity and/or replaces its alias list,
// owner-scoped. Callers that only mine new aliases should prefer
// AddAlias, which never overwrites.
func (s *EntityStore) UpdateEntity(ctx context.Context, userID, entityID string, name *string, aliases []string) error {
	query := `
		MATCH (e:Entity {id: $id, user_id: $user_id})
		SET e.name = coalesce($name, e.name),
		    e.aliases = coalesce($aliases, e.aliases)
		RETURN e.id AS id
	`
	params := map[string]any{"id": entityID, "user_id": userID, "aliases": nil}
	if name != nil {
		params["name"] = *name
	}
	if aliases != nil {
		params["aliases"] = aliases
	}
	result, err := s.c.run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("graph: update entity: %w", err)
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("graph: update entity: %s not found for user %s", entityID, userID)
	}
	return nil
}

// DeleteEntity removes an entity and its edges, owner-scoped.
func (s *EntityStore) DeleteEntity(ctx context.Context, userID, entityID string) error {
	query := `
		MATCH (e:Entity {id: $id, user_id: $user_id})
		DETACH DELETE e
	`
	return s.c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, map[string]any{"id": entityID, "user_id": userID})
		return nil, err
	})
}
