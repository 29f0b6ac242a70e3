package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// EmbeddingDimension is the fixed vector size shared by decisions and
// entities for a deployment (spec.md section 3, "Embedding dimension is
// fixed per deployment").
const EmbeddingDimension = 2048

// schemaStatements are idempotent DDL, safe to re-run on every startup
// (`IF NOT EXISTS` on every constraint/index per spec.md section 4.5's
// merge-on-key persistence philosophy extended to schema management).
var schemaStatements = []string{
	`CREATE CONSTRAINT decision_id IF NOT EXISTS FOR (d:Decision) REQUIRE d.id IS UNIQUE`,
	`CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (e:Entity) REQUIRE e.id IS UNIQUE`,
	`CREATE CONSTRAINT candidate_decision_id IF NOT EXISTS FOR (c:CandidateDecision) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT commit_sha IF NOT EXISTS FOR (c:Commit) REQUIRE (c.sha, c.user_id) IS UNIQUE`,
	`CREATE CONSTRAINT code_entity_path IF NOT EXISTS FOR (f:CodeEntity) REQUIRE (f.file_path, f.user_id) IS UNIQUE`,

	`CREATE VECTOR INDEX decision_embedding_idx IF NOT EXISTS
		FOR (d:Decision) ON (d.embedding)
		OPTIONS {indexConfig: {
			` + "`vector.dimensions`" + `: ` + fmt.Sprint(EmbeddingDimension) + `,
			` + "`vector.similarity_function`" + `: 'cosine'
		}}`,
	`CREATE VECTOR INDEX entity_embedding_idx IF NOT EXISTS
		FOR (e:Entity) ON (e.embedding)
		OPTIONS {indexConfig: {
			` + "`vector.dimensions`" + `: ` + fmt.Sprint(EmbeddingDimension) + `,
			` + "`vector.similarity_function`" + `: 'cosine'
		}}`,

	`CREATE FULLTEXT INDEX decision_fulltext_idx IF NOT EXISTS
		FOR (d:Decision) ON EACH [d.trigger, d.context, d.agent_decision, d.agent_rationale]`,
	`CREATE FULLTEXT INDEX entity_fulltext_idx IF NOT EXISTS
		FOR (e:Entity) ON EACH [e.name]`,
}

// Migrate creates all constraints and indexes the core relies on. Safe
// to call on every startup; every statement is IF NOT EXISTS.
func Migrate(ctx context.Context, c *Client) error {
	for _, stmt := range schemaStatements {
		err := c.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("graph: migrate: %w", err)
		}
	}
	return nil
}
