// Package agentctx is the agent-context service of spec.md section 6:
// the query-path composition of hybrid search, optional re-ranking,
// subgraph expansion, and prior-art recommendation that an agent (or
// the companion UI) talks to before and after making a change.
package agentctx

import (
	"context"
	"time"

	"github.com/continuum-dev/continuum/internal/analyze"
	"github.com/continuum-dev/continuum/internal/embed"
	"github.com/continuum-dev/continuum/internal/extract"
	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/resolve"
)

// GraphStore is the slice of internal/graph the service composes,
// narrowed to an interface so it can be exercised with a fake in tests.
type GraphStore interface {
	Search(ctx context.Context, userID, queryText string, queryVector []float32, limit int) ([]graph.SearchResult, error)
	GetDecisions(ctx context.Context, userID string, ids []string) ([]*model.Decision, error)
	InvolvedEntities(ctx context.Context, userID, decisionID string) ([]*model.Entity, error)
	DecisionsInvolvingEntity(ctx context.Context, userID, entityID string, limit int) ([]*model.Decision, error)
	EvolutionEdges(ctx context.Context, userID, decisionID string) ([]graph.EvolutionEdge, error)
	ActiveDecisions(ctx context.Context, userID string, limit int) ([]graph.ScopedDecisionRow, error)
	DormantCandidates(ctx context.Context, userID string, limit int) ([]graph.DormantCandidateRow, error)
	FindByExactName(ctx context.Context, userID string, entityType model.EntityType, normalizedName string) (*model.Entity, error)
}

// Writer is the persistence half of Remember, narrowed from
// internal/graph.DecisionWriter and EvolutionAnalyzer.
type Writer interface {
	Write(ctx context.Context, dw graph.DecisionWrite) error
}

// EvolutionScanner discovers SUPERSEDES/CONTRADICTS/SIMILAR_TO edges for
// a freshly written decision (internal/graph.EvolutionAnalyzer).
type EvolutionScanner interface {
	Analyze(ctx context.Context, d *model.Decision) error
}

// Embedder is the query/decision vectorizing half of the service
// (internal/embed.Embedder, narrowed).
type Embedder interface {
	EmbedDecision(ctx context.Context, userID string, d *model.Decision) ([]float32, error)
	EmbedBatch(ctx context.Context, userID string, texts []string, inputType string) ([][]float32, error)
}

// Resolver maps free-text entity mentions to canonical graph nodes
// (internal/resolve.Resolver, narrowed).
type Resolver interface {
	Resolve(ctx context.Context, userID string, mention string, entityType model.EntityType) (resolve.Result, error)
}

// Reranker optionally reorders search hits by a second, costlier
// relevance pass (spec.md's bge_reranking_enabled knob). Implementations
// live outside this package; a nil Reranker disables the stage.
type Reranker interface {
	Rerank(ctx context.Context, queryText string, hits []graph.SearchResult, topK int) ([]graph.SearchResult, error)
}

// Config controls the service's query-path knobs, all sourced from
// internal/config.Config per spec.md section 6's configuration table.
type Config struct {
	SearchLimit           int
	RerankEnabled         bool
	RerankTopK            int
	DormantMinDays         int
	StaleMinConfidence     float64
	PriorArtSearchLimit    int
	ContradictionThreshold float64
}

func DefaultConfig() Config {
	return Config{
		SearchLimit:            20,
		RerankEnabled:          false,
		RerankTopK:             10,
		DormantMinDays:         90,
		PriorArtSearchLimit:    10,
		ContradictionThreshold: 0.6,
	}
}

// Service implements the five agent-facing operations of spec.md's
// `/api/agent/*` routes: Summary, Context, EntityContext, CheckPriorArt,
// Remember.
type Service struct {
	store     GraphStore
	writer    Writer
	evolution EvolutionScanner
	embedder  Embedder
	resolver  Resolver
	reranker  Reranker
	dormant   *analyze.DormantDetector
	staleness *analyze.StalenessClassifier
	cfg       Config
	now       func() time.Time
}

func New(store GraphStore, writer Writer, evolution EvolutionScanner, embedder Embedder, resolver Resolver, reranker Reranker, cfg Config) *Service {
	return &Service{
		store:     store,
		writer:    writer,
		evolution: evolution,
		embedder:  embedder,
		resolver:  resolver,
		reranker:  reranker,
		dormant:   analyze.NewDormantDetector(store),
		staleness: analyze.NewStalenessClassifier(store, analyze.DefaultStalenessThresholds()),
		cfg:       cfg,
		now:       time.Now,
	}
}

// DecisionDraft re-exports internal/extract's pre-graph decision shape
// so callers building a Remember request don't need to import extract
// directly just for the type.
type DecisionDraft = extract.DecisionDraft
