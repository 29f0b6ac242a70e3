package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/continuum-dev/continuum/internal/agentctx"
	"github.com/continuum-dev/continuum/internal/analyze"
	"github.com/continuum-dev/continuum/internal/config"
	"github.com/continuum-dev/continuum/internal/embed"
	"github.com/continuum-dev/continuum/internal/export"
	"github.com/continuum-dev/continuum/internal/extract"
	"github.com/continuum-dev/continuum/internal/graph"
	"github.com/continuum-dev/continuum/internal/httpapi"
	"github.com/continuum-dev/continuum/internal/ingest"
	"github.com/continuum-dev/continuum/internal/llm"
	"github.com/continuum-dev/continuum/internal/notify"
	"github.com/continuum-dev/continuum/internal/resilience/batcher"
	"github.com/continuum-dev/continuum/internal/resilience/breaker"
	"github.com/continuum-dev/continuum/internal/resilience/cache"
	"github.com/continuum-dev/continuum/internal/resilience/ratelimiter"
	"github.com/continuum-dev/continuum/internal/resolve"
	"github.com/continuum-dev/continuum/internal/store/postgres"
)

// combinedGraphStore satisfies agentctx.GraphStore by pairing the
// decision/search methods on *graph.Client with the entity lookup that
// only *graph.EntityStore exposes; the two have no overlapping method
// names so embedding both is enough.
type combinedGraphStore struct {
	*graph.Client
	*graph.EntityStore
}

// app bundles every constructed dependency a command might need. Not
// every command uses every field; each command picks what it needs and
// leaves the rest zero.
type app struct {
	redis    *redis.Client
	tiered   *cache.Tiered
	graph    *graph.Client
	entities *graph.EntityStore
	pg       *postgres.Client
	llm      *llm.Client
	embedder *embed.Embedder
	resolver *resolve.Resolver
	aliases  *resolve.MapDictionary
	notifySvc *notify.Service
	notifyHub *notify.Hub
	agent    *agentctx.Service
	exporter *export.Exporter
	capture  *batcher.Batcher
}

// parsePostgresDSN splits a postgres:// URL into the discrete fields
// internal/store/postgres.NewClient takes, since Config only carries
// the single DSN string the teacher's env convention hands callers.
func parsePostgresDSN(dsn string) (host string, port int, database, user, password string, err error) {
	if dsn == "" {
		return "localhost", 5432, "continuum", "continuum", "", nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", 0, "", "", "", fmt.Errorf("parse postgres dsn: %w", err)
	}
	host = u.Hostname()
	port = 5432
	if p := u.Port(); p != "" {
		if parsed, convErr := strconv.Atoi(p); convErr == nil {
			port = parsed
		}
	}
	database = strings.TrimPrefix(u.Path, "/")
	user = u.User.Username()
	password, _ = u.User.Password()
	return host, port, database, user, password, nil
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: string(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	a.tiered = cache.NewTiered(a.redis, 5*time.Minute, cfg.LLM.CacheTTL)

	var err error
	a.graph, err = graph.NewClient(ctx, cfg.Neo4j.URI, cfg.Neo4j.User, string(cfg.Neo4j.Password), cfg.Neo4j.Database)
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	a.entities = graph.NewEntityStore(a.graph)

	host, port, database, user, password, err := parsePostgresDSN(string(cfg.Postgres.DSN))
	if err != nil {
		return nil, err
	}
	a.pg, err = postgres.NewClient(ctx, host, port, database, user, password)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var provider llm.Provider
	switch cfg.LLM.Provider {
	case "genai":
		provider, err = llm.NewGenAIProvider(ctx, string(cfg.LLM.APIKey), cfg.LLM.Model, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("init genai provider: %w", err)
		}
	default:
		provider = llm.NewOpenAIProvider(string(cfg.LLM.APIKey), "", cfg.LLM.Model, cfg.LLM.Model)
	}
	limiter := ratelimiter.New(a.redis, int64(cfg.RateLimit.Requests), cfg.RateLimit.Window)
	circuit := breaker.New("llm", breaker.Config{
		FailureThreshold: cfg.LLM.BreakerFailureThreshold,
		RecoveryTimeout:  cfg.LLM.BreakerRecoveryTimeout,
		SuccessThreshold: cfg.LLM.BreakerSuccessThreshold,
	})
	a.llm = llm.New(provider,
		llm.WithRateLimiter(limiter),
		llm.WithBreaker(circuit),
		llm.WithCache(a.tiered, cfg.LLM.CacheTTL),
	)

	a.embedder = embed.New(a.llm, a.tiered, embed.Config{
		Weights:         embed.DefaultWeights(),
		BatchSize:       cfg.Embedding.BatchSize,
		CacheTTL:        cfg.Embedding.CacheTTL,
		CacheMinTextLen: 10,
	})

	a.aliases = resolve.NewMapDictionary()
	a.resolver = resolve.New(a.entities, a.aliases, a.tiered, a.llm, resolve.Config{
		FuzzyThreshold:     cfg.Entity.FuzzyMatchThreshold,
		EmbeddingThreshold: cfg.Entity.EmbeddingThreshold,
		CacheTTL:           cfg.Entity.CacheTTL,
	})

	a.notifyHub = notify.NewHub()
	a.notifySvc = notify.NewService(a.pg, a.notifyHub)

	writer := graph.NewDecisionWriter(a.graph)
	evolution := graph.NewEvolutionAnalyzer(a.graph, a.llm, graph.EvolutionConfig{
		RecentCandidates:    cfg.Graph.EvolutionCandidateWindow,
		SimilarityThreshold: cfg.Graph.SimilarityThreshold,
		MinConfidence:       cfg.Graph.EvolutionMinConfidence,
	})

	agentCfg := agentctx.DefaultConfig()
	agentCfg.DormantMinDays = cfg.Graph.DormantMinDays
	agentCfg.RerankEnabled = cfg.Graph.BgeRerankingEnabled
	agentCfg.RerankTopK = cfg.Graph.BgeRerankingTopK
	store := combinedGraphStore{Client: a.graph, EntityStore: a.entities}
	a.agent = agentctx.New(store, writer, evolution, a.embedder, a.resolver, nil, agentCfg)

	a.exporter = export.New("")

	a.capture = httpapi.NewCaptureBatcher(a.pg, batcher.DefaultConfig())

	return a, nil
}

func (a *app) ingestPipeline() *ingest.Pipeline {
	extractor := extract.New(a.llm, extract.Config{
		ModelContextWindow: 128_000,
		KeepRecentTurns:    20,
		Calibration:        extract.CalibrationComposite,
		AttachGrounding:    true,
		MaxOutputTokens:    4000,
	})
	return ingest.New(extractor, a.agent, a.exporter, ingest.DefaultConfig())
}

func (a *app) ontologyUpdater(cfg *config.Config) *analyze.OntologyUpdater {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return analyze.NewOntologyUpdater(httpClient, a.aliases, a.graph)
}

func (a *app) graphAPI() httpapi.GraphAPI {
	return httpapi.NewGraphAdapter(a.graph, a.entities)
}

// Close releases the graph and relational connections. Redis and the
// LLM client hold no connections worth draining explicitly.
func (a *app) Close(ctx context.Context) {
	if a.graph != nil {
		_ = a.graph.Close(ctx)
	}
	if a.pg != nil {
		a.pg.Close()
	}
}
