// Package resolve implements the six-stage entity resolver of spec.md
// section 4.3: it maps a free-text mention to a canonical graph node,
// trying exact match, alias dictionary, alias-field search, fuzzy
// string match, embedding similarity, and finally entity creation, in
// that order, with the two-tier cache short-circuiting the cheap
// stages.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/continuum-dev/continuum/internal/llm"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/resilience/cache"
)

// Stage names a resolver pass, returned for telemetry per spec.md
// section 4.3's "(entity_id, canonical_name, resolution_stage)" contract.
type Stage string

const (
	StageExact           Stage = "exact"
	StageAliasDictionary  Stage = "alias_dictionary"
	StageAliasField       Stage = "alias_field"
	StageFuzzy            Stage = "fuzzy"
	StageEmbedding        Stage = "embedding"
	StageCreated          Stage = "created"
)

// Result is what Resolve returns for every mention, matched or newly
// minted.
type Result struct {
	EntityID      string
	CanonicalName string
	Stage         Stage
}

// Store is the graph-backed half of resolution: lookups and the final
// create. Implemented by internal/graph against Neo4j; kept as a narrow
// interface here so the resolver can be tested without a live graph.
type Store interface {
	FindByExactName(ctx context.Context, userID string, entityType model.EntityType, normalizedName string) (*model.Entity, error)
	FindByAlias(ctx context.Context, userID string, entityType model.EntityType, mention string) (*model.Entity, error)
	ListCandidates(ctx context.Context, userID string, entityType model.EntityType) ([]*model.Entity, error)
	FindByEmbedding(ctx context.Context, userID string, entityType model.EntityType, vector []float32, threshold float64) (*model.Entity, float64, error)
	CreateEntity(ctx context.Context, entity *model.Entity) error
}

// AliasDictionary resolves a raw mention to its canonical spelling via
// a static table plus the dynamic table the ontology updater maintains
// (spec.md section 4.6). Safe for concurrent use.
type AliasDictionary interface {
	Lookup(mention string) (canonical string, ok bool)
}

// Config controls resolver thresholds, all overridable per spec.md
// section 6's configuration table.
type Config struct {
	FuzzyThreshold     float64
	EmbeddingThreshold float64
	CacheTTL           time.Duration
}

func DefaultConfig() Config {
	return Config{FuzzyThreshold: 0.85, EmbeddingThreshold: 0.90, CacheTTL: 5 * time.Minute}
}

// Resolver implements the ordered six-stage pipeline.
type Resolver struct {
	store   Store
	aliases AliasDictionary
	cache   *cache.Tiered
	llm     *llm.Client
	cfg     Config
}

func New(store Store, aliases AliasDictionary, tiered *cache.Tiered, llmClient *llm.Client, cfg Config) *Resolver {
	return &Resolver{store: store, aliases: aliases, cache: tiered, llm: llmClient, cfg: cfg}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cacheKey(userID, kind, normalizedKey string) string {
	return fmt.Sprintf("resolve:%s:%s:%s", userID, kind, normalizedKey)
}

// Resolve maps mention to a canonical entity, deterministic for a given
// graph + cache state (spec.md section 4.3's contract). Every create or
// update elsewhere in the system must call Invalidate for the affected
// keys; Resolve itself only reads and, on a miss, writes exactly once.
func (r *Resolver) Resolve(ctx context.Context, userID, mention string, entityType model.EntityType) (*Result, error) {
	normalized := normalize(mention)
	nameKey := cacheKey(userID, "name", string(entityType)+":"+normalized)

	if cached, ok := r.cacheLookup(ctx, nameKey); ok {
		return cached, nil
	}

	// Stage 1: exact match.
	if entity, err := r.store.FindByExactName(ctx, userID, entityType, normalized); err == nil && entity != nil {
		res := &Result{EntityID: entity.ID, CanonicalName: entity.Name, Stage: StageExact}
		r.cacheStore(ctx, nameKey, res)
		return res, nil
	}

	// Stage 2: alias dictionary, then retry stage 1 against the resolved
	// canonical spelling.
	if r.aliases != nil {
		if canonical, ok := r.aliases.Lookup(normalized); ok {
			canonicalNorm := normalize(canonical)
			if entity, err := r.store.FindByExactName(ctx, userID, entityType, canonicalNorm); err == nil && entity != nil {
				res := &Result{EntityID: entity.ID, CanonicalName: entity.Name, Stage: StageAliasDictionary}
				r.cacheStore(ctx, nameKey, res)
				return res, nil
			}
		}
	}

	// Stage 3: alias-field search.
	if entity, err := r.store.FindByAlias(ctx, userID, entityType, normalized); err == nil && entity != nil {
		res := &Result{EntityID: entity.ID, CanonicalName: entity.Name, Stage: StageAliasField}
		r.cacheStore(ctx, nameKey, res)
		return res, nil
	}

	candidates, err := r.store.ListCandidates(ctx, userID, entityType)
	if err != nil {
		return nil, fmt.Errorf("resolve: list candidates: %w", err)
	}

	// Stage 4: fuzzy string match.
	if match, score := bestFuzzyMatch(normalized, candidates); match != nil && score >= r.cfg.FuzzyThreshold {
		res := &Result{EntityID: match.ID, CanonicalName: match.Name, Stage: StageFuzzy}
		r.cacheStore(ctx, nameKey, res)
		return res, nil
	}

	// Stage 5: embedding similarity.
	if r.llm != nil {
		vectors, err := r.llm.Embed(ctx, userID, []string{mentionEmbeddingText(mention, entityType)}, "query")
		if err == nil && len(vectors) == 1 {
			if entity, score, err := r.store.FindByEmbedding(ctx, userID, entityType, vectors[0], r.cfg.EmbeddingThreshold); err == nil && entity != nil && score >= r.cfg.EmbeddingThreshold {
				res := &Result{EntityID: entity.ID, CanonicalName: entity.Name, Stage: StageEmbedding}
				r.cacheStore(ctx, nameKey, res)
				return res, nil
			}
		}
	}

	// Stage 6: mint a new entity.
	entity := &model.Entity{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(mention),
		Type:      entityType,
		CreatedAt: time.Now(),
	}
	if r.llm != nil {
		if vectors, err := r.llm.Embed(ctx, userID, []string{mentionEmbeddingText(mention, entityType)}, "document"); err == nil && len(vectors) == 1 {
			entity.Embedding = vectors[0]
		}
	}
	if err := r.store.CreateEntity(ctx, entity); err != nil {
		return nil, fmt.Errorf("resolve: create entity: %w", err)
	}

	res := &Result{EntityID: entity.ID, CanonicalName: entity.Name, Stage: StageCreated}
	r.cacheStore(ctx, nameKey, res)
	return res, nil
}

// Invalidate drops the id-, name-, and alias-keyed cache entries for an
// entity, called by the graph writer on every create/update/delete
// (spec.md section 4.3).
func (r *Resolver) Invalidate(ctx context.Context, userID string, entityType model.EntityType, id, name string, aliases []string) error {
	keys := []string{
		cacheKey(userID, "id", id),
		cacheKey(userID, "name", string(entityType)+":"+normalize(name)),
	}
	for _, a := range aliases {
		keys = append(keys, cacheKey(userID, "alias", string(entityType)+":"+normalize(a)))
	}
	return r.cache.Invalidate(ctx, keys...)
}

func (r *Resolver) cacheLookup(ctx context.Context, key string) (*Result, bool) {
	if r.cache == nil {
		return nil, false
	}
	if r.cache.IsNegative(ctx, key) {
		return nil, false
	}
	var res Result
	if found, err := r.cache.GetJSON(ctx, key, &res); err == nil && found {
		return &res, true
	}
	return nil, false
}

func (r *Resolver) cacheStore(ctx context.Context, key string, res *Result) {
	if r.cache == nil {
		return
	}
	_ = r.cache.SetJSON(ctx, key, res)
}

func mentionEmbeddingText(mention string, entityType model.EntityType) string {
	return fmt.Sprintf("%s: %s", entityType, mention)
}

// bestFuzzyMatch scores mention against every candidate's name and
// aliases using a token-sort Levenshtein ratio, returning the highest
// scoring candidate regardless of threshold; the caller compares the
// score against the configured cutoff.
func bestFuzzyMatch(normalizedMention string, candidates []*model.Entity) (*model.Entity, float64) {
	var best *model.Entity
	bestScore := 0.0
	for _, c := range candidates {
		names := append([]string{c.Name}, c.Aliases...)
		for _, n := range names {
			score := tokenSortRatio(normalizedMention, normalize(n))
			if score > bestScore {
				bestScore = score
				best = c
			}
		}
	}
	return best, bestScore
}

// tokenSortRatio implements the normalized-ratio comparison spec.md
// section 9's open question leaves to the implementer: tokenize both
// strings, sort tokens alphabetically, rejoin, then compute a
// Levenshtein-distance-based similarity ratio. Token-sort makes word
// order ("vector database" vs "database, vector") not penalize the
// match, which plain character-ratio would.
func tokenSortRatio(a, b string) float64 {
	sa := sortedTokens(a)
	sb := sortedTokens(b)
	if sa == sb {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(sa, sb)
	maxLen := len(sa)
	if len(sb) > maxLen {
		maxLen = len(sb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
