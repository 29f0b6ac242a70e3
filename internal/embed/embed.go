// Package embed produces fixed-dimension decision and entity embeddings
// by composing weighted field-level vectors, with batching and a
// content-addressed cache (spec.md section 4.4).
package embed

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/continuum-dev/continuum/internal/llm"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/resilience/cache"
	"github.com/continuum-dev/continuum/internal/vectors"
)

// Weights controls the relative contribution of each decision field to
// its composed embedding, per spec.md section 4.4's defaults.
type Weights struct {
	Title     float64
	Decision  float64
	Rationale float64
	Context   float64
	Trigger   float64
}

func DefaultWeights() Weights {
	return Weights{Title: 1.5, Decision: 1.2, Rationale: 1.0, Context: 0.8, Trigger: 0.8}
}

// Config controls batching and caching for the Embedder.
type Config struct {
	Weights          Weights
	BatchSize        int
	CacheTTL         time.Duration
	CacheMinTextLen  int
}

func DefaultConfig() Config {
	return Config{
		Weights:         DefaultWeights(),
		BatchSize:       32,
		CacheTTL:        30 * 24 * time.Hour,
		CacheMinTextLen: 10,
	}
}

// Embedder computes and caches embeddings for decisions, entities, and
// free-text mentions via an llm.Client, gated by the client's own
// circuit breaker.
type Embedder struct {
	llm   *llm.Client
	cache *cache.Tiered
	cfg   Config
}

func New(llmClient *llm.Client, tieredCache *cache.Tiered, cfg Config) *Embedder {
	return &Embedder{llm: llmClient, cache: tieredCache, cfg: cfg}
}

// EmbedDecision embeds the decision's title, decision, rationale,
// context, and trigger fields independently, then blends them with the
// configured weights into a single vector (spec.md section 4.4).
func (e *Embedder) EmbedDecision(ctx context.Context, userID string, d *model.Decision) ([]float32, error) {
	title := d.AgentDecision
	if len(title) > 120 {
		title = title[:120]
	}

	fields := []string{title, d.AgentDecision, d.AgentRationale, d.Context, d.Trigger}
	weights := []float64{e.cfg.Weights.Title, e.cfg.Weights.Decision, e.cfg.Weights.Rationale, e.cfg.Weights.Context, e.cfg.Weights.Trigger}

	var presentFields []string
	var presentWeights []float64
	for i, f := range fields {
		if f == "" {
			continue
		}
		presentFields = append(presentFields, f)
		presentWeights = append(presentWeights, weights[i])
	}
	if len(presentFields) == 0 {
		return nil, fmt.Errorf("embed: decision has no embeddable text")
	}

	vecs, err := e.EmbedBatch(ctx, userID, presentFields, "passage")
	if err != nil {
		return nil, fmt.Errorf("embed: decision: %w", err)
	}

	return vectors.WeightedAverage(vecs, presentWeights), nil
}

// EmbedEntity embeds an entity as "type: name", per spec.md section 4.4.
func (e *Embedder) EmbedEntity(ctx context.Context, userID string, ent *model.Entity) ([]float32, error) {
	text := string(ent.Type) + ": " + ent.Name
	vecs, err := e.EmbedBatch(ctx, userID, []string{text}, "passage")
	if err != nil {
		return nil, fmt.Errorf("embed: entity: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embed: entity: no vector returned")
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts, serving cached results where available and
// calling the provider in configured-size batches for cache misses.
// Texts shorter than CacheMinTextLen bypass the cache entirely.
func (e *Embedder) EmbedBatch(ctx context.Context, userID string, texts []string, inputType string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missIdx []int

	for i, text := range texts {
		if e.cache == nil || len(text) < e.cfg.CacheMinTextLen {
			missIdx = append(missIdx, i)
			continue
		}
		key := e.cacheKey(userID, text, inputType)
		var cached []float32
		found, _ := e.cache.GetJSON(ctx, key, &cached)
		if found {
			results[i] = cached
			continue
		}
		missIdx = append(missIdx, i)
	}

	batchSize := e.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	for start := 0; start < len(missIdx); start += batchSize {
		end := start + batchSize
		if end > len(missIdx) {
			end = len(missIdx)
		}
		idxBatch := missIdx[start:end]

		batchTexts := make([]string, len(idxBatch))
		for i, idx := range idxBatch {
			batchTexts[i] = texts[idx]
		}

		vecs, err := e.llm.Embed(ctx, userID, batchTexts, inputType)
		if err != nil {
			return nil, fmt.Errorf("embed: provider call failed: %w", err)
		}
		if len(vecs) != len(batchTexts) {
			return nil, fmt.Errorf("embed: provider returned %d vectors for %d texts", len(vecs), len(batchTexts))
		}

		for i, idx := range idxBatch {
			results[idx] = vecs[i]
			text := texts[idx]
			if e.cache != nil && len(text) >= e.cfg.CacheMinTextLen {
				key := e.cacheKey(userID, text, inputType)
				_ = e.cache.SetJSON(ctx, key, vecs[i])
			}
		}
	}

	return results, nil
}

func (e *Embedder) cacheKey(userID, text, inputType string) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("emb:%s:%s:%s", userID, inputType, hex.EncodeToString(sum[:]))
}
