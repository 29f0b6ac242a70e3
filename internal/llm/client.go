package llm

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/continuum-dev/continuum/internal/logging"
	"github.com/continuum-dev/continuum/internal/resilience/breaker"
	"github.com/continuum-dev/continuum/internal/resilience/cache"
	"github.com/continuum-dev/continuum/internal/resilience/ratelimiter"
	"github.com/continuum-dev/continuum/internal/resilience/retry"
)

// MaxPromptChars bounds a single generate call's combined message content,
// past which the client truncates the oldest non-system turns rather than
// letting a runaway conversation blow the provider's context window.
const MaxPromptChars = 48000

// ObserveFunc receives one call's outcome for metrics/tracing, replacing
// the teacher's inline log-and-forget calls with an injectable hook.
type ObserveFunc func(provider, op string, dur time.Duration, err error)

// Client composes a Provider with rate limiting, retry, circuit breaking,
// response caching, a prompt-size guard, and an optional fallback model.
// The wrappers are chosen at construction time through Options and
// applied on each call in generateVia: the limiter runs first, a cache
// hit (temperature 0 only) returns before the breaker is consulted, and
// the breaker wraps the retry loop around the provider call.
type Client struct {
	primary  Provider
	fallback Provider // may be nil
	limiter  *ratelimiter.Limiter
	breaker  *breaker.Breaker
	cache    *cache.Tiered
	retryCfg retry.Config
	observe  ObserveFunc
	cacheTTL time.Duration
}

type Option func(*Client)

func WithFallback(p Provider) Option { return func(c *Client) { c.fallback = p } }
func WithRateLimiter(l *ratelimiter.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}
func WithBreaker(b *breaker.Breaker) Option { return func(c *Client) { c.breaker = b } }
func WithCache(t *cache.Tiered, ttl time.Duration) Option {
	return func(c *Client) { c.cache = t; c.cacheTTL = ttl }
}
func WithRetryConfig(cfg retry.Config) Option { return func(c *Client) { c.retryCfg = cfg } }
func WithObserver(fn ObserveFunc) Option      { return func(c *Client) { c.observe = fn } }

func New(primary Provider, opts ...Option) *Client {
	c := &Client{primary: primary, retryCfg: retry.DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate runs a chat completion through the full resilience stack:
// rate limiter -> circuit breaker -> retry -> provider, falling back to
// the secondary provider if the primary's breaker is open or exhausts
// its retries (spec.md section 4.8).
func (c *Client) Generate(ctx context.Context, tenant string, messages []Message, temperature float64, maxTokens int) (string, Usage, error) {
	messages = truncateToFit(messages)

	text, usage, err := c.generateVia(ctx, tenant, c.primary, messages, temperature, maxTokens)
	if err == nil {
		return text, usage, nil
	}

	if c.fallback == nil {
		return "", Usage{}, err
	}

	logging.Warn("llm: primary provider failed, using fallback", "provider", c.primary.Name(), "err", err)
	return c.generateVia(ctx, tenant, c.fallback, messages, temperature, maxTokens)
}

func (c *Client) generateVia(ctx context.Context, tenant string, p Provider, messages []Message, temperature float64, maxTokens int) (text string, usage Usage, err error) {
	start := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(p.Name(), "generate", time.Since(start), err)
		}
	}()

	if c.limiter != nil {
		allowed, retryAfter, lerr := c.limiter.Allow(ctx, tenant)
		if lerr != nil {
			return "", Usage{}, fmt.Errorf("llm: rate limiter: %w", lerr)
		}
		if !allowed {
			return "", Usage{}, fmt.Errorf("llm: rate limit exceeded, retry after %s", retryAfter)
		}
	}

	cacheKey := ""
	if c.cache != nil && temperature == 0 {
		cacheKey = generateCacheKey(p.Name(), messages, maxTokens)
		var cached struct {
			Text  string `json:"text"`
			Usage Usage  `json:"usage"`
		}
		if found, _ := c.cache.GetJSON(ctx, cacheKey, &cached); found {
			return cached.Text, cached.Usage, nil
		}
	}

	call := func() error {
		return retry.Do(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
			t, u, rerr := p.Generate(ctx, messages, temperature, maxTokens)
			if rerr != nil {
				return rerr
			}
			text, usage = t, u
			return nil
		})
	}

	if c.breaker != nil {
		err = c.breaker.Do(call)
	} else {
		err = call()
	}
	if err != nil {
		return "", Usage{}, err
	}

	if cacheKey != "" {
		_ = c.cache.SetJSON(ctx, cacheKey, struct {
			Text  string `json:"text"`
			Usage Usage  `json:"usage"`
		}{Text: text, Usage: usage})
	}

	return text, usage, nil
}

// Embed runs an embedding call through the same rate limiter, breaker,
// and retry stack, without response caching (the embedder package owns
// its own content-addressed cache per spec.md section 4.4).
func (c *Client) Embed(ctx context.Context, tenant string, texts []string, inputType string) (vectors [][]float32, err error) {
	start := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(c.primary.Name(), "embed", time.Since(start), err)
		}
	}()

	if c.limiter != nil {
		allowed, retryAfter, lerr := c.limiter.Allow(ctx, tenant)
		if lerr != nil {
			return nil, fmt.Errorf("llm: rate limiter: %w", lerr)
		}
		if !allowed {
			return nil, fmt.Errorf("llm: rate limit exceeded, retry after %s", retryAfter)
		}
	}

	call := func() error {
		return retry.Do(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
			v, rerr := c.primary.Embed(ctx, texts, inputType)
			if rerr != nil {
				return rerr
			}
			vectors = v
			return nil
		})
	}

	if c.breaker != nil {
		err = c.breaker.Do(call)
	} else {
		err = call()
	}
	if err != nil && c.fallback != nil {
		logging.Warn("llm: primary embed failed, using fallback", "provider", c.primary.Name(), "err", err)
		return c.fallback.Embed(ctx, texts, inputType)
	}
	return vectors, err
}

func generateCacheKey(provider string, messages []Message, maxTokens int) string {
	var b strings.Builder
	b.WriteString(provider)
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString(":")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "|%d", maxTokens)
	sum := md5.Sum([]byte(b.String()))
	return "llm:resp:" + hex.EncodeToString(sum[:])
}

// truncateToFit drops the oldest non-system messages until the combined
// content fits MaxPromptChars, keeping the system prompt and the most
// recent turns (spec.md section 4.8's prompt-size guard).
func truncateToFit(messages []Message) []Message {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	if total <= MaxPromptChars {
		return messages
	}

	var system []Message
	var rest []Message
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}

	kept := make([]Message, 0, len(rest))
	size := 0
	for _, m := range system {
		size += len(m.Content)
	}
	for i := len(rest) - 1; i >= 0; i-- {
		size += len(rest[i].Content)
		if size > MaxPromptChars && len(kept) > 0 {
			break
		}
		kept = append([]Message{rest[i]}, kept...)
	}

	out := make([]Message, 0, len(system)+len(kept))
	out = append(out, system...)
	out = append(out, kept...)
	return out
}
