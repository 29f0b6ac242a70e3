// Package config loads Continuum's single flat configuration object
// from environment variables (with an optional .env file), the way the
// teacher repo's internal/config does with viper + godotenv.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the single flat configuration object described in spec.md
// section 6. It holds the "Recognized options" named there plus the
// run mode, HTTP, store connection, and observability settings.
type Config struct {
	Mode string `mapstructure:"mode"` // "production", "development"

	HTTP       HTTPConfig
	Postgres   PostgresConfig
	Neo4j      Neo4jConfig
	Redis      RedisConfig
	LLM        LLMConfig
	Embedding  EmbeddingConfig
	Graph      GraphConfig
	Extraction ExtractionConfig
	Entity     EntityConfig
	Batch      BatchConfig
	Git        GitConfig
	Episode    EpisodeConfig
	RateLimit  RateLimitConfig
	Pools      PoolConfig
	Auth       AuthConfig
	Observability ObservabilityConfig
}

type HTTPConfig struct {
	Addr            string `mapstructure:"http_addr"`
	ShutdownDrain   time.Duration `mapstructure:"http_shutdown_drain"`
	CORSOrigins     []string `mapstructure:"http_cors_origins"`
}

type PostgresConfig struct {
	DSN Secret `mapstructure:"postgres_dsn"`
}

type Neo4jConfig struct {
	URI      string `mapstructure:"neo4j_uri"`
	User     string `mapstructure:"neo4j_user"`
	Password Secret `mapstructure:"neo4j_password"`
	Database string `mapstructure:"neo4j_database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"redis_addr"`
	Password Secret `mapstructure:"redis_password"`
	DB       int    `mapstructure:"redis_db"`
}

type LLMConfig struct {
	Provider            string        `mapstructure:"llm_provider"` // "openai", "genai"
	APIKey              Secret        `mapstructure:"llm_api_key"`
	Model               string        `mapstructure:"llm_model"`
	FallbackModel       string        `mapstructure:"llm_fallback_model"`
	FallbackEnabled     bool          `mapstructure:"llm_fallback_enabled"`
	MaxRetries          int           `mapstructure:"llm_max_retries"`
	RetryBaseDelay      time.Duration `mapstructure:"llm_retry_base_delay"`
	CacheTTL            time.Duration `mapstructure:"llm_cache_ttl"`
	EffectiveWindowFrac float64       `mapstructure:"llm_effective_window_frac"`
	ContextWindowTokens int           `mapstructure:"llm_context_window_tokens"`
	RequestTimeout      time.Duration `mapstructure:"llm_request_timeout"`
	ConcurrencyLimit    int           `mapstructure:"llm_concurrency_limit"`
	BreakerFailureThreshold  int           `mapstructure:"llm_breaker_failure_threshold"`
	BreakerRecoveryTimeout   time.Duration `mapstructure:"llm_breaker_recovery_timeout"`
	BreakerSuccessThreshold  int           `mapstructure:"llm_breaker_success_threshold"`
}

type EmbeddingConfig struct {
	Dimension      int           `mapstructure:"embedding_dimension"`
	BatchSize      int           `mapstructure:"embedding_batch_size"`
	CacheTTL       time.Duration `mapstructure:"embedding_cache_ttl"`
	Timeout        time.Duration `mapstructure:"embedding_timeout"`
	WeightTitle    float64       `mapstructure:"embedding_weight_title"`
	WeightDecision float64       `mapstructure:"embedding_weight_decision"`
	WeightRationale float64      `mapstructure:"embedding_weight_rationale"`
	WeightContext  float64       `mapstructure:"embedding_weight_context"`
	WeightTrigger  float64       `mapstructure:"embedding_weight_trigger"`
}

type GraphConfig struct {
	SimilarityThreshold      float64       `mapstructure:"similarity_threshold"`
	EvolutionCandidateWindow int           `mapstructure:"evolution_candidate_window"`
	EvolutionMinConfidence   float64       `mapstructure:"evolution_min_confidence"`
	QueryTimeout             time.Duration `mapstructure:"graph_query_timeout"`
	StaleTacticalDays        int           `mapstructure:"stale_tactical_days"`
	StaleStrategicDays       int           `mapstructure:"stale_strategic_days"`
	StaleArchitecturalDays   int           `mapstructure:"stale_architectural_days"`
	DormantMinDays           int           `mapstructure:"dormant_min_days"`
	BgeRerankingEnabled      bool          `mapstructure:"bge_reranking_enabled"`
	BgeRerankingTopK         int           `mapstructure:"bge_reranking_top_k"`
	TemporalReasoningEnabled bool          `mapstructure:"temporal_reasoning_enabled"`
}

type ExtractionConfig struct {
	ConfidenceCalibrationMethod string `mapstructure:"confidence_calibration_method"` // composite, temperature, heuristic
	VerbatimGroundingEnabled    bool   `mapstructure:"verbatim_grounding_enabled"`
	SanitizeInputs              bool   `mapstructure:"sanitize_inputs"`
}

type EntityConfig struct {
	CacheTTL           time.Duration `mapstructure:"entity_cache_ttl"`
	FuzzyMatchThreshold float64      `mapstructure:"entity_fuzzy_threshold"`
	EmbeddingThreshold  float64      `mapstructure:"entity_embedding_threshold"`
}

type BatchConfig struct {
	MessageBatchSize    int           `mapstructure:"message_batch_size"`
	MessageBatchTimeout time.Duration `mapstructure:"message_batch_timeout"`
}

type GitConfig struct {
	CommitLinkWindowHours  int     `mapstructure:"git_commit_link_window_hours"`
	CommitLinkScoreThreshold float64 `mapstructure:"git_commit_link_score_threshold"`
	StaleFileThresholdDays int     `mapstructure:"git_stale_file_threshold_days"`
	GitHubToken            Secret  `mapstructure:"github_token"`
}

type EpisodeConfig struct {
	GapMinutes int `mapstructure:"episode_gap_minutes"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"rate_limit_requests"`
	Window   time.Duration `mapstructure:"rate_limit_window"`
}

type PoolConfig struct {
	PostgresMaxConns int `mapstructure:"postgres_max_conns"`
	Neo4jMaxConns    int `mapstructure:"neo4j_max_conns"`
	RedisMaxConns    int `mapstructure:"redis_max_conns"`
}

type AuthConfig struct {
	Algorithm string `mapstructure:"auth_algorithm"`
}

type ObservabilityConfig struct {
	// RemoteMetricsEnabled gates the optional remote-metrics sink (see
	// internal/llm observability hook); DatadogAPIKey is the single
	// source of truth resolving the duplicate-declaration Open Question
	// in spec.md section 9.
	RemoteMetricsEnabled bool   `mapstructure:"observability_remote_enabled"`
	DatadogAPIKey        Secret `mapstructure:"datadog_api_key"`
}

// Default returns Continuum's documented defaults, matching the values
// named throughout spec.md sections 4 and 6.
func Default() *Config {
	return &Config{
		Mode: "development",
		HTTP: HTTPConfig{
			Addr:          ":8080",
			ShutdownDrain: 30 * time.Second,
		},
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Database: "neo4j",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		LLM: LLMConfig{
			Provider:                "openai",
			Model:                   "gpt-4o-mini",
			MaxRetries:              3,
			RetryBaseDelay:          500 * time.Millisecond,
			CacheTTL:                24 * time.Hour,
			EffectiveWindowFrac:     0.85,
			ContextWindowTokens:     128_000,
			RequestTimeout:          60 * time.Second,
			ConcurrencyLimit:        3,
			BreakerFailureThreshold: 5,
			BreakerRecoveryTimeout:  30 * time.Second,
			BreakerSuccessThreshold: 2,
		},
		Embedding: EmbeddingConfig{
			Dimension:       2048,
			BatchSize:       32,
			CacheTTL:        30 * 24 * time.Hour,
			Timeout:         30 * time.Second,
			WeightTitle:     1.5,
			WeightDecision:  1.2,
			WeightRationale: 1.0,
			WeightContext:   0.8,
			WeightTrigger:   0.8,
		},
		Graph: GraphConfig{
			SimilarityThreshold:      0.85,
			EvolutionCandidateWindow: 20,
			EvolutionMinConfidence:   0.6,
			QueryTimeout:             10 * time.Second,
			StaleTacticalDays:        30,
			StaleStrategicDays:       180,
			StaleArchitecturalDays:   365,
			DormantMinDays:           14,
			BgeRerankingEnabled:      false,
			BgeRerankingTopK:         10,
			TemporalReasoningEnabled: true,
		},
		Extraction: ExtractionConfig{
			ConfidenceCalibrationMethod: "composite",
			VerbatimGroundingEnabled:    true,
			SanitizeInputs:              true,
		},
		Entity: EntityConfig{
			CacheTTL:            5 * time.Minute,
			FuzzyMatchThreshold: 0.85,
			EmbeddingThreshold:  0.90,
		},
		Batch: BatchConfig{
			MessageBatchSize:    10,
			MessageBatchTimeout: 2 * time.Second,
		},
		Git: GitConfig{
			CommitLinkWindowHours:    2,
			CommitLinkScoreThreshold: 0.3,
			StaleFileThresholdDays:   180,
		},
		Episode: EpisodeConfig{GapMinutes: 10},
		RateLimit: RateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
		},
		Pools: PoolConfig{
			PostgresMaxConns: 20,
			Neo4jMaxConns:    50,
			RedisMaxConns:    20,
		},
		Auth: AuthConfig{Algorithm: "bearer-opaque"},
	}
}

// Load reads a .env file if present, then layers environment variables
// over Default() via viper. Env vars are matched case-insensitively to
// each field's mapstructure tag, uppercased (e.g. llm_api_key ->
// LLM_API_KEY), per the teacher's env-loading convention.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error in production

	cfg := Default()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration required for the service to start
// is present, the way the teacher's internal/config/validator.go gates
// each CLI command's preconditions.
func (c *Config) Validate() error {
	var missing []string
	if c.Neo4j.URI == "" {
		missing = append(missing, "neo4j_uri")
	}
	if c.Neo4j.Password.Empty() {
		missing = append(missing, "neo4j_password")
	}
	if c.Postgres.DSN.Empty() {
		missing = append(missing, "postgres_dsn")
	}
	if c.LLM.APIKey.Empty() {
		missing = append(missing, "llm_api_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	switch c.Extraction.ConfidenceCalibrationMethod {
	case "composite", "temperature", "heuristic":
	default:
		return fmt.Errorf("config: confidence_calibration_method must be one of composite|temperature|heuristic, got %q", c.Extraction.ConfidenceCalibrationMethod)
	}
	return nil
}
