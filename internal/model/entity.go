package model

import (
	"strings"
	"time"
)

// EntityType categorizes an Entity node.
type EntityType string

const (
	EntityTechnology  EntityType = "technology"
	EntityConcept     EntityType = "concept"
	EntityPattern     EntityType = "pattern"
	EntitySystem      EntityType = "system"
	EntityPerson      EntityType = "person"
	EntityOrganization EntityType = "organization"
)

// Entity is a canonical technology/concept/pattern/system/person/
// organization node (spec.md section 3).
type Entity struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Type      EntityType `json:"type"`
	Aliases   []string   `json:"aliases,omitempty"`
	Embedding []float32  `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

// CandidateDecision is a rejected alternative, materialized as its own
// node for dormant-alternative analysis (spec.md section 3).
type CandidateDecision struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	Status     string    `json:"status"` // always "rejected"
	DecisionID string    `json:"decision_id"` // REJECTED_BY target
}

// CodeEntity is a tracked file path (spec.md section 3).
type CodeEntity struct {
	UserID    string    `json:"user_id"`
	FilePath  string    `json:"file_path"`
	Language  string    `json:"language,omitempty"`
	LineCount int       `json:"line_count,omitempty"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	IndexedAt time.Time `json:"indexed_at"`
}

// CommitNode is git commit metadata (spec.md section 3).
type CommitNode struct {
	SHA          string    `json:"sha"`
	ShortSHA     string    `json:"short_sha"`
	Message      string    `json:"message"`
	Author       string    `json:"author"`
	CommittedAt  time.Time `json:"committed_at"`
	FilesChanged []string  `json:"files_changed"`
	UserID       string    `json:"user_id"`
}

// EdgeKind enumerates the directed relationships of spec.md section 3.
type EdgeKind string

const (
	EdgeInvolves               EdgeKind = "INVOLVES"
	EdgeRejectedBy             EdgeKind = "REJECTED_BY"
	EdgeSupersedes             EdgeKind = "SUPERSEDES"
	EdgeContradicts            EdgeKind = "CONTRADICTS"
	EdgeSimilarTo              EdgeKind = "SIMILAR_TO"
	EdgeAffects                EdgeKind = "AFFECTS"
	EdgeImplementedBy          EdgeKind = "IMPLEMENTED_BY"
	EdgeTouches                EdgeKind = "TOUCHES"
	EdgeAssumptionInvalidated  EdgeKind = "ASSUMPTION_INVALIDATED"
	EdgeFollows                EdgeKind = "FOLLOWS"
	EdgePrecedes               EdgeKind = "PRECEDES"
)

// AffectsSource distinguishes how an AFFECTS edge was derived.
type AffectsSource string

const (
	AffectsToolCall AffectsSource = "tool_call"
	AffectsInferred AffectsSource = "inferred"
)

func normalizeOption(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
