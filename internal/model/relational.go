package model

import "time"

// User is the tenancy root for Continuum's relational store (spec.md
// section 6, "Relational store holding users...").
type User struct {
	ID        string    `json:"id"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
}

// AnonymousUserID is the literal value spec.md section 6 reserves for
// unauthenticated requests: they may read shared data but cannot record
// decisions.
const AnonymousUserID = "anonymous"

// CaptureSessionStatus tracks a capture session's lifecycle.
type CaptureSessionStatus string

const (
	CaptureSessionOpen      CaptureSessionStatus = "open"
	CaptureSessionCompleted CaptureSessionStatus = "completed"
)

// CaptureSession is one interactive ingestion session feeding the
// per-session message batcher (spec.md section 4.10).
type CaptureSession struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Project   string               `json:"project,omitempty"`
	Status    CaptureSessionStatus `json:"status"`
	StartedAt time.Time            `json:"started_at"`
	EndedAt   time.Time            `json:"ended_at,omitempty"`
}

// CaptureMessage is a single inbound message accumulated by the batcher
// before being flushed and handed to the Parser/Extractor.
type CaptureMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationType enumerates the graph events the notification service
// delivers (spec.md section 4.9).
type NotificationType string

const (
	NotificationContradiction  NotificationType = "contradiction_detected"
	NotificationAssumptionBad  NotificationType = "assumption_invalidated"
	NotificationStaleDecision  NotificationType = "stale_decision"
	NotificationDormantFound   NotificationType = "dormant_alternative"
)

// Notification is a durable, user-scoped event record (spec.md section
// 4.9).
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Payload   []byte           `json:"payload,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// ProcessedFile is one row of the processed-files ledger: a log file's
// path, owner, content hash, and the time it was marked processed.
type ProcessedFile struct {
	Path        string    `json:"path"`
	UserID      string    `json:"user_id"`
	ContentHash string    `json:"content_hash"`
	ProcessedAt time.Time `json:"processed_at"`
}
