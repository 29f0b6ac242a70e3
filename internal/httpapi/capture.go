package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/continuum-dev/continuum/internal/errors"
	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/resilience/batcher"
)

// CaptureStore is the durable side of the per-session message batcher
// (spec.md section 4.10): session lifecycle plus the transactional
// batch write the batcher's FlushFunc calls into.
type CaptureStore interface {
	CreateCaptureSession(ctx context.Context, s *model.CaptureSession) error
	CompleteCaptureSession(ctx context.Context, sessionID string, endedAt time.Time) error
	AppendBatch(ctx context.Context, sessionID string, messages []model.CaptureMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]model.CaptureMessage, error)
}

// NewCaptureBatcher wires a Batcher whose FlushFunc persists a batch
// through store. The FlushFunc signature takes []any since the batcher
// is reused verbatim across call sites; this is the only place that
// knows the payload is actually []model.CaptureMessage.
func NewCaptureBatcher(store CaptureStore, cfg batcher.Config) *batcher.Batcher {
	return batcher.New(cfg, func(ctx context.Context, sessionID string, messages []any) error {
		batch := make([]model.CaptureMessage, len(messages))
		for i, m := range messages {
			cm, ok := m.(model.CaptureMessage)
			if !ok {
				return fmt.Errorf("httpapi: capture batcher received non-CaptureMessage payload")
			}
			batch[i] = cm
		}
		return store.AppendBatch(ctx, sessionID, batch)
	})
}

type captureSessionBody struct {
	Project string `json:"project,omitempty"`
}

func (h *handlers) openCaptureSession(w http.ResponseWriter, r *http.Request) {
	var body captureSessionBody
	_ = decodeJSON(r, &body) // empty body is fine; project is optional

	session := &model.CaptureSession{
		ID:        uuid.NewString(),
		UserID:    userID(r),
		Project:   body.Project,
		Status:    model.CaptureSessionOpen,
		StartedAt: time.Now(),
	}
	if err := h.deps.CaptureStore.CreateCaptureSession(r.Context(), session); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type captureMessageBody struct {
	Role     model.Role `json:"role"`
	Content  string     `json:"content"`
	Sequence int        `json:"sequence"`
}

func (h *handlers) enqueueCaptureMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	var body captureMessageBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Content == "" {
		writeError(w, r, errors.Validation("httpapi: capture message requires content"))
		return
	}

	msg := model.CaptureMessage{
		SessionID: sessionID,
		Role:      body.Role,
		Content:   body.Content,
		Sequence:  body.Sequence,
		CreatedAt: time.Now(),
	}
	if err := h.deps.Capture.Enqueue(r.Context(), sessionID, msg); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *handlers) completeCaptureSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := h.deps.Capture.CompleteSession(r.Context(), sessionID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.CaptureStore.CompleteCaptureSession(r.Context(), sessionID, time.Now()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
