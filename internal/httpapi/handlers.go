package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/continuum-dev/continuum/internal/agentctx"
	"github.com/continuum-dev/continuum/internal/analyze"
	"github.com/continuum-dev/continuum/internal/errors"
	appmw "github.com/continuum-dev/continuum/internal/httpapi/middleware"
	"github.com/continuum-dev/continuum/internal/model"
)

// GraphAPI is the slice of internal/graph the HTTP layer talks to
// directly, for the CRUD and search routes that don't go through
// internal/agentctx.
type GraphAPI interface {
	ListDecisions(ctx context.Context, userID string, limit int) ([]*model.Decision, error)
	GetDecision(ctx context.Context, userID, decisionID string) (*model.Decision, error)
	UpdateDecision(ctx context.Context, userID, decisionID string, fields GraphUpdateDecisionFields) error
	DeleteDecision(ctx context.Context, userID, decisionID string) error
	DecisionsAffectingFiles(ctx context.Context, userID string, paths []string, limit int) ([]*model.Decision, error)

	ListEntities(ctx context.Context, userID string, entityType model.EntityType) ([]*model.Entity, error)
	GetEntity(ctx context.Context, userID, entityID string) (*model.Entity, error)
	CreateEntity(ctx context.Context, entity *model.Entity) error
	UpdateEntity(ctx context.Context, userID, entityID string, name *string, aliases []string) error
	DeleteEntity(ctx context.Context, userID, entityID string) error

	Search(ctx context.Context, userID, queryText string, queryVector []float32, limit int) ([]SearchHit, error)
}

// GraphUpdateDecisionFields mirrors internal/graph.UpdateDecisionFields
// so this package doesn't need to import internal/graph just for the
// struct (kept identical field-for-field; see router wiring in cmd).
type GraphUpdateDecisionFields struct {
	AgentDecision  *string
	AgentRationale *string
	Confidence     *float64
	Scope          *model.Scope
}

// SearchHit is the trimmed shape `/api/search` returns. A hit carries
// whichever of DecisionID/EntityID/CandidateID its matching path
// populated; EntityID is also set alongside DecisionID on the
// involving-entity path, per spec.md section 8 scenario 1.
type SearchHit struct {
	DecisionID        string  `json:"decision_id,omitempty"`
	EntityID          string  `json:"entity_id,omitempty"`
	EntityName        string  `json:"entity_name,omitempty"`
	CandidateID       string  `json:"candidate_id,omitempty"`
	CandidateText     string  `json:"candidate_text,omitempty"`
	RejectedByDecisionID string `json:"rejected_by_decision_id,omitempty"`
	LexicalScore      float64 `json:"lexical_score"`
	VectorScore       float64 `json:"vector_score"`
}

// CommitLinker is the slice of internal/analyze the git webhook needs.
type CommitLinker interface {
	LinkCommit(ctx context.Context, userID string, commit model.CommitNode) ([]analyze.LinkResult, error)
}

// DormantFinder is the slice of internal/analyze the dormant-alternatives
// analytics route needs.
type DormantFinder interface {
	Find(ctx context.Context, userID string, minDaysDormant, limit int) ([]analyze.DormantAlternative, error)
}

type handlers struct {
	deps Deps
}

func userID(r *http.Request) string { return appmw.UserIDFromContext(r.Context()) }

// --- /api/agent/* ---

func (h *handlers) agentSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.deps.Agent.Summary(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) agentContext(w http.ResponseWriter, r *http.Request) {
	var req agentctx.ContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.deps.Agent.Context(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) agentEntityContext(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	resp, err := h.deps.Agent.EntityContext(r.Context(), userID(r), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) agentCheck(w http.ResponseWriter, r *http.Request) {
	var req agentctx.CheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.deps.Agent.CheckPriorArt(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) agentRemember(w http.ResponseWriter, r *http.Request) {
	var req agentctx.RememberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.deps.Agent.Remember(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// --- /api/decisions ---

func (h *handlers) listDecisions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	decisions, err := h.deps.Graph.ListDecisions(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decisions)
}

// createDecision is intentionally inert: decisions only get created
// through Remember's resolve/embed/write/analyze pipeline, never by a
// bare CRUD insert, so this route always 422s toward /api/agent/remember.
func (h *handlers) createDecision(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, errors.Validation("httpapi: direct decision creation goes through /api/agent/remember"))
}

func (h *handlers) getDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	decision, err := h.deps.Graph.GetDecision(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if decision == nil {
		writeError(w, r, errors.NotFoundf("httpapi: no decision %q", id))
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (h *handlers) updateDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var fields GraphUpdateDecisionFields
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Graph.UpdateDecision(r.Context(), userID(r), id, fields); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"decision_id": id})
}

func (h *handlers) deleteDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Graph.DeleteDecision(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- /api/entities ---

func (h *handlers) listEntities(w http.ResponseWriter, r *http.Request) {
	entityType := model.EntityType(r.URL.Query().Get("type"))
	entities, err := h.deps.Graph.ListEntities(r.Context(), userID(r), entityType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

func (h *handlers) getEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entity, err := h.deps.Graph.GetEntity(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entity == nil {
		writeError(w, r, errors.NotFoundf("httpapi: no entity %q", id))
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *handlers) createEntity(w http.ResponseWriter, r *http.Request) {
	var entity model.Entity
	if err := decodeJSON(r, &entity); err != nil {
		writeError(w, r, err)
		return
	}
	if entity.Name == "" || entity.Type == "" {
		writeError(w, r, errors.Validation("httpapi: entity requires name and type"))
		return
	}
	entity.UserID = userID(r)
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	if err := h.deps.Graph.CreateEntity(r.Context(), &entity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entity)
}

func (h *handlers) updateEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Name    *string  `json:"name"`
		Aliases []string `json:"aliases"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Graph.UpdateEntity(r.Context(), userID(r), id, body.Name, body.Aliases); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"entity_id": id})
}

func (h *handlers) deleteEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Graph.DeleteEntity(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- /api/search ---

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	limit := queryInt(r, "limit", 20)
	hits, err := h.deps.Graph.Search(r.Context(), userID(r), query, nil, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// --- /api/analytics/* ---

// defaultMinDaysDormant mirrors internal/scheduler's own call into the
// same detector (90 days, spec.md section 4.6).
const defaultMinDaysDormant = 90

func (h *handlers) dormantAlternatives(w http.ResponseWriter, r *http.Request) {
	minDaysDormant := queryInt(r, "min_days_dormant", defaultMinDaysDormant)
	limit := queryInt(r, "limit", 20)
	found, err := h.deps.Dormant.Find(r.Context(), userID(r), minDaysDormant, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// --- /api/git/* ---

type commitWebhookBody struct {
	SHA             string   `json:"sha"`
	Message         string   `json:"message"`
	AuthorEmail     string   `json:"author_email"`
	CommittedAt     string   `json:"committed_at"`
	FilesChanged    []string `json:"files_changed"`
	ProjectName     string   `json:"project_name,omitempty"`
	SessionTimestamp string  `json:"session_timestamp,omitempty"`
}

func (h *handlers) gitCommit(w http.ResponseWriter, r *http.Request) {
	var body commitWebhookBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.SHA == "" {
		writeError(w, r, errors.Validation("httpapi: commit webhook requires sha"))
		return
	}
	committedAt, err := time.Parse(time.RFC3339, body.CommittedAt)
	if err != nil {
		committedAt = time.Now()
	}

	shortSHA := body.SHA
	if len(shortSHA) > 7 {
		shortSHA = shortSHA[:7]
	}

	commit := model.CommitNode{
		SHA:          body.SHA,
		ShortSHA:     shortSHA,
		Message:      body.Message,
		Author:       body.AuthorEmail,
		CommittedAt:  committedAt,
		FilesChanged: body.FilesChanged,
		UserID:       userID(r),
	}

	results, err := h.deps.Commits.LinkCommit(r.Context(), userID(r), commit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sha":              body.SHA,
		"linked_decisions": results,
		"created_touches":  len(body.FilesChanged),
	})
}

func (h *handlers) prContext(w http.ResponseWriter, r *http.Request) {
	files := r.URL.Query()["file"]
	if len(files) == 0 {
		if raw := r.URL.Query().Get("files"); raw != "" {
			files = strings.Split(raw, ",")
		}
	}
	if len(files) == 0 {
		writeError(w, r, errors.Validation("httpapi: pr-context requires at least one file"))
		return
	}
	decisions, err := h.deps.Graph.DecisionsAffectingFiles(r.Context(), userID(r), files, queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decisions)
}

// --- /api/notifications, /ws/notifications ---

func (h *handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.deps.Notify.List(r.Context(), userID(r), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *handlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Notify.AckAll(r.Context(), userID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) notificationsWS(w http.ResponseWriter, r *http.Request) {
	h.deps.Notify.ServeWS(w, r, userID(r), h.deps.NotifyHub)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
