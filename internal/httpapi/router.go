// Package httpapi is Continuum's HTTP surface: the route table of
// spec.md section 6, wired with chi and rs/cors the way
// internal/server wires theirs, plus the tenancy middleware that
// bearer-token validation itself (external, out of scope) hands off to.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/continuum-dev/continuum/internal/agentctx"
	appmw "github.com/continuum-dev/continuum/internal/httpapi/middleware"
	"github.com/continuum-dev/continuum/internal/notify"
	"github.com/continuum-dev/continuum/internal/resilience/batcher"
)

// Deps bundles everything the route handlers need.
type Deps struct {
	Agent        *agentctx.Service
	Graph        GraphAPI
	Notify       *notify.Service
	NotifyHub    *notify.Hub
	Commits      CommitLinker
	Dormant      DormantFinder
	Capture      *batcher.Batcher
	CaptureStore CaptureStore
}

// NewRouter builds the full chi router for spec.md section 6's route
// table, with request id, real ip, structured logging, panic recovery,
// CORS, and tenancy context applied globally.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmw.UserIDHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	r.Use(appmw.UserContext)

	h := &handlers{deps: deps}

	r.Route("/api/agent", func(r chi.Router) {
		r.Get("/summary", h.agentSummary)
		r.Post("/context", h.agentContext)
		r.Get("/context/{name}", h.agentEntityContext)
		r.Post("/check", h.agentCheck)
		r.Post("/remember", h.agentRemember)
	})

	r.Route("/api/decisions", func(r chi.Router) {
		r.Get("/", h.listDecisions)
		r.Post("/", h.createDecision)
		r.Get("/{id}", h.getDecision)
		r.Put("/{id}", h.updateDecision)
		r.Delete("/{id}", h.deleteDecision)
	})

	r.Route("/api/entities", func(r chi.Router) {
		r.Get("/", h.listEntities)
		r.Post("/", h.createEntity)
		r.Get("/{id}", h.getEntity)
		r.Put("/{id}", h.updateEntity)
		r.Delete("/{id}", h.deleteEntity)
	})

	r.Get("/api/search", h.search)

	r.Route("/api/git", func(r chi.Router) {
		r.Post("/commit", h.gitCommit)
		r.Get("/pr-context", h.prContext)
	})

	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/", h.listNotifications)
		r.Post("/read-all", h.markAllRead)
	})

	r.Get("/api/analytics/dormant-alternatives", h.dormantAlternatives)

	r.Route("/api/capture", func(r chi.Router) {
		r.Post("/", h.openCaptureSession)
		r.Post("/{id}/messages", h.enqueueCaptureMessage)
		r.Post("/{id}/complete", h.completeCaptureSession)
	})

	r.Get("/ws/notifications", h.notificationsWS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
