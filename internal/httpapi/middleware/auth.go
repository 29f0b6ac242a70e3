// Package middleware holds the chi middleware Continuum's HTTP surface
// mounts before its route handlers: the tenancy context. The JSON error
// shape is written by httpapi's writeError, not here. Bearer-token validation itself is
// an external collaborator (spec.md section 6) — this package only
// reads whatever user id that collaborator already put on the request.
// Tenancy is carried via internal/reqctx rather than a package-private
// context key, so the request id chi's middleware assigns and the user
// id this package reads land in the same Values a handler or background
// call can log from in one place.
package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/continuum-dev/continuum/internal/model"
	"github.com/continuum-dev/continuum/internal/reqctx"
)

// UserIDHeader is the header the external auth middleware is expected
// to set once it has validated a bearer token, per spec.md section 6's
// "core receives a user_id from the request context".
const UserIDHeader = "X-User-Id"

// UserContext extracts the caller's user id from UserIDHeader, defaulting
// to model.AnonymousUserID when absent, and stores it alongside chi's
// request id in a reqctx.Values so handlers reach both through
// UserIDFromContext/reqctx.From.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			userID = model.AnonymousUserID
		}
		values := reqctx.Values{
			RequestID: chimw.GetReqID(r.Context()),
			UserID:    userID,
		}
		next.ServeHTTP(w, r.WithContext(reqctx.With(r.Context(), values)))
	})
}

// UserIDFromContext returns the request's tenant id, or
// model.AnonymousUserID if UserContext never ran.
func UserIDFromContext(ctx context.Context) string {
	return reqctx.UserID(ctx)
}
