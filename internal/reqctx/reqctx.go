// Package reqctx threads request-scoped identifiers through call chains
// via an explicit context value, replacing the source implementation's
// ContextVar-based request context (spec.md section 9 design note).
package reqctx

import (
	"context"

	"github.com/continuum-dev/continuum/internal/logging"
)

type key int

const valuesKey key = 0

// AnonymousUser is the literal user id spec.md section 6 assigns to
// unauthenticated requests.
const AnonymousUser = "anonymous"

// Values holds the identifiers carried on every request.
type Values struct {
	RequestID string
	UserID    string
	TraceID   string
}

// With returns a context carrying v, readable later via From.
func With(ctx context.Context, v Values) context.Context {
	return context.WithValue(ctx, valuesKey, v)
}

// From extracts the request values, defaulting UserID to anonymous and
// leaving RequestID/TraceID empty if none were set.
func From(ctx context.Context) Values {
	if v, ok := ctx.Value(valuesKey).(Values); ok {
		return v
	}
	return Values{UserID: AnonymousUser}
}

// UserID is a shorthand for From(ctx).UserID.
func UserID(ctx context.Context) string {
	return From(ctx).UserID
}

// Logger returns a logger pre-populated with the request's identifiers,
// so call sites never have to repeat request_id/user_id/trace_id.
func Logger(ctx context.Context) *logging.Logger {
	v := From(ctx)
	l := logging.With("request_id", v.RequestID, "user_id", v.UserID, "trace_id", v.TraceID)
	if l == nil {
		// No global logger initialized (e.g. in unit tests); fall back to
		// a throwaway debug logger rather than returning nil.
		l, _ = logging.New(logging.DefaultConfig(true))
	}
	return l
}
