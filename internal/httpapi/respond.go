package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/continuum-dev/continuum/internal/errors"
	"github.com/continuum-dev/continuum/internal/logging"
)

// errorBody is the wire shape spec.md section 6 mandates for every
// non-2xx response: `{error, message, details?, request_id?, timestamp, path?}`.
type errorBody struct {
	Error     string         `json:"error"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp"`
	Path      string         `json:"path,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("httpapi: encode response", "error", err)
	}
}

// writeError maps err to spec.md section 7's error taxonomy and writes
// the shared error-body shape, logging anything that reaches the
// internal/storage/upstream tiers since those indicate a bug or a
// collaborator outage rather than caller error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := errors.As(err)
	if !ok {
		e = errors.Internal(err.Error())
	}

	if e.Kind == errors.KindInternal || e.Kind == errors.KindStorage || e.Kind == errors.KindUpstream {
		logging.Error("httpapi: request failed", "kind", e.Kind.String(), "error", e.Error(), "path", r.URL.Path)
	}

	if e.RetryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfterSeconds))
	}

	writeJSON(w, e.Kind.StatusCode(), errorBody{
		Error:     e.Kind.String(),
		Message:   e.Message,
		Details:   e.Details,
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.Validation("httpapi: empty request body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, errors.KindValidation, "httpapi: malformed JSON body")
	}
	return nil
}
