package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/continuum-dev/continuum/internal/model"
)

func TestUserContextDefaultsToAnonymousWithoutHeader(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	UserContext(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, model.AnonymousUserID, got)
}

func TestUserContextReadsHeader(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, "user-42")
	UserContext(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "user-42", got)
}

func TestUserIDFromContextWithoutMiddlewareDefaultsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, model.AnonymousUserID, UserIDFromContext(req.Context()))
}
