package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryIntParsesValidValue(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=42", nil)
	assert.Equal(t, 42, queryInt(r, "limit", 10))
}

func TestQueryIntFallsBackToDefaultWhenMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, 10, queryInt(r, "limit", 10))
}

func TestQueryIntFallsBackToDefaultWhenMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=not-a-number", nil)
	assert.Equal(t, 10, queryInt(r, "limit", 10))
}
