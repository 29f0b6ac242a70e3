package agentctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEntityNameTrimsAndLowercases(t *testing.T) {
	assert.Equal(t, "postgresql", normalizeEntityName("  PostgreSQL  "))
}
