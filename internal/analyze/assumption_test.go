package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContradictedDetectsNegationPhraseNearKeyword(t *testing.T) {
	ok, confidence := Contradicted("relies on the legacy billing service", "the legacy billing service was deprecated last quarter")
	assert.True(t, ok)
	assert.Equal(t, 0.75, confidence)
}

func TestContradictedDetectsAntonymPair(t *testing.T) {
	ok, confidence := Contradicted("the system is a monolith", "we split everything into microservices")
	assert.True(t, ok)
	assert.Equal(t, 0.80, confidence)
}

func TestContradictedDetectsTenXScaleGrowth(t *testing.T) {
	ok, confidence := Contradicted("handles under 100 req/s", "now sustaining 5000 req/s in production")
	assert.True(t, ok)
	assert.Equal(t, 0.70, confidence)
}

func TestContradictedFalseForUnrelatedText(t *testing.T) {
	ok, confidence := Contradicted("uses PostgreSQL for persistence", "added a new onboarding flow")
	assert.False(t, ok)
	assert.Equal(t, 0.0, confidence)
}
