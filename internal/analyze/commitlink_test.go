package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaccardFullOverlapIsOne(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard([]string{"a.go", "b.go"}, []string{"a.go", "b.go"}))
}

func TestJaccardNoOverlapIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard([]string{"a.go"}, []string{"b.go"}))
}

func TestJaccardPartialOverlap(t *testing.T) {
	score := Jaccard([]string{"a.go", "b.go"}, []string{"b.go", "c.go"})
	assert.InDelta(t, 1.0/3, score, 1e-9)
}

func TestJaccardBothEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard(nil, nil))
}
