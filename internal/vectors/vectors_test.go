package vectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarityOrthogonalVectorsIsZero(t *testing.T) {
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestCosineSimilarityZeroVectorIsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1, 1}))
}

func TestWeightedAverageWeightsDominantFieldMoreHeavily(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	out := WeightedAverage([][]float32{a, b}, []float64{1.5, 0.5})
	assert.Greater(t, out[0], out[1])
}

func TestWeightedAverageIsL2Normalized(t *testing.T) {
	out := WeightedAverage([][]float32{{3, 4}}, []float64{1.0})
	var norm float64
	for _, x := range out {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, norm, 1e-6)
}

func TestWeightedAverageEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, WeightedAverage(nil, nil))
}
