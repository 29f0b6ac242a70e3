// Package vectors implements the small set of embedding-vector math
// shared by the embedder and the relationship analyzer: cosine
// similarity and weighted composition (spec.md sections 4.4, 4.5).
package vectors

import "math"

// CosineSimilarity returns the cosine similarity of a and b, or 0 if
// either is empty or a zero vector. Vectors of mismatched length
// compare over their shared prefix, which in practice never happens
// since embedding dimension is fixed per deployment.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// WeightedAverage combines vectors by weight and L2-normalizes the
// result, the composition spec.md section 4.4 describes for a
// decision's weighted embedding (title/decision/rationale/context/
// trigger, each field embedded independently then blended).
func WeightedAverage(vectors [][]float32, weights []float64) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) > dim {
			dim = len(v)
		}
	}

	sum := make([]float64, dim)
	var totalWeight float64
	for i, v := range vectors {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		if w == 0 {
			continue
		}
		totalWeight += w
		for j, x := range v {
			sum[j] += float64(x) * w
		}
	}
	if totalWeight == 0 {
		return nil
	}

	out := make([]float32, dim)
	var norm float64
	for j := range sum {
		sum[j] /= totalWeight
		norm += sum[j] * sum[j]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return out
	}
	for j := range sum {
		out[j] = float32(sum[j] / norm)
	}
	return out
}
