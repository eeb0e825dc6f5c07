// Package vector provides the small amount of vector arithmetic the
// similarity index needs: cosine similarity over float32 embeddings.
package vector

import "math"

// Cosine returns the cosine similarity between a and b, in [-1, 1].
// Mismatched dimensions or a zero vector yield 0, which callers treat as
// "no similarity" rather than an error: a corrupt stored embedding must
// not abort a similarity query.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
