package vector

import "github.com/hyperjump/clausegate/pkg/utils"

// InnerProduct returns the dot product of a and b, or 0 when their lengths differ.
// Embedders normalize their output, so this is the cosine similarity MemoryIndex ranks by.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// CosineSimilarity is InnerProduct of two normalized vectors bounded to [0, 1], the range
// the semantic channel reports as passage relevance.
func CosineSimilarity(a, b []float32) float64 {
	return utils.Clamp01(InnerProduct(a, b))
}
