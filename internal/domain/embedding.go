package domain

import (
	"context"
	"math"
)

// EmbeddingDim is the fixed dimensionality of profile and query vectors.
// A stored vector of any other length is treated as no embedding.
const EmbeddingDim = 1536

// Embedder is the text vectorization contract. A nil Embedder at the
// composition root is the canonical "no provider configured" signal and
// switches the semantic matcher into text-fallback mode.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the vector and token usage from a provider call.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Returns 0 when either vector is missing, the dimensions mismatch, or
// either norm is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
