// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

// Package vector provides the similarity math used for face matching.
//
// # Overview
//
// Embeddings are fixed-length float32 vectors produced by the feature
// extractor. Matching ranks candidates by cosine similarity; scores are
// accumulated in float64 to keep 512-dimension sums stable.
package vector

import "math"

// Cosine returns the cosine similarity between a and b.
//
// # Contract
//
//   - Range is [-1, 1]; higher means more similar.
//   - If either vector has zero magnitude, the similarity is defined as 0.
//     A zero-norm embedding can therefore never clear a positive match
//     threshold, and there is no division by zero.
//   - Vectors of different lengths are incomparable and score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Clone returns an independent copy of the given embedding.
// Returns nil for a nil input so "no face registered" survives copying.
func Clone(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
