// Package embedding turns curriculum text into fixed-dimension vectors for
// similarity retrieval. Vectors are hashed term-frequency bags: each stemmed
// term is hashed into a bucket with a sign drawn from a second hash, then the
// vector is L2-normalised. The construction is deterministic, so the same
// text always embeds to the same vector regardless of which service computes
// it.
package embedding

import (
	"hash/fnv"
	"math"
)

// DefaultDim is the embedding dimensionality used when config leaves it zero.
const DefaultDim = 256

// Embedder converts text into a dense vector.
type Embedder interface {
	Embed(text string) []float64
	Dim() int
}

// HashingEmbedder implements Embedder with the signed hashing trick over the
// tokenizer's stemmed terms.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates a HashingEmbedder of the given dimensionality.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &HashingEmbedder{dim: dim}
}

// Dim returns the vector dimensionality.
func (e *HashingEmbedder) Dim() int {
	return e.dim
}

// Embed maps text to an L2-normalised term-frequency vector. Text with no
// usable terms embeds to the zero vector.
func (e *HashingEmbedder) Embed(text string) []float64 {
	vec := make([]float64, e.dim)
	for _, term := range Terms(text) {
		bucket, sign := hashTerm(term, e.dim)
		vec[bucket] += sign
	}
	normalize(vec)
	return vec
}

// hashTerm maps a term to a bucket index and a +1/-1 sign. The sign hash
// keeps colliding terms from always reinforcing each other.
func hashTerm(term string, dim int) (int, float64) {
	h := fnv.New64a()
	h.Write([]byte(term))
	sum := h.Sum64()
	bucket := int(sum % uint64(dim))
	sign := 1.0
	if (sum>>32)&1 == 1 {
		sign = -1.0
	}
	return bucket, sign
}

func normalize(vec []float64) {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine returns the cosine similarity of two vectors, or 0 when either is
// zero-length, zero-valued, or the dimensions differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
