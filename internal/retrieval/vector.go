package retrieval

import (
	"encoding/binary"
	"math"
)

// Embedding blobs are little-endian float32 arrays, 4 bytes per dimension.
// The corpus writer and the query path must agree on this layout; rows whose
// dimensionality differs from the query are skipped during scoring.

// EncodeVector serializes a float32 vector into its storage blob.
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector deserializes a storage blob into a float32 vector. Trailing
// bytes that do not form a full float32 are ignored.
func DecodeVector(blob []byte) []float32 {
	n := len(blob) / 4
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}

// Cosine computes cosine similarity between two equal-length vectors.
// It returns 0, not NaN, when either vector has zero norm.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
