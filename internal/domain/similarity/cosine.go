// Package similarity scores pairs of embedding vectors.
package similarity

import (
	"math"

	"github.com/kailas-cloud/propmatch/internal/domain"
)

// Precision bounds for Round.
const (
	DefaultPrecision = 3
	MinPrecision     = 3
	MaxPrecision     = 4
)

// Cosine returns dot(a,b) / (|a| * |b|).
// Vectors of different length yield a *domain.DimensionMismatchError.
// A zero-magnitude vector (including empty vectors) yields 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}
	s := dot / (math.Sqrt(na2) * math.Sqrt(nb2))
	// float error can push parallel vectors slightly outside [-1, 1]
	return math.Max(-1, math.Min(1, s)), nil
}

// Round rounds score to the given number of decimal digits.
// Exact ties go to the even neighbour, so 0.0625 becomes 0.062 at three digits.
func Round(score float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.RoundToEven(score*p) / p
}
