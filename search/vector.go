package search

import (
	"fmt"
	"math"

	"github.com/poiesic/ledgermatch/core"
)

const cosineEpsilon = 1e-10

// Cosine returns the cosine similarity of a and b.
// The epsilon keeps zero vectors from dividing by zero; their similarity is 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", core.ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + cosineEpsilon), nil
}

// Score maps a cosine similarity from [-1, 1] onto [0, 1].
func Score(cos float64) float64 {
	return (cos + 1) / 2
}
