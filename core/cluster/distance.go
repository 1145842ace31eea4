package cluster

import (
	"fmt"
	"math"

	"github.com/siherrmann/clausegraph/model"
	"gonum.org/v1/gonum/mat"
)

// NormalizeRows converts the chunk embeddings to a float64 matrix with every
// row scaled to unit length. Zero rows are left untouched.
func NormalizeRows(chunks []*model.Chunk) *mat.Dense {
	n := len(chunks)
	dim := len(chunks[0].Embedding)

	normalized := mat.NewDense(n, dim, nil)
	for i, chunk := range chunks {
		var norm float64
		for _, v := range chunk.Embedding {
			norm += float64(v) * float64(v)
		}
		norm = math.Sqrt(norm)

		for j, v := range chunk.Embedding {
			if norm > 0 {
				normalized.Set(i, j, float64(v)/norm)
			} else {
				normalized.Set(i, j, float64(v))
			}
		}
	}
	return normalized
}

// CosineDistances computes the pairwise cosine distance matrix 1 - X * Xᵀ for
// unit-normalized rows. The diagonal is forced to exactly 0 and negative
// entries from floating point noise are clamped to 0.
func CosineDistances(normalized *mat.Dense) (*mat.Dense, error) {
	n, _ := normalized.Dims()

	var sim mat.Dense
	sim.Mul(normalized, normalized.T())

	dist := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				dist.Set(i, j, 0)
				continue
			}
			d := 1 - sim.At(i, j)
			if math.IsNaN(d) || math.IsInf(d, 0) {
				return nil, fmt.Errorf("distance between chunks %d and %d is not finite", i, j)
			}
			if d < 0 {
				d = 0
			}
			dist.Set(i, j, d)
		}
	}
	return dist, nil
}

// DistancePair reports the cosine distance between one unordered pair of chunks
type DistancePair struct {
	TextPair [2]string `json:"text_pair"`
	Distance float64   `json:"distance"`
}

// DistancePairs builds the pairwise distance report over all unordered chunk
// pairs, with distances rounded to five decimals.
func DistancePairs(chunks []*model.Chunk) ([]*DistancePair, error) {
	if err := model.CheckChunks(chunks); err != nil {
		return nil, err
	}

	normalized := NormalizeRows(chunks)
	dist, err := CosineDistances(normalized)
	if err != nil {
		return nil, err
	}

	n := len(chunks)
	pairs := make([]*DistancePair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, &DistancePair{
				TextPair: [2]string{chunks[i].Text, chunks[j].Text},
				Distance: math.Round(dist.At(i, j)*1e5) / 1e5,
			})
		}
	}
	return pairs, nil
}
