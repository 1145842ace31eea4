package cluster

import (
	"testing"

	"github.com/siherrmann/clausegraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRows(t *testing.T) {
	t.Run("Rows scaled to unit length", func(t *testing.T) {
		chunks := []*model.Chunk{
			{ID: 0, Embedding: []float32{3, 4}},
			{ID: 1, Embedding: []float32{0, 2}},
		}

		normalized := NormalizeRows(chunks)

		assert.InDelta(t, 0.6, normalized.At(0, 0), 1e-9)
		assert.InDelta(t, 0.8, normalized.At(0, 1), 1e-9)
		assert.InDelta(t, 0.0, normalized.At(1, 0), 1e-9)
		assert.InDelta(t, 1.0, normalized.At(1, 1), 1e-9)
	})

	t.Run("Zero row left untouched", func(t *testing.T) {
		chunks := []*model.Chunk{
			{ID: 0, Embedding: []float32{0, 0}},
		}

		normalized := NormalizeRows(chunks)

		assert.Equal(t, 0.0, normalized.At(0, 0))
		assert.Equal(t, 0.0, normalized.At(0, 1))
	})
}

func TestCosineDistances(t *testing.T) {
	chunks := []*model.Chunk{
		{ID: 0, Embedding: []float32{1, 0, 0}},
		{ID: 1, Embedding: []float32{1, 0, 0}},
		{ID: 2, Embedding: []float32{0, 1, 0}},
	}

	dist, err := CosineDistances(NormalizeRows(chunks))
	require.NoError(t, err)

	t.Run("Diagonal is exactly zero", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, 0.0, dist.At(i, i))
		}
	})

	t.Run("Identical directions have distance zero", func(t *testing.T) {
		assert.InDelta(t, 0.0, dist.At(0, 1), 1e-9)
	})

	t.Run("Orthogonal directions have distance one", func(t *testing.T) {
		assert.InDelta(t, 1.0, dist.At(0, 2), 1e-9)
		assert.InDelta(t, 1.0, dist.At(2, 0), 1e-9)
	})

	t.Run("Matrix is symmetric", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				assert.InDelta(t, dist.At(i, j), dist.At(j, i), 1e-12)
			}
		}
	})
}

func TestDistancePairs(t *testing.T) {
	t.Run("All unordered pairs reported", func(t *testing.T) {
		chunks := []*model.Chunk{
			{ID: 0, Text: "a", Embedding: []float32{1, 0}},
			{ID: 1, Text: "b", Embedding: []float32{1, 0}},
			{ID: 2, Text: "c", Embedding: []float32{0, 1}},
		}

		pairs, err := DistancePairs(chunks)
		require.NoError(t, err)
		require.Len(t, pairs, 3)

		assert.Equal(t, [2]string{"a", "b"}, pairs[0].TextPair)
		assert.Equal(t, 0.0, pairs[0].Distance)
		assert.Equal(t, [2]string{"a", "c"}, pairs[1].TextPair)
		assert.Equal(t, 1.0, pairs[1].Distance)
		assert.Equal(t, [2]string{"b", "c"}, pairs[2].TextPair)
		assert.Equal(t, 1.0, pairs[2].Distance)
	})

	t.Run("Invalid chunks rejected", func(t *testing.T) {
		_, err := DistancePairs(nil)
		assert.Error(t, err)

		_, err = DistancePairs([]*model.Chunk{
			{ID: 0, Embedding: []float32{1, 0}},
			{ID: 1, Embedding: []float32{1}},
		})
		assert.Error(t, err)
	})
}
