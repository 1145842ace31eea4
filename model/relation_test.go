package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationMap(t *testing.T) {
	t.Run("Add and look up", func(t *testing.T) {
		relations := make(RelationMap)
		relations.Add("Warranty Obligations", "Termination Terms", "Contractual Dependency")

		label, err := relations.Relation("Warranty Obligations", "Termination Terms")
		require.NoError(t, err)
		assert.Equal(t, "Contractual Dependency", label)
	})

	t.Run("Edges are directed", func(t *testing.T) {
		relations := make(RelationMap)
		relations.Add("a", "b", "depends on")

		_, err := relations.Relation("b", "a")
		assert.ErrorIs(t, err, ErrUnknownRelation, "Expected the reverse direction to not exist")
	})

	t.Run("Unknown source", func(t *testing.T) {
		relations := make(RelationMap)
		_, err := relations.Relation("a", "b")
		assert.ErrorIs(t, err, ErrUnknownRelation)
	})

	t.Run("Outgoing is sorted", func(t *testing.T) {
		relations := make(RelationMap)
		relations.Add("a", "c", "x")
		relations.Add("a", "b", "y")

		assert.Equal(t, []string{"b", "c"}, relations.Outgoing("a"))
		assert.Empty(t, relations.Outgoing("b"))
	})

	t.Run("Count", func(t *testing.T) {
		relations := make(RelationMap)
		assert.Equal(t, 0, relations.Count())

		relations.Add("a", "b", "x")
		relations.Add("a", "c", "y")
		relations.Add("b", "c", "z")
		assert.Equal(t, 3, relations.Count())

		// overwriting an edge does not add
		relations.Add("a", "b", "updated")
		assert.Equal(t, 3, relations.Count())
	})
}
