package graph

import (
	"testing"

	"github.com/siherrmann/clausegraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	t.Run("Nodes come from relations and chunk tags", func(t *testing.T) {
		relations := make(model.RelationMap)
		relations.Add("Payment Terms", "Delay Damages", "Contractual Dependency")

		index := model.MetaIndex{
			0: {ChunkID: 0, GroupsRelated: []string{"Payment Terms"}},
			1: {ChunkID: 1, GroupsRelated: []string{"Payment Terms"}},
			2: {ChunkID: 2, GroupsRelated: []string{"Delay Damages"}},
			3: {ChunkID: 3, GroupsRelated: []string{"Delay Damages"}},
			4: {ChunkID: 4, GroupsRelated: []string{model.SentinelGroup}},
		}

		kg := Build(relations, index)

		require.Len(t, kg.Nodes, 3)
		assert.Contains(t, kg.Nodes, "Payment Terms")
		assert.Contains(t, kg.Nodes, "Delay Damages")
		assert.Contains(t, kg.Nodes, model.SentinelGroup, "Expected the sentinel tag to appear as a node")

		assert.Equal(t, 2, kg.Nodes["Payment Terms"].Size)
		assert.False(t, kg.Nodes["Payment Terms"].Outlier)
		assert.Equal(t, 1, kg.Nodes[model.SentinelGroup].Size)
		assert.True(t, kg.Nodes[model.SentinelGroup].Outlier)
	})

	t.Run("Explicit relation edges keep direction and label", func(t *testing.T) {
		relations := make(model.RelationMap)
		relations.Add("a", "b", "depends on")

		index := model.MetaIndex{
			0: {ChunkID: 0, GroupsRelated: []string{"a"}},
			1: {ChunkID: 1, GroupsRelated: []string{"a"}},
			2: {ChunkID: 2, GroupsRelated: []string{"b"}},
			3: {ChunkID: 3, GroupsRelated: []string{"b"}},
		}

		kg := Build(relations, index)

		require.Len(t, kg.Edges, 1)
		edge := kg.Edges[0]
		assert.Equal(t, "a", edge.Source)
		assert.Equal(t, "b", edge.Target)
		assert.Equal(t, "depends on", edge.Label)
		assert.Equal(t, model.EdgeKindRelation, edge.Kind)
		assert.False(t, edge.Dashed)
	})

	t.Run("Outlier nodes get dashed part-of edges to co-tagged groups", func(t *testing.T) {
		index := model.MetaIndex{
			0: {ChunkID: 0, GroupsRelated: []string{"Payment Terms"}},
			1: {ChunkID: 1, GroupsRelated: []string{"Payment Terms"}},
			// chunk 2 is the only carrier of "Interim Certificates" but also
			// belongs to the payment group
			2: {ChunkID: 2, GroupsRelated: []string{"Interim Certificates", "Payment Terms"}},
		}

		kg := Build(make(model.RelationMap), index)

		require.Len(t, kg.Edges, 1)
		edge := kg.Edges[0]
		assert.Equal(t, "Interim Certificates", edge.Source)
		assert.Equal(t, "Payment Terms", edge.Target)
		assert.Equal(t, "part of", edge.Label)
		assert.Equal(t, model.EdgeKindPartOf, edge.Kind)
		assert.True(t, edge.Dashed)
	})

	t.Run("Part-of edges skip self references", func(t *testing.T) {
		index := model.MetaIndex{
			0: {ChunkID: 0, GroupsRelated: []string{"only group"}},
		}

		kg := Build(make(model.RelationMap), index)

		require.Len(t, kg.Nodes, 1)
		assert.True(t, kg.Nodes["only group"].Outlier)
		assert.Empty(t, kg.Edges, "Expected no edge from an outlier to itself")
	})

	t.Run("Relation-only groups have size zero and no part-of edges", func(t *testing.T) {
		relations := make(model.RelationMap)
		relations.Add("a", "phantom", "references")

		index := model.MetaIndex{
			0: {ChunkID: 0, GroupsRelated: []string{"a"}},
			1: {ChunkID: 1, GroupsRelated: []string{"a"}},
		}

		kg := Build(relations, index)

		require.Contains(t, kg.Nodes, "phantom")
		assert.Equal(t, 0, kg.Nodes["phantom"].Size)
		assert.False(t, kg.Nodes["phantom"].Outlier)
		require.Len(t, kg.Edges, 1)
		assert.Equal(t, model.EdgeKindRelation, kg.Edges[0].Kind)
	})

	t.Run("Empty inputs produce an empty graph", func(t *testing.T) {
		kg := Build(make(model.RelationMap), model.MetaIndex{})
		assert.Empty(t, kg.Nodes)
		assert.Empty(t, kg.Edges)
	})
}
