package clausegraph

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/clausegraph/core/pipeline"
	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contractChunks = []string{
	"Payment shall be made under Clause 14.7 within 56 days.",
	"The payment certificate is issued after each milestone.",
	"The warranty period runs for two years after taking over.",
	"Warranty claims must be notified in writing.",
	"The contract is governed by the laws of England.",
}

// testEmbedder maps every known text to a fixed direction so clustering and
// retrieval are fully deterministic
func testEmbedder() pipeline.EmbedFunc {
	vectors := map[string][]float32{
		contractChunks[0]:      {1, 0, 0},
		contractChunks[1]:      {0.99, 0.14, 0},
		contractChunks[2]:      {0.1, 1, 0},
		contractChunks[3]:      {0.14, 0.99, 0},
		contractChunks[4]:      {0, 0, 1},
		"When is payment due?": {1, 0, 0},
	}
	return func(text string) ([]float32, error) {
		vector, ok := vectors[text]
		if !ok {
			return nil, fmt.Errorf("unknown text: %s", text)
		}
		return vector, nil
	}
}

func testLabeler() pipeline.LabelFunc {
	return func(prompt string) (string, error) {
		if strings.Contains(prompt, "warranty") || strings.Contains(prompt, "Warranty") {
			return "Warranty Obligations", nil
		}
		return "Payment Terms", nil
	}
}

func testGenerator() pipeline.GenerateFunc {
	return func(prompt string) (string, error) {
		return `[{"name": "Final Payment", "description": "payment is due", "clause_reference": "Clause 14.7", "deadline": "56 days"}]`, nil
	}
}

func initClauseGraph(t *testing.T) *ClauseGraph {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	g, err := NewClauseGraph(dbConfig, 3)
	require.NoError(t, err, "failed to create clausegraph")
	require.NotNil(t, g)

	g.SetCollaborators(testEmbedder(), testLabeler(), testGenerator())

	t.Cleanup(func() {
		g.Close()
	})

	return g
}

func TestNewClauseGraph(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewClauseGraph", func(t *testing.T) {
		g, err := NewClauseGraph(dbConfig, 3)
		require.NoError(t, err, "Expected NewClauseGraph to not return an error")
		require.NotNil(t, g, "Expected NewClauseGraph to return a non-nil instance")
		assert.NotNil(t, g.DB, "Expected clausegraph to have a database instance")
		assert.NotNil(t, g.Chunks, "Expected clausegraph to have a chunks handler")
		assert.NotNil(t, g.Groups, "Expected clausegraph to have a groups handler")
		assert.NotNil(t, g.MetaLabels, "Expected clausegraph to have a meta labels handler")
		assert.NotNil(t, g.Relations, "Expected clausegraph to have a relations handler")
		assert.Nil(t, g.Engine, "Expected the retrieval engine to be unset initially")

		err = g.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("ClauseGraph with nil database handles Close gracefully", func(t *testing.T) {
		g := &ClauseGraph{}
		assert.NoError(t, g.Close())
	})
}

func TestBuildGraph(t *testing.T) {
	g := initClauseGraph(t)

	artifacts, err := g.BuildGraph(contractChunks, nil)
	require.NoError(t, err)
	require.NotNil(t, artifacts)

	t.Run("Partition carries generated group names", func(t *testing.T) {
		require.Len(t, artifacts.Partition.Groups, 3)
		assert.Equal(t, "Payment Terms", artifacts.Partition.Groups[0].Name)
		assert.Equal(t, []int{0, 1}, artifacts.Partition.Groups[0].MemberIDs)
		assert.Equal(t, "Warranty Obligations", artifacts.Partition.Groups[1].Name)
		assert.Equal(t, "group_loneliner_4", artifacts.Partition.Groups[2].Name)
	})

	t.Run("Meta labels tag chunks with their groups", func(t *testing.T) {
		require.Len(t, artifacts.MetaIndex, 5)
		assert.Equal(t, []string{"Payment Terms"}, artifacts.MetaIndex[0].GroupsRelated)
		assert.Equal(t, []string{"Warranty Obligations"}, artifacts.MetaIndex[2].GroupsRelated)
		assert.Equal(t, []string{model.SentinelGroup}, artifacts.MetaIndex[4].GroupsRelated)
	})

	t.Run("Dissimilar groups produce no relations", func(t *testing.T) {
		assert.Equal(t, 0, artifacts.Relations.Count())
	})

	t.Run("Knowledge graph holds one node per group tag", func(t *testing.T) {
		require.Len(t, artifacts.Graph.Nodes, 3)
		assert.Contains(t, artifacts.Graph.Nodes, "Payment Terms")
		assert.Contains(t, artifacts.Graph.Nodes, "Warranty Obligations")
		assert.Contains(t, artifacts.Graph.Nodes, model.SentinelGroup)
		assert.True(t, artifacts.Graph.Nodes[model.SentinelGroup].Outlier)
	})

	t.Run("Artifacts are persisted under the corpus RID", func(t *testing.T) {
		chunks, err := g.Chunks.SelectChunks(artifacts.CorpusRID)
		require.NoError(t, err)
		assert.Len(t, chunks, 5)

		partition, err := g.Groups.SelectPartition(artifacts.CorpusRID)
		require.NoError(t, err)
		assert.Len(t, partition.Groups, 3)
	})

	t.Run("Search over the built engine", func(t *testing.T) {
		results, err := g.Search("When is payment due?", model.DefaultQueryConfig())
		require.NoError(t, err)

		ids := make([]int, 0, len(results))
		for _, r := range results {
			ids = append(ids, r.ChunkID)
		}
		assert.Equal(t, []int{0, 1, 4}, ids, "Expected the payment group plus the forced outlier")
	})

	t.Run("Ask returns verified events", func(t *testing.T) {
		events, err := g.Ask("When is payment due?", "2026-03-01", model.DefaultQueryConfig(), model.DefaultVerifyConfig())
		require.NoError(t, err)
		require.Len(t, events, 1)

		event := events[0]
		assert.Equal(t, "Final Payment", event.Name)
		require.NotEmpty(t, event.SourceCitations, "Expected the clause reference to be grounded")
		assert.Equal(t, 0, event.SourceCitations[0].ChunkID)
		assert.Contains(t, event.SourceCitations[0].MatchedFields, "clause_reference")
	})
}

func TestLoadEngine(t *testing.T) {
	g := initClauseGraph(t)

	built, err := g.BuildGraph(contractChunks, DefaultBuildConfig())
	require.NoError(t, err)

	// drop the in-memory engine to prove the reload path works on its own
	g.Engine = nil

	loaded, err := g.LoadEngine(built.CorpusRID)
	require.NoError(t, err)
	require.NotNil(t, g.Engine)

	t.Run("Reloaded artifacts match the built ones", func(t *testing.T) {
		assert.Equal(t, built.CorpusRID, loaded.CorpusRID)
		require.Len(t, loaded.Chunks, len(built.Chunks))
		assert.Equal(t, built.Chunks[0].Text, loaded.Chunks[0].Text)
		require.Len(t, loaded.Partition.Groups, len(built.Partition.Groups))
		assert.Equal(t, "Payment Terms", loaded.Partition.Groups[0].Name)
		assert.Equal(t, built.Relations.Count(), loaded.Relations.Count())
	})

	t.Run("Search over the reloaded engine", func(t *testing.T) {
		results, err := g.Search("When is payment due?", model.DefaultQueryConfig())
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, 0, results[0].ChunkID)
	})

	t.Run("Unknown corpus RID rejected", func(t *testing.T) {
		_, err := g.LoadEngine(uuid.New())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no chunks found")
	})
}

func TestBuildGraphValidation(t *testing.T) {
	g := initClauseGraph(t)

	t.Run("Empty buffer rejected", func(t *testing.T) {
		_, err := g.BuildGraph(nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "chunk buffer is empty")
	})

	t.Run("Missing embedder rejected", func(t *testing.T) {
		g.Embedder = nil
		defer func() { g.Embedder = testEmbedder() }()

		_, err := g.BuildGraph(contractChunks, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "embedder not set")
	})

	t.Run("Embedding failures abort the build", func(t *testing.T) {
		_, err := g.BuildGraph([]string{"text the embedder does not know"}, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to embed")
	})
}

func TestSearchValidation(t *testing.T) {
	g := initClauseGraph(t)

	t.Run("Search before build rejected", func(t *testing.T) {
		_, err := g.Search("When is payment due?", model.DefaultQueryConfig())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "retrieval engine not initialized")
	})
}
