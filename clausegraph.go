package clausegraph

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/clausegraph/core/cluster"
	"github.com/siherrmann/clausegraph/core/graph"
	"github.com/siherrmann/clausegraph/core/pipeline"
	"github.com/siherrmann/clausegraph/core/retrieval"
	"github.com/siherrmann/clausegraph/core/verify"
	"github.com/siherrmann/clausegraph/database"
	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
	loadSql "github.com/siherrmann/clausegraph/sql"
)

// BuildConfig bundles the per-stage configuration of one build run
type BuildConfig struct {
	Cluster  model.ClusterConfig
	Label    model.LabelConfig
	Relation model.RelationConfig
}

// DefaultBuildConfig returns the default configuration for all build stages
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		Cluster:  model.DefaultClusterConfig(),
		Label:    model.DefaultLabelConfig(),
		Relation: model.DefaultRelationConfig(),
	}
}

// Artifacts holds everything one build run produces.
// CorpusRID keys the persisted copies of all four artifact tables.
type Artifacts struct {
	CorpusRID uuid.UUID
	Chunks    []*model.Chunk
	Partition *model.Partition
	MetaIndex model.MetaIndex
	Relations model.RelationMap
	Graph     *model.KnowledgeGraph
}

// ClauseGraph provides a unified interface to all database handlers
// and the clustering, labeling, relation and retrieval stages
type ClauseGraph struct {
	DB         *helper.Database
	Chunks     *database.ChunksDBHandler
	Groups     *database.GroupsDBHandler
	MetaLabels *database.MetaLabelsDBHandler
	Relations  *database.RelationsDBHandler
	Engine     *retrieval.Engine // Retrieval engine, set by BuildGraph or LoadEngine
	// Collaborators
	Embedder  pipeline.EmbedFunc
	Labeler   pipeline.LabelFunc
	Generator pipeline.GenerateFunc
	// Logging
	log *slog.Logger
}

// NewClauseGraph creates a new ClauseGraph instance with all handlers initialized
func NewClauseGraph(config *helper.DatabaseConfiguration, embeddingDim int) (*ClauseGraph, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("clausegraph", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers, force=false to keep existing tables
	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	groups, err := database.NewGroupsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create groups handler", err)
	}

	metaLabels, err := database.NewMetaLabelsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create meta labels handler", err)
	}

	relations, err := database.NewRelationsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create relations handler", err)
	}

	return &ClauseGraph{
		DB:         db,
		Chunks:     chunks,
		Groups:     groups,
		MetaLabels: metaLabels,
		Relations:  relations,
		log:        logger,
	}, nil
}

// Close closes the database connection
func (g *ClauseGraph) Close() error {
	if g.DB != nil && g.DB.Instance != nil {
		return g.DB.Instance.Close()
	}
	return nil
}

// SetCollaborators sets the embedding, labeling and generation functions.
// Labeler is used for both group titling and relation phrasing.
func (g *ClauseGraph) SetCollaborators(embed pipeline.EmbedFunc, label pipeline.LabelFunc, generate pipeline.GenerateFunc) {
	g.Embedder = embed
	g.Labeler = label
	g.Generator = generate
}

// UseDefaultEmbedder sets up the default local embedding model.
// This uses the all-MiniLM-L6-v2 model (384 dimensions).
func (g *ClauseGraph) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	g.Embedder = embedder
	return nil
}

// BuildGraph runs the full build over a chunk buffer:
// 1. Embedding every chunk
// 2. Clustering chunks into semantic groups
// 3. Naming multi-member groups and tagging chunks with meta labels
// 4. Inferring directed relations between similar groups
// 5. Assembling the knowledge graph
// All artifacts are persisted under a fresh corpus RID and the retrieval
// engine is set up over the in-memory copies.
func (g *ClauseGraph) BuildGraph(buffer []string, config *BuildConfig) (*Artifacts, error) {
	if g.Embedder == nil {
		return nil, helper.NewError("build graph", fmt.Errorf("embedder not set, use SetCollaborators() first"))
	}
	if g.Labeler == nil {
		return nil, helper.NewError("build graph", fmt.Errorf("labeler not set, use SetCollaborators() first"))
	}
	if len(buffer) == 0 {
		return nil, helper.NewError("build graph", fmt.Errorf("chunk buffer is empty"))
	}
	if config == nil {
		config = DefaultBuildConfig()
	}

	// Embed all chunks
	chunks, failures := pipeline.EmbedChunks(buffer, g.Embedder, config.Label.MaxWorkers)
	if len(failures) > 0 {
		return nil, helper.NewError("embed chunks", fmt.Errorf("%d of %d chunks failed to embed", len(failures), len(buffer)))
	}

	g.log.Info("Embedded chunks", slog.Int("num_chunks", len(chunks)))

	// Cluster into semantic groups
	clusterer := cluster.NewEngine(g.log)
	partition, err := clusterer.Partition(chunks, config.Cluster)
	if err != nil {
		return nil, helper.NewError("cluster chunks", err)
	}

	// Name multi-member groups and apply the generated names
	labeler := pipeline.NewLabeler(g.Labeler, config.Label, g.log)
	labels, err := labeler.NameGroups(partition, chunks)
	if err != nil {
		return nil, helper.NewError("name groups", err)
	}
	partition.Rename(labels)

	// Tag every chunk with its related groups
	index, err := pipeline.BuildMetaLabels(chunks, partition)
	if err != nil {
		return nil, helper.NewError("build meta labels", err)
	}

	// Infer directed relations between similar groups
	relationEngine := pipeline.NewRelationEngine(g.Labeler, config.Relation, g.log)
	relations, err := relationEngine.Infer(index, chunks)
	if err != nil {
		return nil, helper.NewError("infer relations", err)
	}

	// Assemble the knowledge graph
	knowledgeGraph := graph.Build(relations, index)

	g.log.Info("Assembled knowledge graph",
		slog.Int("num_nodes", len(knowledgeGraph.Nodes)),
		slog.Int("num_edges", len(knowledgeGraph.Edges)),
	)

	// Persist all artifacts under one corpus RID
	corpusRID := uuid.New()
	if err := g.Chunks.InsertChunks(corpusRID, chunks); err != nil {
		return nil, helper.NewError("persist chunks", err)
	}
	if err := g.Groups.InsertPartition(corpusRID, partition); err != nil {
		return nil, helper.NewError("persist partition", err)
	}
	if err := g.MetaLabels.InsertMetaIndex(corpusRID, index); err != nil {
		return nil, helper.NewError("persist meta labels", err)
	}
	if err := g.Relations.InsertRelations(corpusRID, relations); err != nil {
		return nil, helper.NewError("persist relations", err)
	}

	g.log.Info("Persisted build artifacts", slog.String("corpus_rid", corpusRID.String()))

	g.Engine = retrieval.NewEngine(chunks, partition, index, relations)

	return &Artifacts{
		CorpusRID: corpusRID,
		Chunks:    chunks,
		Partition: partition,
		MetaIndex: index,
		Relations: relations,
		Graph:     knowledgeGraph,
	}, nil
}

// LoadEngine reloads the persisted artifacts of a previous build run
// and sets up the retrieval engine over them
func (g *ClauseGraph) LoadEngine(corpusRID uuid.UUID) (*Artifacts, error) {
	chunks, err := g.Chunks.SelectChunks(corpusRID)
	if err != nil {
		return nil, helper.NewError("load chunks", err)
	}
	if len(chunks) == 0 {
		return nil, helper.NewError("load chunks", fmt.Errorf("no chunks found for corpus %s", corpusRID.String()))
	}

	partition, err := g.Groups.SelectPartition(corpusRID)
	if err != nil {
		return nil, helper.NewError("load partition", err)
	}

	index, err := g.MetaLabels.SelectMetaIndex(corpusRID)
	if err != nil {
		return nil, helper.NewError("load meta labels", err)
	}

	relations, err := g.Relations.SelectRelations(corpusRID)
	if err != nil {
		return nil, helper.NewError("load relations", err)
	}

	g.log.Info("Loaded build artifacts",
		slog.String("corpus_rid", corpusRID.String()),
		slog.Int("num_chunks", len(chunks)),
		slog.Int("num_groups", len(partition.Groups)),
	)

	g.Engine = retrieval.NewEngine(chunks, partition, index, relations)

	return &Artifacts{
		CorpusRID: corpusRID,
		Chunks:    chunks,
		Partition: partition,
		MetaIndex: index,
		Relations: relations,
		Graph:     graph.Build(relations, index),
	}, nil
}

// Search performs hybrid retrieval for a natural language query
func (g *ClauseGraph) Search(query string, config model.QueryConfig) ([]*model.RetrievalResult, error) {
	if g.Engine == nil {
		return nil, helper.NewError("search", fmt.Errorf("retrieval engine not initialized, use BuildGraph() or LoadEngine() first"))
	}
	if g.Embedder == nil {
		return nil, helper.NewError("search", fmt.Errorf("embedder not set, use SetCollaborators() first"))
	}

	// Generate embedding from query
	embedding, err := g.Embedder(query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return g.Engine.Retrieve(embedding, config)
}

// Ask answers a query end to end: hybrid retrieval, event generation and
// citation verification. noticeDate may be empty when no notice date applies.
func (g *ClauseGraph) Ask(query string, noticeDate string, queryConfig model.QueryConfig, verifyConfig model.VerifyConfig) ([]*model.Event, error) {
	if g.Generator == nil {
		return nil, helper.NewError("ask", fmt.Errorf("generator not set, use SetCollaborators() first"))
	}

	results, err := g.Search(query, queryConfig)
	if err != nil {
		return nil, helper.NewError("retrieve context", err)
	}

	events, err := pipeline.GenerateEvents(g.Generator, query, results, noticeDate)
	if err != nil {
		return nil, helper.NewError("generate events", err)
	}

	verified := verify.VerifyEvents(events, results, verifyConfig.TopK)

	g.log.Info("Answered query",
		slog.Int("num_context_chunks", len(results)),
		slog.Int("num_events", len(verified)),
	)

	return verified, nil
}
