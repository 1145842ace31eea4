package model

// SelectionMethod chooses how clusters are picked from the cluster hierarchy
type SelectionMethod string

const (
	// SelectionEOM picks the most stable clusters (excess of mass)
	SelectionEOM SelectionMethod = "eom"
	// SelectionLeaf picks the leaf clusters of the condensed hierarchy
	SelectionLeaf SelectionMethod = "leaf"
)

// ClusterConfig holds the parameters of the clustering engine
type ClusterConfig struct {
	MinClusterSize   int             `json:"min_cluster_size"`
	MinSamples       int             `json:"min_samples"`
	SelectionEpsilon float64         `json:"cluster_selection_epsilon"`
	SelectionMethod  SelectionMethod `json:"cluster_selection_method"`
}

// DefaultClusterConfig returns the parameters tuned for contract paragraphs
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		MinClusterSize:   2,
		MinSamples:       1,
		SelectionEpsilon: 0.0,
		SelectionMethod:  SelectionEOM,
	}
}

// LabelConfig holds the parameters of the group labeler
type LabelConfig struct {
	MaxWorkers         int `json:"max_workers"`
	MaxChunksPerPrompt int `json:"max_chunks_per_prompt"`
}

// DefaultLabelConfig returns sensible labeling defaults
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		MaxWorkers:         10,
		MaxChunksPerPrompt: 5,
	}
}

// RelationConfig holds the parameters of the relation engine
type RelationConfig struct {
	SimilarityThreshold float64 `json:"similarity_threshold"`
	TopKRepresentatives int     `json:"top_k_representatives"`
	MaxWorkers          int     `json:"max_workers"`
}

// DefaultRelationConfig returns sensible relation discovery defaults
func DefaultRelationConfig() RelationConfig {
	return RelationConfig{
		SimilarityThreshold: 0.75,
		TopKRepresentatives: 2,
		MaxWorkers:          10,
	}
}

// QueryConfig holds the parameters of one hybrid retrieval call
type QueryConfig struct {
	TopK             int     `json:"top_k"`
	SimThreshold     float64 `json:"sim_threshold"`
	ForceOutliers    int     `json:"force_outliers"`
	IncludeNeighbors bool    `json:"include_neighbors"`
}

// DefaultQueryConfig returns sensible retrieval defaults
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:             5,
		SimThreshold:     0.5,
		ForceOutliers:    3,
		IncludeNeighbors: true,
	}
}

// VerifyConfig holds the parameters of the citation verifier
type VerifyConfig struct {
	TopK int `json:"top_k"`
}

// DefaultVerifyConfig returns sensible verification defaults
func DefaultVerifyConfig() VerifyConfig {
	return VerifyConfig{TopK: 3}
}
