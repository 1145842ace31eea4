package model

import "fmt"

// EdgeKind distinguishes explicit relation edges from implicit membership edges
type EdgeKind string

const (
	// EdgeKindRelation is an explicit edge produced by the relation engine
	EdgeKindRelation EdgeKind = "relation"
	// EdgeKindPartOf is an implicit edge connecting an outlier group to the
	// groups co-occurring on its single source chunk
	EdgeKindPartOf EdgeKind = "part_of"
)

// GraphNode is one named group in the knowledge graph
type GraphNode struct {
	Name    string `json:"name"`
	Size    int    `json:"size"`
	Outlier bool   `json:"outlier"`
}

// GraphEdge is a directed, labeled edge between two graph nodes.
// Implicit part-of edges carry a dashed style to keep them visually and
// semantically apart from explicit relations.
type GraphEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Label  string   `json:"label"`
	Kind   EdgeKind `json:"kind"`
	Dashed bool     `json:"dashed"`
}

// KnowledgeGraph is a read-only projection of the relation map and the
// meta-label index. It holds no state that retrieval may mutate.
type KnowledgeGraph struct {
	Nodes map[string]*GraphNode `json:"nodes"`
	Edges []*GraphEdge          `json:"edges"`
}

// Node returns the node with the given group name
func (g *KnowledgeGraph) Node(name string) (*GraphNode, error) {
	node, ok := g.Nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, name)
	}
	return node, nil
}

// OutlierNodes returns all nodes flagged as outliers
func (g *KnowledgeGraph) OutlierNodes() []*GraphNode {
	var outliers []*GraphNode
	for _, node := range g.Nodes {
		if node.Outlier {
			outliers = append(outliers, node)
		}
	}
	return outliers
}
