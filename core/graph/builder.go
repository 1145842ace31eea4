// Package graph assembles the knowledge graph from relation engine output and
// the meta-label index. The result is a read-only projection; it holds no
// state that retrieval may mutate.
package graph

import (
	"sort"

	"github.com/siherrmann/clausegraph/model"
)

// Build collects one node per distinct group name appearing in either the
// relation map or any chunk's group tags, so singleton groups without
// explicit relations still appear. Node size is the number of chunks carrying
// the tag; a size of one flags the node as outlier.
//
// Edges are the explicit labeled relations plus, for every outlier node, one
// implicit dashed "part of" edge to every other group listed on the outlier's
// single source chunk (self references and unknown targets skipped).
func Build(relations model.RelationMap, index model.MetaIndex) *model.KnowledgeGraph {
	nodes := make(map[string]*model.GraphNode)

	addNode := func(name string) {
		if _, ok := nodes[name]; !ok {
			nodes[name] = &model.GraphNode{Name: name}
		}
	}

	for source, targets := range relations {
		addNode(source)
		for target := range targets {
			addNode(target)
		}
	}

	chunksByGroup := make(map[string][]int)
	for id, label := range index {
		for _, group := range label.GroupsRelated {
			addNode(group)
			chunksByGroup[group] = append(chunksByGroup[group], id)
		}
	}

	for name, node := range nodes {
		node.Size = len(chunksByGroup[name])
		node.Outlier = node.Size == 1
	}

	var edges []*model.GraphEdge

	sources := make([]string, 0, len(relations))
	for source := range relations {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		for _, target := range relations.Outgoing(source) {
			label, _ := relations.Relation(source, target)
			edges = append(edges, &model.GraphEdge{
				Source: source,
				Target: target,
				Label:  label,
				Kind:   model.EdgeKindRelation,
			})
		}
	}

	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		node := nodes[name]
		if !node.Outlier {
			continue
		}

		chunkID := chunksByGroup[name][0]
		label, ok := index[chunkID]
		if !ok {
			continue
		}

		for _, related := range label.GroupsRelated {
			if related == name {
				continue
			}
			if _, ok := nodes[related]; !ok {
				continue
			}
			edges = append(edges, &model.GraphEdge{
				Source: name,
				Target: related,
				Label:  "part of",
				Kind:   model.EdgeKindPartOf,
				Dashed: true,
			})
		}
	}

	return &model.KnowledgeGraph{Nodes: nodes, Edges: edges}
}
