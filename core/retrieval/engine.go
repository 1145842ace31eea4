// Package retrieval implements the query-time hybrid retriever: dense
// similarity-ranked groups, forced inclusion of outlier groups, and one-hop
// neighbor expansion over the relation graph.
package retrieval

import (
	"fmt"
	"math"
	"sort"

	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
	"gonum.org/v1/gonum/floats"
)

// Engine retrieves chunks for a query embedding. It reads only static data
// (chunks, partition, meta-label index, relations), so it is safe to call
// concurrently for independent queries. Group mean embeddings are recomputed
// from the static data on every call; callers wanting a cache must hold one
// externally.
type Engine struct {
	chunks    []*model.Chunk
	partition *model.Partition
	index     model.MetaIndex
	relations model.RelationMap
}

// NewEngine creates a retrieval engine over a completed pipeline run
func NewEngine(chunks []*model.Chunk, partition *model.Partition, index model.MetaIndex, relations model.RelationMap) *Engine {
	return &Engine{
		chunks:    chunks,
		partition: partition,
		index:     index,
		relations: relations,
	}
}

type groupScore struct {
	group      *model.Group
	similarity float64
}

// Retrieve scores every group against the query embedding, keeps the top-k
// multi-member groups above the similarity threshold, force-includes the
// highest scoring outlier groups regardless of threshold, optionally expands
// the selection by one outgoing relation hop, and returns the deduplicated
// member chunks sorted ascending by id. An empty match is not an error.
func (e *Engine) Retrieve(queryEmbedding []float32, config model.QueryConfig) ([]*model.RetrievalResult, error) {
	if len(queryEmbedding) == 0 {
		return nil, helper.NewError("retrieve", fmt.Errorf("query embedding is empty"))
	}

	query := make([]float64, len(queryEmbedding))
	for i, v := range queryEmbedding {
		query[i] = float64(v)
	}

	scores := make([]groupScore, 0, len(e.partition.Groups))
	for _, group := range e.partition.Groups {
		mean, err := e.groupMean(group)
		if err != nil {
			return nil, helper.NewError("compute group embedding", err)
		}
		scores = append(scores, groupScore{group: group, similarity: cosineSimilarity(query, mean)})
	}

	// dense candidates: multi-member groups above the threshold
	var dense []groupScore
	for _, s := range scores {
		if s.group.Size() > 1 && s.similarity >= config.SimThreshold {
			dense = append(dense, s)
		}
	}
	sortByScore(dense)
	if len(dense) > config.TopK {
		dense = dense[:config.TopK]
	}

	selected := make(map[string]bool)
	for _, s := range dense {
		selected[s.group.Name] = true
	}

	// outliers are force-included so the threshold cannot discard
	// rare-but-relevant single-paragraph evidence
	var outliers []groupScore
	for _, s := range scores {
		if s.group.Size() == 1 {
			outliers = append(outliers, s)
		}
	}
	sortByScore(outliers)
	if len(outliers) > config.ForceOutliers {
		outliers = outliers[:config.ForceOutliers]
	}
	for _, s := range outliers {
		selected[s.group.Name] = true
	}

	// one outgoing hop, not a closure; incoming edges are not traversed
	if config.IncludeNeighbors {
		neighbors := make(map[string]bool)
		for name := range selected {
			for _, target := range e.relations.Outgoing(name) {
				neighbors[target] = true
			}
		}
		for name := range neighbors {
			selected[name] = true
		}
	}

	chunkIDs := make(map[int]bool)
	for name := range selected {
		group, err := e.partition.Group(name)
		if err != nil {
			// relation targets may name groups outside the partition
			continue
		}
		for _, id := range group.MemberIDs {
			chunkIDs[id] = true
		}
	}

	ids := make([]int, 0, len(chunkIDs))
	for id := range chunkIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	results := make([]*model.RetrievalResult, 0, len(ids))
	for _, id := range ids {
		label, err := e.index.Label(id)
		if err != nil {
			return nil, helper.NewError("resolve meta label", err)
		}
		results = append(results, &model.RetrievalResult{
			ChunkID:       id,
			Text:          e.chunks[id].Text,
			GroupsRelated: label.GroupsRelated,
		})
	}

	return results, nil
}

// groupMean recomputes the mean embedding of a group from its member chunks
func (e *Engine) groupMean(group *model.Group) ([]float64, error) {
	if group.Size() == 0 {
		return nil, fmt.Errorf("group %s has no members", group.Name)
	}

	dim := len(e.chunks[group.MemberIDs[0]].Embedding)
	mean := make([]float64, dim)
	row := make([]float64, dim)

	for _, id := range group.MemberIDs {
		if id < 0 || id >= len(e.chunks) {
			return nil, fmt.Errorf("group %s references unknown chunk id %d", group.Name, id)
		}
		for j, v := range e.chunks[id].Embedding {
			row[j] = float64(v)
		}
		floats.Add(mean, row)
	}
	floats.Scale(1/float64(group.Size()), mean)

	return mean, nil
}

// sortByScore orders descending by similarity with group name as tie break,
// so growing top-k never drops a previously selected group
func sortByScore(scores []groupScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].similarity != scores[j].similarity {
			return scores[i].similarity > scores[j].similarity
		}
		return scores[i].group.Name < scores[j].group.Name
	})
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	dot := floats.Dot(a, b)
	normA := math.Sqrt(floats.Dot(a, a))
	normB := math.Sqrt(floats.Dot(b, b))
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}
