package cluster

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
)

// Engine partitions embedded chunks into semantic groups.
// Clustering is all-or-nothing: a partial partition is meaningless, so any
// failure aborts instead of degrading.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates a new clustering engine
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{log: logger}
}

// Partition clusters the chunks by cosine distance of their embeddings.
// Noise points become singleton groups named group_loneliner_<chunk id>;
// clustered points are grouped as group_<label>. The result is a strict
// partition of all chunk ids with member lists sorted ascending.
func (e *Engine) Partition(chunks []*model.Chunk, config model.ClusterConfig) (*model.Partition, error) {
	if err := model.CheckChunks(chunks); err != nil {
		return nil, helper.NewError("validate chunks", err)
	}

	normalized := NormalizeRows(chunks)
	dist, err := CosineDistances(normalized)
	if err != nil {
		return nil, helper.NewError("compute distance matrix", err)
	}

	labels, err := runHDBSCAN(dist, config)
	if err != nil {
		return nil, helper.NewError("run clustering", err)
	}

	grouped := make(map[int][]int)
	var groups []*model.Group
	noise := 0

	for id, label := range labels {
		if label == noiseLabel {
			groups = append(groups, &model.Group{
				Name:      fmt.Sprintf("group_loneliner_%d", id),
				MemberIDs: []int{id},
			})
			noise++
			continue
		}
		grouped[label] = append(grouped[label], id)
	}

	clusterLabels := make([]int, 0, len(grouped))
	for label := range grouped {
		clusterLabels = append(clusterLabels, label)
	}
	sort.Ints(clusterLabels)

	for _, label := range clusterLabels {
		members := grouped[label]
		sort.Ints(members)
		groups = append(groups, &model.Group{
			Name:      fmt.Sprintf("group_%d", label),
			MemberIDs: members,
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].MemberIDs[0] < groups[j].MemberIDs[0] })

	partition := &model.Partition{Groups: groups}

	if len(chunks) > 1 && len(partition.Groups) == 1 {
		return nil, helper.NewError("select clusters", fmt.Errorf("clustering collapsed all %d chunks into a single group", len(chunks)))
	}
	if err := partition.Validate(len(chunks)); err != nil {
		return nil, helper.NewError("validate partition", err)
	}

	e.log.Info("Clustered chunks into semantic groups",
		slog.Int("num_chunks", len(chunks)),
		slog.Int("num_clusters", len(clusterLabels)),
		slog.Int("num_noise", noise),
	)

	return partition, nil
}
