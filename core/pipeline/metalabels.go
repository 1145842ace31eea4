package pipeline

import (
	"github.com/siherrmann/clausegraph/helper"
	"github.com/siherrmann/clausegraph/model"
)

// BuildMetaLabels builds the reverse index chunk id -> group names.
// Only multi-member groups contribute their (possibly generated) name; a chunk
// whose group skipped naming would have an empty list, so it carries the
// sentinel tag instead and every chunk ends up with at least one group tag.
func BuildMetaLabels(chunks []*model.Chunk, partition *model.Partition) (model.MetaIndex, error) {
	if err := partition.Validate(len(chunks)); err != nil {
		return nil, helper.NewError("validate partition", err)
	}

	index := make(model.MetaIndex, len(chunks))
	for _, chunk := range chunks {
		index[chunk.ID] = &model.MetaLabel{
			ChunkID: chunk.ID,
			Text:    chunk.Text,
		}
	}

	for _, group := range partition.Groups {
		if group.Size() <= 1 {
			continue
		}
		for _, id := range group.MemberIDs {
			index[id].GroupsRelated = append(index[id].GroupsRelated, group.Name)
		}
	}

	for _, label := range index {
		if len(label.GroupsRelated) == 0 {
			label.GroupsRelated = []string{model.SentinelGroup}
		}
	}

	return index, nil
}
