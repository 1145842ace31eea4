package model

import (
	"fmt"
	"sort"
)

// SentinelGroup is the group tag carried by chunks that matched no named group.
// It is a deliberate documented default and is never used as a relation target.
const SentinelGroup = "loneliners"

// MetaLabel carries the group tags of one chunk. GroupsRelated is never empty;
// chunks outside every named group carry the SentinelGroup tag.
type MetaLabel struct {
	ChunkID       int      `json:"chunk_id"`
	GroupsRelated []string `json:"groups_related"`
	Text          string   `json:"text"`
}

// MetaIndex maps chunk id to its meta label. Built once after labeling,
// read-only afterwards.
type MetaIndex map[int]*MetaLabel

// Label returns the meta label of a chunk
func (m MetaIndex) Label(chunkID int) (*MetaLabel, error) {
	label, ok := m[chunkID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChunk, chunkID)
	}
	return label, nil
}

// GroupSizes counts, for every named group, how many chunks carry its tag.
// The sentinel group is excluded.
func (m MetaIndex) GroupSizes() map[string]int {
	sizes := make(map[string]int)
	for _, label := range m {
		for _, group := range label.GroupsRelated {
			if group == SentinelGroup {
				continue
			}
			sizes[group]++
		}
	}
	return sizes
}

// GroupChunkIDs returns the sorted chunk ids carrying the given group tag
func (m MetaIndex) GroupChunkIDs(group string) []int {
	var ids []int
	for id, label := range m {
		for _, g := range label.GroupsRelated {
			if g == group {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Ints(ids)
	return ids
}
