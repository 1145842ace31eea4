package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GroupKey identifies a group by its member-id set, independent of the order
// in which the members were enumerated. Two keys built from permutations of
// the same ids compare equal.
type GroupKey string

// NewGroupKey builds a key from a member-id list
func NewGroupKey(memberIDs []int) GroupKey {
	ids := make([]int, len(memberIDs))
	copy(ids, memberIDs)
	sort.Ints(ids)

	parts := make([]string, 0, len(ids))
	var last int
	for i, id := range ids {
		if i > 0 && id == last {
			continue
		}
		parts = append(parts, strconv.Itoa(id))
		last = id
	}
	return GroupKey(strings.Join(parts, ","))
}

// Members returns the sorted member ids encoded in the key
func (k GroupKey) Members() []int {
	if k == "" {
		return nil
	}
	parts := strings.Split(string(k), ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Group is a set of chunk ids treated as one semantic unit.
// Groups with a single member are outlier ("loneliner") groups and keep their
// deterministic placeholder name; multi-member groups are eligible for naming.
type Group struct {
	Name      string `json:"group_name"`
	MemberIDs []int  `json:"indices"`
}

// Key returns the content-identity key of the group
func (g *Group) Key() GroupKey {
	return NewGroupKey(g.MemberIDs)
}

// Size returns the member count
func (g *Group) Size() int {
	return len(g.MemberIDs)
}

// IsOutlier reports whether the group holds exactly one chunk
func (g *Group) IsOutlier() bool {
	return len(g.MemberIDs) == 1
}

// ErrUnknownGroup is returned by accessors when a group name is not present
var ErrUnknownGroup = fmt.Errorf("unknown group")

// Partition is the complete grouping produced by the clustering engine.
// Every chunk id belongs to exactly one group.
type Partition struct {
	Groups []*Group `json:"groups"`
}

// Group returns the group with the given name
func (p *Partition) Group(name string) (*Group, error) {
	for _, g := range p.Groups {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, name)
}

// Rename replaces group names by their generated labels, keyed by member-id set.
// Groups without an entry keep their current name.
func (p *Partition) Rename(labels map[GroupKey]string) {
	for _, g := range p.Groups {
		if label, ok := labels[g.Key()]; ok && label != "" {
			g.Name = label
		}
	}
}

// Validate checks the partition property against a corpus of n chunks:
// the union of all groups equals 0..n-1 and groups are pairwise disjoint.
func (p *Partition) Validate(n int) error {
	seen := make(map[int]string, n)
	for _, g := range p.Groups {
		if len(g.MemberIDs) == 0 {
			return fmt.Errorf("group %s is empty", g.Name)
		}
		for _, id := range g.MemberIDs {
			if id < 0 || id >= n {
				return fmt.Errorf("group %s contains out-of-range chunk id %d", g.Name, id)
			}
			if other, ok := seen[id]; ok {
				return fmt.Errorf("chunk id %d appears in both %s and %s", id, other, g.Name)
			}
			seen[id] = g.Name
		}
	}
	if len(seen) != n {
		return fmt.Errorf("partition covers %d of %d chunk ids", len(seen), n)
	}
	return nil
}
