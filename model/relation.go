package model

import (
	"fmt"
	"sort"
)

// RelationMap stores directed, labeled edges between named groups.
// An edge exists only in the direction in which the pair was evaluated;
// the reverse direction is deliberately not mirrored, and query-time
// neighbor expansion depends on that asymmetry.
type RelationMap map[string]map[string]string

// ErrUnknownRelation is returned when no edge exists between two groups
var ErrUnknownRelation = fmt.Errorf("unknown relation")

// Add records the labeled edge source -> target
func (r RelationMap) Add(source, target, label string) {
	if r[source] == nil {
		r[source] = make(map[string]string)
	}
	r[source][target] = label
}

// Relation returns the label of the edge source -> target
func (r RelationMap) Relation(source, target string) (string, error) {
	targets, ok := r[source]
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", ErrUnknownRelation, source, target)
	}
	label, ok := targets[target]
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", ErrUnknownRelation, source, target)
	}
	return label, nil
}

// Outgoing returns the targets reachable from source via outgoing edges, sorted
func (r RelationMap) Outgoing(source string) []string {
	targets := make([]string, 0, len(r[source]))
	for target := range r[source] {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

// Count returns the total number of stored edges
func (r RelationMap) Count() int {
	count := 0
	for _, targets := range r {
		count += len(targets)
	}
	return count
}
