package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/siherrmann/clausegraph/model"
	"gonum.org/v1/gonum/mat"
)

// noiseLabel marks points that belong to no selected cluster
const noiseLabel = -1

// lambda is 1/distance; zero distances are capped so stability sums stay finite
const minSplitDistance = 1e-12

type mstEdge struct {
	a, b   int
	weight float64
}

// slNode is one merge in the single-linkage hierarchy. Leaves are the points
// 0..n-1; internal nodes are numbered n..2n-2 in merge order.
type slNode struct {
	left, right int
	dist        float64
	size        int
}

// condensed tree entries: a point leaves its cluster at lambda, or a cluster
// splits into two child clusters at lambda
type pointEntry struct {
	cluster int
	point   int
	lambda  float64
}

type clusterEntry struct {
	parent, child int
	lambda        float64
	size          int
}

// runHDBSCAN clusters points on a precomputed distance matrix and returns one
// label per point, with noiseLabel for points outside every selected cluster.
// The root of the hierarchy is never selectable, so the degenerate single
// universal cluster cannot be produced.
func runHDBSCAN(dist *mat.Dense, cfg model.ClusterConfig) ([]int, error) {
	n, cols := dist.Dims()
	if n != cols {
		return nil, fmt.Errorf("distance matrix is %dx%d, expected square", n, cols)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := dist.At(i, j)
			if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
				return nil, fmt.Errorf("malformed distance matrix at (%d, %d): %v", i, j, d)
			}
		}
	}

	minClusterSize := cfg.MinClusterSize
	if minClusterSize < 2 {
		minClusterSize = 2
	}
	minSamples := cfg.MinSamples
	if minSamples < 1 {
		minSamples = 1
	}
	if minSamples > n-1 {
		minSamples = n - 1
	}

	labels := make([]int, n)
	if n < 2 {
		for i := range labels {
			labels[i] = noiseLabel
		}
		return labels, nil
	}

	core := coreDistances(dist, minSamples)
	edges := minimumSpanningTree(dist, core)
	nodes := singleLinkage(edges, n)

	points, clusters, parents, births := condenseTree(nodes, n, minClusterSize)

	var selected map[int]bool
	switch cfg.SelectionMethod {
	case model.SelectionLeaf:
		selected = selectLeaves(clusters)
	default:
		selected = selectExcessOfMass(points, clusters, births)
	}
	if cfg.SelectionEpsilon > 0 {
		selected = applySelectionEpsilon(selected, parents, births, cfg.SelectionEpsilon)
	}

	return assignLabels(points, parents, selected, n), nil
}

// coreDistances returns, per point, the distance to its minSamples-th nearest
// neighbor (excluding itself).
func coreDistances(dist *mat.Dense, minSamples int) []float64 {
	n, _ := dist.Dims()
	core := make([]float64, n)
	row := make([]float64, 0, n-1)

	for i := 0; i < n; i++ {
		row = row[:0]
		for j := 0; j < n; j++ {
			if j != i {
				row = append(row, dist.At(i, j))
			}
		}
		sort.Float64s(row)
		core[i] = row[minSamples-1]
	}
	return core
}

// mutualReachability is max(core[a], core[b], d(a, b))
func mutualReachability(dist *mat.Dense, core []float64, a, b int) float64 {
	d := dist.At(a, b)
	if core[a] > d {
		d = core[a]
	}
	if core[b] > d {
		d = core[b]
	}
	return d
}

// minimumSpanningTree builds the MST of the complete mutual-reachability graph
// with Prim's algorithm, returning its edges sorted ascending by weight.
func minimumSpanningTree(dist *mat.Dense, core []float64) []mstEdge {
	n, _ := dist.Dims()

	inTree := make([]bool, n)
	bestDist := make([]float64, n)
	bestFrom := make([]int, n)
	for i := range bestDist {
		bestDist[i] = math.Inf(1)
		bestFrom[i] = -1
	}

	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[0] = true

	for len(edges) < n-1 {
		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			d := mutualReachability(dist, core, current, j)
			if d < bestDist[j] {
				bestDist[j] = d
				bestFrom[j] = current
			}
			if next == -1 || bestDist[j] < bestDist[next] {
				next = j
			}
		}

		inTree[next] = true
		edges = append(edges, mstEdge{a: bestFrom[next], b: next, weight: bestDist[next]})
		current = next
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].weight < edges[j].weight })
	return edges
}

// singleLinkage merges the MST edges ascending into a dendrogram
func singleLinkage(edges []mstEdge, n int) []slNode {
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	var find func(x int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	// component root -> hierarchy node currently representing it
	nodeOf := make([]int, 2*n-1)
	for i := range nodeOf {
		nodeOf[i] = i
	}

	nodes := make([]slNode, 0, n-1)
	nextID := n
	sizeOf := func(node int) int {
		if node < n {
			return 1
		}
		return nodes[node-n].size
	}

	for _, e := range edges {
		ra, rb := find(e.a), find(e.b)
		la, lb := nodeOf[ra], nodeOf[rb]

		nodes = append(nodes, slNode{
			left:  la,
			right: lb,
			dist:  e.weight,
			size:  sizeOf(la) + sizeOf(lb),
		})

		parent[ra] = rb
		nodeOf[find(rb)] = nextID
		nextID++
	}

	return nodes
}

// condenseTree walks the dendrogram top-down and keeps only splits where both
// sides reach minClusterSize; smaller sides fall out of their cluster as
// points. It returns the point entries, cluster entries, the parent of each
// condensed cluster and each cluster's birth lambda. Cluster 0 is the root.
func condenseTree(nodes []slNode, n, minClusterSize int) ([]pointEntry, []clusterEntry, []int, []float64) {
	var points []pointEntry
	var clusters []clusterEntry
	parents := []int{-1}
	births := []float64{0}

	sizeOf := func(node int) int {
		if node < n {
			return 1
		}
		return nodes[node-n].size
	}

	var leavesUnder func(node int, out *[]int)
	leavesUnder = func(node int, out *[]int) {
		if node < n {
			*out = append(*out, node)
			return
		}
		leavesUnder(nodes[node-n].left, out)
		leavesUnder(nodes[node-n].right, out)
	}

	shedPoints := func(node, cluster int, lambda float64) {
		var leaves []int
		leavesUnder(node, &leaves)
		for _, p := range leaves {
			points = append(points, pointEntry{cluster: cluster, point: p, lambda: lambda})
		}
	}

	var walk func(node, cluster int)
	walk = func(node, cluster int) {
		merge := nodes[node-n]
		lambda := 1 / math.Max(merge.dist, minSplitDistance)

		left, right := merge.left, merge.right
		leftSize, rightSize := sizeOf(left), sizeOf(right)

		switch {
		case leftSize >= minClusterSize && rightSize >= minClusterSize:
			// true split, both sides survive as new clusters
			leftID := len(births)
			parents = append(parents, cluster)
			births = append(births, lambda)
			rightID := len(births)
			parents = append(parents, cluster)
			births = append(births, lambda)

			clusters = append(clusters,
				clusterEntry{parent: cluster, child: leftID, lambda: lambda, size: leftSize},
				clusterEntry{parent: cluster, child: rightID, lambda: lambda, size: rightSize},
			)

			walk(left, leftID)
			walk(right, rightID)

		case leftSize >= minClusterSize:
			shedPoints(right, cluster, lambda)
			walk(left, cluster)

		case rightSize >= minClusterSize:
			shedPoints(left, cluster, lambda)
			walk(right, cluster)

		default:
			// the cluster dissolves here
			shedPoints(left, cluster, lambda)
			shedPoints(right, cluster, lambda)
		}
	}

	root := n + len(nodes) - 1
	walk(root, 0)

	return points, clusters, parents, births
}

// clusterStabilities sums (lambda - birth) * size over every condensed entry
func clusterStabilities(points []pointEntry, clusters []clusterEntry, births []float64) []float64 {
	stability := make([]float64, len(births))
	for _, p := range points {
		stability[p.cluster] += p.lambda - births[p.cluster]
	}
	for _, c := range clusters {
		stability[c.parent] += (c.lambda - births[c.parent]) * float64(c.size)
	}
	return stability
}

// selectExcessOfMass picks the set of clusters maximizing total stability.
// The root (cluster 0) is never selected.
func selectExcessOfMass(points []pointEntry, clusters []clusterEntry, births []float64) map[int]bool {
	stability := clusterStabilities(points, clusters, births)

	children := make(map[int][]int)
	for _, c := range clusters {
		children[c.parent] = append(children[c.parent], c.child)
	}

	selected := make(map[int]bool)
	subtree := make([]float64, len(births))

	var deselectDescendants func(c int)
	deselectDescendants = func(c int) {
		for _, child := range children[c] {
			delete(selected, child)
			deselectDescendants(child)
		}
	}

	// children always carry higher ids than their parent, so a reverse pass
	// visits every subtree bottom-up
	for c := len(births) - 1; c >= 0; c-- {
		childSum := 0.0
		for _, child := range children[c] {
			childSum += subtree[child]
		}

		if c == 0 {
			subtree[c] = childSum
			continue
		}

		if len(children[c]) == 0 || stability[c] >= childSum {
			selected[c] = true
			deselectDescendants(c)
			subtree[c] = stability[c]
		} else {
			subtree[c] = childSum
		}
	}

	return selected
}

// selectLeaves picks the condensed clusters without child clusters
func selectLeaves(clusters []clusterEntry) map[int]bool {
	hasChildren := make(map[int]bool)
	known := make(map[int]bool)
	for _, c := range clusters {
		hasChildren[c.parent] = true
		known[c.child] = true
	}

	selected := make(map[int]bool)
	for child := range known {
		if !hasChildren[child] {
			selected[child] = true
		}
	}
	return selected
}

// applySelectionEpsilon merges clusters born below the epsilon distance into
// their first ancestor born at or above it, stopping short of the root.
func applySelectionEpsilon(selected map[int]bool, parents []int, births []float64, epsilon float64) map[int]bool {
	merged := make(map[int]bool)
	for c := range selected {
		current := c
		for current != 0 && 1/births[current] < epsilon {
			if parents[current] == 0 {
				break
			}
			current = parents[current]
		}
		merged[current] = true
	}

	// drop any selected cluster now covered by a selected ancestor
	result := make(map[int]bool)
	for c := range merged {
		covered := false
		for p := parents[c]; p > 0; p = parents[p] {
			if merged[p] {
				covered = true
				break
			}
		}
		if !covered {
			result[c] = true
		}
	}
	return result
}

// assignLabels maps every point to the nearest selected ancestor of the
// condensed cluster it fell out of, renumbering clusters by their smallest
// member id so labels are deterministic.
func assignLabels(points []pointEntry, parents []int, selected map[int]bool, n int) []int {
	byCluster := make([]int, n)
	for i := range byCluster {
		byCluster[i] = noiseLabel
	}

	for _, p := range points {
		cluster := p.cluster
		for cluster > 0 && !selected[cluster] {
			cluster = parents[cluster]
		}
		if cluster > 0 && selected[cluster] {
			byCluster[p.point] = cluster
		}
	}

	// renumber by smallest member id
	minMember := make(map[int]int)
	for p := 0; p < n; p++ {
		c := byCluster[p]
		if c == noiseLabel {
			continue
		}
		if _, ok := minMember[c]; !ok {
			minMember[c] = p
		}
	}

	order := make([]int, 0, len(minMember))
	for c := range minMember {
		order = append(order, c)
	}
	sort.Slice(order, func(i, j int) bool { return minMember[order[i]] < minMember[order[j]] })

	finalLabel := make(map[int]int, len(order))
	for i, c := range order {
		finalLabel[c] = i
	}

	labels := make([]int, n)
	for p := 0; p < n; p++ {
		if byCluster[p] == noiseLabel {
			labels[p] = noiseLabel
		} else {
			labels[p] = finalLabel[byCluster[p]]
		}
	}
	return labels
}
