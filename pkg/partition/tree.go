package partition

import (
	"sort"

	"github.com/shouc/distfuzz/pkg/graph"
)

// Tree implements the tree-balanced partitioner (spec.md §4.2), used
// when a tree-shaped execution model is built. It operates directly on
// the keyed DGraph's child adjacency rather than a separate execution
// tree structure (per the design note in spec.md §9 — an implementer
// may unify the two shapes if the partitioner is adapted to operate
// over the keyed graph directly).
//
// Steps: (1) recompute cumulated weight root-to-node via DFS, always
// from scratch, no memoization across epochs; (2) enumerate every leaf
// with its full root-to-leaf path as a PartitionPlan; (3) compute the
// target weight T = sum(leaf weights)/K; (4) greedily bin-pack leaves,
// sorted by weight descending, into the first plan whose running weight
// stays at or under T, opening a new plan otherwise; (5) collapse
// excess plans from the tail until exactly K remain.
//
// Ties: among bins with equal fit, the earliest-opened bin wins (linear
// scan in open order). Among equal-weight leaves, enumeration order is
// preserved (stable sort).
func Tree(g *graph.DGraph, k int) ([]*PartitionPlan, error) {
	if k <= 0 {
		return nil, ErrInvalidArity
	}

	g.CumulateWeights()

	leaves := enumerateLeaves(g)
	if len(leaves) == 0 {
		return nil, nil
	}

	var total uint64
	for _, l := range leaves {
		total += l.Weight
	}
	target := total / uint64(k)

	sort.SliceStable(leaves, func(i, j int) bool {
		return leaves[i].Weight > leaves[j].Weight
	})

	var partitions []*PartitionPlan
	for _, leaf := range leaves {
		merged := false
		for _, p := range partitions {
			if p.Weight+leaf.Weight <= target {
				p.Merge(leaf)
				merged = true
				break
			}
		}
		if !merged {
			partitions = append(partitions, leaf)
		}
	}

	for len(partitions) > k {
		last := partitions[len(partitions)-1]
		partitions = partitions[:len(partitions)-1]
		partitions[len(partitions)-1].Merge(last)
	}

	return partitions, nil
}

// enumerateLeaves performs the depth-first leaf walk described above,
// returning one PartitionPlan per leaf with its full root-to-leaf path.
func enumerateLeaves(g *graph.DGraph) []*PartitionPlan {
	var leaves []*PartitionPlan

	var walk func(n *graph.Node, path []*graph.Node)
	walk = func(n *graph.Node, path []*graph.Node) {
		if n.IsLeaf() {
			full := make([]*graph.Node, len(path)+1)
			copy(full, path)
			full[len(path)] = n
			leaves = append(leaves, &PartitionPlan{
				Plan:         full,
				Weight:       n.Cumulated(),
				Dependencies: make(map[int][]int),
			})
			return
		}
		nextPath := make([]*graph.Node, len(path)+1)
		copy(nextPath, path)
		nextPath[len(path)] = n
		for _, child := range n.Children() {
			walk(child, nextPath)
		}
	}
	walk(g.Root(), nil)

	return leaves
}
