package partition

import (
	"sort"

	"github.com/shouc/distfuzz/pkg/graph"
)

// Flat produces up to K PartitionPlans whose Plan lists together cover
// the graph's nodes, chunk-sized floor(|nodes|/K) for every partition
// but the last, which absorbs the remainder so the union always covers
// every node (spec.md §4.2). Weights are summed per chunk. Used for
// reconciliation broadcast, where a naive, stable assignment is
// acceptable.
func Flat(g *graph.DGraph, k int) ([]*PartitionPlan, error) {
	if k <= 0 {
		return nil, ErrInvalidArity
	}

	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, nil
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].EdgeID != nodes[j].EdgeID {
			return nodes[i].EdgeID < nodes[j].EdgeID
		}
		return nodes[i].Nth < nodes[j].Nth
	})

	chunkSize := len(nodes) / k
	if chunkSize == 0 {
		chunkSize = 1
	}

	var plans []*PartitionPlan
	current := newPlan()
	for _, n := range nodes {
		current.Plan = append(current.Plan, n)
		current.Weight += n.Weight
		if len(current.Plan) == chunkSize && len(plans) < k-1 {
			plans = append(plans, current)
			current = newPlan()
		}
	}
	if len(current.Plan) > 0 {
		plans = append(plans, current)
	}
	return plans, nil
}
