// Package partition implements the flat and tree-balanced strategies for
// dividing a DGraph's nodes among K workers.
package partition

import "github.com/shouc/distfuzz/pkg/graph"

// PartitionPlan is a bag of Nodes assigned to one partition, together
// with the aggregate weight of the member leaves and any recorded
// inter-partition dependencies. PartitionPlans are ephemeral: produced
// per reconciliation and discarded on the next.
type PartitionPlan struct {
	Plan         []*graph.Node
	Weight       uint64
	Dependencies map[int][]int
}

func newPlan() *PartitionPlan {
	return &PartitionPlan{Dependencies: make(map[int][]int)}
}

// Merge concatenates plan sequences (left then right, preserving order),
// adds weight fields, and unions dependencies. On dependency-key
// collision the right-hand value wins, which is well-defined because
// dependencies are by definition disjoint between sibling partitions
// before merge.
func (p *PartitionPlan) Merge(other *PartitionPlan) {
	p.Plan = append(p.Plan, other.Plan...)
	p.Weight += other.Weight
	if p.Dependencies == nil {
		p.Dependencies = make(map[int][]int)
	}
	for k, v := range other.Dependencies {
		p.Dependencies[k] = v
	}
}

// Owns reports whether a node with the given edge id is a member of
// this plan.
func (p *PartitionPlan) Owns(edgeID uint32) bool {
	for _, n := range p.Plan {
		if n.EdgeID == edgeID {
			return true
		}
	}
	return false
}
