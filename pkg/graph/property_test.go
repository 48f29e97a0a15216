package graph

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genTrace builds a short trace of small edge ids with nth always 0,
// sufficient to exercise merge/weight invariants without the nth-collapse
// corner case (covered separately in TestRoundTripCollapsesNth).
func genTrace() gopter.Gen {
	return gen.SliceOfN(4, gen.UInt32Range(1, 6)).Map(func(ids []uint32) []Key {
		out := make([]Key, len(ids))
		for i, id := range ids {
			out[i] = Key{EdgeID: id, Nth: 0}
		}
		return out
	})
}

func buildFromTraces(traces [][]Key) *DGraph {
	g := New()
	for _, tr := range traces {
		g.AddTrace(tr)
	}
	return g
}

func totalWeight(g *DGraph) uint64 {
	var total uint64
	for _, n := range g.Nodes() {
		total += n.Weight
	}
	return total
}

// TestPropertyMergeCommutative checks A.Merge(B) and B.Merge(A) converge
// to the same total weight and key set, per spec.md §8.
func TestPropertyMergeCommutative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("merge is commutative on total weight and key set", prop.ForAll(
		func(tracesA, tracesB [][]Key) bool {
			a := buildFromTraces(tracesA)
			b := buildFromTraces(tracesB)
			ab := buildFromTraces(tracesA)
			ab.Merge(buildFromTraces(tracesB))
			ba := buildFromTraces(tracesB)
			ba.Merge(buildFromTraces(tracesA))

			if totalWeight(ab) != totalWeight(ba) {
				return false
			}
			if ab.NodeCount() != ba.NodeCount() {
				return false
			}
			_ = a
			_ = b
			for key, n := range ab.index {
				other, ok := ba.Get(key)
				if !ok || other.Weight != n.Weight {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(3, genTrace()),
		gen.SliceOfN(3, genTrace()),
	))

	properties.TestingRun(t)
}

// TestPropertyInsertionOrderIndependence checks that the total weight
// and the node count do not depend on the order traces are applied.
func TestPropertyInsertionOrderIndependence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("weight sum is invariant under trace application order", prop.ForAll(
		func(traces [][]Key) bool {
			forward := buildFromTraces(traces)

			reversed := make([][]Key, len(traces))
			for i, tr := range traces {
				reversed[len(traces)-1-i] = tr
			}
			backward := buildFromTraces(reversed)

			return totalWeight(forward) == totalWeight(backward) &&
				forward.NodeCount() == backward.NodeCount()
		},
		gen.SliceOfN(4, genTrace()),
	))

	properties.TestingRun(t)
}
