package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouc/distfuzz/pkg/graph"
)

func k(edgeID uint32, nth uint8) graph.Key { return graph.Key{EdgeID: edgeID, Nth: nth} }

func caterpillar() *graph.DGraph {
	g := graph.New()
	g.AddTrace([]graph.Key{k(1, 0), k(2, 0)})
	g.AddTrace([]graph.Key{k(1, 0), k(3, 0), k(4, 0)})
	g.AddTrace([]graph.Key{k(1, 0), k(3, 0), k(5, 0)})
	return g
}

// TestTreePartitionBalance follows spec.md §8 scenario 2.
func TestTreePartitionBalance(t *testing.T) {
	g := caterpillar()
	plans, err := Tree(g, 2)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	var leafIDs []uint32
	var weights []uint64
	for _, p := range plans {
		for _, n := range p.Plan {
			if n.IsLeaf() {
				leafIDs = append(leafIDs, n.EdgeID)
			}
		}
		weights = append(weights, p.Weight)
	}
	assert.ElementsMatch(t, []uint32{2, 4, 5}, leafIDs)

	diff := int64(weights[0]) - int64(weights[1])
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, int64(1))
}

func TestInvalidArity(t *testing.T) {
	g := caterpillar()
	_, err := Tree(g, 0)
	assert.ErrorIs(t, err, ErrInvalidArity)

	_, err = Flat(g, 0)
	assert.ErrorIs(t, err, ErrInvalidArity)
}

// TestPartitionCoverage checks spec.md §8: the union of Plan lists
// across the K partitions equals the set of nodes on some root-to-leaf
// path, and every leaf appears in exactly one partition.
func TestPartitionCoverage(t *testing.T) {
	g := caterpillar()
	plans, err := Tree(g, 2)
	require.NoError(t, err)

	leafCount := map[uint32]int{}
	for _, p := range plans {
		for _, n := range p.Plan {
			if n.IsLeaf() {
				leafCount[n.EdgeID]++
			}
		}
	}
	for _, id := range []uint32{2, 4, 5} {
		assert.Equal(t, 1, leafCount[id], "leaf %d should appear in exactly one partition", id)
	}
}

// TestBalanceBound checks spec.md §8: max(weight) <= 2*T where T =
// total/K, using a wider graph than the caterpillar fixture.
func TestBalanceBound(t *testing.T) {
	g := graph.New()
	for i := uint32(10); i < 20; i++ {
		g.AddTrace([]graph.Key{k(1, 0), k(i, 0)})
	}
	const K = 3
	plans, err := Tree(g, K)
	require.NoError(t, err)

	var total uint64
	for _, p := range plans {
		total += p.Weight
	}
	target := total / K

	for _, p := range plans {
		assert.LessOrEqual(t, p.Weight, 2*target+1)
	}
}

func TestFlatPartitionCoversAllNodes(t *testing.T) {
	g := caterpillar()
	plans, err := Flat(g, 2)
	require.NoError(t, err)

	covered := 0
	for _, p := range plans {
		covered += len(p.Plan)
	}
	assert.Equal(t, g.NodeCount(), covered)
	assert.LessOrEqual(t, len(plans), 2)
}

func TestFlatPartitionFewerNodesThanK(t *testing.T) {
	g := graph.New()
	g.AddTrace([]graph.Key{k(1, 0)})
	plans, err := Flat(g, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(plans), 10)

	covered := 0
	for _, p := range plans {
		covered += len(p.Plan)
	}
	assert.Equal(t, g.NodeCount(), covered)
}

func TestPlanMerge(t *testing.T) {
	a := &PartitionPlan{Plan: []*graph.Node{graph.NewNode(1, 0)}, Weight: 3, Dependencies: map[int][]int{0: {1}}}
	b := &PartitionPlan{Plan: []*graph.Node{graph.NewNode(2, 0)}, Weight: 4, Dependencies: map[int][]int{0: {2}}}

	a.Merge(b)

	assert.Len(t, a.Plan, 2)
	assert.EqualValues(t, 7, a.Weight)
	assert.Equal(t, []int{2}, a.Dependencies[0]) // right-hand wins on collision
}

func TestPlanOwns(t *testing.T) {
	p := &PartitionPlan{Plan: []*graph.Node{graph.NewNode(7, 0), graph.NewNode(8, 1)}}
	assert.True(t, p.Owns(7))
	assert.True(t, p.Owns(8))
	assert.False(t, p.Owns(9))
}
