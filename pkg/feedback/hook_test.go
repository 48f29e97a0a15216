package feedback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouc/distfuzz/pkg/graph"
	"github.com/shouc/distfuzz/pkg/transport"
)

func traceBuf(ids ...uint32) [EdgeTraceSize]uint32 {
	var buf [EdgeTraceSize]uint32
	copy(buf[:], ids)
	return buf
}

func TestReconstructTraceCountsAppearances(t *testing.T) {
	buf := traceBuf(7, 8, 7, 9)
	trace := ReconstructTrace(buf)

	assert.Equal(t, graph.Key{EdgeID: 7, Nth: 0}, trace[0])
	assert.Equal(t, graph.Key{EdgeID: 8, Nth: 0}, trace[1])
	assert.Equal(t, graph.Key{EdgeID: 7, Nth: 1}, trace[2])
	assert.Equal(t, graph.Key{EdgeID: 9, Nth: 0}, trace[3])
	// remainder of the 4096-entry buffer is zero-padding, edge id 0,
	// whose nth keeps counting across the padding run.
	assert.Equal(t, uint32(0), trace[4].EdgeID)
}

func TestReconstructTraceWrapsNthAt255(t *testing.T) {
	var ids []uint32
	for i := 0; i < 256; i++ {
		ids = append(ids, 42)
	}
	trace := ReconstructTrace(traceBuf(ids...))
	assert.Equal(t, uint8(254), trace[254].Nth)
	assert.Equal(t, uint8(0), trace[255].Nth)
}

func TestOnExecutionFinishedAddsTrace(t *testing.T) {
	g := graph.New()
	hook := NewHook(NewWorkerContext(), nil, nil)
	hook.OnExecutionFinished(g, traceBuf(1, 2))

	root := g.Root()
	require.Len(t, root.Children(), 1)
	assert.EqualValues(t, 1, root.Children()[0].EdgeID)
}

func TestOnTestcaseFoundRoutesToOwner(t *testing.T) {
	cluster := transport.NewLocalCluster(3)
	ctx := NewWorkerContext()
	ctx.Partitions[5] = 2 // edge 5 (the predecessor) is owned by rank 2

	hook := NewHook(ctx, cluster[1], nil)
	buf := traceBuf(5, 9)
	hook.OnTestcaseFound(context.Background(), []byte("tc"), []int{9}, buf)

	msg, ok, err := cluster[2].RecvAny()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint8(transport.PacketTestcase), msg.Type)
	assert.Equal(t, "tc", string(msg.Payload))
}

func TestOnTestcaseFoundDropsUnassigned(t *testing.T) {
	cluster := transport.NewLocalCluster(2)
	ctx := NewWorkerContext()

	hook := NewHook(ctx, cluster[1], nil)
	buf := traceBuf(5, 9)
	hook.OnTestcaseFound(context.Background(), []byte("tc"), []int{9}, buf)

	_, ok, err := cluster[0].RecvAny()
	require.NoError(t, err)
	assert.False(t, ok, "unassigned predecessor must be dropped, not routed to rank 0")
}

func TestIsInterestingRespectsIgnoredBitmap(t *testing.T) {
	ctx := NewWorkerContext()
	hook := NewHook(ctx, nil, nil)

	assert.False(t, hook.IsInteresting(3), "everything starts ignored before first reconciliation")
	ctx.Ignored[3] = false
	assert.True(t, hook.IsInteresting(3))
}
