package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/shouc/distfuzz/pkg/graph"
	"github.com/shouc/distfuzz/pkg/transport"
	"github.com/stretchr/testify/require"
)

func k(edgeID uint32, nth uint8) graph.Key { return graph.Key{EdgeID: edgeID, Nth: nth} }

func TestCoordinatorWorkerReconciliation(t *testing.T) {
	const worldSize = 3
	transports := transport.NewLocalCluster(worldSize)

	coord := NewCoordinator(transports[0], nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx)

	w1 := NewWorker(1, worldSize, transports[1], nil)
	w1.Graph().AddTrace([]graph.Key{k(1, 0), k(2, 0), k(3, 0), k(4, 0)})

	w2 := NewWorker(2, worldSize, transports[2], nil)
	w2.Graph().AddTrace([]graph.Key{k(5, 0), k(6, 0)})

	epochCtx, epochCancel := context.WithTimeout(context.Background(), time.Second)
	defer epochCancel()

	_, err := w1.RunEpoch(epochCtx)
	require.NoError(t, err)
	_, err = w2.RunEpoch(epochCtx)
	require.NoError(t, err)

	require.NotNil(t, w1.Assignment())
	require.NotNil(t, w2.Assignment())
	require.Equal(t, coord.Master().NodeCount(), w1.Graph().NodeCount())
	require.Equal(t, coord.Master().NodeCount(), w2.Graph().NodeCount())

	seen := coord.WorkerSeen()
	require.Contains(t, seen, 1)
	require.Contains(t, seen, 2)

	plans, err := coord.Partitions(worldSize)
	require.NoError(t, err)
	require.Len(t, plans, worldSize-1)

	require.NotEqual(t, coord.RunID(), NewCoordinator(transports[0], nil).RunID())
}

func TestWorkerRoutesTestcasePacketThrough(t *testing.T) {
	transports := transport.NewLocalCluster(2)
	w := NewWorker(1, 2, transports[1], nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, transports[0].Send(ctx, 1, transport.PacketTestcase, []byte("payload")))

	testcases, err := w.RunEpoch(ctx)
	require.NoError(t, err)
	require.Len(t, testcases, 1)
	require.Equal(t, []byte("payload"), testcases[0])
}
