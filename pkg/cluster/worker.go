package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/shouc/distfuzz/pkg/feedback"
	"github.com/shouc/distfuzz/pkg/graph"
	"github.com/shouc/distfuzz/pkg/logging"
	"github.com/shouc/distfuzz/pkg/metrics"
	"github.com/shouc/distfuzz/pkg/partition"
	"github.com/shouc/distfuzz/pkg/transport"
)

// EpochSize is the default number of fuzzing iterations per
// reconciliation epoch (spec.md §4.5, N ≈ 1000).
const EpochSize = 1000

// Worker drives the rank>0 epoch loop: at the end of every epoch it
// uploads its local graph, drains pending messages non-blockingly, and
// refreshes its partition assignment before resuming fuzzing.
type Worker struct {
	rank       int
	worldSize  int
	transport  transport.Transport
	logger     logging.Logger
	local      *graph.DGraph
	workerCtx  *feedback.WorkerContext
	assignment *partition.PartitionPlan
	epoch      int

	metrics *metrics.Registry
}

// SetMetrics attaches a metrics registry the worker records epoch,
// message, and partition-reassignment counters into. A nil registry
// (the default) means metrics are skipped.
func (w *Worker) SetMetrics(r *metrics.Registry) { w.metrics = r }

// NewWorker builds a Worker for the given rank (1-indexed, rank 0 is
// the coordinator) out of worldSize total ranks.
func NewWorker(rank, worldSize int, t transport.Transport, logger logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Worker{
		rank:      rank,
		worldSize: worldSize,
		transport: t,
		logger:    logger,
		local:     graph.New(),
		workerCtx: feedback.NewWorkerContext(),
	}
}

// Graph returns the worker's local DGraph, mutated by the fuzzer loop
// via the feedback hook between epochs.
func (w *Worker) Graph() *graph.DGraph { return w.local }

// Context returns the shared IGNORED/partition-ownership state the
// feedback hook consults.
func (w *Worker) Context() *feedback.WorkerContext { return w.workerCtx }

// Assignment returns this worker's current PartitionPlan, or nil before
// the first reconciliation completes.
func (w *Worker) Assignment() *partition.PartitionPlan { return w.assignment }

// RunEpoch performs one end-of-epoch reconciliation: upload, drain, and
// reassignment. It returns any testcases routed to this rank by peers
// for re-evaluation in the next epoch.
func (w *Worker) RunEpoch(ctx context.Context) ([][]byte, error) {
	epochStart := time.Now()
	w.epoch++
	if err := w.upload(ctx); err != nil {
		return nil, err
	}

	var testcases [][]byte
	for {
		msg, ok, err := w.transport.RecvAny()
		if err != nil {
			return testcases, err
		}
		if !ok {
			break
		}
		if w.metrics != nil {
			w.metrics.RecordMessageReceived(msg.Type)
		}
		tc, err := w.handle(msg)
		if err != nil {
			w.logger.Error("worker: failed to handle message",
				logging.Rank(msg.From),
				logging.Int("type", int(msg.Type)),
				logging.Error(err))
			continue
		}
		if tc != nil {
			testcases = append(testcases, tc)
		}
	}
	if w.metrics != nil {
		w.metrics.RecordEpoch(time.Since(epochStart))
	}
	w.logger.Debug("worker: epoch complete",
		logging.Rank(w.rank),
		logging.Epoch(w.epoch),
		logging.Int("routed_testcases", len(testcases)))
	return testcases, nil
}

func (w *Worker) upload(ctx context.Context) error {
	serialized := w.local.EncodeFrame()
	if err := w.transport.Send(ctx, 0, transport.PacketLocalGraph, serialized); err != nil {
		return fmt.Errorf("cluster: upload local graph: %w", err)
	}
	if w.metrics != nil {
		w.metrics.RecordMessageSent(transport.PacketLocalGraph)
	}
	return nil
}

func (w *Worker) handle(msg transport.Message) ([]byte, error) {
	switch msg.Type {
	case transport.PacketGlobalGraph:
		return nil, w.handleGlobalGraph(msg.Payload)
	case transport.PacketTestcase:
		return msg.Payload, nil
	default:
		return nil, fmt.Errorf("%w: type %d from rank %d", ErrUnexpectedPacket, msg.Type, msg.From)
	}
}

func (w *Worker) handleGlobalGraph(payload []byte) error {
	mergeStart := time.Now()
	global, err := graph.DecodeFrame(payload)
	if err != nil {
		return fmt.Errorf("cluster: decode global graph: %w", err)
	}
	w.local.Merge(global)
	if w.metrics != nil {
		w.metrics.RecordMerge(w.local.NodeCount(), time.Since(mergeStart))
		w.metrics.RecordCoverageRatio(float64(w.local.NodeCount()) / float64(feedback.EdgeTraceSize))
	}

	plans, err := partition.Flat(w.local, w.worldSize)
	if err != nil {
		return fmt.Errorf("cluster: partition global graph: %w", err)
	}

	planIndex := w.rank - 1
	if planIndex >= 0 && planIndex < len(plans) {
		w.assignment = plans[planIndex]
	} else {
		w.assignment = nil
	}

	for i := range w.workerCtx.Ignored {
		w.workerCtx.Ignored[i] = true
	}
	if w.assignment != nil {
		for _, n := range w.assignment.Plan {
			w.workerCtx.Ignored[n.EdgeID%feedback.EdgeTraceSize] = false
		}
	}

	for i := range w.workerCtx.Partitions {
		w.workerCtx.Partitions[i] = 0
	}
	// The owning value stored here is the worker rank that holds each
	// partition (plan index + 1, matching the assignment above), used
	// directly as a transport rank on the routing path in pkg/feedback.
	// The plan at index worldSize-1 maps to no worker rank, so its edges
	// stay 0, the feedback hook's unassigned sentinel.
	for planIdx, plan := range plans {
		rank := planIdx + 1
		if rank >= w.worldSize {
			continue
		}
		for _, n := range plan.Plan {
			w.workerCtx.Partitions[n.EdgeID%feedback.EdgeTraceSize] = rank
		}
	}

	if w.metrics != nil {
		w.metrics.RecordReassignment()
		weights := make([]uint64, len(plans))
		for i, p := range plans {
			weights[i] = p.Weight
		}
		w.metrics.RecordPartitionPlan(weights)
	}

	w.logger.Debug("worker reconciled global graph",
		logging.Rank(w.rank),
		logging.PartitionIndex(planIndex),
		logging.NodeCount(w.local.NodeCount()))
	return nil
}
