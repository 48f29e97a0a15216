// Package feedback bridges a fuzzer's per-execution instrumentation to
// graph construction and cross-partition testcase routing.
package feedback

import (
	"context"
	"fmt"

	"github.com/shouc/distfuzz/pkg/graph"
	"github.com/shouc/distfuzz/pkg/logging"
	"github.com/shouc/distfuzz/pkg/metrics"
	"github.com/shouc/distfuzz/pkg/transport"
)

// EdgeTraceSize is the fixed length of the instrumentation's edge-trace
// buffer and the IGNORED/partition-ownership bitmaps.
const EdgeTraceSize = 4096

// nthWrap is the modulus nth counters wrap at while reconstructing a
// trace from repeated edge-id observations.
const nthWrap = 255

// WorkerContext holds the per-process state a worker's feedback hook
// consults and the reconciliation handler (pkg/cluster) mutates at
// epoch boundaries: which edges are currently ignored by the
// is-interesting filter, and which rank owns each edge. Kept as an
// explicit struct rather than process globals (spec names these as
// conceptually process-wide, but a single worker runs single-threaded
// so there is no need for package-level mutable state).
type WorkerContext struct {
	Ignored    [EdgeTraceSize]bool
	Partitions [EdgeTraceSize]int
}

// NewWorkerContext returns a context with every edge ignored and
// unowned (rank 0), matching the state before the first reconciliation.
func NewWorkerContext() *WorkerContext {
	ctx := &WorkerContext{}
	for i := range ctx.Ignored {
		ctx.Ignored[i] = true
	}
	return ctx
}

// Hook implements the two fuzzer callbacks described in spec.md §4.3.
type Hook struct {
	ctx       *WorkerContext
	transport transport.Transport
	logger    logging.Logger
	metrics   *metrics.Registry
}

// NewHook builds a Hook bound to a worker's shared state, transport and
// logger.
func NewHook(ctx *WorkerContext, t transport.Transport, logger logging.Logger) *Hook {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Hook{ctx: ctx, transport: t, logger: logger}
}

// SetMetrics attaches a metrics registry the hook records routed and
// dropped testcase counters into. A nil registry (the default) means
// metrics are skipped.
func (h *Hook) SetMetrics(r *metrics.Registry) { h.metrics = r }

// ReconstructTrace reconstructs a (edge_id, nth) trace from a raw
// fixed-length, zero-padded edge-trace buffer, counting each edge-id's
// appearance in order with nth wrapping at nthWrap. The buffer is
// consumed in full, including any trailing zero-padding, matching the
// instrumentation's literal behaviour.
func ReconstructTrace(edgeTrace [EdgeTraceSize]uint32) []graph.Key {
	var appearance [EdgeTraceSize]uint8
	trace := make([]graph.Key, 0, EdgeTraceSize)
	for _, edgeID := range edgeTrace {
		idx := edgeID % EdgeTraceSize
		trace = append(trace, graph.Key{EdgeID: edgeID, Nth: appearance[idx]})
		appearance[idx] = uint8((int(appearance[idx]) + 1) % nthWrap)
	}
	return trace
}

// OnExecutionFinished is invoked after every target execution. It
// reconstructs the trace from the raw edge buffer and adds it to graph.
func (h *Hook) OnExecutionFinished(g *graph.DGraph, edgeTrace [EdgeTraceSize]uint32) {
	g.AddTrace(ReconstructTrace(edgeTrace))
}

// OnTestcaseFound is invoked when the fuzzer deems an input novel. For
// every interesting edge index it locates that edge's immediate
// predecessor in the current execution's edge-trace (the edge
// immediately preceding the first occurrence of the target edge),
// looks up the predecessor's owning rank, and if that rank differs
// from rank 0 (unassigned) ships the testcase bytes to it as a
// type-2 packet. Ownership at rank 0 is logged and dropped.
func (h *Hook) OnTestcaseFound(ctx context.Context, data []byte, interestingEdgeIndices []int, edgeTrace [EdgeTraceSize]uint32) {
	for _, target := range interestingEdgeIndices {
		predecessor := predecessorOf(edgeTrace, uint32(target))
		owner := h.ctx.Partitions[predecessor%EdgeTraceSize]
		if owner == 0 {
			h.logger.Info("interesting hit not in any partition", logging.EdgeID(predecessor))
			if h.metrics != nil {
				h.metrics.RecordTestcaseDropped()
			}
			continue
		}
		if err := h.transport.Send(ctx, owner, transport.PacketTestcase, data); err != nil {
			h.logger.Error("failed to route cross-partition testcase", logging.Error(err))
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordMessageSent(transport.PacketTestcase)
			h.metrics.RecordTestcaseRouted()
		}
	}
}

// predecessorOf returns the edge id immediately preceding the first
// occurrence of target in the trace, or 0 if target appears first. If
// target never appears it returns the buffer's final entry (0 for a
// zero-padded buffer).
func predecessorOf(edgeTrace [EdgeTraceSize]uint32, target uint32) uint32 {
	var last uint32
	for _, edgeID := range edgeTrace {
		if edgeID == target {
			break
		}
		last = edgeID
	}
	return last
}

// CoverageRatio reports g's node count (root included) over the
// fixed-size edge-trace space, as a stand-in for the original fuzzer's
// "coverage" user stat (filled history-map entries over map length).
// Nodes are (edge_id, nth) pairs, so repeated visits of one edge count
// more than once and the ratio can exceed 1.
// It is purely informational: nothing in reconciliation or partitioning
// reads it back.
func (h *Hook) CoverageRatio(g *graph.DGraph) float64 {
	return float64(g.NodeCount()) / float64(EdgeTraceSize)
}

// IsInteresting reports whether a novel hit on the given edge index
// should be surfaced, applying the IGNORED filter. Partition-driven
// enable/disable of bits happens in the reconciliation handler, not
// here.
func (h *Hook) IsInteresting(edgeIndex int) bool {
	if edgeIndex < 0 || edgeIndex >= EdgeTraceSize {
		return false
	}
	return !h.ctx.Ignored[edgeIndex]
}

// String satisfies fmt.Stringer for diagnostics.
func (c *WorkerContext) String() string {
	owned := 0
	for _, ignored := range c.Ignored {
		if !ignored {
			owned++
		}
	}
	return fmt.Sprintf("WorkerContext{owned_edges=%d}", owned)
}
