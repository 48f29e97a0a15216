package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouc/distfuzz/pkg/graph"
	"github.com/shouc/distfuzz/pkg/logging"
	"github.com/shouc/distfuzz/pkg/metrics"
	"github.com/shouc/distfuzz/pkg/partition"
	"github.com/shouc/distfuzz/pkg/transport"
)

// pollInterval bounds how often the coordinator's event loop probes
// for any-source messages when idle.
const pollInterval = 5 * time.Millisecond

// Coordinator runs the rank-0 reconciliation loop (spec.md §4.4). It is
// stateless beyond the master DGraph and never initiates communication:
// every round trip is started by a worker's upload. The mutex below
// guards master and lastSeen against the status API reading them
// concurrently with Run's event loop.
type Coordinator struct {
	transport transport.Transport
	logger    logging.Logger
	runID     uuid.UUID

	mu       sync.RWMutex
	master   *graph.DGraph
	lastSeen map[int]time.Time

	metrics *metrics.Registry
}

// SetMetrics attaches a metrics registry the coordinator records merge and
// message counters into. Safe to call once before Run; a nil registry (the
// default) means metrics are skipped.
func (c *Coordinator) SetMetrics(r *metrics.Registry) { c.metrics = r }

// NewCoordinator builds a Coordinator bound to a transport already
// carrying rank 0's identity.
func NewCoordinator(t transport.Transport, logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Coordinator{
		transport: t,
		logger:    logger,
		runID:     uuid.New(),
		master:    graph.New(),
		lastSeen:  make(map[int]time.Time),
	}
}

// RunID identifies this coordinator's master-graph epoch: a fresh UUID is
// minted on every NewCoordinator call, so workers and the status API can
// tell a coordinator restart (and the master graph reset that comes with
// it) apart from a long-lived run.
func (c *Coordinator) RunID() uuid.UUID { return c.runID }

// Master returns the coordinator's accumulated master graph.
func (c *Coordinator) Master() *graph.DGraph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.master
}

// WorkerSeen returns the last upload time observed from each worker rank.
func (c *Coordinator) WorkerSeen() map[int]time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int]time.Time, len(c.lastSeen))
	for rank, t := range c.lastSeen {
		out[rank] = t
	}
	return out
}

// Partitions recomputes a tree-balanced partition plan over the current
// master graph with K = worldSize, matching the K workers actually use
// when reconciling (spec.md §4.3's "run the flat partitioner with K =
// world size"). It then returns only the worldSize-1 plans real workers
// (rank = planIndex+1) ever claim; the remaining plan (index
// worldSize-1, which maps to no worker rank) is never assigned to a live
// worker.
// This is for status reporting only: it does not affect the plans
// workers actually hold, which are only reassigned on the next
// reconciliation round trip.
func (c *Coordinator) Partitions(worldSize int) ([]*partition.PartitionPlan, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if worldSize <= 1 {
		return nil, nil
	}
	plans, err := partition.Tree(c.master, worldSize)
	if err != nil {
		return nil, err
	}
	if len(plans) > worldSize-1 {
		plans = plans[:worldSize-1]
	}
	return plans, nil
}

// Run drives the single event loop until ctx is cancelled. The only
// accepted packet is type 0 (local-graph upload); any other type is a
// protocol violation and is logged, not fatal, so one misbehaving
// worker cannot take the coordinator down.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		msg, err := transport.RecvAnyBlocking(ctx, c.transport, pollInterval)
		if err != nil {
			return err
		}
		if err := c.handle(ctx, msg); err != nil {
			c.logger.Error("coordinator: failed to handle message",
				logging.Rank(msg.From),
				logging.Error(err))
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, msg transport.Message) error {
	if msg.Type != transport.PacketLocalGraph {
		return fmt.Errorf("%w: type %d from rank %d", ErrUnexpectedPacket, msg.Type, msg.From)
	}

	if c.metrics != nil {
		c.metrics.RecordMessageReceived(msg.Type)
	}

	uploaded, err := graph.DecodeFrame(msg.Payload)
	if err != nil {
		return fmt.Errorf("cluster: decode upload from rank %d: %w", msg.From, err)
	}

	mergeStart := time.Now()
	c.mu.Lock()
	c.master.Merge(uploaded)
	c.lastSeen[msg.From] = time.Now()
	serialized := c.master.EncodeFrame()
	nodeCount := c.master.NodeCount()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordMerge(nodeCount, time.Since(mergeStart))
		c.metrics.RecordSerialize(len(serialized))
	}

	if err := c.transport.Send(ctx, msg.From, transport.PacketGlobalGraph, serialized); err != nil {
		return fmt.Errorf("cluster: send global graph to rank %d: %w", msg.From, err)
	}
	if c.metrics != nil {
		c.metrics.RecordMessageSent(transport.PacketGlobalGraph)
	}

	c.logger.Debug("reconciled worker upload",
		logging.Rank(msg.From),
		logging.NodeCount(nodeCount))
	return nil
}
