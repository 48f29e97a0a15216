package cluster

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/shouc/distfuzz/pkg/logging"
	"github.com/shouc/distfuzz/pkg/transport"
)

// NaiveCoordinator implements the unpartitioned reconciliation mode
// (spec.md §6's "naïve mode", grounded on the original naive fuzzer's
// main loop): rank 0 holds a flat, append-only corpus and hands each
// worker only the entries it hasn't already received. There is no
// graph exchange and no partition plan.
type NaiveCoordinator struct {
	transport transport.Transport
	logger    logging.Logger

	mu      sync.Mutex
	corpus  [][]byte
	offsets map[int]int
}

// NewNaiveCoordinator builds a NaiveCoordinator bound to a transport
// already carrying rank 0's identity, seeded with an initial corpus.
func NewNaiveCoordinator(t transport.Transport, logger logging.Logger, seed [][]byte) *NaiveCoordinator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NaiveCoordinator{
		transport: t,
		logger:    logger,
		corpus:    append([][]byte(nil), seed...),
		offsets:   make(map[int]int),
	}
}

// CorpusSize returns the coordinator's current corpus length.
func (c *NaiveCoordinator) CorpusSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.corpus)
}

// Run drives the naive event loop until ctx is cancelled, handling
// corpus requests (type 0) and testcase uploads (type 3) from any
// worker in arrival order.
func (c *NaiveCoordinator) Run(ctx context.Context) error {
	for {
		msg, err := transport.RecvAnyBlocking(ctx, c.transport, pollInterval)
		if err != nil {
			return err
		}
		if err := c.handle(ctx, msg); err != nil {
			c.logger.Error("naive coordinator: failed to handle message",
				logging.Rank(msg.From),
				logging.Error(err))
		}
	}
}

func (c *NaiveCoordinator) handle(ctx context.Context, msg transport.Message) error {
	switch msg.Type {
	case transport.NaivePacketRequestCorpus:
		return c.sendNewEntries(ctx, msg.From)
	case transport.NaivePacketTestcaseFound:
		c.mu.Lock()
		c.corpus = append(c.corpus, msg.Payload)
		size := len(c.corpus)
		c.mu.Unlock()
		c.logger.Info("corpus size", logging.Int("size", size))
		return nil
	default:
		return fmt.Errorf("%w: type %d from rank %d", ErrUnexpectedPacket, msg.Type, msg.From)
	}
}

func (c *NaiveCoordinator) sendNewEntries(ctx context.Context, rank int) error {
	c.mu.Lock()
	offset := c.offsets[rank]
	fresh := append([][]byte(nil), c.corpus[offset:]...)
	c.offsets[rank] = len(c.corpus)
	c.mu.Unlock()

	size := make([]byte, 4)
	binary.BigEndian.PutUint32(size, uint32(len(fresh)))
	if err := c.transport.Send(ctx, rank, transport.NaivePacketCorpusSize, size); err != nil {
		return fmt.Errorf("cluster: send corpus size to rank %d: %w", rank, err)
	}
	for _, entry := range fresh {
		if err := c.transport.Send(ctx, rank, transport.NaivePacketCorpusEntry, entry); err != nil {
			return fmt.Errorf("cluster: send corpus entry to rank %d: %w", rank, err)
		}
	}
	return nil
}

// NaiveWorker drives the naive mode's worker side: pull the corpus
// delta on demand, and upload newly found testcases unconditionally.
type NaiveWorker struct {
	rank      int
	transport transport.Transport
	logger    logging.Logger
}

// NewNaiveWorker builds a NaiveWorker for the given rank.
func NewNaiveWorker(rank int, t transport.Transport, logger logging.Logger) *NaiveWorker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NaiveWorker{rank: rank, transport: t, logger: logger}
}

// SyncCorpus requests any corpus entries added since the last sync and
// returns them in arrival order.
func (w *NaiveWorker) SyncCorpus(ctx context.Context) ([][]byte, error) {
	if err := w.transport.Send(ctx, 0, transport.NaivePacketRequestCorpus, nil); err != nil {
		return nil, fmt.Errorf("cluster: request corpus: %w", err)
	}

	sizeMsg, err := w.transport.Recv(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("cluster: recv corpus size: %w", err)
	}
	if sizeMsg.Type != transport.NaivePacketCorpusSize || len(sizeMsg.Payload) != 4 {
		return nil, fmt.Errorf("%w: type %d from rank 0", ErrUnexpectedPacket, sizeMsg.Type)
	}
	count := binary.BigEndian.Uint32(sizeMsg.Payload)

	entries := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		entryMsg, err := w.transport.Recv(ctx, 0)
		if err != nil {
			return entries, fmt.Errorf("cluster: recv corpus entry: %w", err)
		}
		if entryMsg.Type != transport.NaivePacketCorpusEntry {
			return entries, fmt.Errorf("%w: type %d from rank 0", ErrUnexpectedPacket, entryMsg.Type)
		}
		entries = append(entries, entryMsg.Payload)
	}
	return entries, nil
}

// OnTestcaseFound uploads a newly found testcase to rank 0. Unlike the
// partitioned mode, this is unconditional: every worker ships every
// interesting testcase and rank 0 appends it without deduplication,
// matching the original naive fuzzer's corpus growth.
func (w *NaiveWorker) OnTestcaseFound(ctx context.Context, data []byte) error {
	if err := w.transport.Send(ctx, 0, transport.NaivePacketTestcaseFound, data); err != nil {
		return fmt.Errorf("cluster: upload testcase: %w", err)
	}
	return nil
}
