// Package transport implements the ranked point-to-point wire protocol
// used for reconciliation and testcase routing between the coordinator
// (rank 0) and workers (rank > 0).
package transport

import "context"

// Packet types, per the wire protocol.
const (
	PacketLocalGraph  = 0 // worker -> rank 0: serialized local DGraph
	PacketGlobalGraph = 1 // rank 0 -> worker: serialized master DGraph
	PacketTestcase    = 2 // worker -> worker: raw testcase bytes
)

// Naive-mode packet types (pkg/cluster.NaiveCoordinator/NaiveWorker). The
// naive reconciliation mode has no partitioning and no graph exchange: it
// only synchronizes a flat seed corpus between rank 0 and every worker,
// reusing types 0-2 for a different purpose and adding type 3. A single
// Transport is never shared between a Coordinator and a NaiveCoordinator,
// so the overlapping numeric values never collide on the wire.
const (
	NaivePacketRequestCorpus = 0 // worker -> rank 0: request corpus entries past its known offset
	NaivePacketCorpusSize    = 1 // rank 0 -> worker: 4-byte big-endian count of entries to follow
	NaivePacketCorpusEntry   = 2 // rank 0 -> worker: one corpus entry
	NaivePacketTestcaseFound = 3 // worker -> rank 0: a newly found testcase, added to the corpus
)

// BufferSize is the fixed on-wire frame size. Frames are padded to this
// length; EncodeFrame rejects payloads longer than MaxPayload rather
// than truncating them.
const BufferSize = 4096

// HeaderSize is the length-prefix plus packet-type byte preceding the
// payload in every frame.
const HeaderSize = 5

// MaxPayload is the largest payload a single frame can carry.
const MaxPayload = BufferSize - HeaderSize

// Message is a decoded frame.
type Message struct {
	From    int
	Type    uint8
	Payload []byte
}

// Transport is a ranked, point-to-point and any-source message channel.
// Implementations correspond to the pluggable backends named in the
// wire protocol: an in-process LocalTransport for tests and single-host
// runs, and build-tagged ZeroMQ/nanomsg backends for distributed runs.
type Transport interface {
	// Rank reports this transport's own rank.
	Rank() int

	// Send blocks until the frame is delivered to the given rank.
	Send(ctx context.Context, to int, packetType uint8, payload []byte) error

	// Recv blocks until a frame from the given rank arrives.
	Recv(ctx context.Context, from int) (Message, error)

	// RecvAny performs a non-blocking probe across all senders. ok is
	// false if nothing is pending.
	RecvAny() (msg Message, ok bool, err error)

	// Close releases transport resources.
	Close() error
}

// ErrNotAvailable reports that no message is available. No backend in
// this package returns it: RecvAny reports an empty probe with ok false.
type ErrNotAvailable struct{}

func (ErrNotAvailable) Error() string { return "transport: no message available" }
