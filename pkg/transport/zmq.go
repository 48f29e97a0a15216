//go:build zmq
// +build zmq

package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"
)

// ZMQTransport implements Transport over ZeroMQ ROUTER/DEALER sockets:
// every rank binds a ROUTER socket identified by its rank and connects
// a DEALER to every peer's ROUTER endpoint, giving point-to-point send
// with FIFO delivery per peer and a non-blocking any-source probe on
// the ROUTER socket.
type ZMQTransport struct {
	rank  int
	addrs map[int]string

	router  *zmq.Socket
	dealers map[int]*zmq.Socket
	mu      sync.Mutex
}

// NewZMQTransport binds a ROUTER socket on addrs[rank] and connects a
// DEALER socket to every other rank's address.
func NewZMQTransport(rank int, addrs map[int]string) (*ZMQTransport, error) {
	router, err := zmq.NewSocket(zmq.ROUTER)
	if err != nil {
		return nil, fmt.Errorf("transport: create router: %w", err)
	}
	if err := router.SetIdentity(fmt.Sprintf("rank-%d", rank)); err != nil {
		router.Close()
		return nil, fmt.Errorf("transport: set identity: %w", err)
	}
	if err := router.Bind(addrs[rank]); err != nil {
		router.Close()
		return nil, fmt.Errorf("transport: bind router: %w", err)
	}

	t := &ZMQTransport{
		rank:    rank,
		addrs:   addrs,
		router:  router,
		dealers: make(map[int]*zmq.Socket),
	}

	for peer, addr := range addrs {
		if peer == rank {
			continue
		}
		dealer, err := zmq.NewSocket(zmq.DEALER)
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("transport: create dealer for rank %d: %w", peer, err)
		}
		if err := dealer.SetIdentity(fmt.Sprintf("rank-%d", rank)); err != nil {
			dealer.Close()
			t.Close()
			return nil, err
		}
		if err := dealer.Connect(addr); err != nil {
			dealer.Close()
			t.Close()
			return nil, fmt.Errorf("transport: connect dealer to rank %d: %w", peer, err)
		}
		t.dealers[peer] = dealer
	}

	return t, nil
}

func (t *ZMQTransport) Rank() int { return t.rank }

func (t *ZMQTransport) Send(ctx context.Context, to int, packetType uint8, payload []byte) error {
	frame, err := EncodeFrame(packetType, payload)
	if err != nil {
		return err
	}
	t.mu.Lock()
	dealer, ok := t.dealers[to]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("transport: no dealer for rank %d", to)
	}
	_, err = dealer.SendBytes(frame, 0)
	return err
}

func (t *ZMQTransport) Recv(ctx context.Context, from int) (Message, error) {
	for {
		msg, ok, err := t.RecvAny()
		if err != nil {
			return Message{}, err
		}
		if ok && msg.From == from {
			return msg, nil
		}
		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (t *ZMQTransport) RecvAny() (Message, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.router.SetRcvtimeo(0)
	parts, err := t.router.RecvMessageBytes(zmq.DONTWAIT)
	if err != nil {
		return Message{}, false, nil
	}
	if len(parts) < 2 {
		return Message{}, false, fmt.Errorf("transport: malformed router frame")
	}
	identity := string(parts[0])
	frame := parts[len(parts)-1]

	packetType, payload, err := DecodeFrame(frame)
	if err != nil {
		return Message{}, false, err
	}

	from := rankFromIdentity(identity)
	return Message{From: from, Type: packetType, Payload: payload}, true, nil
}

func (t *ZMQTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range t.dealers {
		d.Close()
	}
	return t.router.Close()
}

func rankFromIdentity(identity string) int {
	var rank int
	fmt.Sscanf(identity, "rank-%d", &rank)
	return rank
}
