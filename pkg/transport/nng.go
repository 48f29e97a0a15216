//go:build nng
// +build nng

package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pull"
	"go.nanomsg.org/mangos/v3/protocol/push"
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// NNGTransport implements Transport over nanomsg PUSH/PULL sockets:
// every rank listens on one PULL socket and dials one PUSH socket to
// every peer. PUSH/PULL carries no sender identity on the wire, so the
// sender's rank is prepended to the frame and stripped back out on
// receive.
type NNGTransport struct {
	rank  int
	pull  mangos.Socket
	mu    sync.Mutex
	push  map[int]mangos.Socket
}

// NewNNGTransport listens on addrs[rank] and dials every other rank's
// address.
func NewNNGTransport(rank int, addrs map[int]string) (*NNGTransport, error) {
	pullSock, err := pull.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("transport: create pull socket: %w", err)
	}
	if err := pullSock.Listen(addrs[rank]); err != nil {
		pullSock.Close()
		return nil, fmt.Errorf("transport: listen: %w", err)
	}

	t := &NNGTransport{rank: rank, pull: pullSock, push: make(map[int]mangos.Socket)}

	for peer, addr := range addrs {
		if peer == rank {
			continue
		}
		pushSock, err := push.NewSocket()
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("transport: create push socket for rank %d: %w", peer, err)
		}
		if err := pushSock.Dial(addr); err != nil {
			pushSock.Close()
			t.Close()
			return nil, fmt.Errorf("transport: dial rank %d: %w", peer, err)
		}
		t.push[peer] = pushSock
	}

	return t, nil
}

func (t *NNGTransport) Rank() int { return t.rank }

func (t *NNGTransport) Send(ctx context.Context, to int, packetType uint8, payload []byte) error {
	frame, err := EncodeFrame(packetType, payload)
	if err != nil {
		return err
	}
	tagged := make([]byte, 4+len(frame))
	binary.BigEndian.PutUint32(tagged[0:4], uint32(t.rank))
	copy(tagged[4:], frame)

	t.mu.Lock()
	sock, ok := t.push[to]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("transport: no push socket for rank %d", to)
	}
	return sock.Send(tagged)
}

func (t *NNGTransport) Recv(ctx context.Context, from int) (Message, error) {
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

func (t *NNGTransport) RecvAny() (Message, bool, error) {
	t.pull.SetOption(mangos.OptionRecvDeadline, time.Millisecond)
	raw, err := t.pull.Recv()
	if err != nil {
		return Message{}, false, nil
	}
	if len(raw) < 4 {
		return Message{}, false, fmt.Errorf("transport: short nng frame")
	}
	from := int(binary.BigEndian.Uint32(raw[0:4]))
	packetType, payload, err := DecodeFrame(raw[4:])
	if err != nil {
		return Message{}, false, err
	}
	return Message{From: from, Type: packetType, Payload: payload}, true, nil
}

func (t *NNGTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.push {
		s.Close()
	}
	return t.pull.Close()
}
