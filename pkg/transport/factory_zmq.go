//go:build zmq
// +build zmq

package transport

import "fmt"

// Build selects a transport backend by name. This build was compiled
// with the zmq tag.
func Build(rank int, backend string, addrs map[int]string) (Transport, error) {
	switch backend {
	case "zmq":
		return NewZMQTransport(rank, addrs)
	default:
		return nil, fmt.Errorf("transport: backend %q not available in this build (built with -tags zmq)", backend)
	}
}
