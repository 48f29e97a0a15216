//go:build !zmq && !nng
// +build !zmq,!nng

package transport

import "fmt"

// Build selects a transport backend by name. This build was compiled
// without the zmq or nng tags, so Build constructs no backend and always
// returns an error: for "local" (or "") it points the caller at
// NewLocalCluster, since a LocalTransport is not shareable across
// processes; for "zmq" or "nng" it names the build tag required.
func Build(rank int, backend string, addrs map[int]string) (Transport, error) {
	switch backend {
	case "local", "":
		return nil, fmt.Errorf("transport: backend %q requires constructing a shared LocalTransport cluster via NewLocalCluster, not Build", backend)
	case "zmq":
		return nil, fmt.Errorf("transport: backend %q requires building with -tags zmq", backend)
	case "nng":
		return nil, fmt.Errorf("transport: backend %q requires building with -tags nng", backend)
	default:
		return nil, fmt.Errorf("transport: unknown backend %q", backend)
	}
}
