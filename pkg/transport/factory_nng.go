//go:build nng
// +build nng

package transport

import "fmt"

// Build selects a transport backend by name. This build was compiled
// with the nng tag.
func Build(rank int, backend string, addrs map[int]string) (Transport, error) {
	switch backend {
	case "nng":
		return NewNNGTransport(rank, addrs)
	default:
		return nil, fmt.Errorf("transport: backend %q not available in this build (built with -tags nng)", backend)
	}
}
