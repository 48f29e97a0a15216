package graph

import (
	"fmt"

	"github.com/golang/snappy"
)

// compressionThreshold is the largest Serialize() output sent raw; longer
// outputs are snappy-compressed before framing, since compression overhead
// isn't worth it for small payloads.
const compressionThreshold = 4096

// EncodeFrame serializes g and snappy-compresses the result once it
// exceeds compressionThreshold, prefixing a one-byte flag (0 = raw
// Serialize() bytes, 1 = snappy-compressed) so DecodeFrame knows which it
// received. The uncompressed logical content is still exactly Serialize's
// encoding; compression is a framing-layer detail only.
func (g *DGraph) EncodeFrame() []byte {
	raw := g.Serialize()
	if len(raw) <= compressionThreshold {
		return append([]byte{0}, raw...)
	}
	return append([]byte{1}, snappy.Encode(nil, raw)...)
}

// DecodeFrame reverses EncodeFrame, decompressing first if the flag byte
// indicates a snappy payload, then handing the logical bytes to Deserialize.
func DecodeFrame(data []byte) (*DGraph, error) {
	if len(data) == 0 {
		return nil, ErrMalformedGraph
	}
	flag, payload := data[0], data[1:]
	switch flag {
	case 0:
		return Deserialize(payload)
	case 1:
		raw, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("graph: snappy decode: %w", err)
		}
		return Deserialize(raw)
	default:
		return nil, fmt.Errorf("graph: unknown frame flag %d: %w", flag, ErrMalformedGraph)
	}
}
