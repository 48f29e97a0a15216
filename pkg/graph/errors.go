package graph

import "errors"

// ErrMalformedGraph is returned by Deserialize when the byte stream does
// not conform to the serialized DGraph format (§6), and by DecodeFrame
// for an empty frame or an unknown flag byte.
var ErrMalformedGraph = errors.New("graph: malformed serialized graph")
