package graph

import (
	"encoding/binary"
	"fmt"
)

// nodeRecordSize is the encoded size of one (edge_id, nth, weight) triple.
const nodeRecordSize = 4 + 1 + 8

// edgeRecordSize is the encoded size of one (parent_edge_id, child_edge_id) pair.
const edgeRecordSize = 4 + 4

// Serialize produces the compact binary encoding described in §6:
// node_count, node_count*(edge_id,nth,weight), edge_count,
// edge_count*(parent_edge_id,child_edge_id). Edges are keyed only by
// edge_id, not by (edge_id, nth): Deserialize therefore collapses
// distinct nth occurrences of the same edge when rebuilding children.
func (g *DGraph) Serialize() []byte {
	type edgeRecord struct{ parent, child uint32 }
	edges := make([]edgeRecord, 0)
	for _, n := range g.index {
		for _, child := range n.children {
			edges = append(edges, edgeRecord{parent: n.EdgeID, child: child.EdgeID})
		}
	}

	size := 8 + len(g.index)*nodeRecordSize + 8 + len(edges)*edgeRecordSize
	buf := make([]byte, size)
	off := 0

	binary.LittleEndian.PutUint64(buf[off:], uint64(len(g.index)))
	off += 8
	for _, n := range g.index {
		binary.LittleEndian.PutUint32(buf[off:], n.EdgeID)
		off += 4
		buf[off] = n.Nth
		off++
		binary.LittleEndian.PutUint64(buf[off:], n.Weight)
		off += 8
	}

	binary.LittleEndian.PutUint64(buf[off:], uint64(len(edges)))
	off += 8
	for _, e := range edges {
		binary.LittleEndian.PutUint32(buf[off:], e.parent)
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], e.child)
		off += 4
	}

	return buf
}

// Deserialize reconstructs a graph from Serialize's encoding. The root
// entry is re-synthesized and children lists are repopulated from the
// edge list, which (per the collapse note on Serialize) reconnects
// children using their edge_id with nth=0 regardless of the nth under
// which they were originally observed. Node weights are preserved
// exactly for every (edge_id, nth) pair. Fails with ErrMalformedGraph
// when the byte stream does not conform, including trailing bytes or an
// under-length stream.
func Deserialize(data []byte) (*DGraph, error) {
	off := 0
	readU64 := func() (uint64, error) {
		if off+8 > len(data) {
			return 0, ErrMalformedGraph
		}
		v := binary.LittleEndian.Uint64(data[off:])
		off += 8
		return v, nil
	}

	nodeCount, err := readU64()
	if err != nil {
		return nil, err
	}

	g := New()
	// byEdgeID resolves an edge_id to the nth=0 node used for
	// child-linking purposes, synthesizing one if none was observed.
	byEdgeID := make(map[uint32]*Node)
	byEdgeID[RootKey.EdgeID] = g.root

	for i := uint64(0); i < nodeCount; i++ {
		if off+nodeRecordSize > len(data) {
			return nil, fmt.Errorf("graph: node record %d truncated: %w", i, ErrMalformedGraph)
		}
		edgeID := binary.LittleEndian.Uint32(data[off:])
		off += 4
		nth := data[off]
		off++
		weight := binary.LittleEndian.Uint64(data[off:])
		off += 8

		key := Key{EdgeID: edgeID, Nth: nth}
		if key == RootKey {
			g.root.Weight = weight
			continue
		}
		node := &Node{EdgeID: edgeID, Nth: nth, Weight: weight, childIndex: make(map[Key]int)}
		g.index[key] = node
		if nth == 0 {
			byEdgeID[edgeID] = node
		}
	}

	edgeCount, err := readU64()
	if err != nil {
		return nil, err
	}

	nodeFor := func(edgeID uint32) *Node {
		if n, ok := byEdgeID[edgeID]; ok {
			return n
		}
		n := &Node{EdgeID: edgeID, Nth: 0, Weight: 0, childIndex: make(map[Key]int)}
		byEdgeID[edgeID] = n
		g.index[Key{EdgeID: edgeID, Nth: 0}] = n
		return n
	}

	for i := uint64(0); i < edgeCount; i++ {
		if off+edgeRecordSize > len(data) {
			return nil, fmt.Errorf("graph: edge record %d truncated: %w", i, ErrMalformedGraph)
		}
		parentEdgeID := binary.LittleEndian.Uint32(data[off:])
		off += 4
		childEdgeID := binary.LittleEndian.Uint32(data[off:])
		off += 4

		parent := nodeFor(parentEdgeID)
		child := nodeFor(childEdgeID)
		parent.addChild(child)
	}

	if off != len(data) {
		return nil, fmt.Errorf("graph: %d trailing bytes: %w", len(data)-off, ErrMalformedGraph)
	}

	return g, nil
}
