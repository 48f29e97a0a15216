package graph

// Merge adopts every node of other into g: nodes absent locally are
// cloned in (weight and identity only, no children yet); nodes present
// locally have their weights added. Child relationships are then
// unioned by key, so merge is commutative and associative up to
// child-list ordering — the multiset of (key -> weight) and the
// (parent-key -> child-key-set) relation are identical regardless of
// merge order.
func (g *DGraph) Merge(other *DGraph) {
	// Pass 1: adopt or accumulate every node by key, independent of
	// tree shape, mirroring the keyed index other exposes.
	for key, otherNode := range other.index {
		if local, ok := g.index[key]; ok {
			local.Weight += otherNode.Weight
			continue
		}
		clone := &Node{
			EdgeID:     otherNode.EdgeID,
			Nth:        otherNode.Nth,
			Weight:     otherNode.Weight,
			childIndex: make(map[Key]int),
		}
		g.index[key] = clone
	}

	// Pass 2: union children by key. Parent and child nodes are now
	// guaranteed to exist in g.index (root always does; every other key
	// was adopted or already present in pass 1).
	for key, otherNode := range other.index {
		parent := g.index[key]
		for _, otherChild := range otherNode.children {
			child := g.index[otherChild.Key()]
			parent.addChild(child)
		}
	}
}
