package graph

// SnapshotNode is the structural projection of one node.
type SnapshotNode struct {
	ID   NodeID `json:"id" msgpack:"id"`
	Type string `json:"type" msgpack:"type"`
}

// Snapshot is a structural-only projection of a graph, or of any other
// system that can describe itself as nodes and edges (a world chunk, an AI
// plan, a dialogue tree).
//
// Snapshots carry no node behavior or runtime values. They exist for
// comparison, hashing and recording, and are safe to keep after the graph
// they came from has changed.
//
// Diff and HashSnapshot are defined over the sequences as given; they do
// not canonicalize order.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes" msgpack:"nodes"`
	Edges []Edge         `json:"edges" msgpack:"edges"`
}

// Snapshotter is implemented by anything that can project itself into a
// Snapshot.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Snapshot lists nodes in ascending id order (type is Node.Kind) and edges
// in insertion order.
func (g *Graph[T, C]) Snapshot() Snapshot {
	ids := g.Nodes()
	snap := Snapshot{
		Nodes: make([]SnapshotNode, 0, len(ids)),
		Edges: g.Edges(),
	}
	for _, id := range ids {
		snap.Nodes = append(snap.Nodes, SnapshotNode{ID: id, Type: g.nodes[id].Kind()})
	}
	return snap
}

// Clone returns a copy that shares no backing arrays with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{}
	if s.Nodes != nil {
		out.Nodes = make([]SnapshotNode, len(s.Nodes))
		copy(out.Nodes, s.Nodes)
	}
	if s.Edges != nil {
		out.Edges = make([]Edge, len(s.Edges))
		copy(out.Edges, s.Edges)
	}
	return out
}

// Hash is shorthand for HashSnapshot(s).
func (s Snapshot) Hash() uint64 {
	return HashSnapshot(s)
}
