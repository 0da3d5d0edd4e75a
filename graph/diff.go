package graph

// GraphDiff is the structural difference between two snapshots.
//
// Nodes are identified by id and edges by their full 4-tuple, never by list
// position. Both sides are treated as sets, so duplicate entries collapse.
// A node whose id survives but whose type changed is not reported.
type GraphDiff struct {
	AddedNodes   []SnapshotNode `json:"addedNodes,omitempty" msgpack:"addedNodes,omitempty"`
	RemovedNodes []SnapshotNode `json:"removedNodes,omitempty" msgpack:"removedNodes,omitempty"`
	AddedEdges   []Edge         `json:"addedEdges,omitempty" msgpack:"addedEdges,omitempty"`
	RemovedEdges []Edge         `json:"removedEdges,omitempty" msgpack:"removedEdges,omitempty"`
}

// HasChanges reports whether the diff contains any element.
func (d GraphDiff) HasChanges() bool {
	return d.TotalChanges() > 0
}

// TotalChanges returns the number of added and removed nodes and edges.
func (d GraphDiff) TotalChanges() int {
	return len(d.AddedNodes) + len(d.RemovedNodes) + len(d.AddedEdges) + len(d.RemovedEdges)
}

// Invert swaps additions and removals.
func (d GraphDiff) Invert() GraphDiff {
	return GraphDiff{
		AddedNodes:   d.RemovedNodes,
		RemovedNodes: d.AddedNodes,
		AddedEdges:   d.RemovedEdges,
		RemovedEdges: d.AddedEdges,
	}
}

// ComputeGraphDiff returns what changed from before to after.
//
// Added elements appear in after's order, removed elements in before's
// order, so ComputeGraphDiff(b, a) is ComputeGraphDiff(a, b).Invert().
func ComputeGraphDiff(before, after Snapshot) GraphDiff {
	var d GraphDiff
	d.RemovedNodes = missingNodes(before.Nodes, after.Nodes)
	d.AddedNodes = missingNodes(after.Nodes, before.Nodes)
	d.RemovedEdges = missingEdges(before.Edges, after.Edges)
	d.AddedEdges = missingEdges(after.Edges, before.Edges)
	return d
}

// missingNodes returns the nodes of from whose id is absent from other.
func missingNodes(from, other []SnapshotNode) []SnapshotNode {
	present := make(map[NodeID]struct{}, len(other))
	for _, n := range other {
		present[n.ID] = struct{}{}
	}
	seen := make(map[NodeID]struct{}, len(from))
	var out []SnapshotNode
	for _, n := range from {
		if _, ok := present[n.ID]; ok {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

// missingEdges returns the edges of from absent from other.
func missingEdges(from, other []Edge) []Edge {
	present := make(map[Edge]struct{}, len(other))
	for _, e := range other {
		present[e] = struct{}{}
	}
	seen := make(map[Edge]struct{}, len(from))
	var out []Edge
	for _, e := range from {
		if _, ok := present[e]; ok {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
