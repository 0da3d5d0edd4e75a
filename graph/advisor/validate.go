package advisor

import (
	"fmt"

	"github.com/dshills/graphvm/graph"
)

// Validate checks that diff applies cleanly to snap:
//   - removed nodes and edges exist
//   - added nodes have fresh, non-zero ids and, when catalog is non-empty,
//     a type from it
//   - added edges are new, use non-negative ports, are not self-loops, and
//     connect nodes that survive the change or are added by it
//
// Errors wrap ErrInvalidSuggestion.
func Validate(snap graph.Snapshot, diff graph.GraphDiff, catalog []string) error {
	existing := make(map[graph.NodeID]struct{}, len(snap.Nodes))
	for _, n := range snap.Nodes {
		existing[n.ID] = struct{}{}
	}
	edges := make(map[graph.Edge]struct{}, len(snap.Edges))
	for _, e := range snap.Edges {
		edges[e] = struct{}{}
	}
	allowed := make(map[string]struct{}, len(catalog))
	for _, t := range catalog {
		allowed[t] = struct{}{}
	}

	removed := make(map[graph.NodeID]struct{}, len(diff.RemovedNodes))
	for _, n := range diff.RemovedNodes {
		if _, ok := existing[n.ID]; !ok {
			return invalid("removed node %d does not exist", n.ID)
		}
		removed[n.ID] = struct{}{}
	}

	added := make(map[graph.NodeID]struct{}, len(diff.AddedNodes))
	for _, n := range diff.AddedNodes {
		if n.ID == 0 {
			return invalid("added node has id 0")
		}
		if _, ok := existing[n.ID]; ok {
			return invalid("added node %d already exists", n.ID)
		}
		if _, dup := added[n.ID]; dup {
			return invalid("added node %d listed twice", n.ID)
		}
		if len(allowed) > 0 {
			if _, ok := allowed[n.Type]; !ok {
				return invalid("node type %q is not in the catalog", n.Type)
			}
		}
		added[n.ID] = struct{}{}
	}

	for _, e := range diff.RemovedEdges {
		if _, ok := edges[e]; !ok {
			return invalid("removed edge %s does not exist", e)
		}
	}

	alive := func(id graph.NodeID) bool {
		if _, ok := added[id]; ok {
			return true
		}
		_, ok := existing[id]
		_, gone := removed[id]
		return ok && !gone
	}
	for _, e := range diff.AddedEdges {
		if e.FromPort < 0 || e.ToPort < 0 {
			return invalid("edge %s has a negative port", e)
		}
		if e.FromNode == e.ToNode {
			return invalid("edge %s is a self-loop", e)
		}
		if !alive(e.FromNode) || !alive(e.ToNode) {
			return invalid("edge %s references a missing node", e)
		}
		if _, ok := edges[e]; ok {
			return invalid("edge %s already exists", e)
		}
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidSuggestion}, args...)...)
}

// Preview returns snap with diff applied, for display before approval.
// Removing a node also drops its edges. Added elements go last, in diff
// order. Preview does not validate; use Validate first.
func Preview(snap graph.Snapshot, diff graph.GraphDiff) graph.Snapshot {
	removedNodes := make(map[graph.NodeID]struct{}, len(diff.RemovedNodes))
	for _, n := range diff.RemovedNodes {
		removedNodes[n.ID] = struct{}{}
	}
	removedEdges := make(map[graph.Edge]struct{}, len(diff.RemovedEdges))
	for _, e := range diff.RemovedEdges {
		removedEdges[e] = struct{}{}
	}

	var out graph.Snapshot
	for _, n := range snap.Nodes {
		if _, gone := removedNodes[n.ID]; !gone {
			out.Nodes = append(out.Nodes, n)
		}
	}
	out.Nodes = append(out.Nodes, diff.AddedNodes...)

	for _, e := range snap.Edges {
		_, fromGone := removedNodes[e.FromNode]
		_, toGone := removedNodes[e.ToNode]
		_, gone := removedEdges[e]
		if !fromGone && !toGone && !gone {
			out.Edges = append(out.Edges, e)
		}
	}
	out.Edges = append(out.Edges, diff.AddedEdges...)
	return out
}
