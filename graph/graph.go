package graph

import (
	"sort"

	"github.com/dshills/graphvm/graph/emit"
)

// Graph is the generic dataflow container for one domain.
//
// A Graph:
//   - Owns its nodes (indexed by NodeID) and edges
//   - Derives an execution order in Compile
//   - Evaluates every node once per Execute, in that order
//   - Caches each pass's outputs, keyed by (node, port)
//
// Any structural mutation (AddNode, RemoveNode, AddEdge, RemoveEdge, Clear)
// invalidates compilation. Execute refuses to run until Compile succeeds
// again.
//
// A Graph is not safe for concurrent use. Callers must serialize structural
// mutation, Compile and Execute on the same instance (one graph per
// simulation entity, or an external lock).
//
// Type parameter T is the domain's port type, C its execution context.
//
// Example:
//
//	g := graph.New[anim.PortType, anim.Context]()
//	a := g.AddNode(anim.NewPoseSource(pose))
//	b := g.AddNode(anim.NewBlend())
//	g.AddEdge(graph.Connect(a, 0, b, 0))
//	g.AddEdge(graph.Connect(a, 0, b, 1))
//	if err := g.Compile(); err != nil {
//	    return err
//	}
//	if err := g.Execute(anim.Context{Tick: 1}); err != nil {
//	    return err
//	}
//	out, ok := g.Output(b, 0)
type Graph[T PortType, C any] struct {
	cfg config

	nodes  map[NodeID]Node[T, C]
	nextID NodeID
	edges  []Edge

	compiled bool
	order    []NodeID
	sources  map[inputKey]Edge

	outputs map[OutputKey]Value[T]
	passes  int
}

// New creates an empty graph.
func New[T PortType, C any](opts ...Option) *Graph[T, C] {
	return &Graph[T, C]{
		cfg:     buildConfig(opts),
		nodes:   make(map[NodeID]Node[T, C]),
		edges:   make([]Edge, 0),
		outputs: make(map[OutputKey]Value[T]),
	}
}

// GraphID returns the identifier configured with WithGraphID.
func (g *Graph[T, C]) GraphID() uint64 {
	return g.cfg.graphID
}

// AddNode stores node under the next unused id and returns that id.
//
// A nil node is ignored and 0 (never a valid id) is returned.
func (g *Graph[T, C]) AddNode(node Node[T, C]) NodeID {
	if node == nil {
		return 0
	}
	g.nextID++
	id := g.nextID
	g.nodes[id] = node
	g.invalidate()
	return id
}

// RemoveNode deletes a node together with every edge touching it.
//
// Returns false, leaving the graph untouched, if id is unknown.
func (g *Graph[T, C]) RemoveNode(id NodeID) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.FromNode == id || e.ToNode == id {
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept

	g.invalidate()
	return true
}

// AddEdge inserts an edge exactly as given.
//
// Endpoints are not checked here; Compile validates them. This allows edges
// to be restored before or after the nodes they reference (e.g. by an undo
// layer). Duplicate edges are permitted.
func (g *Graph[T, C]) AddEdge(e Edge) {
	g.edges = append(g.edges, e)
	g.invalidate()
}

// RemoveEdge erases every edge equal to e.
//
// Returns false, leaving the graph compiled state untouched, if no such edge
// exists.
func (g *Graph[T, C]) RemoveEdge(e Edge) bool {
	removed := false
	kept := g.edges[:0]
	for _, existing := range g.edges {
		if existing == e {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	g.edges = kept

	if removed {
		g.invalidate()
	}
	return removed
}

// Node returns the node stored under id.
func (g *Graph[T, C]) Node(id NodeID) (Node[T, C], bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node id in ascending order.
func (g *Graph[T, C]) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Edges returns a copy of the edge list in insertion order.
func (g *Graph[T, C]) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph[T, C]) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges, duplicates included.
func (g *Graph[T, C]) EdgeCount() int {
	return len(g.edges)
}

// IsCompiled reports whether Compile has succeeded since the last mutation.
func (g *Graph[T, C]) IsCompiled() bool {
	return g.compiled
}

// ExecutionOrder returns a copy of the compiled order, or nil if the graph
// is not compiled.
func (g *Graph[T, C]) ExecutionOrder() []NodeID {
	if !g.compiled {
		return nil
	}
	out := make([]NodeID, len(g.order))
	copy(out, g.order)
	return out
}

// Clear removes every node, edge and cached output. Id allocation continues
// from where it left off so ids are never reused by the same instance.
func (g *Graph[T, C]) Clear() {
	g.nodes = make(map[NodeID]Node[T, C])
	g.edges = make([]Edge, 0)
	g.outputs = make(map[OutputKey]Value[T])
	g.passes = 0
	g.invalidate()
}

// invalidate drops the compiled order after a structural mutation.
func (g *Graph[T, C]) invalidate() {
	g.compiled = false
	g.order = nil
	g.sources = nil
}

func (g *Graph[T, C]) emit(step int, node NodeID, msg string, meta map[string]interface{}) {
	if g.cfg.emitter == nil {
		return
	}
	g.cfg.emitter.Emit(emit.Event{
		GraphID: g.cfg.graphID,
		Step:    step,
		NodeID:  uint64(node),
		Msg:     msg,
		Meta:    meta,
	})
}
