package graph

import (
	"container/heap"
	"fmt"
)

// Compile validates the graph and derives its execution order.
//
// Compilation runs in two phases:
//
//  1. Edge validation: every edge's endpoints must exist, its port indices
//     must be in range and, unless WithStrictTypes(false) was given, the
//     source and destination port types must be equal. Two distinct edges
//     into the same input are resolved by the configured FanInPolicy.
//
//  2. Ordering: Kahn's algorithm over the edge list. When several nodes are
//     ready at once the lowest NodeID goes first, so structurally identical
//     graphs always compile to the same order regardless of map iteration.
//     If fewer nodes are ordered than exist, the graph has a cycle.
//
// On failure Compile returns a *GraphError wrapping ErrInvalidEdge,
// ErrTypeMismatch, ErrInputConflict or ErrCycle, and no previous order
// survives. On success IsCompiled reports true until the next mutation.
//
// Compile is idempotent: on an unmodified graph repeated calls produce the
// same order.
func (g *Graph[T, C]) Compile() error {
	g.invalidate()

	sources, err := g.validateEdges()
	if err != nil {
		return g.compileFailed(err)
	}

	order, err := g.topoOrder()
	if err != nil {
		return g.compileFailed(err)
	}

	g.order = order
	g.sources = sources
	g.compiled = true

	g.cfg.metrics.RecordCompile(g.cfg.graphID, true)
	g.emit(g.passes, 0, "graph_compiled", map[string]interface{}{
		"nodes": len(g.nodes),
		"edges": len(g.edges),
	})
	return nil
}

func (g *Graph[T, C]) compileFailed(err *GraphError) error {
	g.cfg.metrics.RecordCompile(g.cfg.graphID, false)
	meta := map[string]interface{}{
		"code":  err.Code,
		"error": err.Error(),
	}
	if err.Edge != nil {
		meta["edge"] = err.Edge.String()
	}
	g.emit(g.passes, 0, "compile_failed", meta)
	return err
}

// validateEdges checks every edge and returns the resolved source edge for
// each connected input.
func (g *Graph[T, C]) validateEdges() (map[inputKey]Edge, *GraphError) {
	sources := make(map[inputKey]Edge, len(g.edges))

	for i := range g.edges {
		e := g.edges[i]

		from, ok := g.nodes[e.FromNode]
		if !ok {
			return nil, edgeError(CodeDanglingEdge, ErrInvalidEdge, e,
				fmt.Sprintf("edge %s: source node %d does not exist", e, e.FromNode))
		}
		to, ok := g.nodes[e.ToNode]
		if !ok {
			return nil, edgeError(CodeDanglingEdge, ErrInvalidEdge, e,
				fmt.Sprintf("edge %s: destination node %d does not exist", e, e.ToNode))
		}

		outs := from.Outputs()
		if e.FromPort < 0 || e.FromPort >= len(outs) {
			return nil, edgeError(CodePortOutOfRange, ErrInvalidEdge, e,
				fmt.Sprintf("edge %s: node %d (%s) has %d outputs", e, e.FromNode, from.Kind(), len(outs)))
		}
		ins := to.Inputs()
		if e.ToPort < 0 || e.ToPort >= len(ins) {
			return nil, edgeError(CodePortOutOfRange, ErrInvalidEdge, e,
				fmt.Sprintf("edge %s: node %d (%s) has %d inputs", e, e.ToNode, to.Kind(), len(ins)))
		}

		if g.cfg.strictTypes && outs[e.FromPort].Type != ins[e.ToPort].Type {
			return nil, edgeError(CodeTypeMismatch, ErrTypeMismatch, e,
				fmt.Sprintf("edge %s: output %q is %s, input %q is %s",
					e, outs[e.FromPort].Name, outs[e.FromPort].Type,
					ins[e.ToPort].Name, ins[e.ToPort].Type))
		}

		key := inputKey{node: e.ToNode, port: e.ToPort}
		prev, connected := sources[key]
		switch {
		case !connected:
			sources[key] = e
		case prev == e:
			// exact duplicate
		case g.cfg.fanIn == FanInReject:
			return nil, edgeError(CodeInputConflict, ErrInputConflict, e,
				fmt.Sprintf("edge %s: input %d of node %d is already fed by %s", e, e.ToPort, e.ToNode, prev))
		case e.less(prev):
			sources[key] = e
		}
	}

	return sources, nil
}

// topoOrder runs Kahn's algorithm with a min-heap ready queue.
func (g *Graph[T, C]) topoOrder() ([]NodeID, *GraphError) {
	indeg := make(map[NodeID]int, len(g.nodes))
	outgoing := make(map[NodeID][]NodeID, len(g.nodes))
	for id := range g.nodes {
		indeg[id] = 0
	}
	for _, e := range g.edges {
		indeg[e.ToNode]++
		outgoing[e.FromNode] = append(outgoing[e.FromNode], e.ToNode)
	}

	ready := &nodeHeap{}
	for id, d := range indeg {
		if d == 0 {
			*ready = append(*ready, id)
		}
	}
	heap.Init(ready)

	order := make([]NodeID, 0, len(g.nodes))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(NodeID)
		order = append(order, id)
		for _, next := range outgoing[id] {
			indeg[next]--
			if indeg[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, &GraphError{
			Message: fmt.Sprintf("cycle detected: %d of %d nodes could not be ordered", len(g.nodes)-len(order), len(g.nodes)),
			Code:    CodeCycle,
			Err:     ErrCycle,
		}
	}
	return order, nil
}

func edgeError(code string, sentinel error, e Edge, msg string) *GraphError {
	return &GraphError{Message: msg, Code: code, Edge: &e, Err: sentinel}
}

// nodeHeap is a min-heap of node ids.
type nodeHeap []NodeID

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(NodeID)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
