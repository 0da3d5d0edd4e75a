package graph

import "time"

// OutputSet is a copy of one pass's output cache.
type OutputSet[T PortType] map[OutputKey]Value[T]

// Get returns the value stored for (node, port).
func (s OutputSet[T]) Get(node NodeID, port int) (Value[T], bool) {
	v, ok := s[OutputKey{Node: node, Port: port}]
	return v, ok
}

// Execute runs one evaluation pass over the compiled order.
//
// Execute returns a *GraphError wrapping ErrNotCompiled, without touching
// the output cache, when the graph has not been compiled since its last
// mutation. Otherwise it:
//
//  1. Clears the (node, port) output cache
//  2. For each node in execution order builds an input vector sized to
//     Inputs(), filled from the resolved upstream edge of each slot
//     (unconnected slots receive the zero value of their declared type)
//  3. Invokes Evaluate with outputs pre-filled with zero values
//  4. Stores every output under (node, port)
//
// Execute runs to completion on the calling goroutine; there is no
// cancellation. Inputs are deep copies so a node cannot corrupt an upstream
// output that other consumers will also read.
func (g *Graph[T, C]) Execute(ec C) error {
	if !g.compiled {
		return &GraphError{
			Message: "execute called before a successful compile",
			Code:    CodeNotCompiled,
			Err:     ErrNotCompiled,
		}
	}

	var start time.Time
	if g.cfg.metrics != nil {
		start = time.Now()
	}

	g.outputs = make(map[OutputKey]Value[T], len(g.outputs))

	for _, id := range g.order {
		node := g.nodes[id]

		ins := node.Inputs()
		in := make([]Value[T], len(ins))
		for i, p := range ins {
			in[i] = ZeroValue(p.Type)
			src, ok := g.sources[inputKey{node: id, port: i}]
			if !ok {
				continue
			}
			if v, ok := g.outputs[OutputKey{Node: src.FromNode, Port: src.FromPort}]; ok {
				in[i] = v.Clone()
			}
		}

		outs := node.Outputs()
		out := make([]Value[T], len(outs))
		for i, p := range outs {
			out[i] = ZeroValue(p.Type)
		}

		node.Evaluate(ec, in, out)

		for i := range out {
			g.outputs[OutputKey{Node: id, Port: i}] = out[i]
		}
	}

	g.passes++

	if g.cfg.metrics != nil {
		g.cfg.metrics.RecordExecute(g.cfg.graphID, time.Since(start), len(g.order))
	}
	g.emit(g.passes, 0, "tick_executed", map[string]interface{}{
		"nodes": len(g.order),
	})
	return nil
}

// Output returns the value node produced on port during the last pass.
//
// The second result is false if Execute has not run since the cache was
// last cleared, the node did not run in that pass, or port is out of range.
func (g *Graph[T, C]) Output(node NodeID, port int) (Value[T], bool) {
	v, ok := g.outputs[OutputKey{Node: node, Port: port}]
	if !ok {
		return Value[T]{}, false
	}
	return v.Clone(), true
}

// Outputs returns a deep copy of the last pass's output cache.
func (g *Graph[T, C]) Outputs() OutputSet[T] {
	set := make(OutputSet[T], len(g.outputs))
	for k, v := range g.outputs {
		set[k] = v.Clone()
	}
	return set
}

// Passes returns how many Execute passes have completed since New or Clear.
func (g *Graph[T, C]) Passes() int {
	return g.passes
}
