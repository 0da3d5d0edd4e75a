package graph

// NodeID identifies a node within one graph instance. Ids start at 1, grow
// monotonically and are never reused, even after RemoveNode or Clear.
type NodeID uint64

// Node is a computation unit with ordered, typed input and output ports.
//
// Nodes are the building blocks of every domain graph (animation, world
// generation, audio, ...). Each node declares:
//   - Kind: a descriptive category label, used as the type name in snapshots
//   - Inputs/Outputs: ordered port lists; the port index is the slice index
//   - Evaluate: the node's computation
//
// Evaluate must be a pure function of its inputs and the execution context:
// no package-level mutable state and no randomness other than seeds passed
// explicitly in inputs or ec. This purity is what makes Execute deterministic.
//
// in has exactly len(Inputs()) entries; out has exactly len(Outputs())
// entries, each pre-filled with the zero value of its declared type.
//
// Type parameter T is the domain's port type enumeration, C the domain's
// execution context.
type Node[T PortType, C any] interface {
	Kind() string
	Inputs() []Port[T]
	Outputs() []Port[T]
	Evaluate(ec C, in []Value[T], out []Value[T])
}

// FuncNode is an adapter that builds a Node from a port declaration and a
// plain function, for nodes that do not warrant their own type.
//
// Example:
//
//	double := graph.FuncNode[anim.PortType, anim.Context]{
//	    Name: "Double",
//	    In:   []graph.Port[anim.PortType]{graph.In("x", anim.Float)},
//	    Out:  []graph.Port[anim.PortType]{graph.Out("y", anim.Float)},
//	    Fn: func(_ anim.Context, in, out []graph.Value[anim.PortType]) {
//	        out[0] = graph.Scalar(anim.Float, 2*in[0].Float(0))
//	    },
//	}
type FuncNode[T PortType, C any] struct {
	Name string
	In   []Port[T]
	Out  []Port[T]
	Fn   func(ec C, in []Value[T], out []Value[T])
}

// Kind implements Node.
func (f FuncNode[T, C]) Kind() string { return f.Name }

// Inputs implements Node.
func (f FuncNode[T, C]) Inputs() []Port[T] { return f.In }

// Outputs implements Node.
func (f FuncNode[T, C]) Outputs() []Port[T] { return f.Out }

// Evaluate implements Node. A nil Fn leaves every output at its zero value.
func (f FuncNode[T, C]) Evaluate(ec C, in []Value[T], out []Value[T]) {
	if f.Fn != nil {
		f.Fn(ec, in, out)
	}
}
