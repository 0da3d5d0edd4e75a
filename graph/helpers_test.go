package graph

import "fmt"

// pin is the port type enumeration used by the core tests.
type pin int

const (
	pinFloat pin = iota
	pinVec
)

func (p pin) String() string {
	switch p {
	case pinFloat:
		return "Float"
	case pinVec:
		return "Vec"
	default:
		return fmt.Sprintf("pin(%d)", int(p))
	}
}

type testCtx struct {
	Tick    uint64
	Signals SignalTable
}

type testGraph = Graph[pin, testCtx]

func newTestGraph(opts ...Option) *testGraph {
	return New[pin, testCtx](opts...)
}

// constant has no inputs and one Float output.
func constant(v float64) Node[pin, testCtx] {
	return FuncNode[pin, testCtx]{
		Name: "Const",
		Out:  []Port[pin]{Out("value", pinFloat)},
		Fn: func(_ testCtx, _, out []Value[pin]) {
			out[0] = Scalar(pinFloat, v)
		},
	}
}

// adder sums two Float inputs; unconnected inputs count as 0.
func adder() Node[pin, testCtx] {
	return FuncNode[pin, testCtx]{
		Name: "Add",
		In:   []Port[pin]{In("a", pinFloat), In("b", pinFloat)},
		Out:  []Port[pin]{Out("sum", pinFloat)},
		Fn: func(_ testCtx, in, out []Value[pin]) {
			out[0] = Scalar(pinFloat, in[0].Float(0)+in[1].Float(0))
		},
	}
}

// vecSource has one Vec output.
func vecSource(data ...float64) Node[pin, testCtx] {
	return FuncNode[pin, testCtx]{
		Name: "VecSource",
		Out:  []Port[pin]{Out("vec", pinVec)},
		Fn: func(_ testCtx, _, out []Value[pin]) {
			out[0] = Value[pin]{Type: pinVec, Data: append([]float64(nil), data...)}
		},
	}
}

// vecSink has one Vec input and one Vec output, and scribbles over its input
// to prove inputs are copies.
func vecSink() Node[pin, testCtx] {
	return FuncNode[pin, testCtx]{
		Name: "VecSink",
		In:   []Port[pin]{In("vec", pinVec)},
		Out:  []Port[pin]{Out("vec", pinVec)},
		Fn: func(_ testCtx, in, out []Value[pin]) {
			out[0] = in[0].Clone()
			for i := range in[0].Data {
				in[0].Data[i] = -1
			}
		},
	}
}

// recorder appends its id to a shared log when evaluated.
func recorder(name string, ins int, log *[]string) Node[pin, testCtx] {
	ports := make([]Port[pin], ins)
	for i := range ports {
		ports[i] = In(fmt.Sprintf("in%d", i), pinFloat)
	}
	return FuncNode[pin, testCtx]{
		Name: name,
		In:   ports,
		Out:  []Port[pin]{Out("out", pinFloat)},
		Fn: func(_ testCtx, _, _ []Value[pin]) {
			*log = append(*log, name)
		},
	}
}

func indexOf(order []NodeID, id NodeID) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}
