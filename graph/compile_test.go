package graph

import (
	"errors"
	"testing"
)

func TestCompile_EdgeFreeGraph(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64} {
		g := newTestGraph()
		for i := 0; i < n; i++ {
			g.AddNode(constant(float64(i)))
		}

		if err := g.Compile(); err != nil {
			t.Fatalf("n=%d: Compile: %v", n, err)
		}

		order := g.ExecutionOrder()
		if len(order) != n {
			t.Fatalf("n=%d: expected %d nodes in order, got %d", n, n, len(order))
		}
		seen := make(map[NodeID]bool, n)
		for i, id := range order {
			if seen[id] {
				t.Errorf("n=%d: node %d appears twice", n, id)
			}
			seen[id] = true
			if id != NodeID(i+1) {
				t.Errorf("n=%d: expected ascending ids, got %v", n, order)
				break
			}
		}
	}
}

func TestCompile_Cycle(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *testGraph)
	}{
		{"two node cycle", func(g *testGraph) {
			a := g.AddNode(adder())
			b := g.AddNode(adder())
			g.AddEdge(Connect(a, 0, b, 0))
			g.AddEdge(Connect(b, 0, a, 0))
		}},
		{"self loop", func(g *testGraph) {
			a := g.AddNode(adder())
			g.AddEdge(Connect(a, 0, a, 1))
		}},
		{"cycle behind an acyclic prefix", func(g *testGraph) {
			c := g.AddNode(constant(1))
			a := g.AddNode(adder())
			b := g.AddNode(adder())
			d := g.AddNode(adder())
			g.AddEdge(Connect(c, 0, a, 0))
			g.AddEdge(Connect(a, 0, b, 0))
			g.AddEdge(Connect(b, 0, d, 0))
			g.AddEdge(Connect(d, 0, a, 1))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph()
			tt.build(g)

			err := g.Compile()
			if !errors.Is(err, ErrCycle) {
				t.Fatalf("expected ErrCycle, got %v", err)
			}
			var gerr *GraphError
			if !errors.As(err, &gerr) || gerr.Code != CodeCycle {
				t.Errorf("expected GraphError with code %s, got %#v", CodeCycle, err)
			}
			if g.IsCompiled() {
				t.Error("expected IsCompiled to be false")
			}
			if g.ExecutionOrder() != nil {
				t.Error("expected no execution order to be retained")
			}
		})
	}
}

func TestCompile_EdgeOrdering(t *testing.T) {
	g := newTestGraph()
	// Insert nodes so that ids do not match dependency order.
	sink := g.AddNode(adder())
	mid := g.AddNode(adder())
	src1 := g.AddNode(constant(1))
	src2 := g.AddNode(constant(2))
	g.AddEdge(Connect(mid, 0, sink, 0))
	g.AddEdge(Connect(src1, 0, mid, 0))
	g.AddEdge(Connect(src2, 0, mid, 1))
	g.AddEdge(Connect(src2, 0, sink, 1))

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	order := g.ExecutionOrder()
	for _, e := range g.Edges() {
		if indexOf(order, e.FromNode) >= indexOf(order, e.ToNode) {
			t.Errorf("edge %s violates order %v", e, order)
		}
	}

	want := []NodeID{src1, src2, mid, sink}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("expected %v, got %v", want, order)
			break
		}
	}
}

func TestCompile_TieBreakIndependentOfInsertionOrder(t *testing.T) {
	build := func(reverse bool) []NodeID {
		g := newTestGraph()
		ids := make([]NodeID, 6)
		for i := range ids {
			ids[i] = g.AddNode(adder())
		}
		edges := []Edge{
			Connect(ids[0], 0, ids[3], 0),
			Connect(ids[1], 0, ids[3], 1),
			Connect(ids[2], 0, ids[4], 0),
			Connect(ids[3], 0, ids[5], 0),
			Connect(ids[4], 0, ids[5], 1),
		}
		if reverse {
			for i := len(edges) - 1; i >= 0; i-- {
				g.AddEdge(edges[i])
			}
		} else {
			for _, e := range edges {
				g.AddEdge(e)
			}
		}
		if err := g.Compile(); err != nil {
			t.Fatalf("Compile: %v", err)
		}
		return g.ExecutionOrder()
	}

	a, b := build(false), build(true)
	want := []NodeID{1, 2, 3, 4, 5, 6}
	for i := range want {
		if a[i] != want[i] || b[i] != want[i] {
			t.Fatalf("expected %v for both insertion orders, got %v and %v", want, a, b)
		}
	}
}

func TestCompile_Idempotent(t *testing.T) {
	g := newTestGraph()
	a := g.AddNode(constant(1))
	b := g.AddNode(constant(2))
	c := g.AddNode(adder())
	g.AddEdge(Connect(b, 0, c, 0))
	g.AddEdge(Connect(a, 0, c, 1))

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	first := g.ExecutionOrder()
	for i := 0; i < 5; i++ {
		if err := g.Compile(); err != nil {
			t.Fatalf("Compile #%d: %v", i+2, err)
		}
		again := g.ExecutionOrder()
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("expected stable order %v, got %v", first, again)
			}
		}
	}
}

func TestCompile_InvalidEdges(t *testing.T) {
	tests := []struct {
		name     string
		edge     func(src, dst NodeID) Edge
		code     string
		sentinel error
	}{
		{"missing source", func(_, dst NodeID) Edge { return Connect(99, 0, dst, 0) }, CodeDanglingEdge, ErrInvalidEdge},
		{"missing destination", func(src, _ NodeID) Edge { return Connect(src, 0, 99, 0) }, CodeDanglingEdge, ErrInvalidEdge},
		{"output port out of range", func(src, dst NodeID) Edge { return Connect(src, 1, dst, 0) }, CodePortOutOfRange, ErrInvalidEdge},
		{"negative output port", func(src, dst NodeID) Edge { return Connect(src, -1, dst, 0) }, CodePortOutOfRange, ErrInvalidEdge},
		{"input port out of range", func(src, dst NodeID) Edge { return Connect(src, 0, dst, 2) }, CodePortOutOfRange, ErrInvalidEdge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph()
			src := g.AddNode(constant(1))
			dst := g.AddNode(adder())
			e := tt.edge(src, dst)
			g.AddEdge(e)

			err := g.Compile()
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			var gerr *GraphError
			if !errors.As(err, &gerr) {
				t.Fatalf("expected *GraphError, got %T", err)
			}
			if gerr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, gerr.Code)
			}
			if gerr.Edge == nil || *gerr.Edge != e {
				t.Errorf("expected offending edge %s, got %v", e, gerr.Edge)
			}
			if g.IsCompiled() {
				t.Error("expected IsCompiled to be false")
			}
		})
	}
}

func TestCompile_TypeMismatch(t *testing.T) {
	build := func(opts ...Option) *testGraph {
		g := newTestGraph(opts...)
		v := g.AddNode(vecSource(1, 2))
		sum := g.AddNode(adder())
		g.AddEdge(Connect(v, 0, sum, 0))
		return g
	}

	g := build()
	err := g.Compile()
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}

	g = build(WithStrictTypes(false))
	if err := g.Compile(); err != nil {
		t.Errorf("expected untyped graph to compile, got %v", err)
	}
}

func TestCompile_FailureDropsPreviousOrder(t *testing.T) {
	g := newTestGraph()
	a := g.AddNode(adder())
	b := g.AddNode(adder())
	g.AddEdge(Connect(a, 0, b, 0))
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	g.AddEdge(Connect(b, 0, a, 0))
	if err := g.Compile(); err == nil {
		t.Fatal("expected cycle error")
	}
	if g.ExecutionOrder() != nil || g.IsCompiled() {
		t.Error("expected no stale order after a failed compile")
	}
	if err := g.Execute(testCtx{}); !errors.Is(err, ErrNotCompiled) {
		t.Errorf("expected ErrNotCompiled, got %v", err)
	}
}

func TestCompile_FanIn(t *testing.T) {
	build := func(opts ...Option) (*testGraph, NodeID) {
		g := newTestGraph(opts...)
		low := g.AddNode(constant(10))
		high := g.AddNode(constant(20))
		sum := g.AddNode(adder())
		// Higher source first so insertion order cannot pick the winner.
		g.AddEdge(Connect(high, 0, sum, 0))
		g.AddEdge(Connect(low, 0, sum, 0))
		return g, sum
	}

	t.Run("lowest source wins", func(t *testing.T) {
		g, sum := build()
		if err := g.Compile(); err != nil {
			t.Fatalf("Compile: %v", err)
		}
		if err := g.Execute(testCtx{}); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		out, ok := g.Output(sum, 0)
		if !ok {
			t.Fatal("expected output")
		}
		if got := out.Float(-1); got != 10 {
			t.Errorf("expected lowest source (10) to win, got %v", got)
		}
	})

	t.Run("reject", func(t *testing.T) {
		g, _ := build(WithFanInPolicy(FanInReject))
		err := g.Compile()
		if !errors.Is(err, ErrInputConflict) {
			t.Fatalf("expected ErrInputConflict, got %v", err)
		}
		var gerr *GraphError
		if errors.As(err, &gerr) && gerr.Code != CodeInputConflict {
			t.Errorf("expected code %s, got %s", CodeInputConflict, gerr.Code)
		}
	})

	t.Run("exact duplicate is not a conflict", func(t *testing.T) {
		g := newTestGraph(WithFanInPolicy(FanInReject))
		a := g.AddNode(constant(1))
		sum := g.AddNode(adder())
		g.AddEdge(Connect(a, 0, sum, 0))
		g.AddEdge(Connect(a, 0, sum, 0))
		if err := g.Compile(); err != nil {
			t.Errorf("expected duplicate edges to compile, got %v", err)
		}
	})
}

func TestGraphError(t *testing.T) {
	err := &GraphError{Message: "boom", Code: CodeCycle, Err: ErrCycle}
	if err.Error() != "CYCLE: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrCycle) {
		t.Error("expected Unwrap to expose the sentinel")
	}

	bare := &GraphError{Message: "boom"}
	if bare.Error() != "boom" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}
