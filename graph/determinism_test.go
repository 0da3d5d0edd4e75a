package graph

import (
	"strings"
	"testing"

	"github.com/dshills/graphvm/graph/emit"
)

// chainProducer builds a graph whose shape depends only on seed.
func chainProducer(seed uint64) Snapshot {
	g := newTestGraph()
	n := int(seed%5) + 2
	prev := g.AddNode(constant(float64(seed)))
	for i := 1; i < n; i++ {
		next := g.AddNode(adder())
		g.AddEdge(Connect(prev, 0, next, int(uint64(i)%2)))
		prev = next
	}
	return g.Snapshot()
}

func TestDeterminismValidator_PureProducer(t *testing.T) {
	v := NewDeterminismValidator()
	v.Register("chain", chainProducer)

	res := v.RunOne("chain", 42)
	if !res.Passed {
		t.Fatalf("expected pure producer to pass, got %+v", res)
	}
	if res.HashA != res.HashB || res.HashA != HashSnapshot(chainProducer(42)) {
		t.Errorf("unexpected hashes %+v", res)
	}
	if res.Name != "chain" || res.Seed != 42 {
		t.Errorf("unexpected result identity %+v", res)
	}
}

func TestDeterminismValidator_ImpureProducer(t *testing.T) {
	calls := 0
	v := NewDeterminismValidator()
	v.Register("leaky", func(seed uint64) Snapshot {
		calls++
		return Snapshot{Nodes: []SnapshotNode{{ID: NodeID(calls), Type: "Leak"}}}
	})

	res := v.RunOne("leaky", 1)
	if res.Passed {
		t.Fatal("expected impure producer to fail")
	}
	if res.HashA == res.HashB {
		t.Error("expected differing hashes")
	}
	if !strings.Contains(res.Message, "mismatch") {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestDeterminismValidator_UnknownName(t *testing.T) {
	v := NewDeterminismValidator()
	res := v.RunOne("missing", 1)
	if res.Passed {
		t.Error("expected unknown producer to fail")
	}
	if !strings.Contains(res.Message, "not found") {
		t.Errorf("expected not found message, got %q", res.Message)
	}
}

func TestDeterminismValidator_RunAll(t *testing.T) {
	events := emit.NewBufferedEmitter()
	v := NewDeterminismValidator(WithEmitter(events))
	v.Register("b", chainProducer)
	v.Register("a", func(uint64) Snapshot { return Snapshot{} })
	v.Register("b", chainProducer)
	v.Register("nil", nil)

	names := v.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Fatalf("expected registration order [b a], got %v", names)
	}

	results := v.RunAll(7)
	if len(results) != 2 || results[0].Name != "b" || results[1].Name != "a" {
		t.Fatalf("unexpected results %+v", results)
	}
	if !AllPassed(results) {
		t.Error("expected all producers to pass")
	}
	if AllPassed(append(results, DeterminismResult{})) {
		t.Error("expected a failed result to fail AllPassed")
	}

	msgs := events.Messages(0)
	if len(msgs) != 2 || msgs[0] != "determinism_passed" {
		t.Errorf("expected two determinism_passed events, got %v", msgs)
	}
}
