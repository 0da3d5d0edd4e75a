package graph

import "testing"

func sampleCapture() *ReplayCapture {
	c := NewReplayCapture()
	c.Record(1, 10, "compile", sampleSnapshot(), map[string]string{"host": "a"})
	c.Record(2, 10, "execute", sampleSnapshot(), nil)
	c.Record(2, 20, "execute", Snapshot{}, nil)
	c.Record(5, 10, "edit", Snapshot{Nodes: []SnapshotNode{{1, "Const"}}}, nil)
	return c
}

func TestReplayCapture_Queries(t *testing.T) {
	c := sampleCapture()

	if c.Len() != 4 {
		t.Fatalf("expected 4 events, got %d", c.Len())
	}
	if n := len(c.ByGraph(10)); n != 3 {
		t.Errorf("expected 3 events for graph 10, got %d", n)
	}
	if n := len(c.AtTick(2)); n != 2 {
		t.Errorf("expected 2 events at tick 2, got %d", n)
	}
	if n := len(c.InRange(2, 5)); n != 3 {
		t.Errorf("expected 3 events in [2,5], got %d", n)
	}
	if n := len(c.AtTick(3)); n != 0 {
		t.Errorf("expected no events at tick 3, got %d", n)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Error("expected Clear to empty the capture")
	}
}

func TestReplayCapture_Hash(t *testing.T) {
	a, b := sampleCapture(), sampleCapture()
	if a.ComputeHash() != b.ComputeHash() {
		t.Fatal("expected identical captures to hash equally")
	}

	annotated := sampleCapture()
	annotated.events[0].Metadata["host"] = "b"
	if annotated.ComputeHash() != a.ComputeHash() {
		t.Error("expected metadata to be excluded from the hash")
	}

	swapped := NewReplayCapture()
	events := a.Events()
	swapped.Record(events[1].Tick, events[1].GraphID, events[1].EventType, events[1].Snapshot, nil)
	swapped.Record(events[0].Tick, events[0].GraphID, events[0].EventType, events[0].Snapshot, nil)
	for _, e := range events[2:] {
		swapped.Record(e.Tick, e.GraphID, e.EventType, e.Snapshot, nil)
	}
	if swapped.ComputeHash() == a.ComputeHash() {
		t.Error("expected the hash to be order-sensitive")
	}

	if NewReplayCapture().ComputeHash() == a.ComputeHash() {
		t.Error("expected empty capture to hash differently")
	}

	loaded := LoadReplayCapture(a.Events())
	if loaded.ComputeHash() != a.ComputeHash() {
		t.Error("expected LoadReplayCapture to preserve the hash")
	}
}

func TestCompareReplays_Identical(t *testing.T) {
	d := CompareReplays(sampleCapture(), sampleCapture())
	if !d.Identical {
		t.Errorf("expected identical, got %+v", d)
	}
	if _, ok := d.FirstDivergence(); ok {
		t.Error("expected no divergence")
	}
	if d.HashA != d.HashB || d.LenA != 4 || d.LenB != 4 {
		t.Errorf("unexpected summary %+v", d)
	}
}

func TestCompareReplays_Divergences(t *testing.T) {
	a := sampleCapture()
	b := sampleCapture()

	// index 1: event identity only
	b.events[1].EventType = "execute-late"
	// index 2: snapshot only
	b.events[2].Snapshot = sampleSnapshot()
	// index 3: both
	b.events[3].Tick = 6
	b.events[3].Snapshot = Snapshot{}

	d := CompareReplays(a, b)
	if d.Identical {
		t.Fatal("expected divergence")
	}
	if len(d.Divergences) != 3 {
		t.Fatalf("expected 3 divergences, got %+v", d.Divergences)
	}

	want := []struct {
		index int
		kind  DivergenceKind
	}{
		{1, DivergenceEvent},
		{2, DivergenceSnapshot},
		{3, DivergenceBoth},
	}
	for i, w := range want {
		got := d.Divergences[i]
		if got.Index != w.index || got.Kind != w.kind {
			t.Errorf("divergence %d: expected (%d,%s), got (%d,%s)", i, w.index, w.kind, got.Index, got.Kind)
		}
	}
	if d.Divergences[0].Diff.HasChanges() {
		t.Error("expected no structural diff for an identity-only divergence")
	}
	if added := d.Divergences[1].Diff.AddedNodes; len(added) != 2 {
		t.Errorf("expected 2 added nodes at index 2, got %v", added)
	}
	if first, _ := d.FirstDivergence(); first != 1 {
		t.Errorf("expected first divergence at 1, got %d", first)
	}
}

func TestCompareReplays_LengthMismatch(t *testing.T) {
	a := sampleCapture()
	b := LoadReplayCapture(a.Events()[:2])

	d := CompareReplays(a, b)
	if d.Identical {
		t.Fatal("expected divergence")
	}
	if len(d.Divergences) != 1 {
		t.Fatalf("expected exactly one divergence, got %+v", d.Divergences)
	}
	div := d.Divergences[0]
	if div.Index != 2 || div.Kind != DivergenceMissing {
		t.Errorf("expected missing at index 2, got (%d,%s)", div.Index, div.Kind)
	}
	if div.A == nil || div.B != nil {
		t.Error("expected only the longer side to be set")
	}

	rev := CompareReplays(b, a)
	if rev.Divergences[0].A != nil || rev.Divergences[0].B == nil {
		t.Error("expected sides to follow argument order")
	}
}

func TestReplayCapture_GettersDoNotAlias(t *testing.T) {
	c := sampleCapture()
	before := c.ComputeHash()

	events := c.Events()
	events[0].Snapshot.Nodes[0].Type = "Mutated"
	events[0].Metadata["host"] = "z"
	c.ByGraph(10)[1].Snapshot.Edges[0].FromNode = 99
	c.AtTick(5)[0].Snapshot.Nodes[0].ID = 42

	if c.ComputeHash() != before {
		t.Error("expected mutating returned events to leave the capture unchanged")
	}
	if got := c.Events()[0].Metadata["host"]; got != "a" {
		t.Errorf("expected stored metadata host=a, got %q", got)
	}

	other := sampleCaptureWithExtra()
	d := CompareReplays(c, other)
	d.Divergences[0].B.Snapshot.Nodes[0].Type = "Mutated"
	if other.ComputeHash() != sampleCaptureWithExtra().ComputeHash() {
		t.Error("expected divergence events to be copies")
	}
}

func sampleCaptureWithExtra() *ReplayCapture {
	c := sampleCapture()
	c.Record(6, 10, "edit", sampleSnapshot(), nil)
	return c
}
