package anim

import (
	"testing"

	"github.com/dshills/graphvm/graph"
)

func TestBlendSelfReproducesPose(t *testing.T) {
	g := NewGraph()
	pose := []float64{0.1, -2.5, 3.75, 1e-9, 42, -0.0, 7.125, 1e6}
	a := g.AddNode(&PoseSource{Channels: pose})
	b := g.AddNode(Blend{})
	g.AddEdge(graph.Connect(a, 0, b, 0))
	g.AddEdge(graph.Connect(a, 0, b, 1))

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := g.Execute(Context{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	out, ok := g.Output(b, 0)
	if !ok {
		t.Fatal("no output for blend")
	}
	if out.Type != Pose {
		t.Errorf("Type = %v, want Pose", out.Type)
	}
	if len(out.Data) != len(pose) {
		t.Fatalf("len = %d, want %d", len(out.Data), len(pose))
	}
	for i := range pose {
		if out.Data[i] != pose[i] {
			t.Errorf("channel %d = %v, want %v", i, out.Data[i], pose[i])
		}
	}
}

func TestBlend(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		w    *float64
		want []float64
	}{
		{"default weight", []float64{0, 10}, []float64{10, 20}, nil, []float64{5, 15}},
		{"weight zero", []float64{1, 2}, []float64{3, 4}, ptr(0), []float64{1, 2}},
		{"weight one", []float64{1, 2}, []float64{3, 4}, ptr(1), []float64{3, 4}},
		{"weight clamped", []float64{1, 2}, []float64{3, 4}, ptr(7), []float64{3, 4}},
		{"shorter b", []float64{0, 0, 0}, []float64{4, 4}, ptr(0.25), []float64{1, 1}},
		{"empty a", nil, []float64{9}, nil, []float64{9}},
		{"both empty", nil, nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []Value{{Type: Pose, Data: tt.a}, {Type: Pose, Data: tt.b}, {Type: Float}}
			if tt.w != nil {
				in[2] = graph.Scalar(Float, *tt.w)
			}
			out := []Value{{Type: Pose}}
			Blend{}.Evaluate(Context{}, in, out)

			if len(out[0].Data) != len(tt.want) {
				t.Fatalf("out = %v, want %v", out[0].Data, tt.want)
			}
			for i := range tt.want {
				if out[0].Data[i] != tt.want[i] {
					t.Errorf("out = %v, want %v", out[0].Data, tt.want)
					break
				}
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func TestSignalWeight(t *testing.T) {
	n := &SignalWeight{Signal: "speed", Default: 0.3}
	out := []Value{{Type: Float}}

	n.Evaluate(Context{}, nil, out)
	if got := out[0].Float(-1); got != 0.3 {
		t.Errorf("nil table: got %v, want 0.3", got)
	}

	signals := graph.NewMapSignals(map[string]float64{"speed": 0.8})
	n.Evaluate(Context{Signals: signals}, nil, out)
	if got := out[0].Float(-1); got != 0.8 {
		t.Errorf("got %v, want 0.8", got)
	}

	signals.Set("speed", -4)
	n.Evaluate(Context{Signals: signals}, nil, out)
	if got := out[0].Float(-1); got != 0 {
		t.Errorf("clamped: got %v, want 0", got)
	}

	n.Evaluate(Context{Signals: graph.NewMapSignals(nil)}, nil, out)
	if got := out[0].Float(-1); got != 0.3 {
		t.Errorf("unset: got %v, want 0.3", got)
	}
}

func TestBlendChain_DrivenBySignals(t *testing.T) {
	g, last, err := BlendChain(1, true, "speed")
	if err != nil {
		t.Fatalf("BlendChain: %v", err)
	}
	signals := graph.NewMapSignals(map[string]float64{"speed": 1})

	if err := g.Execute(Context{Tick: 1, Signals: signals}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out, _ := g.Output(last, 0)
	want := restPose(1)
	for i := range want {
		if out.Data[i] != want[i] {
			t.Fatalf("weight 1: out = %v, want %v", out.Data, want)
		}
	}

	signals.Set("speed", 0)
	if err := g.Execute(Context{Tick: 2, Signals: signals}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out, _ = g.Output(last, 0)
	for i, v := range out.Data {
		if v != 0 {
			t.Fatalf("weight 0: channel %d = %v, want 0", i, v)
		}
	}
}

func TestBlendChain_Structure(t *testing.T) {
	g, last, err := BlendChain(3, false, "")
	if err != nil {
		t.Fatalf("BlendChain: %v", err)
	}
	if g.NodeCount() != 7 || g.EdgeCount() != 6 {
		t.Errorf("nodes/edges = %d/%d, want 7/6", g.NodeCount(), g.EdgeCount())
	}
	order := g.ExecutionOrder()
	if order[len(order)-1] != last {
		t.Errorf("last blend %d should evaluate last, order %v", last, order)
	}
}

func TestBlendChainProducer_Deterministic(t *testing.T) {
	v := graph.NewDeterminismValidator()
	v.Register("anim/blend-chain", BlendChainProducer())

	for seed := uint64(0); seed < 16; seed++ {
		res := v.RunOne("anim/blend-chain", seed)
		if !res.Passed {
			t.Errorf("seed %d: %s", seed, res.Message)
		}
	}

	a := BlendChainProducer()(1)
	b := BlendChainProducer()(2)
	if a.Hash() == b.Hash() {
		t.Error("different seeds should build different chains")
	}
}

func TestPortTypeString(t *testing.T) {
	if Float.String() != "Float" || Pose.String() != "Pose" {
		t.Error("unexpected names")
	}
	if PortType(9).String() != "PortType(9)" {
		t.Errorf("got %q", PortType(9).String())
	}
}
