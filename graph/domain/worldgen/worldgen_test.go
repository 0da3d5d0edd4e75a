package worldgen

import (
	"testing"

	"github.com/dshills/graphvm/graph"
	"github.com/prometheus/client_golang/prometheus"
)

func TestChunkContextSize(t *testing.T) {
	tests := []struct {
		lod, size, step int
	}{
		{-1, 16, 1},
		{0, 16, 1},
		{1, 8, 2},
		{4, 1, 16},
		{9, 1, 16},
		{64, 1, 16},
	}
	for _, tt := range tests {
		cc := ChunkContext{LOD: tt.lod}
		if cc.Size() != tt.size || cc.step() != tt.step {
			t.Errorf("lod %d: size/step = %d/%d, want %d/%d", tt.lod, cc.Size(), cc.step(), tt.size, tt.step)
		}
	}
}

func TestValueNoise(t *testing.T) {
	for _, p := range [][2]float64{{0, 0}, {0.5, 0.25}, {-3.7, 12.01}, {1000.5, -999.5}} {
		v := valueNoise(42, p[0], p[1])
		if v < 0 || v >= 1 {
			t.Errorf("noise(%v) = %v out of [0,1)", p, v)
		}
		if v != valueNoise(42, p[0], p[1]) {
			t.Errorf("noise(%v) not deterministic", p)
		}
	}
	if valueNoise(1, 0.5, 0.5) == valueNoise(2, 0.5, 0.5) {
		t.Error("seed has no effect")
	}
	// At lattice points the noise equals the lattice value.
	if valueNoise(7, 3, 4) != lattice(7, 3, 4) {
		t.Error("lattice point mismatch")
	}
}

func TestNodes(t *testing.T) {
	out := []Value{{Type: Field}}

	(&Scale{Factor: 2}).Evaluate(ChunkContext{}, []Value{{Type: Field, Data: []float64{1, 2}}, {Type: Scalar}}, out)
	if out[0].Data[0] != 2 || out[0].Data[1] != 4 {
		t.Errorf("Scale default factor: %v", out[0].Data)
	}
	(&Scale{Factor: 2}).Evaluate(ChunkContext{}, []Value{{Type: Field, Data: []float64{1, 2}}, graph.Scalar(Scalar, -1)}, out)
	if out[0].Data[0] != -1 || out[0].Data[1] != -2 {
		t.Errorf("Scale pin factor: %v", out[0].Data)
	}

	Add{}.Evaluate(ChunkContext{}, []Value{{Type: Field, Data: []float64{1, 2, 3}}, {Type: Field, Data: []float64{10, 20}}}, out)
	if len(out[0].Data) != 2 || out[0].Data[1] != 22 {
		t.Errorf("Add: %v", out[0].Data)
	}
	Add{}.Evaluate(ChunkContext{}, []Value{{Type: Field}, {Type: Field, Data: []float64{5}}}, out)
	if len(out[0].Data) != 1 || out[0].Data[0] != 5 {
		t.Errorf("Add empty a: %v", out[0].Data)
	}

	(&Classify{}).Evaluate(ChunkContext{}, []Value{{Type: Field, Data: []float64{0.1, 0.35, 0.5, 0.7, 0.8, 0.95}}}, out)
	for i, want := range []Biome{Water, Sand, Grass, Forest, Rock, Snow} {
		if Biome(out[0].Data[i]) != want {
			t.Errorf("cell %d = %v, want %v", i, Biome(out[0].Data[i]), want)
		}
	}
}

func TestGenerator_Generate(t *testing.T) {
	gen, err := NewGenerator(graph.WithGraphID(3))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	cc := ChunkContext{Seed: 99, LOD: 1, ChunkX: 2, ChunkY: -1}

	c, err := gen.Generate(cc, 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if c.Size != 8 || len(c.Heights) != 64 || len(c.Biomes) != 64 {
		t.Fatalf("size = %d, heights = %d, biomes = %d", c.Size, len(c.Heights), len(c.Biomes))
	}
	for i, h := range c.Heights {
		if h < 0 || h > 1 {
			t.Errorf("height[%d] = %v out of [0,1]", i, h)
		}
		if c.Biomes[i] != classify(h, DefaultThresholds) {
			t.Errorf("biome[%d] = %v does not match height %v", i, c.Biomes[i], h)
		}
	}

	// Second request is served from cache and equal.
	again, err := gen.Generate(cc, 2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.Graph().Passes() != 1 {
		t.Errorf("Passes = %d, want 1 (cache hit)", gen.Graph().Passes())
	}
	for i := range c.Heights {
		if c.Heights[i] != again.Heights[i] {
			t.Fatal("cached chunk differs")
		}
	}
	stats := gen.CacheStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("stats = %+v", stats)
	}

	// Returned chunks do not alias the cache.
	again.Heights[0] = -5
	third, _ := gen.Generate(cc, 3)
	if third.Heights[0] == -5 {
		t.Error("cache entry was mutated through a returned chunk")
	}

	if gen.EvictBefore(2) != 1 {
		t.Error("expected one eviction")
	}
}

func TestGenerator_Keys(t *testing.T) {
	gen, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	base := ChunkContext{Seed: 1}
	keys := map[uint64]ChunkContext{gen.Key(base): base}
	for _, cc := range []ChunkContext{
		{Seed: 2},
		{Seed: 1, LOD: 1},
		{Seed: 1, ChunkX: 1},
		{Seed: 1, ChunkY: 1},
	} {
		k := gen.Key(cc)
		if prev, dup := keys[k]; dup {
			t.Errorf("key collision between %+v and %+v", prev, cc)
		}
		keys[k] = cc
	}
}

func TestChunksTile(t *testing.T) {
	gen, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	left, _ := gen.Generate(ChunkContext{Seed: 5, ChunkX: 0}, 0)
	right, _ := gen.Generate(ChunkContext{Seed: 5, ChunkX: 1}, 0)

	// Adjacent chunks sample one continuous field: the seam cells differ
	// by far less than the field's range.
	for y := 0; y < ChunkSize; y++ {
		a := left.Heights[y*ChunkSize+ChunkSize-1]
		b := right.Heights[y*ChunkSize]
		if d := a - b; d > 0.3 || d < -0.3 {
			t.Errorf("row %d: seam jump %v", y, d)
		}
	}
}

func TestChunkSnapshot(t *testing.T) {
	c := Chunk{
		Size: 2,
		Heights: []float64{
			0.9, 0.5,
			0.4, 0.1,
		},
		Biomes: []Biome{Rock, Grass, Sand, Water},
	}
	snap := c.Snapshot()

	wantTypes := []string{"Rock", "Grass", "Sand", "Water"}
	for i, n := range snap.Nodes {
		if n.ID != graph.NodeID(i+1) || n.Type != wantTypes[i] {
			t.Errorf("node %d = %+v", i, n)
		}
	}
	// 0.9 flows to 0.4 (lowest of W/E/S candidates: east 0.5, south 0.4),
	// 0.5 to 0.1, 0.4 to 0.1, 0.1 is a sink.
	want := []graph.Edge{
		graph.Connect(1, 0, 3, 0),
		graph.Connect(2, 0, 4, 0),
		graph.Connect(3, 0, 4, 0),
	}
	if len(snap.Edges) != len(want) {
		t.Fatalf("edges = %v, want %v", snap.Edges, want)
	}
	for i := range want {
		if snap.Edges[i] != want[i] {
			t.Errorf("edge %d = %v, want %v", i, snap.Edges[i], want[i])
		}
	}
}

func TestTerrainProducer_Deterministic(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := graph.NewPrometheusMetrics(reg)
	v := graph.NewDeterminismValidator(graph.WithMetrics(metrics))
	v.Register("worldgen/lod0", TerrainProducer(0))
	v.Register("worldgen/lod2", TerrainProducer(2))

	results := v.RunAll(1234)
	if !graph.AllPassed(results) {
		t.Fatalf("results = %+v", results)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}

	if TerrainProducer(0)(1).Hash() == TerrainProducer(0)(2).Hash() {
		t.Error("different seeds produced identical terrain")
	}
}

func TestGenerator_Record(t *testing.T) {
	gen, err := NewGenerator(graph.WithGraphID(11))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	capA := graph.NewReplayCapture()
	if err := gen.Record(capA, 77, 2, 1); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if capA.Len() != 10 {
		t.Fatalf("Len = %d, want 10", capA.Len())
	}
	events := capA.Events()
	if events[0].EventType != "compile" || events[0].Snapshot.Hash() != gen.Graph().Snapshot().Hash() {
		t.Errorf("first event = %+v", events[0])
	}
	if events[9].Tick != 9 || events[9].Metadata["chunk"] != "1,1" {
		t.Errorf("last event = %+v", events[9])
	}

	other, _ := NewGenerator(graph.WithGraphID(11))
	capB := graph.NewReplayCapture()
	if err := other.Record(capB, 77, 2, 1); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if d := graph.CompareReplays(capA, capB); !d.Identical {
		t.Errorf("replays of the same seed differ: %+v", d.Divergences)
	}

	capC := graph.NewReplayCapture()
	if err := other.Record(capC, 78, 2, 1); err != nil {
		t.Fatalf("Record: %v", err)
	}
	d := graph.CompareReplays(capA, capC)
	if d.Identical {
		t.Fatal("different seeds should diverge")
	}
	if first, _ := d.FirstDivergence(); first == 0 {
		t.Error("compile event should match; divergence starts at a chunk")
	}
}
