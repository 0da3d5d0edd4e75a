package worldgen

import (
	"fmt"
	"strconv"

	"github.com/dshills/graphvm/graph"
)

// Chunk is one generated terrain tile.
type Chunk struct {
	X, Y, LOD int
	Size      int
	Heights   []float64
	Biomes    []Biome
}

func (c Chunk) clone() Chunk {
	out := c
	out.Heights = append([]float64(nil), c.Heights...)
	out.Biomes = append([]Biome(nil), c.Biomes...)
	return out
}

// Snapshot projects the chunk into graph form: one node per cell typed by
// its biome (id = row-major index + 1) and one edge from each cell to its
// lowest strictly-lower 4-neighbor, i.e. the downhill flow network.
// Neighbors are scanned north, west, east, south; the first minimum wins.
func (c Chunk) Snapshot() graph.Snapshot {
	n := c.Size * c.Size
	snap := graph.Snapshot{Nodes: make([]graph.SnapshotNode, 0, n)}
	for i := 0; i < n; i++ {
		snap.Nodes = append(snap.Nodes, graph.SnapshotNode{ID: graph.NodeID(i + 1), Type: c.Biomes[i].String()})
	}

	offsets := [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; x++ {
			cell := y*c.Size + x
			best, lowest := -1, c.Heights[cell]
			for _, o := range offsets {
				nx, ny := x+o[0], y+o[1]
				if nx < 0 || ny < 0 || nx >= c.Size || ny >= c.Size {
					continue
				}
				nb := ny*c.Size + nx
				if c.Heights[nb] < lowest {
					best, lowest = nb, c.Heights[nb]
				}
			}
			if best >= 0 {
				snap.Edges = append(snap.Edges, graph.Connect(graph.NodeID(cell+1), 0, graph.NodeID(best+1), 0))
			}
		}
	}
	return snap
}

// Generator evaluates the terrain graph per chunk and caches the results.
//
// Generator is not safe for concurrent use; run one per worker.
type Generator struct {
	graph  *Graph
	height graph.NodeID
	biome  graph.NodeID
	cache  *graph.Cache[Chunk]
}

// NewGenerator builds and compiles the terrain graph:
//
//	Noise(base) ─────────────────┐
//	Noise(detail) → Scale(0.25) → Add → Scale(0.8) → Classify
//
// opts apply to the graph; WithMetrics also applies to the chunk cache.
func NewGenerator(opts ...graph.Option) (*Generator, error) {
	g := graph.New[PortType, ChunkContext](opts...)

	base := g.AddNode(&Noise{Salt: 1, Frequency: 1.0 / 32, Amplitude: 1})
	detail := g.AddNode(&Noise{Salt: 2, Frequency: 1.0 / 8, Amplitude: 1})
	detailScale := g.AddNode(&Scale{Factor: 0.25})
	sum := g.AddNode(Add{})
	height := g.AddNode(&Scale{Factor: 0.8})
	biome := g.AddNode(&Classify{})

	g.AddEdge(graph.Connect(detail, 0, detailScale, 0))
	g.AddEdge(graph.Connect(base, 0, sum, 0))
	g.AddEdge(graph.Connect(detailScale, 0, sum, 1))
	g.AddEdge(graph.Connect(sum, 0, height, 0))
	g.AddEdge(graph.Connect(height, 0, biome, 0))

	if err := g.Compile(); err != nil {
		return nil, fmt.Errorf("compile terrain graph: %w", err)
	}

	return &Generator{
		graph:  g,
		height: height,
		biome:  biome,
		cache:  graph.NewCache[Chunk](opts...),
	}, nil
}

// Graph returns the terrain graph.
func (g *Generator) Graph() *Graph {
	return g.graph
}

// Key returns the cache key of a chunk: MixKey over the graph id, the
// chunk-specific seed and the LOD.
func (g *Generator) Key(cc ChunkContext) uint64 {
	return graph.MixKey(g.graph.GraphID(), cc.chunkSeed(), cc.LOD)
}

// Generate returns the chunk for cc, from cache when possible. tick is
// recorded on cache entries for EvictBefore.
func (g *Generator) Generate(cc ChunkContext, tick uint64) (Chunk, error) {
	key := g.Key(cc)
	if c, ok := g.cache.Lookup(key); ok {
		return c.clone(), nil
	}

	if err := g.graph.Execute(cc); err != nil {
		return Chunk{}, err
	}
	heights, _ := g.graph.Output(g.height, 0)
	biomes, _ := g.graph.Output(g.biome, 0)

	c := Chunk{X: cc.ChunkX, Y: cc.ChunkY, LOD: cc.LOD, Size: cc.Size(), Heights: heights.Data}
	c.Biomes = make([]Biome, len(biomes.Data))
	for i, b := range biomes.Data {
		c.Biomes[i] = Biome(b)
	}

	g.cache.Store(key, tick, c)
	return c.clone(), nil
}

// EvictBefore drops cached chunks generated before tick.
func (g *Generator) EvictBefore(tick uint64) int {
	return g.cache.EvictBefore(tick)
}

// CacheStats reports chunk cache usage.
func (g *Generator) CacheStats() graph.CacheStats {
	return g.cache.Stats()
}

// Record generates the (2*radius+1)² chunks around the origin at lod and
// appends them to capture: first a "compile" event carrying the terrain
// graph, then one "chunk" event per chunk in row-major order, one tick
// apart starting at 1.
func (g *Generator) Record(capture *graph.ReplayCapture, seed uint64, lod, radius int) error {
	capture.Record(0, g.graph.GraphID(), "compile", g.graph.Snapshot(), map[string]string{
		"seed": strconv.FormatUint(seed, 10),
		"lod":  strconv.Itoa(lod),
	})

	tick := uint64(1)
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			c, err := g.Generate(ChunkContext{Seed: seed, LOD: lod, ChunkX: x, ChunkY: y}, tick)
			if err != nil {
				return err
			}
			capture.Record(tick, g.graph.GraphID(), "chunk", c.Snapshot(), map[string]string{
				"chunk": fmt.Sprintf("%d,%d", x, y),
			})
			tick++
		}
	}
	return nil
}

// TerrainProducer returns a determinism-validator producer that generates
// the origin chunk at lod for the given seed on a fresh generator.
func TerrainProducer(lod int) graph.Producer {
	return func(seed uint64) graph.Snapshot {
		gen, err := NewGenerator()
		if err != nil {
			return graph.Snapshot{}
		}
		c, err := gen.Generate(ChunkContext{Seed: seed, LOD: lod}, 0)
		if err != nil {
			return graph.Snapshot{}
		}
		return c.Snapshot()
	}
}
