// Package worldgen is the procedural terrain domain. A small graph of noise
// and arithmetic nodes turns a world seed into per-chunk height and biome
// fields.
//
// Everything is a pure function of ChunkContext: the same seed, chunk and
// LOD always produce the same chunk, which is what lets chunks be cached by
// key and compared across machines.
package worldgen

import (
	"fmt"
	"math"

	"github.com/dshills/graphvm/graph"
)

// ChunkSize is the number of cells per chunk side at LOD 0.
const ChunkSize = 16

// PortType enumerates the worldgen pin types.
type PortType int

const (
	Scalar PortType = iota + 1
	Field
)

func (p PortType) String() string {
	switch p {
	case Scalar:
		return "Scalar"
	case Field:
		return "Field"
	default:
		return fmt.Sprintf("PortType(%d)", int(p))
	}
}

// ChunkContext selects the chunk being generated.
type ChunkContext struct {
	Seed   uint64
	LOD    int
	ChunkX int
	ChunkY int
}

// Size returns the cells per side: ChunkSize halved per LOD level, at
// least 1.
func (c ChunkContext) Size() int {
	lod := c.LOD
	if lod < 0 {
		lod = 0
	}
	if lod >= 31 {
		return 1
	}
	s := ChunkSize >> lod
	if s < 1 {
		return 1
	}
	return s
}

// step returns the world-space distance between two cells.
func (c ChunkContext) step() int {
	return ChunkSize / c.Size()
}

// chunkSeed folds the chunk coordinates into the world seed. It keys the
// chunk cache; noise itself samples the world seed so chunks tile.
func (c ChunkContext) chunkSeed() uint64 {
	h := splitmix64(c.Seed)
	h = splitmix64(h ^ uint64(int64(c.ChunkX)))
	return splitmix64(h ^ uint64(int64(c.ChunkY)))
}

// Graph is a worldgen graph.
type Graph = graph.Graph[PortType, ChunkContext]

// Value is a value on a worldgen pin.
type Value = graph.Value[PortType]

// Biome classifies a cell by height.
type Biome int

const (
	Water Biome = iota
	Sand
	Grass
	Forest
	Rock
	Snow
)

var biomeNames = [...]string{"Water", "Sand", "Grass", "Forest", "Rock", "Snow"}

func (b Biome) String() string {
	if b < 0 || int(b) >= len(biomeNames) {
		return fmt.Sprintf("Biome(%d)", int(b))
	}
	return biomeNames[b]
}

// DefaultThresholds are the upper height bounds of Water through Rock;
// anything higher is Snow.
var DefaultThresholds = []float64{0.3, 0.38, 0.6, 0.75, 0.9}

// splitmix64 is the SplitMix64 finalizer, used as a stateless hash.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// lattice returns a value in [0, 1) for an integer lattice point.
func lattice(seed uint64, x, y int64) float64 {
	h := splitmix64(seed)
	h = splitmix64(h ^ uint64(x))
	h = splitmix64(h ^ uint64(y))
	return float64(h>>11) / (1 << 53)
}

// valueNoise bilinearly interpolates lattice values with smoothstep easing.
func valueNoise(seed uint64, x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	tx, ty := smooth(x-x0), smooth(y-y0)
	ix, iy := int64(x0), int64(y0)

	v00 := lattice(seed, ix, iy)
	v10 := lattice(seed, ix+1, iy)
	v01 := lattice(seed, ix, iy+1)
	v11 := lattice(seed, ix+1, iy+1)

	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}
