package worldgen

import "github.com/dshills/graphvm/graph"

// Noise outputs a seeded value-noise field for the current chunk. Salt
// decorrelates several Noise nodes sharing one world seed.
type Noise struct {
	Salt      uint64
	Frequency float64
	Amplitude float64
}

// Kind implements graph.Node.
func (n *Noise) Kind() string { return "Noise" }

// Inputs implements graph.Node. Noise is a source.
func (n *Noise) Inputs() []graph.Port[PortType] { return nil }

// Outputs implements graph.Node.
func (n *Noise) Outputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.Out("field", Field)}
}

// Evaluate implements graph.Node by sampling the field at the chunk's world coordinates.
func (n *Noise) Evaluate(cc ChunkContext, _ []Value, out []Value) {
	size, step := cc.Size(), cc.step()
	seed := cc.Seed ^ splitmix64(n.Salt)
	data := make([]float64, size*size)
	for j := 0; j < size; j++ {
		wy := float64(cc.ChunkY*ChunkSize + j*step)
		for i := 0; i < size; i++ {
			wx := float64(cc.ChunkX*ChunkSize + i*step)
			data[j*size+i] = n.Amplitude * valueNoise(seed, wx*n.Frequency, wy*n.Frequency)
		}
	}
	out[0] = Value{Type: Field, Data: data}
}

// Scale multiplies a field by a scalar. The factor pin overrides Factor
// when connected.
type Scale struct {
	Factor float64
}

// Kind implements graph.Node.
func (n *Scale) Kind() string { return "Scale" }

// Inputs implements graph.Node.
func (n *Scale) Inputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.In("field", Field), graph.In("factor", Scalar)}
}

// Outputs implements graph.Node.
func (n *Scale) Outputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.Out("field", Field)}
}

// Evaluate implements graph.Node.
func (n *Scale) Evaluate(_ ChunkContext, in []Value, out []Value) {
	f := in[1].Float(n.Factor)
	data := make([]float64, len(in[0].Data))
	for i, v := range in[0].Data {
		data[i] = v * f
	}
	out[0] = Value{Type: Field, Data: data}
}

// Add sums two fields cell by cell. An empty field counts as zero; with two
// non-empty fields the shorter length wins.
type Add struct{}

// Kind implements graph.Node.
func (Add) Kind() string { return "Add" }

// Inputs implements graph.Node.
func (Add) Inputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.In("a", Field), graph.In("b", Field)}
}

// Outputs implements graph.Node.
func (Add) Outputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.Out("field", Field)}
}

// Evaluate implements graph.Node.
func (Add) Evaluate(_ ChunkContext, in []Value, out []Value) {
	a, b := in[0].Data, in[1].Data
	switch {
	case len(a) == 0:
		out[0] = Value{Type: Field, Data: append([]float64(nil), b...)}
		return
	case len(b) == 0:
		out[0] = Value{Type: Field, Data: append([]float64(nil), a...)}
		return
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = a[i] + b[i]
	}
	out[0] = Value{Type: Field, Data: data}
}

// Classify maps heights to Biome indices using ascending thresholds.
// A nil Thresholds uses DefaultThresholds.
type Classify struct {
	Thresholds []float64
}

// Kind implements graph.Node.
func (n *Classify) Kind() string { return "Classify" }

// Inputs implements graph.Node.
func (n *Classify) Inputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.In("height", Field)}
}

// Outputs implements graph.Node.
func (n *Classify) Outputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.Out("biome", Field)}
}

// Evaluate implements graph.Node. Each output cell holds a Biome as a float.
func (n *Classify) Evaluate(_ ChunkContext, in []Value, out []Value) {
	thresholds := n.Thresholds
	if thresholds == nil {
		thresholds = DefaultThresholds
	}
	data := make([]float64, len(in[0].Data))
	for i, h := range in[0].Data {
		data[i] = float64(classify(h, thresholds))
	}
	out[0] = Value{Type: Field, Data: data}
}

func classify(h float64, thresholds []float64) Biome {
	for i, t := range thresholds {
		if h < t {
			return Biome(i)
		}
	}
	return Biome(len(thresholds))
}
