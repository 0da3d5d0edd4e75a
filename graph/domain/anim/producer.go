package anim

import "github.com/dshills/graphvm/graph"

// BlendChain builds a chain of depth Blend nodes over depth+1 pose sources:
// each blend mixes the previous result with the next source. When weighted
// is true every blend weight comes from a SignalWeight reading signal; when
// false the weights stay at DefaultBlendWeight.
//
// The graph is compiled before it is returned.
func BlendChain(depth int, weighted bool, signal string, opts ...graph.Option) (*Graph, graph.NodeID, error) {
	g := NewGraph(opts...)

	prev := g.AddNode(&PoseSource{Channels: make([]float64, 8)})
	for i := 0; i < depth; i++ {
		src := g.AddNode(&PoseSource{Channels: restPose(i + 1)})
		blend := g.AddNode(Blend{})
		g.AddEdge(graph.Connect(prev, 0, blend, 0))
		g.AddEdge(graph.Connect(src, 0, blend, 1))
		if weighted {
			w := g.AddNode(&SignalWeight{Signal: signal, Default: DefaultBlendWeight})
			g.AddEdge(graph.Connect(w, 0, blend, 2))
		}
		prev = blend
	}

	if err := g.Compile(); err != nil {
		return nil, 0, err
	}
	return g, prev, nil
}

// restPose is an 8-channel pose whose values depend only on k.
func restPose(k int) []float64 {
	p := make([]float64, 8)
	for i := range p {
		p[i] = float64(k*10 + i)
	}
	return p
}

// BlendChainProducer is a determinism-validator producer: the seed selects
// the chain depth (1 to 8) and whether weights are signal-driven.
func BlendChainProducer() graph.Producer {
	return func(seed uint64) graph.Snapshot {
		g, _, err := BlendChain(int(seed%8)+1, seed%2 == 1, "speed")
		if err != nil {
			return graph.Snapshot{}
		}
		return g.Snapshot()
	}
}
