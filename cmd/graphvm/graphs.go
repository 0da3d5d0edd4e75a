package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/graphvm/graph"
	"github.com/dshills/graphvm/graph/domain/anim"
	"github.com/dshills/graphvm/graph/domain/worldgen"
)

// producers are the deterministic snapshot producers shipped with graphvm,
// in the order verify runs them.
var producers = []struct {
	name     string
	producer graph.Producer
}{
	{"anim/blend-chain", anim.BlendChainProducer()},
	{"worldgen/lod0", worldgen.TerrainProducer(0)},
	{"worldgen/lod2", worldgen.TerrainProducer(2)},
}

func producerByName(name string) (graph.Producer, error) {
	names := make([]string, 0, len(producers))
	for _, p := range producers {
		if p.name == name {
			return p.producer, nil
		}
		names = append(names, p.name)
	}
	return nil, fmt.Errorf("unknown producer %q (have %s)", name, strings.Join(names, ", "))
}

// domainGraph is a built-in graph the advisor can be asked about.
type domainGraph struct {
	catalog []string
	build   func(opts ...graph.Option) (graph.Snapshot, error)
}

var domainGraphs = map[string]domainGraph{
	"anim": {
		catalog: []string{"PoseSource", "FloatConstant", "Blend", "SignalWeight"},
		build: func(opts ...graph.Option) (graph.Snapshot, error) {
			g, _, err := anim.BlendChain(2, true, "speed", opts...)
			if err != nil {
				return graph.Snapshot{}, err
			}
			return g.Snapshot(), nil
		},
	},
	"worldgen": {
		catalog: []string{"Noise", "Scale", "Add", "Classify"},
		build: func(opts ...graph.Option) (graph.Snapshot, error) {
			gen, err := worldgen.NewGenerator(opts...)
			if err != nil {
				return graph.Snapshot{}, err
			}
			return gen.Graph().Snapshot(), nil
		},
	},
}

func domainGraphByName(name string) (domainGraph, error) {
	d, ok := domainGraphs[name]
	if !ok {
		names := make([]string, 0, len(domainGraphs))
		for n := range domainGraphs {
			names = append(names, n)
		}
		sort.Strings(names)
		return domainGraph{}, fmt.Errorf("unknown graph type %q (have %s)", name, strings.Join(names, ", "))
	}
	return d, nil
}
