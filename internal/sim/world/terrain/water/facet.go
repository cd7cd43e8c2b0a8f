package water

import (
	"polyworld.ai/internal/sim/world/terrain/facet"
	"polyworld.ai/internal/sim/world/terrain/graph"
)

const Key facet.Key = "water"

// Facet maps each graph of a request to its water model.
type Facet struct {
	models map[graph.ID]Model
	graphs []graph.Graph
}

func NewFacet() *Facet {
	return &Facet{models: map[graph.ID]Model{}}
}

func (f *Facet) Add(g graph.Graph, m Model) {
	if _, ok := f.models[g.ID()]; !ok {
		f.graphs = append(f.graphs, g)
	}
	f.models[g.ID()] = m
}

func (f *Facet) Get(g graph.Graph) (Model, bool) {
	m, ok := f.models[g.ID()]
	return m, ok
}

func (f *Facet) Len() int { return len(f.graphs) }

// Graphs lists graphs in the order they were added.
func (f *Facet) Graphs() []graph.Graph {
	out := make([]graph.Graph, len(f.graphs))
	copy(out, f.graphs)
	return out
}
