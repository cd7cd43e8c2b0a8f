package water

import (
	"polyworld.ai/internal/sim/world/terrain/graph"
)

// Model classifies the triangles of one graph as water or land.
// Models are immutable and shared between callers.
type Model interface {
	Graph() graph.Graph
	Seed() int64
	IsWater(t graph.Triangle) bool
	WaterFraction() float64
}

// DefaultModel samples a RadialDistribution at every triangle's centroid,
// with the graph's bounds mapped onto [-1, 1].
type DefaultModel struct {
	g     graph.Graph
	seed  int64
	water []bool
	count int
}

// NewDefaultModel matches seedcache.Factory.
func NewDefaultModel(g graph.Graph, seed int64) (Model, error) {
	dist := NewRadialDistribution(seed)
	b := g.Bounds()
	c := b.Center()
	hw, hh := float64(b.W)/2, float64(b.H)/2

	tris := g.Triangles()
	m := &DefaultModel{g: g, seed: seed, water: make([]bool, len(tris))}
	for i, t := range tris {
		x := (t.A.X + t.B.X + t.C.X) / 3
		z := (t.A.Z + t.B.Z + t.C.Z) / 3
		if !dist.IsLand((x-c.X)/hw, (z-c.Z)/hh) {
			m.water[i] = true
			m.count++
		}
	}
	return m, nil
}

func (m *DefaultModel) Graph() graph.Graph { return m.g }
func (m *DefaultModel) Seed() int64        { return m.seed }

func (m *DefaultModel) IsWater(t graph.Triangle) bool {
	if t.Index < 0 || t.Index >= len(m.water) {
		return true
	}
	return m.water[t.Index]
}

func (m *DefaultModel) WaterFraction() float64 {
	if len(m.water) == 0 {
		return 0
	}
	return float64(m.count) / float64(len(m.water))
}
