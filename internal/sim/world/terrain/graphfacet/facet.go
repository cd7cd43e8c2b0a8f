// Package graphfacet indexes the graphs that together cover one generation
// request's target area and resolves coordinates to them.
//
// Lookups scan entries in insertion order; where regions overlap, the first
// one added wins.
package graphfacet

import (
	"errors"
	"fmt"

	"polyworld.ai/internal/sim/world/terrain/facet"
	"polyworld.ai/internal/sim/world/terrain/geom"
	"polyworld.ai/internal/sim/world/terrain/graph"
	"polyworld.ai/internal/sim/world/terrain/region"
)

const Key facet.Key = "graph"

var ErrNoCoverage = errors.New("no coverage")

// CoverageError reports a coordinate that no entry of the facet covers.
type CoverageError struct {
	Kind string
	X, Z int
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("no %s data for %d/%d", e.Kind, e.X, e.Z)
}

func (e *CoverageError) Is(target error) bool { return target == ErrNoCoverage }

type Facet struct {
	facet.Base2D

	entries  []Entry
	byRegion map[region.WorldRegion]int
}

func New(target geom.Rect, border facet.Border) *Facet {
	return &Facet{
		Base2D:   facet.NewBase2D(target, border),
		byRegion: map[region.WorldRegion]int{},
	}
}

// Add validates the triple and records it. On error the facet is unchanged.
func (f *Facet) Add(wr region.WorldRegion, g graph.Graph, lookup graph.TriangleLookup) error {
	e, err := NewEntry(wr, g, lookup)
	if err != nil {
		return err
	}
	f.AddEntry(e)
	return nil
}

// AddEntry records e. Adding a region twice replaces its graph and lookup
// but keeps the region's original position in iteration order.
func (f *Facet) AddEntry(e Entry) {
	if !e.valid() {
		panic("graphfacet: AddEntry with zero Entry")
	}
	if i, ok := f.byRegion[e.region]; ok {
		f.entries[i] = e
		return
	}
	f.byRegion[e.region] = len(f.entries)
	f.entries = append(f.entries, e)
}

func (f *Facet) Len() int { return len(f.entries) }

// WorldGraph returns the graph covering the absolute coordinate.
func (f *Facet) WorldGraph(x, z int) (graph.Graph, error) {
	for _, e := range f.entries {
		if e.graph.Bounds().Contains(x, z) {
			return e.graph, nil
		}
	}
	return nil, &CoverageError{Kind: "graph", X: x, Z: z}
}

// WorldTriangle returns the triangle covering the absolute coordinate.
func (f *Facet) WorldTriangle(x, z int) (graph.Triangle, error) {
	for _, e := range f.entries {
		if !e.lookup.Bounds().Contains(x, z) {
			continue
		}
		if t, ok := e.lookup.FindTriangleAt(x, z); ok {
			return t, nil
		}
		break
	}
	return graph.Triangle{}, &CoverageError{Kind: "triangle lookup", X: x, Z: z}
}

// Graph returns the graph covering a coordinate given relative to the
// facet's relative region.
func (f *Facet) Graph(x, z int) (graph.Graph, error) {
	wx, wz := f.ToWorld(x, z)
	return f.WorldGraph(wx, wz)
}

func (f *Facet) GraphFor(wr region.WorldRegion) (graph.Graph, bool) {
	i, ok := f.byRegion[wr]
	if !ok {
		return nil, false
	}
	return f.entries[i].graph, true
}

// AllGraphs returns every graph once, in insertion order.
func (f *Facet) AllGraphs() []graph.Graph {
	out := make([]graph.Graph, 0, len(f.entries))
	seen := make(map[graph.ID]struct{}, len(f.entries))
	for _, e := range f.entries {
		id := e.graph.ID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, e.graph)
	}
	return out
}

// Entries returns a copy of the entries in insertion order.
func (f *Facet) Entries() []Entry {
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}
