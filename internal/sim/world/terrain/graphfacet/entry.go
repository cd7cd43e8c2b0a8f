package graphfacet

import (
	"errors"
	"fmt"

	"polyworld.ai/internal/sim/world/terrain/graph"
	"polyworld.ai/internal/sim/world/terrain/region"
)

var (
	ErrNilGraph       = errors.New("graph is nil")
	ErrNilLookup      = errors.New("triangle lookup is nil")
	ErrRegionMismatch = errors.New("region does not match graph")
	ErrLookupMismatch = errors.New("graph does not match triangle lookup")
)

// Entry is a region, its graph and its triangle lookup, all covering the
// same area. The zero Entry is not valid; use NewEntry.
type Entry struct {
	region region.WorldRegion
	graph  graph.Graph
	lookup graph.TriangleLookup
}

func NewEntry(wr region.WorldRegion, g graph.Graph, lookup graph.TriangleLookup) (Entry, error) {
	if g == nil {
		return Entry{}, ErrNilGraph
	}
	if lookup == nil {
		return Entry{}, ErrNilLookup
	}
	if wr.Area() != g.Bounds() {
		return Entry{}, fmt.Errorf("%w: %s area=%v graph=%v", ErrRegionMismatch, wr, wr.Area(), g.Bounds())
	}
	if g.Bounds() != lookup.Bounds() {
		return Entry{}, fmt.Errorf("%w: graph=%v lookup=%v", ErrLookupMismatch, g.Bounds(), lookup.Bounds())
	}
	return Entry{region: wr, graph: g, lookup: lookup}, nil
}

func (e Entry) Region() region.WorldRegion   { return e.region }
func (e Entry) Graph() graph.Graph           { return e.graph }
func (e Entry) Lookup() graph.TriangleLookup { return e.lookup }

func (e Entry) valid() bool { return e.graph != nil && e.lookup != nil }
