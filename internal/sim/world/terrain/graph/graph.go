// Package graph defines the planar subdivisions the terrain pipeline works
// on, plus a reference grid builder and triangle lookups over it.
package graph

import (
	"sync/atomic"

	"polyworld.ai/internal/sim/world/terrain/geom"
)

// ID identifies one Graph instance for the lifetime of the process. Two
// graphs built over the same area still get different IDs.
type ID uint64

var lastID atomic.Uint64

func NewID() ID { return ID(lastID.Add(1)) }

type Graph interface {
	ID() ID
	Bounds() geom.Rect
	Contains(x, z int) bool
	// Triangles is shared with the graph and must not be modified.
	Triangles() []Triangle
}

type TriangleLookup interface {
	Bounds() geom.Rect
	FindTriangleAt(x, z int) (Triangle, bool)
}

// Builder produces a graph and its lookup for exactly the given area.
type Builder interface {
	Build(area geom.Rect) (Graph, TriangleLookup, error)
}

const containsEps = 1e-9

type Triangle struct {
	Index   int
	A, B, C geom.Point
}

// Contains reports whether (x, z) lies inside or on the edge of t,
// regardless of winding.
func (t Triangle) Contains(x, z float64) bool {
	d1 := cross(t.A, t.B, x, z)
	d2 := cross(t.B, t.C, x, z)
	d3 := cross(t.C, t.A, x, z)
	hasNeg := d1 < -containsEps || d2 < -containsEps || d3 < -containsEps
	hasPos := d1 > containsEps || d2 > containsEps || d3 > containsEps
	return !(hasNeg && hasPos)
}

func (t Triangle) bbox() (minX, minZ, maxX, maxZ float64) {
	minX = min(t.A.X, t.B.X, t.C.X)
	maxX = max(t.A.X, t.B.X, t.C.X)
	minZ = min(t.A.Z, t.B.Z, t.C.Z)
	maxZ = max(t.A.Z, t.B.Z, t.C.Z)
	return
}

func cross(a, b geom.Point, x, z float64) float64 {
	return (b.X-a.X)*(z-a.Z) - (b.Z-a.Z)*(x-a.X)
}
