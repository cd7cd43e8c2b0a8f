package graph

import (
	"fmt"

	"polyworld.ai/internal/sim/world/terrain/geom"
)

// Grid is a regular quad mesh over its bounds, each quad split into two
// triangles along the min/max diagonal. The last row and column are clipped
// to the bounds.
type Grid struct {
	id     ID
	bounds geom.Rect
	cell   int
	cols   int
	rows   int
	tris   []Triangle
}

func NewGrid(area geom.Rect, cell int) (*Grid, error) {
	if area.Empty() {
		return nil, fmt.Errorf("grid: empty area %v", area)
	}
	if cell <= 0 {
		return nil, fmt.Errorf("grid: cell size must be > 0, got %d", cell)
	}
	g := &Grid{
		id:     NewID(),
		bounds: area,
		cell:   cell,
		cols:   (area.W + cell - 1) / cell,
		rows:   (area.H + cell - 1) / cell,
	}
	g.tris = make([]Triangle, 0, 2*g.cols*g.rows)
	for r := 0; r < g.rows; r++ {
		z0 := float64(area.Z + r*cell)
		z1 := float64(area.Z + min((r+1)*cell, area.H))
		for c := 0; c < g.cols; c++ {
			x0 := float64(area.X + c*cell)
			x1 := float64(area.X + min((c+1)*cell, area.W))
			g.tris = append(g.tris,
				Triangle{
					Index: len(g.tris),
					A:     geom.Point{X: x0, Z: z0},
					B:     geom.Point{X: x1, Z: z0},
					C:     geom.Point{X: x1, Z: z1},
				},
				Triangle{
					Index: len(g.tris) + 1,
					A:     geom.Point{X: x0, Z: z0},
					B:     geom.Point{X: x1, Z: z1},
					C:     geom.Point{X: x0, Z: z1},
				},
			)
		}
	}
	return g, nil
}

func (g *Grid) ID() ID                 { return g.id }
func (g *Grid) Bounds() geom.Rect      { return g.bounds }
func (g *Grid) Contains(x, z int) bool { return g.bounds.Contains(x, z) }
func (g *Grid) Triangles() []Triangle  { return g.tris }
func (g *Grid) CellSize() int          { return g.cell }

// GridBuilder builds Grid graphs with bucketed triangle lookups.
type GridBuilder struct {
	CellSize   int
	BucketSize int
}

func (b GridBuilder) Build(area geom.Rect) (Graph, TriangleLookup, error) {
	g, err := NewGrid(area, b.CellSize)
	if err != nil {
		return nil, nil, err
	}
	bucket := b.BucketSize
	if bucket <= 0 {
		// A few triangles per bucket is enough for a regular mesh.
		bucket = 2 * b.CellSize
	}
	lookup, err := NewBucketLookup(g, bucket)
	if err != nil {
		return nil, nil, err
	}
	return g, lookup, nil
}
