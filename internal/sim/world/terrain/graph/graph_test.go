package graph

import (
	"testing"

	"polyworld.ai/internal/sim/world/terrain/geom"
)

func TestTriangleContainsEitherWinding(t *testing.T) {
	ccw := Triangle{A: geom.Point{X: 0, Z: 0}, B: geom.Point{X: 4, Z: 0}, C: geom.Point{X: 0, Z: 4}}
	cw := Triangle{A: ccw.A, B: ccw.C, C: ccw.B}
	for _, tri := range []Triangle{ccw, cw} {
		if !tri.Contains(1, 1) {
			t.Fatalf("expected interior point inside %+v", tri)
		}
		if !tri.Contains(2, 2) || !tri.Contains(0, 0) {
			t.Fatalf("expected edge and vertex points inside %+v", tri)
		}
		if tri.Contains(3, 3) {
			t.Fatalf("expected (3,3) outside %+v", tri)
		}
	}
}

func TestNewGridIDsAreUnique(t *testing.T) {
	area := geom.Rect{X: 0, Z: 0, W: 10, H: 10}
	a, err := NewGrid(area, 5)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	b, err := NewGrid(area, 5)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if a.ID() == b.ID() {
		t.Fatalf("expected distinct ids for distinct graphs, got %d", a.ID())
	}
	if a.Bounds() != b.Bounds() {
		t.Fatalf("expected equal bounds")
	}
}

func TestNewGridClipsLastCell(t *testing.T) {
	g, err := NewGrid(geom.Rect{X: 0, Z: 0, W: 7, H: 3}, 5)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if n := len(g.Triangles()); n != 4 {
		t.Fatalf("triangles=%d want=4", n)
	}
	last := g.Triangles()[3]
	if last.B.X != 7 || last.B.Z != 3 {
		t.Fatalf("expected last triangle clipped to bounds, got %+v", last)
	}
}

func TestNewGridRejectsBadInput(t *testing.T) {
	if _, err := NewGrid(geom.Rect{}, 5); err == nil {
		t.Fatalf("expected error for empty area")
	}
	if _, err := NewGrid(geom.Rect{W: 5, H: 5}, 0); err == nil {
		t.Fatalf("expected error for zero cell")
	}
}

func TestLookupsAgreeAndContainPoint(t *testing.T) {
	area := geom.Rect{X: -20, Z: 10, W: 23, H: 17}
	g, err := NewGrid(area, 4)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	bucket, err := NewBucketLookup(g, 6)
	if err != nil {
		t.Fatalf("NewBucketLookup: %v", err)
	}
	scan := NewScanLookup(g)

	for z := area.MinZ(); z <= area.MaxZ(); z++ {
		for x := area.MinX(); x <= area.MaxX(); x++ {
			tb, ok := bucket.FindTriangleAt(x, z)
			if !ok {
				t.Fatalf("bucket lookup missed (%d,%d)", x, z)
			}
			if !tb.Contains(float64(x), float64(z)) {
				t.Fatalf("bucket triangle %d does not contain (%d,%d)", tb.Index, x, z)
			}
			ts, ok := scan.FindTriangleAt(x, z)
			if !ok || !ts.Contains(float64(x), float64(z)) {
				t.Fatalf("scan lookup missed (%d,%d)", x, z)
			}
		}
	}
	if _, ok := bucket.FindTriangleAt(area.MaxX()+1, area.MinZ()); ok {
		t.Fatalf("expected miss outside bounds")
	}
}

func TestGridBuilderSharesBounds(t *testing.T) {
	area := geom.Rect{X: 100, Z: 100, W: 32, H: 32}
	g, l, err := GridBuilder{CellSize: 8}.Build(area)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Bounds() != area || l.Bounds() != area {
		t.Fatalf("bounds mismatch: graph=%v lookup=%v want=%v", g.Bounds(), l.Bounds(), area)
	}
}
