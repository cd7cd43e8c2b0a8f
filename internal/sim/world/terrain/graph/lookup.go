package graph

import (
	"fmt"
	"math"

	"polyworld.ai/internal/sim/world/terrain/geom"
)

// ScanLookup tests every triangle in order. Useful as a reference and for
// graphs with only a handful of triangles.
type ScanLookup struct {
	bounds geom.Rect
	tris   []Triangle
}

func NewScanLookup(g Graph) *ScanLookup {
	return &ScanLookup{bounds: g.Bounds(), tris: g.Triangles()}
}

func (l *ScanLookup) Bounds() geom.Rect { return l.bounds }

func (l *ScanLookup) FindTriangleAt(x, z int) (Triangle, bool) {
	if !l.bounds.Contains(x, z) {
		return Triangle{}, false
	}
	fx, fz := float64(x), float64(z)
	for _, t := range l.tris {
		if t.Contains(fx, fz) {
			return t, true
		}
	}
	return Triangle{}, false
}

// BucketLookup buckets triangle indices by the square cells their bounding
// boxes overlap, so a query only tests the triangles of one bucket.
type BucketLookup struct {
	bounds  geom.Rect
	size    int
	cols    int
	rows    int
	tris    []Triangle
	buckets [][]int
}

func NewBucketLookup(g Graph, size int) (*BucketLookup, error) {
	if size <= 0 {
		return nil, fmt.Errorf("bucket lookup: bucket size must be > 0, got %d", size)
	}
	b := g.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("bucket lookup: empty bounds %v", b)
	}
	l := &BucketLookup{
		bounds: b,
		size:   size,
		cols:   (b.W + size - 1) / size,
		rows:   (b.H + size - 1) / size,
		tris:   g.Triangles(),
	}
	l.buckets = make([][]int, l.cols*l.rows)
	for ti, t := range l.tris {
		minX, minZ, maxX, maxZ := t.bbox()
		c0, r0 := l.cellOf(minX, minZ)
		c1, r1 := l.cellOf(maxX, maxZ)
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				l.buckets[c+r*l.cols] = append(l.buckets[c+r*l.cols], ti)
			}
		}
	}
	return l, nil
}

func (l *BucketLookup) cellOf(x, z float64) (int, int) {
	c := int(math.Floor((x - float64(l.bounds.X)) / float64(l.size)))
	r := int(math.Floor((z - float64(l.bounds.Z)) / float64(l.size)))
	return clamp(c, 0, l.cols-1), clamp(r, 0, l.rows-1)
}

func (l *BucketLookup) Bounds() geom.Rect { return l.bounds }

func (l *BucketLookup) FindTriangleAt(x, z int) (Triangle, bool) {
	if !l.bounds.Contains(x, z) {
		return Triangle{}, false
	}
	fx, fz := float64(x), float64(z)
	c, r := l.cellOf(fx, fz)
	for _, ti := range l.buckets[c+r*l.cols] {
		if t := l.tris[ti]; t.Contains(fx, fz) {
			return t, true
		}
	}
	return Triangle{}, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
