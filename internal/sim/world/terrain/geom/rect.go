package geom

import (
	"fmt"

	"polyworld.ai/internal/sim/world/logic/mathx"
)

// rectHashSeed keeps rect hashes apart from the coordinate hashes used by
// the terrain generators.
const rectHashSeed int64 = 0x5eed_b0c5

// Rect is an axis-aligned integer rectangle covering [X, X+W) x [Z, Z+H).
// It is a comparable value type: two rects are equal iff all fields match.
type Rect struct {
	X, Z int
	W, H int
}

func NewRect(minX, minZ, maxX, maxZ int) Rect {
	return Rect{X: minX, Z: minZ, W: maxX - minX + 1, H: maxZ - minZ + 1}
}

func (r Rect) MinX() int { return r.X }
func (r Rect) MinZ() int { return r.Z }
func (r Rect) MaxX() int { return r.X + r.W - 1 }
func (r Rect) MaxZ() int { return r.Z + r.H - 1 }

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Contains(x, z int) bool {
	return x >= r.X && x < r.X+r.W && z >= r.Z && z < r.Z+r.H
}

func (r Rect) Equal(o Rect) bool { return r == o }

func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Z < o.Z+o.H && o.Z < r.Z+r.H
}

// Expand grows the rect by n on every side.
func (r Rect) Expand(n int) Rect {
	return Rect{X: r.X - n, Z: r.Z - n, W: r.W + 2*n, H: r.H + 2*n}
}

// Center returns the rect's centre in continuous coordinates.
func (r Rect) Center() Point {
	return Point{X: float64(r.X) + float64(r.W)/2, Z: float64(r.Z) + float64(r.H)/2}
}

// Hash is stable across processes and platforms.
func (r Rect) Hash() uint64 {
	return mathx.Hash4(rectHashSeed, r.X, r.Z, r.W, r.H)
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d..%d,%d]", r.MinX(), r.MinZ(), r.MaxX(), r.MaxZ())
}

type Point struct {
	X, Z float64
}
