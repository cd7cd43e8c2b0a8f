// Package facet holds the per-request generation context: the target area
// being generated and the facets providers have stored for it so far.
package facet

import (
	"errors"
	"fmt"

	"polyworld.ai/internal/sim/world/terrain/geom"
)

var ErrMissingFacet = errors.New("facet not available")

// Key names a facet type within a Region.
type Key string

// Border widens the area a facet covers beyond the target region.
type Border struct {
	Sides int
}

// Base2D is the coordinate frame shared by 2D facets. World is the absolute
// area the facet covers; Relative is the same area expressed relative to the
// target region's min corner.
type Base2D struct {
	world    geom.Rect
	relative geom.Rect
}

func NewBase2D(target geom.Rect, border Border) Base2D {
	return Base2D{
		world:    target.Expand(border.Sides),
		relative: geom.Rect{X: 0, Z: 0, W: target.W, H: target.H}.Expand(border.Sides),
	}
}

func (b Base2D) WorldRegion() geom.Rect    { return b.world }
func (b Base2D) RelativeRegion() geom.Rect { return b.relative }

// ToWorld maps a facet-relative coordinate onto the absolute frame.
func (b Base2D) ToWorld(x, z int) (int, int) {
	return x - b.relative.MinX() + b.world.MinX(), z - b.relative.MinZ() + b.world.MinZ()
}

// Region is the working set of one generation request.
type Region struct {
	area   geom.Rect
	facets map[Key]any
}

func NewRegion(area geom.Rect) *Region {
	return &Region{area: area, facets: map[Key]any{}}
}

func (r *Region) Area() geom.Rect { return r.area }

func (r *Region) Facet(k Key) (any, bool) {
	v, ok := r.facets[k]
	return v, ok
}

func (r *Region) SetFacet(k Key, v any) {
	r.facets[k] = v
}

// Get fetches a facet and asserts its type.
func Get[T any](r *Region, k Key) (T, error) {
	var zero T
	v, ok := r.facets[k]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrMissingFacet, k)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("facet %s: unexpected type %T", k, v)
	}
	return t, nil
}
