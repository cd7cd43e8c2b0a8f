package region

import (
	"fmt"

	"polyworld.ai/internal/sim/world/logic/mathx"
	"polyworld.ai/internal/sim/world/terrain/geom"
)

// WorldRegion names one tile of world space at a fixed tiling size.
// It is comparable and used as a map key.
type WorldRegion struct {
	RX, RZ int
	Size   int
}

func (wr WorldRegion) Area() geom.Rect {
	return geom.Rect{X: wr.RX * wr.Size, Z: wr.RZ * wr.Size, W: wr.Size, H: wr.Size}
}

func (wr WorldRegion) String() string {
	return fmt.Sprintf("region(%d,%d)@%d", wr.RX, wr.RZ, wr.Size)
}

// At returns the region of the given size that contains the world point.
func At(x, z, size int) WorldRegion {
	if size <= 0 {
		size = 1
	}
	return WorldRegion{RX: mathx.FloorDiv(x, size), RZ: mathx.FloorDiv(z, size), Size: size}
}

// Cover lists the regions intersecting area, row by row (z outer, x inner).
func Cover(area geom.Rect, size int) []WorldRegion {
	if area.Empty() {
		return nil
	}
	if size <= 0 {
		size = 1
	}
	lo := At(area.MinX(), area.MinZ(), size)
	hi := At(area.MaxX(), area.MaxZ(), size)
	out := make([]WorldRegion, 0, (hi.RX-lo.RX+1)*(hi.RZ-lo.RZ+1))
	for rz := lo.RZ; rz <= hi.RZ; rz++ {
		for rx := lo.RX; rx <= hi.RX; rx++ {
			out = append(out, WorldRegion{RX: rx, RZ: rz, Size: size})
		}
	}
	return out
}
