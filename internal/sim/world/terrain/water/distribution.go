package water

import (
	"math"

	"polyworld.ai/internal/sim/world/logic/mathx"
)

const islandFactor = 1.07

// RadialDistribution shapes a single island out of overlapping sine waves
// around the origin, with one bay cut into it. Inputs are normalized to
// [-1, 1] on both axes.
type RadialDistribution struct {
	bumps      int
	startAngle float64
	dipAngle   float64
	dipWidth   float64
}

func NewRadialDistribution(seed int64) RadialDistribution {
	u := func(i int) float64 { return mathx.Unit(mathx.Hash2(seed, i, 0x7a7e)) }
	return RadialDistribution{
		bumps:      1 + int(u(0)*6),
		startAngle: u(1) * 2 * math.Pi,
		dipAngle:   u(2) * 2 * math.Pi,
		dipWidth:   0.2 + u(3)*0.5,
	}
}

func (d RadialDistribution) IsLand(nx, nz float64) bool {
	angle := math.Atan2(nz, nx)
	length := 0.5 * (math.Max(math.Abs(nx), math.Abs(nz)) + math.Hypot(nx, nz))

	b := float64(d.bumps)
	r1 := 0.5 + 0.40*math.Sin(d.startAngle+b*angle+math.Cos((b+3)*angle))
	r2 := 0.7 - 0.20*math.Sin(d.startAngle+b*angle-math.Sin((b+2)*angle))
	if d.inDip(angle) {
		r1, r2 = 0.2, 0.2
	}
	return length < r1 || (length > r1*islandFactor && length < r2)
}

func (d RadialDistribution) inDip(angle float64) bool {
	delta := angle - d.dipAngle
	return math.Abs(delta) < d.dipWidth ||
		math.Abs(delta+2*math.Pi) < d.dipWidth ||
		math.Abs(delta-2*math.Pi) < d.dipWidth
}
