package facet

import (
	"fmt"

	"polyworld.ai/internal/sim/world/terrain/geom"
)

// Provider fills in one or more facets of a Region. SetSeed is called before
// every pass and must be cheap when the seed is unchanged.
type Provider interface {
	Name() string
	SetSeed(seed int64)
	Process(r *Region) error
}

// Pipeline runs providers in registration order; a provider may only read
// facets stored by providers registered before it.
type Pipeline struct {
	providers []Provider
}

func NewPipeline(providers ...Provider) *Pipeline {
	return &Pipeline{providers: providers}
}

func (p *Pipeline) SetSeed(seed int64) {
	for _, pr := range p.providers {
		pr.SetSeed(seed)
	}
}

func (p *Pipeline) Generate(area geom.Rect) (*Region, error) {
	r := NewRegion(area)
	for _, pr := range p.providers {
		if err := pr.Process(r); err != nil {
			return nil, fmt.Errorf("%s: %w", pr.Name(), err)
		}
	}
	return r, nil
}
