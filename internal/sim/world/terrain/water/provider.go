package water

import (
	"polyworld.ai/internal/sim/world/terrain/facet"
	"polyworld.ai/internal/sim/world/terrain/graphfacet"
	"polyworld.ai/internal/sim/world/terrain/seedcache"
)

// Provider attaches a water model to every graph of the graph facet. Models
// are cached per graph across requests until the seed changes.
type Provider struct {
	cache *seedcache.Cache[Model]
}

func NewProvider(factory seedcache.Factory[Model]) *Provider {
	if factory == nil {
		factory = NewDefaultModel
	}
	return &Provider{cache: seedcache.New(factory)}
}

func (p *Provider) Name() string { return "water" }

func (p *Provider) SetSeed(seed int64) { p.cache.SetSeed(seed) }

func (p *Provider) Process(r *facet.Region) error {
	graphs, err := facet.Get[*graphfacet.Facet](r, graphfacet.Key)
	if err != nil {
		return err
	}
	out := NewFacet()
	for _, g := range graphs.AllGraphs() {
		m, err := p.cache.Get(g)
		if err != nil {
			return err
		}
		out.Add(g, m)
	}
	r.SetFacet(Key, out)
	return nil
}

func (p *Provider) CacheStats() seedcache.Stats { return p.cache.Stats() }
