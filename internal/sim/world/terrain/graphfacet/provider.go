package graphfacet

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"polyworld.ai/internal/sim/world/terrain/facet"
	"polyworld.ai/internal/sim/world/terrain/graph"
	"polyworld.ai/internal/sim/world/terrain/region"
)

type ProviderConfig struct {
	RegionSize int
	Border     facet.Border
	// MaxCached bounds the number of built regions kept for reuse by later
	// requests. Zero disables reuse.
	MaxCached int
}

// Provider builds a Facet covering the request area plus border, one graph
// per world region. Built regions are kept so that overlapping requests
// share graph instances.
type Provider struct {
	builder graph.Builder
	cfg     ProviderConfig
	group   singleflight.Group

	mu    sync.Mutex
	built map[region.WorldRegion]Entry
	order []region.WorldRegion
}

func NewProvider(builder graph.Builder, cfg ProviderConfig) *Provider {
	if cfg.RegionSize <= 0 {
		cfg.RegionSize = 1
	}
	return &Provider{
		builder: builder,
		cfg:     cfg,
		built:   map[region.WorldRegion]Entry{},
	}
}

func (p *Provider) Name() string { return "graph" }

// SetSeed is a no-op: region geometry is independent of the world seed.
func (p *Provider) SetSeed(int64) {}

func (p *Provider) Process(r *facet.Region) error {
	f := New(r.Area(), p.cfg.Border)
	for _, wr := range region.Cover(f.WorldRegion(), p.cfg.RegionSize) {
		e, err := p.entry(wr)
		if err != nil {
			return err
		}
		f.AddEntry(e)
	}
	r.SetFacet(Key, f)
	return nil
}

// Cached reports how many built regions are held for reuse.
func (p *Provider) Cached() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.built)
}

// entry returns the cached entry for wr or builds it. Builds of distinct
// regions run in parallel; concurrent requests for one region share a build.
func (p *Provider) entry(wr region.WorldRegion) (Entry, error) {
	if e, ok := p.cached(wr); ok {
		return e, nil
	}
	v, err, _ := p.group.Do(wr.String(), func() (any, error) {
		if e, ok := p.cached(wr); ok {
			return e, nil
		}
		g, lookup, err := p.builder.Build(wr.Area())
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", wr, err)
		}
		e, err := NewEntry(wr, g, lookup)
		if err != nil {
			return nil, err
		}
		p.store(wr, e)
		return e, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

func (p *Provider) cached(wr region.WorldRegion) (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.built[wr]
	return e, ok
}

func (p *Provider) store(wr region.WorldRegion, e Entry) {
	if p.cfg.MaxCached <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.built[wr]; ok {
		return
	}
	p.built[wr] = e
	p.order = append(p.order, wr)
	for len(p.order) > p.cfg.MaxCached {
		delete(p.built, p.order[0])
		p.order = p.order[1:]
	}
}
