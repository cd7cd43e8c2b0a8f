package graphfacet

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"polyworld.ai/internal/sim/world/terrain/facet"
	"polyworld.ai/internal/sim/world/terrain/geom"
	"polyworld.ai/internal/sim/world/terrain/graph"
	"polyworld.ai/internal/sim/world/terrain/region"
)

// gatedBuilder reports each Build on entered and blocks it until release
// is closed.
type gatedBuilder struct {
	entered chan geom.Rect
	release chan struct{}
	builds  atomic.Int32
}

func newGatedBuilder() *gatedBuilder {
	return &gatedBuilder{entered: make(chan geom.Rect, 16), release: make(chan struct{})}
}

func (b *gatedBuilder) Build(area geom.Rect) (graph.Graph, graph.TriangleLookup, error) {
	b.builds.Add(1)
	b.entered <- area
	<-b.release
	return newStubGraph(area), stubLookup{bounds: area}, nil
}

func processAsync(p *Provider, area geom.Rect, wg *sync.WaitGroup, errs chan<- error) *facet.Region {
	r := facet.NewRegion(area)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- p.Process(r)
	}()
	return r
}

func TestProviderBuildsDistinctRegionsInParallel(t *testing.T) {
	b := newGatedBuilder()
	p := NewProvider(b, ProviderConfig{RegionSize: 10, MaxCached: 8})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	processAsync(p, geom.Rect{X: 0, Z: 0, W: 10, H: 10}, &wg, errs)
	processAsync(p, geom.Rect{X: 10, Z: 0, W: 10, H: 10}, &wg, errs)

	timeout := time.After(5 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-b.entered:
		case <-timeout:
			close(b.release)
			wg.Wait()
			t.Fatalf("only %d of 2 builds started while the first was blocked", i)
		}
	}
	close(b.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
	}
	if p.Cached() != 2 {
		t.Fatalf("cached=%d want=2", p.Cached())
	}
}

func TestProviderSharesOneBuildPerRegion(t *testing.T) {
	b := newGatedBuilder()
	p := NewProvider(b, ProviderConfig{RegionSize: 10, MaxCached: 8})
	area := geom.Rect{X: 0, Z: 0, W: 10, H: 10}

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	regions := make([]*facet.Region, n)
	for i := range regions {
		regions[i] = processAsync(p, area, &wg, errs)
	}
	select {
	case <-b.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("build never started")
	}
	close(b.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	if got := b.builds.Load(); got != 1 {
		t.Fatalf("builds=%d want=1", got)
	}
	wr := region.WorldRegion{RX: 0, RZ: 0, Size: 10}
	var first graph.Graph
	for i, r := range regions {
		f, err := facet.Get[*Facet](r, Key)
		if err != nil {
			t.Fatalf("facet %d: %v", i, err)
		}
		g, ok := f.GraphFor(wr)
		if !ok {
			t.Fatalf("facet %d misses %s", i, wr)
		}
		if first == nil {
			first = g
		} else if g != first {
			t.Fatalf("facet %d got a different graph instance", i)
		}
	}
}

func TestProviderWithoutCacheRebuilds(t *testing.T) {
	p := NewProvider(graph.GridBuilder{CellSize: 5}, ProviderConfig{RegionSize: 10})
	area := geom.Rect{X: 0, Z: 0, W: 10, H: 10}
	wr := region.WorldRegion{RX: 0, RZ: 0, Size: 10}

	var graphs []graph.Graph
	for i := 0; i < 2; i++ {
		r := facet.NewRegion(area)
		if err := p.Process(r); err != nil {
			t.Fatalf("Process: %v", err)
		}
		f, err := facet.Get[*Facet](r, Key)
		if err != nil {
			t.Fatalf("facet: %v", err)
		}
		g, _ := f.GraphFor(wr)
		graphs = append(graphs, g)
	}
	if graphs[0] == graphs[1] || p.Cached() != 0 {
		t.Fatalf("expected a fresh graph per request with caching disabled")
	}
}
