// Package worldgen runs the terrain facet pipeline over target windows of
// the world and reports each pass to the configured pass loggers.
package worldgen

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"polyworld.ai/internal/sim/tuning"
	"polyworld.ai/internal/sim/world/terrain/facet"
	"polyworld.ai/internal/sim/world/terrain/geom"
	"polyworld.ai/internal/sim/world/terrain/graph"
	"polyworld.ai/internal/sim/world/terrain/graphfacet"
	"polyworld.ai/internal/sim/world/terrain/seedcache"
	"polyworld.ai/internal/sim/world/terrain/water"
)

type Config struct {
	Tuning tuning.Tuning

	// Builder defaults to a grid builder sized from Tuning.Graph.
	Builder graph.Builder
	// WaterFactory defaults to water.NewDefaultModel.
	WaterFactory seedcache.Factory[water.Model]

	Logger      *log.Logger
	PassLoggers []PassLogger
}

type Generator struct {
	tune    tuning.Tuning
	logger  *log.Logger
	passLog []PassLogger

	graphs   *graphfacet.Provider
	water    *water.Provider
	pipeline *facet.Pipeline

	// seedMu orders SetSeed against passes: a pass holds the read lock
	// from the moment it records its seed until its models are assembled.
	seedMu sync.RWMutex
	seed   int64
}

func New(cfg Config) (*Generator, error) {
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	builder := cfg.Builder
	if builder == nil {
		builder = graph.GridBuilder{
			CellSize:   cfg.Tuning.Graph.CellSize,
			BucketSize: cfg.Tuning.Graph.BucketSize,
		}
	}
	g := &Generator{
		tune:    cfg.Tuning,
		logger:  cfg.Logger,
		passLog: cfg.PassLoggers,
		graphs: graphfacet.NewProvider(builder, graphfacet.ProviderConfig{
			RegionSize: cfg.Tuning.RegionSize,
			Border:     facet.Border{Sides: cfg.Tuning.FacetBorder},
			MaxCached:  cfg.Tuning.Graph.MaxCachedRegions,
		}),
		water: water.NewProvider(cfg.WaterFactory),
	}
	g.pipeline = facet.NewPipeline(g.graphs, g.water)
	g.SetSeed(cfg.Tuning.Seed)
	return g, nil
}

// SetSeed changes the world seed. Cached water models are dropped only when
// the seed actually changes.
func (g *Generator) SetSeed(seed int64) {
	g.seedMu.Lock()
	defer g.seedMu.Unlock()
	g.seed = seed
	g.pipeline.SetSeed(seed)
}

func (g *Generator) Seed() int64 {
	g.seedMu.RLock()
	defer g.seedMu.RUnlock()
	return g.seed
}

func (g *Generator) CacheStats() seedcache.Stats { return g.water.CacheStats() }

// Result is the output of one pass. It is read-only once returned.
type Result struct {
	PassID string
	Region *facet.Region
	Graphs *graphfacet.Facet
	Water  *water.Facet
}

// WaterAt classifies an absolute world coordinate.
func (r *Result) WaterAt(x, z int) (bool, error) {
	gr, err := r.Graphs.WorldGraph(x, z)
	if err != nil {
		return false, err
	}
	tri, err := r.Graphs.WorldTriangle(x, z)
	if err != nil {
		return false, err
	}
	m, ok := r.Water.Get(gr)
	if !ok {
		return false, fmt.Errorf("no water model for graph %d", gr.ID())
	}
	return m.IsWater(tri), nil
}

func (g *Generator) Generate(window geom.Rect) (*Result, error) {
	if window.Empty() {
		return nil, fmt.Errorf("empty window %v", window)
	}
	start := time.Now()
	entry := PassLogEntry{
		PassID:    uuid.NewString(),
		StartedAt: start.UTC().Format(time.RFC3339Nano),
		Window:    [4]int{window.X, window.Z, window.W, window.H},
	}

	g.seedMu.RLock()
	entry.Seed = g.seed
	res, err := g.run(window, entry.PassID)
	g.seedMu.RUnlock()
	entry.DurationMs = float64(time.Since(start).Microseconds()) / 1000
	entry.Cache = g.water.CacheStats()
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.Graphs = graphEntries(res)
	}
	g.report(entry)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GenerateAll runs one pass per window concurrently; results keep the order
// of windows. The water cache is shared by all passes.
func (g *Generator) GenerateAll(ctx context.Context, windows []geom.Rect) ([]*Result, error) {
	out := make([]*Result, len(windows))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.tune.Parallelism)
	for i, w := range windows {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			res, err := g.Generate(w)
			if err != nil {
				return fmt.Errorf("window %v: %w", w, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Generator) run(window geom.Rect, passID string) (*Result, error) {
	r, err := g.pipeline.Generate(window)
	if err != nil {
		return nil, err
	}
	gf, err := facet.Get[*graphfacet.Facet](r, graphfacet.Key)
	if err != nil {
		return nil, err
	}
	wf, err := facet.Get[*water.Facet](r, water.Key)
	if err != nil {
		return nil, err
	}
	return &Result{PassID: passID, Region: r, Graphs: gf, Water: wf}, nil
}

func graphEntries(res *Result) []GraphLogEntry {
	entries := res.Graphs.Entries()
	out := make([]GraphLogEntry, 0, len(entries))
	for _, e := range entries {
		gr := e.Graph()
		b := gr.Bounds()
		wr := e.Region()
		ge := GraphLogEntry{
			GraphID:   uint64(gr.ID()),
			Region:    [3]int{wr.RX, wr.RZ, wr.Size},
			Bounds:    [4]int{b.X, b.Z, b.W, b.H},
			Triangles: len(gr.Triangles()),
		}
		if m, ok := res.Water.Get(gr); ok {
			ge.ModelSeed = m.Seed()
			ge.WaterFraction = m.WaterFraction()
		}
		out = append(out, ge)
	}
	return out
}

func (g *Generator) report(e PassLogEntry) {
	if g.logger != nil {
		if e.Error != "" {
			g.logger.Printf("pass=%s window=%v seed=%d failed: %s", e.PassID, e.Window, e.Seed, e.Error)
		} else {
			g.logger.Printf("pass=%s window=%v seed=%d graphs=%d loads=%d hits=%d took=%.2fms",
				e.PassID, e.Window, e.Seed, len(e.Graphs), e.Cache.Loads, e.Cache.Hits, e.DurationMs)
		}
	}
	for _, pl := range g.passLog {
		if err := pl.WritePass(e); err != nil && g.logger != nil {
			g.logger.Printf("pass log: %v", err)
		}
	}
}
