// Package seedcache memoizes seed-derived per-graph models.
//
// Every model is a pure function of its graph and an effective seed built
// from the world seed and the graph's bounds. Entries are tagged with the
// seed version they were computed under; changing the seed bumps the version
// and drops every entry in one step, so a concurrent Get never sees a mix of
// old and new models.
package seedcache

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"polyworld.ai/internal/sim/world/terrain/geom"
	"polyworld.ai/internal/sim/world/terrain/graph"
)

// Factory derives a model for g. It must be deterministic in (g, seed).
type Factory[M any] func(g graph.Graph, seed int64) (M, error)

// EffectiveSeed mixes the world seed with the graph's bounds.
func EffectiveSeed(seed int64, bounds geom.Rect) int64 {
	return seed ^ int64(bounds.Hash())
}

type entry[M any] struct {
	version uint64
	model   M
}

type Cache[M any] struct {
	factory Factory[M]
	group   singleflight.Group

	mu      sync.RWMutex
	seed    int64
	version uint64
	entries map[graph.ID]entry[M]

	hits          atomic.Uint64
	misses        atomic.Uint64
	loads         atomic.Uint64
	failures      atomic.Uint64
	invalidations atomic.Uint64
}

func New[M any](factory Factory[M]) *Cache[M] {
	return &Cache[M]{
		factory: factory,
		entries: map[graph.ID]entry[M]{},
	}
}

// SetSeed replaces the seed and drops every entry. Setting the current seed
// again does nothing.
func (c *Cache[M]) SetSeed(seed int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seed == seed {
		return
	}
	c.seed = seed
	c.version++
	c.entries = map[graph.ID]entry[M]{}
	c.invalidations.Add(1)
}

func (c *Cache[M]) Seed() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seed
}

// Get returns the model for g, deriving it on first use. Concurrent callers
// asking for the same uncached graph share a single factory call. Factory
// errors are returned and never cached.
func (c *Cache[M]) Get(g graph.Graph) (M, error) {
	id := g.ID()

	c.mu.RLock()
	seed, version := c.seed, c.version
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok && e.version == version {
		c.hits.Add(1)
		return e.model, nil
	}
	c.misses.Add(1)

	key := strconv.FormatUint(uint64(id), 10) + "@" + strconv.FormatUint(version, 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		e, ok := c.entries[id]
		c.mu.RUnlock()
		if ok && e.version == version {
			return e.model, nil
		}

		c.loads.Add(1)
		m, err := c.factory(g, EffectiveSeed(seed, g.Bounds()))
		if err != nil {
			c.failures.Add(1)
			return nil, fmt.Errorf("derive model for graph %d %v: %w", id, g.Bounds(), err)
		}

		c.mu.Lock()
		// A seed change while we were computing makes m stale for the cache,
		// though it is still the right answer for this call.
		if c.version == version {
			c.entries[id] = entry[M]{version: version, model: m}
		}
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		var zero M
		return zero, err
	}
	m, _ := v.(M)
	return m, nil
}

func (c *Cache[M]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type Stats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Loads         uint64 `json:"loads"`
	Failures      uint64 `json:"failures"`
	Invalidations uint64 `json:"invalidations"`
	Entries       int    `json:"entries"`
}

func (c *Cache[M]) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Loads:         c.loads.Load(),
		Failures:      c.failures.Load(),
		Invalidations: c.invalidations.Load(),
		Entries:       c.Len(),
	}
}
