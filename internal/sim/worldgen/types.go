package worldgen

import "polyworld.ai/internal/sim/world/terrain/seedcache"

// PassLogEntry describes one generation pass over one target window.
type PassLogEntry struct {
	PassID     string          `json:"pass_id"`
	StartedAt  string          `json:"started_at"`
	DurationMs float64         `json:"duration_ms"`
	Seed       int64           `json:"seed"`
	Window     [4]int          `json:"window"` // x, z, w, h
	Graphs     []GraphLogEntry `json:"graphs"`
	Cache      seedcache.Stats `json:"cache"`
	Error      string          `json:"error,omitempty"`
}

type GraphLogEntry struct {
	GraphID       uint64  `json:"graph_id"`
	Region        [3]int  `json:"region"` // rx, rz, size
	Bounds        [4]int  `json:"bounds"` // x, z, w, h
	Triangles     int     `json:"triangles"`
	ModelSeed     int64   `json:"model_seed"`
	WaterFraction float64 `json:"water_fraction"`
}

type PassLogger interface {
	WritePass(PassLogEntry) error
}
