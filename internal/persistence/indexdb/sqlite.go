package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"polyworld.ai/internal/sim/tuning"
	"polyworld.ai/internal/sim/worldgen"
)

// SQLiteIndex is a queryable read-model of generation passes. It never feeds
// back into generation; the JSONL pass log remains the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan worldgen.PassLogEntry
	wg   sync.WaitGroup
	once sync.Once

	closed    atomic.Bool
	dropTotal atomic.Uint64
}

type Stats struct {
	DropPassTotal uint64 `json:"drop_pass_total"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan worldgen.PassLogEntry, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS passes (
			pass_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration_ms REAL NOT NULL,
			seed INTEGER NOT NULL,
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			w INTEGER NOT NULL,
			h INTEGER NOT NULL,
			graphs INTEGER NOT NULL,
			cache_hits INTEGER NOT NULL,
			cache_loads INTEGER NOT NULL,
			error TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_passes_seed ON passes(seed, started_at);`,
		`CREATE TABLE IF NOT EXISTS pass_graphs (
			pass_id TEXT NOT NULL,
			graph_id INTEGER NOT NULL,
			rx INTEGER NOT NULL,
			rz INTEGER NOT NULL,
			region_size INTEGER NOT NULL,
			triangles INTEGER NOT NULL,
			model_seed INTEGER NOT NULL,
			water_fraction REAL NOT NULL,
			PRIMARY KEY (pass_id, graph_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_pass_graphs_region ON pass_graphs(rx, rz, region_size);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WritePass queues the entry; it is dropped if the writer falls behind.
func (s *SQLiteIndex) WritePass(e worldgen.PassLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- e:
	default:
		s.dropTotal.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		DropPassTotal: s.dropTotal.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

// UpsertTuning records the tuning the generator runs with.
func (s *SQLiteIndex) UpsertTuning(t tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('tuning',?)`, string(b)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertPass, _ := s.db.Prepare(`INSERT OR REPLACE INTO passes(pass_id,started_at,duration_ms,seed,x,z,w,h,graphs,cache_hits,cache_loads,error,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertGraph, _ := s.db.Prepare(`INSERT OR REPLACE INTO pass_graphs(pass_id,graph_id,rx,rz,region_size,triangles,model_seed,water_fraction) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertPass != nil {
			_ = insertPass.Close()
		}
		if insertGraph != nil {
			_ = insertGraph.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for e := range s.ch {
		begin()
		if tx == nil || insertPass == nil {
			continue
		}
		raw, _ := json.Marshal(e)
		var errText any
		if e.Error != "" {
			errText = e.Error
		}
		if _, err := tx.Stmt(insertPass).Exec(
			e.PassID,
			e.StartedAt,
			e.DurationMs,
			e.Seed,
			e.Window[0], e.Window[1], e.Window[2], e.Window[3],
			len(e.Graphs),
			int64(e.Cache.Hits),
			int64(e.Cache.Loads),
			errText,
			string(raw),
		); err != nil {
			rollback()
			continue
		}
		opCount++
		for _, g := range e.Graphs {
			if insertGraph == nil {
				break
			}
			if _, err := tx.Stmt(insertGraph).Exec(
				e.PassID,
				int64(g.GraphID),
				g.Region[0], g.Region[1], g.Region[2],
				g.Triangles,
				g.ModelSeed,
				g.WaterFraction,
			); err != nil {
				rollback()
				break
			}
			opCount++
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
