package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	persistlog "polyworld.ai/internal/persistence/log"
	"polyworld.ai/internal/sim/tuning"
	"polyworld.ai/internal/sim/world/terrain/geom"
	"polyworld.ai/internal/sim/worldgen"
)

type options struct {
	configDir  string
	tuningPath string
	dataDir    string
	disableDB  bool
	noPassLog  bool
	seed       int64
	seedSet    bool
	reseed     int64
	windows    string
	queries    string
}

func main() {
	var (
		opts       options
		dumpPasses bool
	)
	flag.StringVar(&opts.configDir, "configs", "./configs", "config directory")
	flag.StringVar(&opts.tuningPath, "tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	flag.StringVar(&opts.dataDir, "data", "./data", "runtime data directory")
	flag.BoolVar(&opts.disableDB, "disable_db", false, "disable the sqlite pass index")
	flag.BoolVar(&opts.noPassLog, "no_pass_log", false, "disable the compressed jsonl pass log")
	flag.Int64Var(&opts.seed, "seed", 0, "world seed (overrides tuning when set)")
	flag.Int64Var(&opts.reseed, "reseed", 0, "if set, rerun every window under this seed after the first run")
	flag.StringVar(&opts.windows, "windows", "0,0,512,512", "target windows as x,z,w,h separated by ';'")
	flag.StringVar(&opts.queries, "query", "", "world points as x,z separated by ';' to classify after each run")
	flag.BoolVar(&dumpPasses, "dump_passes", false, "print the pass log under <data>/passes and exit")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.seedSet = true
		}
	})

	logger := log.New(os.Stdout, "[worldgen] ", log.LstdFlags|log.Lmicroseconds)

	if dumpPasses {
		if err := dumpPassLog(os.Stdout, persistlog.PassDir(opts.dataDir)); err != nil {
			logger.Fatalf("dump passes: %v", err)
		}
		return
	}

	ctx, cancel := signalContext()
	err := run(ctx, opts, logger)
	cancel()
	if err != nil {
		logger.Fatalf("%v", err)
	}
}

// run closes every resource it opens before returning, on success or error.
func run(ctx context.Context, opts options, logger *log.Logger) error {
	tp := strings.TrimSpace(opts.tuningPath)
	if tp == "" {
		tp = filepath.Join(opts.configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("load tuning: %w", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if opts.seedSet {
		tune.Seed = opts.seed
	}

	targets, err := parseWindows(opts.windows)
	if err != nil {
		return fmt.Errorf("parse windows: %w", err)
	}
	points, err := parsePoints(opts.queries)
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}

	var passLoggers []worldgen.PassLogger

	// Optional: read-model index (does not affect generation).
	idx, err := openPassIndex(opts.dataDir, opts.disableDB, tune)
	if err != nil {
		return fmt.Errorf("open index backend: %w", err)
	}
	if idx != nil {
		defer idx.Close()
		passLoggers = append(passLoggers, idx)
	}
	if !opts.noPassLog {
		pl := persistlog.NewPassLogger(opts.dataDir)
		defer pl.Close()
		passLoggers = append(passLoggers, pl)
	}

	gen, err := worldgen.New(worldgen.Config{
		Tuning:      tune,
		Logger:      logger,
		PassLoggers: passLoggers,
	})
	if err != nil {
		return fmt.Errorf("worldgen: %w", err)
	}

	logger.Printf("seed=%d region_size=%d border=%d windows=%d", gen.Seed(), tune.RegionSize, tune.FacetBorder, len(targets))
	if err := runOnce(ctx, gen, targets, points, logger); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if opts.reseed != 0 && opts.reseed != gen.Seed() {
		gen.SetSeed(opts.reseed)
		logger.Printf("reseed=%d", gen.Seed())
		if err := runOnce(ctx, gen, targets, points, logger); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
	}
	st := gen.CacheStats()
	logger.Printf("cache entries=%d loads=%d hits=%d failures=%d invalidations=%d",
		st.Entries, st.Loads, st.Hits, st.Failures, st.Invalidations)
	return nil
}

func runOnce(ctx context.Context, gen *worldgen.Generator, targets []geom.Rect, points [][2]int, logger *log.Logger) error {
	results, err := gen.GenerateAll(ctx, targets)
	if err != nil {
		return err
	}
	for _, p := range points {
		for _, res := range results {
			if !res.Region.Area().Contains(p[0], p[1]) {
				continue
			}
			wet, err := res.WaterAt(p[0], p[1])
			if err != nil {
				logger.Printf("query %d,%d: %v", p[0], p[1], err)
				break
			}
			logger.Printf("query %d,%d water=%t", p[0], p[1], wet)
			break
		}
	}
	return nil
}

func dumpPassLog(w io.Writer, dir string) error {
	entries, err := persistlog.ReadPassDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		status := "ok"
		if e.Error != "" {
			status = "error: " + e.Error
		}
		fmt.Fprintf(w, "%s %s seed=%d window=%v graphs=%d took=%.2fms %s\n",
			e.StartedAt, e.PassID, e.Seed, e.Window, len(e.Graphs), e.DurationMs, status)
	}
	return nil
}

func parseWindows(s string) ([]geom.Rect, error) {
	var out []geom.Rect
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := parseInts(part, 4)
		if err != nil {
			return nil, fmt.Errorf("window %q: %w", part, err)
		}
		r := geom.Rect{X: v[0], Z: v[1], W: v[2], H: v[3]}
		if r.Empty() {
			return nil, fmt.Errorf("window %q is empty", part)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no windows")
	}
	return out, nil
}

func parsePoints(s string) ([][2]int, error) {
	var out [][2]int
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := parseInts(part, 2)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", part, err)
		}
		out = append(out, [2]int{v[0], v[1]})
	}
	return out, nil
}

func parseInts(s string, n int) ([]int, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
