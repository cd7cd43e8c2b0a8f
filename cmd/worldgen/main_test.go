package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	persistlog "polyworld.ai/internal/persistence/log"
	"polyworld.ai/internal/sim/tuning"
	"polyworld.ai/internal/sim/world/terrain/geom"
	"polyworld.ai/internal/sim/worldgen"
)

func TestParseWindows(t *testing.T) {
	got, err := parseWindows(" 0,0,10,10 ; -5,3,4,4;")
	if err != nil {
		t.Fatalf("parseWindows: %v", err)
	}
	if len(got) != 2 || got[1] != (geom.Rect{X: -5, Z: 3, W: 4, H: 4}) {
		t.Fatalf("unexpected windows: %v", got)
	}
	for _, bad := range []string{"", "1,2,3", "0,0,0,5", "a,b,c,d"} {
		if _, err := parseWindows(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParsePoints(t *testing.T) {
	got, err := parsePoints("1,2;3,-4")
	if err != nil {
		t.Fatalf("parsePoints: %v", err)
	}
	if len(got) != 2 || got[1] != [2]int{3, -4} {
		t.Fatalf("unexpected points: %v", got)
	}
	if got, err := parsePoints(""); err != nil || len(got) != 0 {
		t.Fatalf("empty query should yield no points, got %v,%v", got, err)
	}
}

func TestOpenPassIndex(t *testing.T) {
	idx, err := openPassIndex(t.TempDir(), true, tuning.Defaults())
	if err != nil || idx != nil {
		t.Fatalf("disabled index should be nil, got %v,%v", idx, err)
	}

	t.Setenv("PW_INDEX_BACKEND", "sqlite")
	dir := t.TempDir()
	idx, err = openPassIndex(dir, false, tuning.Defaults())
	if err != nil || idx == nil {
		t.Fatalf("openPassIndex: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index", "worldgen.sqlite")); err != nil {
		t.Fatalf("index file: %v", err)
	}

	t.Setenv("PW_INDEX_BACKEND", "bogus")
	if _, err := openPassIndex(dir, false, tuning.Defaults()); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}

func TestDumpPassLog(t *testing.T) {
	dir := t.TempDir()
	pl := persistlog.NewPassLogger(dir)
	if err := pl.WritePass(worldgen.PassLogEntry{PassID: "p1", Seed: 7, Window: [4]int{0, 0, 10, 10}}); err != nil {
		t.Fatalf("WritePass: %v", err)
	}
	if err := pl.WritePass(worldgen.PassLogEntry{PassID: "p2", Error: "boom"}); err != nil {
		t.Fatalf("WritePass: %v", err)
	}
	if err := pl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var buf bytes.Buffer
	if err := dumpPassLog(&buf, persistlog.PassDir(dir)); err != nil {
		t.Fatalf("dumpPassLog: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "p1 seed=7") || !strings.Contains(out, "p2") || !strings.Contains(out, "error: boom") {
		t.Fatalf("unexpected dump:\n%s", out)
	}
}

func testOptions(t *testing.T) options {
	t.Helper()
	t.Setenv("PW_INDEX_BACKEND", "sqlite")
	return options{
		configDir: t.TempDir(),
		dataDir:   t.TempDir(),
		seed:      5,
		seedSet:   true,
		reseed:    6,
		windows:   "0,0,64,64",
		queries:   "32,32",
	}
}

func TestRunClosesPassLogAndIndex(t *testing.T) {
	opts := testOptions(t)
	var buf bytes.Buffer
	if err := run(context.Background(), opts, log.New(&buf, "", 0)); err != nil {
		t.Fatalf("run: %v", err)
	}
	passes, err := persistlog.ReadPassDir(persistlog.PassDir(opts.dataDir))
	if err != nil {
		t.Fatalf("ReadPassDir: %v", err)
	}
	if len(passes) != 2 || passes[0].Seed != 5 || passes[1].Seed != 6 {
		t.Fatalf("unexpected passes: %+v", passes)
	}
	if _, err := os.Stat(filepath.Join(opts.dataDir, "index", "worldgen.sqlite")); err != nil {
		t.Fatalf("index file: %v", err)
	}
	if !strings.Contains(buf.String(), "query 32,32 water=") {
		t.Fatalf("expected query output, got %q", buf.String())
	}
}

func TestRunReturnsErrorInsteadOfExiting(t *testing.T) {
	opts := testOptions(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, opts, log.New(io.Discard, "", 0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := persistlog.ReadPassDir(persistlog.PassDir(opts.dataDir)); err != nil {
		t.Fatalf("pass log unreadable after failed run: %v", err)
	}
}
