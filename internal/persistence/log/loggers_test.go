package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"polyworld.ai/internal/sim/worldgen"
)

func TestPassLoggerWritesCompressedJSONL(t *testing.T) {
	dir := t.TempDir()
	l := NewPassLogger(dir)
	now := time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)
	l.w.opts.Now = func() time.Time { return now }

	var want []worldgen.PassLogEntry
	for i := 0; i < 3; i++ {
		e := worldgen.PassLogEntry{
			PassID: string(rune('a' + i)),
			Seed:   int64(i),
			Window: [4]int{i * 10, 0, 10, 10},
			Graphs: []worldgen.GraphLogEntry{{GraphID: uint64(i + 1), Region: [3]int{i, 0, 10}, Triangles: 8}},
		}
		want = append(want, e)
		if err := l.WritePass(e); err != nil {
			t.Fatalf("WritePass: %v", err)
		}
	}
	if st := l.Stats(); st.Lines != 3 || st.Files != 1 {
		t.Fatalf("stats=%+v want lines=3 files=1", st)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadPasses(filepath.Join(PassDir(dir), "passes-2026-03-01-14.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadPasses: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pass log mismatch (-want +got):\n%s", diff)
	}
}

func TestPassLogReadableBeforeClose(t *testing.T) {
	dir := t.TempDir()
	l := NewPassLogger(dir)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l.w.opts.Now = func() time.Time { return now }
	defer l.Close()

	for _, id := range []string{"a", "b", "c"} {
		if err := l.WritePass(worldgen.PassLogEntry{PassID: id}); err != nil {
			t.Fatalf("WritePass: %v", err)
		}
	}
	if err := l.WritePass(worldgen.PassLogEntry{PassID: "d", Error: "boom"}); err != nil {
		t.Fatalf("WritePass: %v", err)
	}

	got, err := ReadPasses(filepath.Join(PassDir(dir), "passes-2026-03-01-09.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadPasses: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("records before Close=%d want=4", len(got))
	}
	if got[3].Error != "boom" {
		t.Fatalf("last record error=%q want=boom", got[3].Error)
	}
}

func TestJSONLZstdWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 14, 59, 0, 0, time.UTC)
	w := NewJSONLZstdWriterWith(WriterOptions{
		Dir:    dir,
		Prefix: "passes",
		Now:    func() time.Time { return now },
	})

	if err := w.Write(worldgen.PassLogEntry{PassID: "first"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(worldgen.PassLogEntry{PassID: "second"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if st := w.Stats(); st.Files != 2 {
		t.Fatalf("files=%d want=2", st.Files)
	}

	a, err := ReadPasses(filepath.Join(dir, "passes-2026-03-01-14.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadPasses: %v", err)
	}
	if len(a) != 1 || a[0].PassID != "first" {
		t.Fatalf("first hour mismatch: %+v", a)
	}

	all, err := ReadPassDir(dir)
	if err != nil {
		t.Fatalf("ReadPassDir: %v", err)
	}
	if len(all) != 2 || all[0].PassID != "first" || all[1].PassID != "second" {
		t.Fatalf("ReadPassDir order mismatch: %+v", all)
	}
}

func TestCloseWithoutWritesIsNoop(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "passes")
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(ents) != 0 {
		t.Fatalf("expected no files, got %d", len(ents))
	}
}

func TestReadPassesRejectsGarbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "passes-x.jsonl.zst")
	if err := os.WriteFile(p, []byte("not zstd"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadPasses(p); err == nil {
		t.Fatalf("expected decode error")
	}
}
