// Package log persists generation pass records as hourly rotated,
// zstd-compressed JSON lines.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"polyworld.ai/internal/sim/worldgen"
)

const hourLayout = "2006-01-02-15"

type WriterOptions struct {
	Dir    string
	Prefix string
	Level  zstd.EncoderLevel
	// Now defaults to time.Now; rotation uses its UTC hour.
	Now func() time.Time
}

// JSONLZstdWriter appends one JSON document per line to
// <Dir>/<Prefix>-<hour>.jsonl.zst, switching files when the hour changes.
type JSONLZstdWriter struct {
	opts WriterOptions

	mu     sync.Mutex
	hour   string
	file   *os.File
	enc    *zstd.Encoder
	buf    *bufio.Writer
	lines  uint64
	rotate uint64
}

func NewJSONLZstdWriter(dir, prefix string) *JSONLZstdWriter {
	return NewJSONLZstdWriterWith(WriterOptions{Dir: dir, Prefix: prefix})
}

func NewJSONLZstdWriterWith(opts WriterOptions) *JSONLZstdWriter {
	if opts.Level == 0 {
		opts.Level = zstd.SpeedFastest
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &JSONLZstdWriter{opts: opts}
}

func (w *JSONLZstdWriter) Write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if hour := w.opts.Now().UTC().Format(hourLayout); hour != w.hour {
		if err := w.openLocked(hour); err != nil {
			return err
		}
	}
	if _, err := w.buf.Write(line); err != nil {
		return err
	}
	// Flush through the encoder per line so a crash loses at most the
	// current record.
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if err := w.enc.Flush(); err != nil {
		return err
	}
	w.lines++
	return nil
}

// WriterStats counts lines written and files opened since creation.
type WriterStats struct {
	Lines uint64 `json:"lines"`
	Files uint64 `json:"files"`
}

func (w *JSONLZstdWriter) Stats() WriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WriterStats{Lines: w.lines, Files: w.rotate}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) path(hour string) string {
	return filepath.Join(w.opts.Dir, fmt.Sprintf("%s-%s.jsonl.zst", w.opts.Prefix, hour))
}

func (w *JSONLZstdWriter) openLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(w.opts.Level))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.file, w.enc, w.buf = f, enc, bufio.NewWriterSize(enc, 64*1024)
	w.hour = hour
	w.rotate++
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	if w.file == nil {
		return nil
	}
	var errs []error
	if err := w.buf.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.enc.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}
	w.file, w.enc, w.buf = nil, nil, nil
	w.hour = ""
	return errors.Join(errs...)
}

// PassLogger writes one record per generation pass under <data>/passes.
type PassLogger struct {
	w *JSONLZstdWriter
}

func NewPassLogger(dataDir string) *PassLogger {
	return &PassLogger{w: NewJSONLZstdWriter(PassDir(dataDir), "passes")}
}

func PassDir(dataDir string) string { return filepath.Join(dataDir, "passes") }

func (l *PassLogger) WritePass(e worldgen.PassLogEntry) error { return l.w.Write(e) }
func (l *PassLogger) Stats() WriterStats                      { return l.w.Stats() }
func (l *PassLogger) Close() error                            { return l.w.Close() }

// ReadPasses decodes every record of one pass log file, in write order.
func ReadPasses(path string) ([]worldgen.PassLogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodePasses(f)
}

// ReadPassDir reads every pass log file under dir, oldest hour first.
func ReadPassDir(dir string) ([]worldgen.PassLogEntry, error) {
	files, err := filepath.Glob(filepath.Join(dir, "passes-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	var out []worldgen.PassLogEntry
	for _, p := range files {
		entries, err := ReadPasses(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, entries...)
	}
	return out, nil
}

func decodePasses(r io.Reader) ([]worldgen.PassLogEntry, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []worldgen.PassLogEntry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		var e worldgen.PassLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
