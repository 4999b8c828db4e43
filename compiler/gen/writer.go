package gen

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Writer writes artifacts to disk in parallel.
type Writer struct {
	cfg *Config

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks write results.
type WriterMetrics struct {
	FilesWritten   int
	FilesUnchanged int
	FilesPruned    int
	TotalBytes     int64
}

// NewWriter creates a writer for cfg.
func NewWriter(cfg *Config) *Writer {
	return &Writer{cfg: cfg, metrics: &WriterMetrics{}}
}

// Metrics returns the write metrics.
func (w *Writer) Metrics() *WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := *w.metrics
	return &m
}

// WriteAll writes every artifact. A failure to write one file does not stop
// the others; all failures are joined into the returned error.
func (w *Writer) WriteAll(ctx context.Context, as []*Artifact) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.cfg.Workers)
	for _, a := range as {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.write(a); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// write formats and writes a single artifact. Files whose content did not
// change are left untouched so that build caches stay warm.
func (w *Writer) write(a *Artifact) error {
	fullPath := a.Path()
	fail := func(msg string, err error) error {
		ge := NewGenerationError("write", fullPath, msg, err)
		ge.Type, ge.Pos = a.Target, a.Pos
		return ge
	}

	// Format using goimports (removes unused imports and groups the rest)
	formatted, err := imports.Process(fullPath, a.Source, nil)
	if err != nil {
		// Write unformatted file for debugging (errors intentionally ignored as we're already in error state)
		debugPath := fullPath + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, a.Source, 0o644)
		return fail(fmt.Sprintf("format (unformatted written to %s)", debugPath), err)
	}
	if old, err := os.ReadFile(fullPath); err == nil && bytes.Equal(old, formatted) {
		w.mu.Lock()
		w.metrics.FilesUnchanged++
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fail("create directory", err)
	}
	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return fail("", err)
	}

	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(formatted))
	w.mu.Unlock()
	w.cfg.logger().Debug("wrote file", "path", fullPath, "bytes", len(formatted))
	return nil
}

// Prune removes generated files in the directories of res that no artifact
// of res produced. Only files carrying the configured header and file suffix
// are considered.
func (w *Writer) Prune(res *Result) error {
	keep := make(map[string]bool, len(res.Artifacts))
	for _, a := range res.Artifacts {
		keep[filepath.Clean(a.Path())] = true
	}
	// Targets that failed this round keep their previous file.
	failed := make(map[string]bool)
	for _, d := range res.Diagnostics {
		if d.Primary.Filename != "" {
			failed[filepath.Dir(d.Primary.Filename)] = true
		}
	}
	dirs := res.Dirs
	if w.cfg.OutputDir != "" {
		dirs = []string{w.cfg.OutputDir}
	}
	var errs []error
	for _, dir := range dirs {
		if failed[dir] {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			name := e.Name()
			p := filepath.Join(dir, name)
			if e.IsDir() || !strings.HasSuffix(name, w.cfg.FileSuffix) || keep[p] {
				continue
			}
			ok, err := w.generated(p)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !ok {
				continue
			}
			if err := os.Remove(p); err != nil {
				errs = append(errs, err)
				continue
			}
			w.mu.Lock()
			w.metrics.FilesPruned++
			w.mu.Unlock()
			w.cfg.logger().Info("pruned stale file", "path", p)
		}
	}
	return errors.Join(errs...)
}

// generated reports whether the first line of the file at p is the
// configured header.
func (w *Writer) generated(p string) (bool, error) {
	f, err := os.Open(p)
	if err != nil {
		return false, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return false, sc.Err()
	}
	return strings.TrimSpace(sc.Text()) == "// "+w.cfg.Header, nil
}
