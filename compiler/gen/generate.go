package gen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/stagegen/compiler/diag"
	"github.com/syssam/stagegen/compiler/load"
)

// Generator runs processing rounds. One unit of work runs per descriptor;
// units share no state except the diagnostics sink of their round.
//
// Example:
//
//	g, err := gen.NewGenerator(gen.WithWorkers(4))
//	if err != nil {
//		return err
//	}
//	res, err := g.Round(ctx, load.Descriptors(targets))
//	if err != nil {
//		return err
//	}
//	if err := g.Write(ctx, res); err != nil {
//		return err
//	}
type Generator struct {
	cfg *Config

	// mu serializes rounds.
	mu sync.Mutex
}

// NewGenerator creates a generator configured by opts.
func NewGenerator(opts ...Option) (*Generator, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() *Config { return g.cfg }

// Result is the outcome of one round.
type Result struct {
	// Artifacts are sorted by qualified target name.
	Artifacts []*Artifact
	// Diagnostics are sorted by position.
	Diagnostics []diag.Diagnostic
	// Dirs are the package directories of every descriptor of the round,
	// including failed ones.
	Dirs []string
}

// HasErrors reports whether any unit of the round failed.
func (r *Result) HasErrors() bool {
	return slices.ContainsFunc(r.Diagnostics, func(d diag.Diagnostic) bool {
		return d.Severity == diag.SevError
	})
}

// Round processes descriptors. Every descriptor yields either one artifact
// or at least one diagnostic; a failing unit never affects its siblings.
// The returned error is non-nil only when ctx is canceled before the round
// completes.
func (g *Generator) Round(ctx context.Context, ds []load.TypeDescriptor) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	log := g.cfg.logger()
	log.Debug("round started", slog.Int("targets", len(ds)), slog.Int("workers", g.cfg.Workers))

	var (
		sink      = diag.NewSink()
		artifacts = make([]*Artifact, len(ds))
		eg, gctx  = errgroup.WithContext(ctx)
	)
	eg.SetLimit(g.cfg.Workers)
	for i, d := range ds {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := g.unit(d)
			if err != nil {
				sink.Report(diag.FromError(d.QualifiedName(), d.Position(), err))
				log.Debug("target failed", slog.String("target", d.QualifiedName()), slog.Any("error", err))
				return nil
			}
			artifacts[i] = a
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var done []*Artifact
	for _, a := range artifacts {
		if a != nil {
			done = append(done, a)
		}
	}
	slices.SortFunc(done, func(a, b *Artifact) int { return strings.Compare(a.Target, b.Target) })
	res := &Result{Artifacts: conflicts(sink, done)}
	res.Diagnostics = sink.Items()
	for _, d := range ds {
		if od, ok := d.(interface{ OutputDir() string }); ok && od.OutputDir() != "" {
			res.Dirs = append(res.Dirs, filepath.Clean(od.OutputDir()))
		}
	}
	slices.Sort(res.Dirs)
	res.Dirs = slices.Compact(res.Dirs)
	log.Debug("round finished", slog.Int("artifacts", len(res.Artifacts)), slog.Int("diagnostics", len(res.Diagnostics)))
	return res, nil
}

// conflicts drops the artifacts that declare a package-level name, or write
// a file, that another artifact of the round also claims. Each dropped
// artifact is reported once, pointing at the target it collides with.
func conflicts(sink diag.Reporter, as []*Artifact) []*Artifact {
	var (
		owner  = make(map[string]*Artifact)
		failed = make(map[*Artifact]error)
	)
	claim := func(a *Artifact, key, name, what string) {
		prev, ok := owner[key]
		if !ok {
			owner[key] = a
			return
		}
		if prev == a {
			return
		}
		for _, x := range [][2]*Artifact{{a, prev}, {prev, a}} {
			if failed[x[0]] != nil {
				continue
			}
			failed[x[0]] = NewNamingConflictError(shortName(x[0].Target), name, x[0].Pos, x[1].Pos,
				fmt.Sprintf("%s %s of %s is also generated for %s", what, name, x[0].Target, x[1].Target))
		}
	}
	for _, a := range as {
		pkg := a.Dir
		if a.File != nil && a.File.PkgPath != "" {
			pkg = a.File.PkgPath
		}
		for _, n := range a.Names {
			claim(a, pkg+"."+n, n, "generated name")
		}
		claim(a, filepath.Clean(a.Path()), a.Filename, "file")
	}
	if len(failed) == 0 {
		return as
	}
	var kept []*Artifact
	for _, a := range as {
		if err := failed[a]; err != nil {
			sink.Report(diag.FromError(a.Target, a.Pos, err))
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func shortName(qualified string) string {
	return qualified[strings.LastIndex(qualified, ".")+1:]
}

// unit runs one descriptor through extraction, planning and synthesis,
// turning a panic into a generation error for that target alone.
func (g *Generator) unit(d load.TypeDescriptor) (a *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			ge := NewGenerationError("synthesize", "", fmt.Sprint(r), nil)
			ge.Type, ge.Pos = d.QualifiedName(), d.Position()
			a, err = nil, ge
		}
	}()
	a, err = Process(d, g.cfg)
	if err == nil {
		g.cfg.logger().Debug("target generated",
			slog.String("target", a.Target),
			slog.String("file", a.Filename),
			slog.Int("bytes", len(a.Source)),
		)
	}
	return a, err
}

// Process runs a single descriptor through the pipeline.
func Process(d load.TypeDescriptor, cfg *Config) (*Artifact, error) {
	t, err := NewTarget(d)
	if err != nil {
		return nil, err
	}
	return Synthesize(Plan(t), cfg)
}

// Write writes the artifacts of res to disk. When the prune feature is
// enabled, stale generated files in the round's directories are removed.
func (g *Generator) Write(ctx context.Context, res *Result) error {
	w := NewWriter(g.cfg)
	if err := w.WriteAll(ctx, res.Artifacts); err != nil {
		return err
	}
	if !g.cfg.FeatureEnabled(FeaturePrune.Name) {
		return nil
	}
	return w.Prune(res)
}
