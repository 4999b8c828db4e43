package gen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/imports"

	"github.com/syssam/stagegen/compiler/diag"
	"github.com/syssam/stagegen/compiler/ir"
	"github.com/syssam/stagegen/compiler/load"
	"github.com/syssam/stagegen/schema"
)

func simpleTarget(name, dir string) *load.Target {
	return &load.Target{
		Name:   name,
		Pkg:    load.PackageRef{Name: "model", Path: "example.com/model"},
		Dir:    dir,
		Pos:    schema.Position{Filename: filepath.Join(dir, "model.go"), Line: 3, Column: 6},
		Fields: []*load.Field{{Name: "ID", Type: "int"}},
	}
}

func brokenTarget(dir string) *load.Target {
	return &load.Target{
		Name: "Broken",
		Pkg:  load.PackageRef{Name: "model", Path: "example.com/model"},
		Dir:  dir,
		Pos:  schema.Position{Filename: filepath.Join(dir, "broken.go"), Line: 8, Column: 6},
	}
}

type panickingBackend struct{}

func (*panickingBackend) Name() string { return "panicking" }

func (*panickingBackend) Render(*ir.File) ([]byte, error) { panic("index out of range") }

func TestRound(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	g, err := NewGenerator(WithWorkers(2), WithLogger(logger))
	require.NoError(t, err)

	dir := t.TempDir()
	res, err := g.Round(context.Background(), load.Descriptors([]*load.Target{
		simpleTarget("Zeta", dir),
		brokenTarget(dir),
		personTarget(),
		simpleTarget("Alpha", dir),
	}))
	require.NoError(t, err)

	require.Len(t, res.Artifacts, 3, "a failing target never affects its siblings")
	assert.Equal(t, "example.com/model.Alpha", res.Artifacts[0].Target)
	assert.Equal(t, "example.com/model.Person", res.Artifacts[1].Target)
	assert.Equal(t, "example.com/model.Zeta", res.Artifacts[2].Target)

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, diag.SevError, d.Severity)
	assert.Equal(t, diag.SchemaEmptyTarget, d.Code)
	assert.Equal(t, "example.com/model.Broken", d.Target)
	assert.Equal(t, 8, d.Primary.Line)
	assert.True(t, res.HasErrors())

	assert.Equal(t, []string{dir, "model"}, res.Dirs)
	assert.Contains(t, logs.String(), "round started")
	assert.Contains(t, logs.String(), "target failed")
}

func TestRoundMultipleFailures(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	dup := personTarget()
	dup.Fields = append(dup.Fields, &load.Field{Name: "Age", Type: "int", Pos: at(16)})
	res, err := g.Round(context.Background(), load.Descriptors([]*load.Target{brokenTarget("m"), dup}))
	require.NoError(t, err)

	assert.Empty(t, res.Artifacts)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, diag.SchemaEmptyTarget, res.Diagnostics[0].Code)
	assert.Equal(t, diag.NamingConflict, res.Diagnostics[1].Code)
	require.Len(t, res.Diagnostics[1].Notes, 1)
	assert.Equal(t, at(12), res.Diagnostics[1].Notes[0].Pos)
}

func TestRoundCrossTargetConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("generated names", func(t *testing.T) {
		g, err := NewGenerator()
		require.NoError(t, err)

		upper := simpleTarget("Person", "model")
		lower := simpleTarget("person", "model")
		lower.Pos.Line = 9
		res, err := g.Round(ctx, load.Descriptors([]*load.Target{lower, simpleTarget("Other", "model"), upper}))
		require.NoError(t, err)

		require.Len(t, res.Artifacts, 1, "both sides of a collision are dropped")
		assert.Equal(t, "example.com/model.Other", res.Artifacts[0].Target)

		require.Len(t, res.Diagnostics, 2)
		first, second := res.Diagnostics[0], res.Diagnostics[1]
		assert.Equal(t, diag.NamingConflict, first.Code)
		assert.Equal(t, "example.com/model.Person", first.Target)
		assert.Equal(t, 3, first.Primary.Line)
		assert.Contains(t, first.Message, "personBuilder")
		require.Len(t, first.Notes, 1)
		assert.Equal(t, 9, first.Notes[0].Pos.Line)

		assert.Equal(t, diag.NamingConflict, second.Code)
		assert.Equal(t, "example.com/model.person", second.Target)
		assert.Equal(t, 9, second.Primary.Line)
		require.Len(t, second.Notes, 1)
		assert.Equal(t, 3, second.Notes[0].Pos.Line)
	})

	t.Run("output files", func(t *testing.T) {
		g, err := NewGenerator(WithOutputDir("out"))
		require.NoError(t, err)

		a := simpleTarget("Person", "a")
		a.Pkg = load.PackageRef{Name: "a", Path: "example.com/a"}
		b := simpleTarget("Person", "b")
		b.Pkg = load.PackageRef{Name: "b", Path: "example.com/b"}
		res, err := g.Round(ctx, load.Descriptors([]*load.Target{a, b}))
		require.NoError(t, err)

		assert.Empty(t, res.Artifacts)
		require.Len(t, res.Diagnostics, 2)
		for _, d := range res.Diagnostics {
			assert.Equal(t, diag.NamingConflict, d.Code)
			assert.Contains(t, d.Message, "person_builder.go")
		}
	})

	t.Run("same names in different packages", func(t *testing.T) {
		g, err := NewGenerator()
		require.NoError(t, err)

		a := simpleTarget("Person", "a")
		a.Pkg = load.PackageRef{Name: "a", Path: "example.com/a"}
		b := simpleTarget("Person", "b")
		b.Pkg = load.PackageRef{Name: "b", Path: "example.com/b"}
		res, err := g.Round(ctx, load.Descriptors([]*load.Target{a, b}))
		require.NoError(t, err)
		assert.Len(t, res.Artifacts, 2)
		assert.Empty(t, res.Diagnostics)
	})
}

// TestExamplesUpToDate regenerates the checked-in example builders and
// compares them with the files on disk, formatted the way the writer does.
func TestExamplesUpToDate(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}
	ctx := context.Background()
	targets, err := load.Load(ctx, load.Config{Dir: filepath.Join("..", "..")}, "./examples/...")
	require.NoError(t, err)
	require.NotEmpty(t, targets)

	g, err := NewGenerator()
	require.NoError(t, err)
	res, err := g.Round(ctx, load.Descriptors(targets))
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Artifacts, len(targets))

	for _, a := range res.Artifacts {
		t.Run(a.Target, func(t *testing.T) {
			want, err := os.ReadFile(a.Path())
			require.NoError(t, err)
			got, err := imports.Process(a.Path(), a.Source, nil)
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got), "run go generate ./examples/... to refresh %s", a.Filename)
		})
	}
}

func TestRoundRecoversPanics(t *testing.T) {
	g, err := NewGenerator(WithBackend(&panickingBackend{}))
	require.NoError(t, err)

	res, err := g.Round(context.Background(), load.Descriptors([]*load.Target{personTarget()}))
	require.NoError(t, err)

	assert.Empty(t, res.Artifacts)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.GenerateFailed, res.Diagnostics[0].Code)
	assert.Contains(t, res.Diagnostics[0].Message, "index out of range")
	assert.Equal(t, at(10), res.Diagnostics[0].Primary)
}

func TestRoundEmpty(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	res, err := g.Round(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Artifacts)
	assert.Empty(t, res.Diagnostics)
	assert.False(t, res.HasErrors())
}

func TestRoundCanceled(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Round(ctx, load.Descriptors([]*load.Target{personTarget()}))
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcess(t *testing.T) {
	a, err := Process(personTarget(), MustNewConfig())
	require.NoError(t, err)
	assert.Equal(t, "person_builder.go", a.Filename)

	_, err = Process(brokenTarget("m"), MustNewConfig())
	assert.True(t, IsSchemaError(err))
}

func TestGeneratorWrite(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGenerator()
	require.NoError(t, err)

	res, err := g.Round(context.Background(), load.Descriptors([]*load.Target{simpleTarget("Account", dir)}))
	require.NoError(t, err)
	require.NoError(t, g.Write(context.Background(), res))

	b, err := os.ReadFile(filepath.Join(dir, "account_builder.go"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "func NewAccountBuilder() AccountStage1 {")
}

func TestWriterMetrics(t *testing.T) {
	dir := t.TempDir()
	cfg := MustNewConfig()
	a, err := Process(simpleTarget("Account", dir), cfg)
	require.NoError(t, err)

	w := NewWriter(cfg)
	require.NoError(t, w.WriteAll(context.Background(), []*Artifact{a}))
	require.NoError(t, w.WriteAll(context.Background(), []*Artifact{a}))

	m := w.Metrics()
	assert.Equal(t, 1, m.FilesWritten)
	assert.Equal(t, 1, m.FilesUnchanged)
	assert.Positive(t, m.TotalBytes)
}

func TestWriterFormatError(t *testing.T) {
	dir := t.TempDir()
	a := &Artifact{Target: "example.com/model.Bad", Dir: dir, Filename: "bad_builder.go", Source: []byte("package model\nfunc {")}

	err := NewWriter(MustNewConfig()).WriteAll(context.Background(), []*Artifact{a})
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.FileExists(t, filepath.Join(dir, "bad_builder.go.error"))
	assert.NoFileExists(t, filepath.Join(dir, "bad_builder.go"))
}

func TestPrune(t *testing.T) {
	header := "// " + DefaultHeader + "\n\npackage model\n"
	setup := func(t *testing.T) string {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "stale_builder.go"), []byte(header), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "hand_builder.go"), []byte("package model\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.go"), []byte(header), 0o644))
		return dir
	}

	t.Run("removes stale generated files", func(t *testing.T) {
		dir := setup(t)
		g, err := NewGenerator(WithFeatureNames(FeaturePrune.Name))
		require.NoError(t, err)

		res, err := g.Round(context.Background(), load.Descriptors([]*load.Target{simpleTarget("Account", dir)}))
		require.NoError(t, err)
		require.NoError(t, g.Write(context.Background(), res))

		assert.FileExists(t, filepath.Join(dir, "account_builder.go"))
		assert.NoFileExists(t, filepath.Join(dir, "stale_builder.go"))
		assert.FileExists(t, filepath.Join(dir, "hand_builder.go"))
		assert.FileExists(t, filepath.Join(dir, "notes.go"))
	})

	t.Run("disabled by default", func(t *testing.T) {
		dir := setup(t)
		g, err := NewGenerator()
		require.NoError(t, err)

		res, err := g.Round(context.Background(), load.Descriptors([]*load.Target{simpleTarget("Account", dir)}))
		require.NoError(t, err)
		require.NoError(t, g.Write(context.Background(), res))

		assert.FileExists(t, filepath.Join(dir, "stale_builder.go"))
	})

	t.Run("keeps files next to failed targets", func(t *testing.T) {
		dir := setup(t)
		g, err := NewGenerator(WithFeatureNames(FeaturePrune.Name))
		require.NoError(t, err)

		res, err := g.Round(context.Background(), load.Descriptors([]*load.Target{
			simpleTarget("Account", dir),
			brokenTarget(dir),
		}))
		require.NoError(t, err)
		require.NoError(t, g.Write(context.Background(), res))

		assert.FileExists(t, filepath.Join(dir, "account_builder.go"))
		assert.FileExists(t, filepath.Join(dir, "stale_builder.go"))
	})
}

func BenchmarkRound(b *testing.B) {
	g, err := NewGenerator()
	require.NoError(b, err)
	ds := make([]*load.Target, 0, 64)
	for i := range 64 {
		d := personTarget()
		d.Name = fmt.Sprintf("Person%d", i)
		ds = append(ds, d)
	}
	for b.Loop() {
		_, err := g.Round(context.Background(), load.Descriptors(ds))
		require.NoError(b, err)
	}
}
