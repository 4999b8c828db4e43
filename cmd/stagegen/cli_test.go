package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personDescriptors = `{
  "targets": [
    {
      "name": "Person",
      "package": {"name": "model", "path": "example.com/model"},
      "dir": ".",
      "fields": [
        {"name": "Name", "type": "string"},
        {"name": "Age", "type": "int"},
        {"name": "Nickname", "type": "string", "tag": "optional,default=\"\""},
        {"name": "Tags", "type": "[]string", "tag": "collection"}
      ]
    },
    {
      "name": "Broken",
      "package": {"name": "model", "path": "example.com/model"},
      "dir": "."
    }
  ]
}`

// execute runs the root command with args and returns its output. Every
// flag the tests use is passed explicitly, since cobra keeps flag values
// between executions.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestGenCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ConfigFile)
	writeFile(t, cfgPath, "[log]\nlevel = \"error\"\n")
	desc := filepath.Join(dir, "targets.json")
	writeFile(t, desc, personDescriptors)

	_, stderr, err := execute(t, "gen", "--config", cfgPath, "--color", "never", "--format", "pretty", "--descriptors", desc)
	require.ErrorIs(t, err, errDiagnostics)
	assert.Contains(t, stderr, "error[schema/empty-target]")
	assert.Contains(t, stderr, "1 error")

	src, err := os.ReadFile(filepath.Join(dir, "person_builder.go"))
	require.NoError(t, err, "the healthy sibling must still be generated")
	assert.Contains(t, string(src), "type PersonStage1 interface")
	assert.Contains(t, string(src), "func NewPersonBuilder() PersonStage1")
	assert.NoFileExists(t, filepath.Join(dir, "broken_builder.go"))
}

func TestCheckCommandJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ConfigFile)
	writeFile(t, cfgPath, "")
	desc := filepath.Join(dir, "targets.json")
	writeFile(t, desc, personDescriptors)

	stdout, _, err := execute(t, "check", "--config", cfgPath, "--color", "never", "--format", "json", "--descriptors", desc)
	require.ErrorIs(t, err, errDiagnostics)
	assert.Contains(t, stdout, `"count": 1`)
	assert.Contains(t, stdout, `"target": "example.com/model.Broken"`)
	assert.NoFileExists(t, filepath.Join(dir, "person_builder.go"))
}

func TestCheckCommandBadFormat(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ConfigFile)
	writeFile(t, cfgPath, "")
	_, _, err := execute(t, "check", "--config", cfgPath, "--color", "never", "--format", "xml", "--descriptors", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestReadColorMode(t *testing.T) {
	for in, want := range map[string]colorMode{"": colorAuto, "AUTO": colorAuto, "always": colorAlways, "on": colorAlways, "never": colorNever} {
		got, err := readColorMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := readColorMode("sometimes")
	require.Error(t, err)

	assert.True(t, useColor(colorAlways, &bytes.Buffer{}))
	assert.False(t, useColor(colorNever, os.Stderr))
	assert.False(t, useColor(colorAuto, &bytes.Buffer{}))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("debug", "json", &buf)
	l.Debug("hello", slog.String("k", "v"))
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	l = newLogger("bogus", "text", &buf)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		ev   fsnotify.Event
		desc string
		want bool
	}{
		{fsnotify.Event{Name: "model/person.go", Op: fsnotify.Write}, "", true},
		{fsnotify.Event{Name: "model/person.go", Op: fsnotify.Chmod}, "", false},
		{fsnotify.Event{Name: "model/person_builder.go", Op: fsnotify.Write}, "", false},
		{fsnotify.Event{Name: "model/person_test.go", Op: fsnotify.Write}, "", false},
		{fsnotify.Event{Name: "model/README.md", Op: fsnotify.Write}, "", false},
		{fsnotify.Event{Name: "targets.yaml", Op: fsnotify.Write}, "./targets.yaml", true},
		{fsnotify.Event{Name: "model/person.go", Op: fsnotify.Write}, "targets.yaml", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relevant(tt.ev, "_builder.go", tt.desc), tt.ev.Name)
	}
}

func TestWatchRoots(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"a/b", ".git", "testdata", "_skip"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	dirs := watchRoots([]string{root + "/...", "example.com/remote"}, "")
	assert.ElementsMatch(t, []string{root, filepath.Join(root, "a"), filepath.Join(root, "a", "b")}, dirs)

	assert.Equal(t, []string{"conf"}, watchRoots(nil, "conf/targets.yaml"))
	assert.Equal(t, []string{"."}, watchRoots(nil, ""))
}
