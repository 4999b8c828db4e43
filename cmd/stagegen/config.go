package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/syssam/stagegen/compiler/gen"
)

// ConfigFile is the name of the project configuration file.
const ConfigFile = "stagegen.toml"

type projectConfig struct {
	Generate generateConfig `toml:"generate"`
	Log      logConfig      `toml:"log"`
}

type generateConfig struct {
	Header     string   `toml:"header"`
	Workers    int      `toml:"workers"`
	Features   []string `toml:"features"`
	Disable    []string `toml:"disable"`
	FileSuffix string   `toml:"file_suffix"`
	OutputDir  string   `toml:"output_dir"`
	Runtime    string   `toml:"runtime"`
	BuildFlags []string `toml:"build_flags"`
}

type logConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// findConfig walks up from startDir looking for stagegen.toml.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadConfig decodes the configuration at path. Unknown keys are rejected so
// that typos do not silently fall back to defaults. A relative output_dir is
// resolved against the file's directory.
func loadConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return projectConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("generate", "workers") && cfg.Generate.Workers <= 0 {
		return projectConfig{}, fmt.Errorf("%s: [generate].workers must be positive", path)
	}
	if d := cfg.Generate.OutputDir; d != "" && !filepath.IsAbs(d) {
		cfg.Generate.OutputDir = filepath.Join(filepath.Dir(path), d)
	}
	return cfg, nil
}

// options converts the configuration into generator options.
func (c projectConfig) options() []gen.Option {
	g := c.Generate
	var opts []gen.Option
	if g.Header != "" {
		opts = append(opts, gen.WithHeader(g.Header))
	}
	if g.Workers > 0 {
		opts = append(opts, gen.WithWorkers(g.Workers))
	}
	if len(g.Features) > 0 {
		opts = append(opts, gen.WithFeatureNames(g.Features...))
	}
	if len(g.Disable) > 0 {
		opts = append(opts, gen.WithoutFeatures(g.Disable...))
	}
	if g.FileSuffix != "" {
		opts = append(opts, gen.WithFileSuffix(g.FileSuffix))
	}
	if g.OutputDir != "" {
		opts = append(opts, gen.WithOutputDir(g.OutputDir))
	}
	if g.Runtime != "" {
		opts = append(opts, gen.WithRuntimePackage(g.Runtime))
	}
	if len(g.BuildFlags) > 0 {
		opts = append(opts, gen.WithBuildFlags(g.BuildFlags...))
	}
	return opts
}
