package gen

import (
	"log/slog"
	"runtime"
	"slices"
)

// DefaultHeader is the header comment of generated files. It follows the
// convention recognised by ast.IsGenerated.
const DefaultHeader = "Code generated by stagegen. DO NOT EDIT."

// RuntimePackage is the import path of the package generated code depends on
// for ValidationHookError.
const RuntimePackage = "github.com/syssam/stagegen"

// DefaultFileSuffix is appended to the snake-cased target name to form the
// name of the generated file.
const DefaultFileSuffix = "_builder.go"

// Config holds the generator configuration.
type Config struct {
	// Header is the comment placed at the top of each generated file.
	Header string

	// Features are the enabled feature flags.
	Features []Feature

	// Workers bounds the number of targets processed in parallel.
	Workers int

	// Runtime is the import path of the runtime support package.
	Runtime string

	// FileSuffix names generated files: <target_snake><FileSuffix>.
	FileSuffix string

	// OutputDir, when set, overrides the per-target output directory.
	OutputDir string

	// BuildFlags are used when the generator loads Go packages itself.
	BuildFlags []string

	// Backend renders the synthesized IR to source text.
	Backend Backend

	// Logger receives progress logs.
	Logger *slog.Logger
}

func defaultConfig() *Config {
	return &Config{
		Header:     DefaultHeader,
		Features:   DefaultFeatures(),
		Workers:    runtime.GOMAXPROCS(0),
		Runtime:    RuntimePackage,
		FileSuffix: DefaultFileSuffix,
		Logger:     slog.New(slog.DiscardHandler),
	}
}

// FeatureEnabled reports whether the named feature is enabled.
func (c *Config) FeatureEnabled(name string) bool {
	return slices.ContainsFunc(c.Features, func(f Feature) bool { return f.Name == name })
}

// backend returns the configured back end or the Go one.
func (c *Config) backend() Backend {
	if c.Backend != nil {
		return c.Backend
	}
	return defaultBackend
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}
