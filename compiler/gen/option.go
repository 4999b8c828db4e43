package gen

import (
	"errors"
	"go/token"
	"log/slog"
	"slices"
	"strings"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithFeatures enables specific features.
// Features control optional code generation capabilities.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		for _, f := range features {
			if !c.FeatureEnabled(f.Name) {
				c.Features = append(c.Features, f)
			}
		}
		return nil
	}
}

// WithFeatureNames enables features by name.
func WithFeatureNames(names ...string) Option {
	return func(c *Config) error {
		for _, n := range names {
			f, ok := FeatureByName(n)
			if !ok {
				return NewConfigError("Features", n, "unknown feature")
			}
			if err := WithFeatures(f)(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithoutFeatures disables features, including ones enabled by default.
func WithoutFeatures(names ...string) Option {
	return func(c *Config) error {
		for _, n := range names {
			if _, ok := FeatureByName(n); !ok {
				return NewConfigError("Features", n, "unknown feature")
			}
		}
		c.Features = slices.DeleteFunc(c.Features, func(f Feature) bool {
			return slices.Contains(names, f.Name)
		})
		return nil
	}
}

// WithWorkers sets the number of targets processed in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithRuntimePackage sets the import path generated code uses for
// ValidationHookError.
func WithRuntimePackage(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return NewConfigError("Runtime", nil, "runtime package cannot be empty")
		}
		c.Runtime = path
		return nil
	}
}

// WithFileSuffix sets the suffix of generated file names.
// For example: "_stages.go".
func WithFileSuffix(suffix string) Option {
	return func(c *Config) error {
		if !strings.HasSuffix(suffix, ".go") || strings.HasSuffix(suffix, "_test.go") {
			return NewConfigError("FileSuffix", suffix, "suffix must end in .go and not name a test file")
		}
		if strings.ContainsAny(suffix, `/\`) {
			return NewConfigError("FileSuffix", suffix, "suffix cannot contain path separators")
		}
		c.FileSuffix = suffix
		return nil
	}
}

// WithOutputDir writes every artifact to dir instead of its target's
// package directory.
func WithOutputDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("OutputDir", nil, "output directory cannot be empty")
		}
		c.OutputDir = dir
		return nil
	}
}

// WithBuildFlags sets custom build flags for loading target packages.
func WithBuildFlags(flags ...string) Option {
	return func(c *Config) error {
		c.BuildFlags = append(c.BuildFlags, flags...)
		return nil
	}
}

// WithBackend sets a custom back end.
// If not set, defaults to the Go back end.
func WithBackend(b Backend) Option {
	return func(c *Config) error {
		if b == nil {
			return NewConfigError("Backend", nil, "backend cannot be nil")
		}
		c.Backend = b
		return nil
	}
}

// WithLogger sets the logger for generation progress.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks the config for values no option would have produced.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return NewConfigError("Workers", c.Workers, "workers must be positive")
	}
	if c.FileSuffix == "" {
		return NewConfigError("FileSuffix", nil, "file suffix cannot be empty")
	}
	if c.Runtime == "" {
		return NewConfigError("Runtime", nil, "runtime package cannot be empty")
	}
	for _, part := range strings.Split(c.Runtime, "/") {
		if part == "" {
			return NewConfigError("Runtime", c.Runtime, "malformed import path")
		}
	}
	if name := runtimeName(c.Runtime); !token.IsIdentifier(name) {
		return NewConfigError("Runtime", c.Runtime, "last path element must be a valid package name")
	}
	return nil
}

// NewConfig creates a new Config with the given options applied over the
// defaults.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
