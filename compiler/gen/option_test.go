package gen

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithHeader(t *testing.T) {
	t.Run("sets header", func(t *testing.T) {
		c := &Config{}
		err := WithHeader("Custom header")(c)

		require.NoError(t, err)
		assert.Equal(t, "Custom header", c.Header)
	})

	t.Run("empty header is allowed", func(t *testing.T) {
		c := &Config{Header: "existing"}
		err := WithHeader("")(c)

		require.NoError(t, err)
		assert.Equal(t, "", c.Header)
	})
}

func TestWithFeatures(t *testing.T) {
	t.Run("adds features once", func(t *testing.T) {
		c := &Config{}
		require.NoError(t, WithFeatures(FeaturePrune, FeaturePrune)(c))
		assert.Len(t, c.Features, 1)
		assert.True(t, c.FeatureEnabled(FeaturePrune.Name))
	})

	t.Run("by name", func(t *testing.T) {
		c := &Config{}
		require.NoError(t, WithFeatureNames("prune", "mustbuild")(c))
		assert.True(t, c.FeatureEnabled("prune"))
		assert.True(t, c.FeatureEnabled("mustbuild"))
	})

	t.Run("unknown name", func(t *testing.T) {
		c := &Config{}
		err := WithFeatureNames("entql")(c)
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestWithoutFeatures(t *testing.T) {
	t.Run("disables defaults", func(t *testing.T) {
		c := defaultConfig()
		require.True(t, c.FeatureEnabled(FeatureMustBuild.Name))

		require.NoError(t, WithoutFeatures(FeatureMustBuild.Name)(c))
		assert.False(t, c.FeatureEnabled(FeatureMustBuild.Name))
		assert.True(t, c.FeatureEnabled(FeatureDocComments.Name))
	})

	t.Run("unknown name", func(t *testing.T) {
		c := defaultConfig()
		err := WithoutFeatures("privacy")(c)
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Len(t, c.Features, len(DefaultFeatures()))
	})
}

func TestWithWorkers(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"one", 1, false},
		{"many", 16, false},
		{"zero", 0, true},
		{"negative", -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			err := WithWorkers(tt.n)(c)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.n, c.Workers)
			}
		})
	}
}

func TestWithFileSuffix(t *testing.T) {
	tests := []struct {
		name    string
		suffix  string
		wantErr bool
	}{
		{"default", "_builder.go", false},
		{"custom", "_stages.go", false},
		{"not go", "_builder.txt", true},
		{"test file", "_builder_test.go", true},
		{"separator", "/x.go", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			err := WithFileSuffix(tt.suffix)(c)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.suffix, c.FileSuffix)
			}
		})
	}
}

func TestWithRuntimePackage(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithRuntimePackage("example.com/rt")(c))
	assert.Equal(t, "example.com/rt", c.Runtime)

	err := WithRuntimePackage("")(c)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestWithOutputDir(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithOutputDir("out")(c))
	assert.Equal(t, "out", c.OutputDir)

	assert.True(t, IsConfigError(WithOutputDir("")(c)))
}

func TestWithBuildFlags(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithBuildFlags("-tags=a")(c))
	require.NoError(t, WithBuildFlags("-tags=b", "-mod=mod")(c))
	assert.Equal(t, []string{"-tags=a", "-tags=b", "-mod=mod"}, c.BuildFlags)
}

func TestWithBackend(t *testing.T) {
	c := &Config{}
	assert.True(t, IsConfigError(WithBackend(nil)(c)))
	assert.Equal(t, defaultBackend, c.backend())

	b := &failingBackend{}
	require.NoError(t, WithBackend(b)(c))
	assert.Equal(t, b, c.backend())
}

func TestWithLogger(t *testing.T) {
	c := &Config{}
	assert.True(t, IsConfigError(WithLogger(nil)(c)))
	assert.NotNil(t, c.logger())

	l := slog.New(slog.DiscardHandler)
	require.NoError(t, WithLogger(l)(c))
	assert.Same(t, l, c.logger())
}

func TestApply(t *testing.T) {
	t.Run("stops at first error", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(WithHeader("h"), WithWorkers(0), WithFileSuffix("_x.go"))

		require.Error(t, err)
		assert.Equal(t, "h", c.Header)
		assert.Empty(t, c.FileSuffix)
	})

	t.Run("ApplyAll collects every error", func(t *testing.T) {
		c := &Config{}
		err := c.ApplyAll(WithWorkers(0), WithFileSuffix("x"), WithHeader("h"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Workers")
		assert.Contains(t, err.Error(), "FileSuffix")
		assert.Equal(t, "h", c.Header)
	})
}

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewConfig()
		require.NoError(t, err)

		assert.Equal(t, DefaultHeader, c.Header)
		assert.Equal(t, DefaultFileSuffix, c.FileSuffix)
		assert.Equal(t, RuntimePackage, c.Runtime)
		assert.Positive(t, c.Workers)
		assert.True(t, c.FeatureEnabled(FeatureMustBuild.Name))
		assert.True(t, c.FeatureEnabled(FeatureDocComments.Name))
		assert.False(t, c.FeatureEnabled(FeaturePrune.Name))
	})

	t.Run("option error", func(t *testing.T) {
		_, err := NewConfig(WithWorkers(-1))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("MustNewConfig panics", func(t *testing.T) {
		assert.Panics(t, func() { MustNewConfig(WithRuntimePackage("")) })
		assert.NotPanics(t, func() { MustNewConfig(WithWorkers(2)) })
	})
}
