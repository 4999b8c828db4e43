package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "Workers"},
		{"empty suffix", func(c *Config) { c.FileSuffix = "" }, "FileSuffix"},
		{"empty runtime", func(c *Config) { c.Runtime = "" }, "Runtime"},
		{"malformed runtime", func(c *Config) { c.Runtime = "example.com//rt" }, "malformed import path"},
		{"runtime package name", func(c *Config) { c.Runtime = "example.com/go-rt" }, "valid package name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaultConfig()
			tt.mutate(c)
			err := c.Validate()

			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFeatureByName(t *testing.T) {
	for _, f := range AllFeatures {
		got, ok := FeatureByName(f.Name)
		require.True(t, ok, f.Name)
		assert.Equal(t, f, got)
	}
	_, ok := FeatureByName("sql/upsert")
	assert.False(t, ok)
}

func TestDefaultFeatures(t *testing.T) {
	var names []string
	for _, f := range DefaultFeatures() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"mustbuild", "doccomments"}, names)
}

func TestFeatureStage(t *testing.T) {
	assert.Equal(t, "experimental", Experimental.String())
	assert.Equal(t, "alpha", Alpha.String())
	assert.Equal(t, "beta", Beta.String())
	assert.Equal(t, "stable", Stable.String())
	assert.Equal(t, "unknown", FeatureStage(0).String())
}
