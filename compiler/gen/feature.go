package gen

import "slices"

var (
	// FeatureMustBuild adds a BuildX operation to the final stage that panics
	// instead of returning a validation error.
	FeatureMustBuild = Feature{
		Name:        "mustbuild",
		Stage:       Stable,
		Default:     true,
		Description: "Generates BuildX, a Build variant that panics on validation failure",
	}

	// FeatureDocComments emits doc comments on every generated declaration.
	FeatureDocComments = Feature{
		Name:        "doccomments",
		Stage:       Beta,
		Default:     true,
		Description: "Emits doc comments on generated stage contracts and operations",
	}

	// FeaturePrune removes generated builder files whose target disappeared
	// from the round's input.
	FeaturePrune = Feature{
		Name:        "prune",
		Stage:       Experimental,
		Default:     false,
		Description: "Deletes stale generated builder files from target directories after writing",
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureMustBuild,
		FeatureDocComments,
		FeaturePrune,
	}
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development and may change or disappear.
	Experimental

	// Alpha features are complete but their generated API may still change.
	Alpha

	// Beta features are documented and no breaking changes are expected.
	Beta

	// Stable features are Beta features that have been in use for a while.
	Stable
)

func (s FeatureStage) String() string {
	switch s {
	case Experimental:
		return "experimental"
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	case Stable:
		return "stable"
	}
	return "unknown"
}

// A Feature of the stagegen codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string
}

// FeatureByName returns the feature with the given name.
func FeatureByName(name string) (Feature, bool) {
	i := slices.IndexFunc(AllFeatures, func(f Feature) bool { return f.Name == name })
	if i < 0 {
		return Feature{}, false
	}
	return AllFeatures[i], true
}

// DefaultFeatures returns the features enabled by default.
func DefaultFeatures() []Feature {
	var fs []Feature
	for _, f := range AllFeatures {
		if f.Default {
			fs = append(fs, f)
		}
	}
	return fs
}
