// Package gen turns type descriptors into staged builder source code.
//
// A staged builder makes it a compile-time error to construct a value
// without supplying every mandatory field. For a target with mandatory
// fields f1..fk, the generator emits k stage contracts and one terminal
// contract. Stage i exposes only the setter of fi, which returns stage i+1;
// the terminal stage exposes the optional and collection operations and
// Build.
//
// # Pipeline
//
// Each target is processed independently:
//
//	load.TypeDescriptor
//	        ↓
//	   NewTarget   (validate, resolve types, detect naming conflicts)
//	        ↓
//	   Plan        (order mandatory fields into stages)
//	        ↓
//	   Synthesize  (lower to compiler/ir, render through a Backend)
//	        ↓
//	   Artifact    (<target>_builder.go)
//
// Errors from any step are reported through compiler/diag; a failing target
// never prevents its siblings from being generated.
//
// # Error Handling
//
// The package uses structured error types:
//
//   - SchemaError: malformed target or field declarations
//   - NamingConflictError: duplicate fields or generated-name collisions
//   - UnsupportedTypeError: types that cannot be threaded through stages
//   - ConfigError: configuration errors
//   - GenerationError: rendering and write failures
//
// Every error matches a sentinel with errors.Is:
//
//	if errors.Is(err, gen.ErrNamingConflict) {
//	    // Handle the conflict
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	g, err := gen.NewGenerator(
//	    gen.WithWorkers(4),
//	    gen.WithoutFeatures(gen.FeatureMustBuild.Name),
//	    gen.WithFileSuffix("_stages.go"),
//	)
//
// # Generated Output
//
// For a target Person with mandatory Name and Age, optional Nickname and
// collection Tags the generator produces:
//
//	type PersonStage1 interface { SetName(name string) PersonStage2 }
//	type PersonStage2 interface { SetAge(age int) PersonFinalStage }
//	type PersonFinalStage interface {
//	    SetNickname(nickname string) PersonFinalStage
//	    AddTag(tag string) PersonFinalStage
//	    Build() (*Person, error)
//	    BuildX() *Person
//	}
//	func NewPersonBuilder() PersonStage1
//
// # Features
//
// The generator supports optional features:
//
//   - mustbuild: BuildX on the terminal stage (default on)
//   - doccomments: doc comments on generated declarations (default on)
//   - prune: remove stale generated files (default off)
package gen
