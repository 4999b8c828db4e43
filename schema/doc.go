// Package schema holds the vocabulary shared by the stagegen loader, planner
// and code synthesizer.
//
// A build target is described by three small value types:
//
//   - [Requiredness]: whether a field is mandatory, optional or a collection
//   - [TypeRef]: a structured, language-neutral reference to a field type
//   - [Position]: a source location used to attribute diagnostics
//
// Type references are normally produced by [ParseTypeRef] from the Go type
// expression written in the target declaration:
//
//	ref, err := schema.ParseTypeRef("map[string]time.Duration", schema.Resolver{
//	    Imports:  map[string]string{"time": "time"},
//	    LocalPkg: "example.com/app/model",
//	})
//
// None of the types in this package carry behaviour beyond formatting and
// traversal; all validation happens in the compiler packages.
package schema
