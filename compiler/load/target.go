// Package load reads build target declarations into raw, serialisable
// descriptors.
//
// Descriptors are produced either from a Go package by [Load], which finds
// struct types and constructor functions marked with the //stagegen:builder
// directive, or from a descriptor file in JSON, YAML or msgpack form by
// [ReadFile]. The compiler only consumes the [TypeDescriptor] view of a
// descriptor.
package load

import (
	"slices"

	"github.com/syssam/stagegen/schema"
)

// TypeDescriptor is the narrow view of a declared type that the generator
// needs. It decouples the compiler from any particular front end.
type TypeDescriptor interface {
	// QualifiedName returns the import path qualified type name.
	QualifiedName() string
	// Position returns the location of the type declaration.
	Position() schema.Position
	// Package returns the package that declares the type.
	Package() PackageRef
	// Params returns the declared type parameters, in order.
	Params() []*TypeParam
	// Members returns the declared fields, in order.
	Members() []*Field
	// Scope returns the imports and package-level names visible to the type.
	Scope() *Scope
	// Placement describes what the directive was attached to when it is
	// neither a struct type nor a constructor function, and is empty
	// otherwise.
	Placement() string
	// Constructor returns the annotated function when the target is built by
	// calling it, and nil for struct targets.
	Constructor() *Constructor
}

// Target is a raw build target as read from source or a descriptor file.
type Target struct {
	Name       string       `json:"name" yaml:"name" msgpack:"name"`
	Pkg        PackageRef   `json:"package" yaml:"package" msgpack:"package"`
	Dir        string       `json:"dir,omitempty" yaml:"dir,omitempty" msgpack:"dir,omitempty"`
	TypeParams []*TypeParam `json:"type_params,omitempty" yaml:"type_params,omitempty" msgpack:"type_params,omitempty"`
	Fields     []*Field     `json:"fields,omitempty" yaml:"fields,omitempty" msgpack:"fields,omitempty"`
	Imports    []Import     `json:"imports,omitempty" yaml:"imports,omitempty" msgpack:"imports,omitempty"`
	Reserved   []Reserved   `json:"reserved,omitempty" yaml:"reserved,omitempty" msgpack:"reserved,omitempty"`
	// Misplaced is set when the directive annotates something other than a
	// struct type or a function.
	Misplaced string `json:"misplaced,omitempty" yaml:"misplaced,omitempty" msgpack:"misplaced,omitempty"`
	// Ctor is set when the directive annotates a function. Fields then hold
	// its parameters.
	Ctor *Constructor    `json:"constructor,omitempty" yaml:"constructor,omitempty" msgpack:"constructor,omitempty"`
	Pos  schema.Position `json:"pos,omitempty" yaml:"pos,omitempty" msgpack:"pos,omitempty"`
}

// Constructor is a package-level function whose parameters are supplied
// through stages and which Build calls.
type Constructor struct {
	Func    string   `json:"func" yaml:"func" msgpack:"func"`
	Results []string `json:"results" yaml:"results" msgpack:"results"`
	// Variadic reports whether the last parameter is variadic.
	Variadic bool `json:"variadic,omitempty" yaml:"variadic,omitempty" msgpack:"variadic,omitempty"`
}

// PackageRef identifies a Go package.
type PackageRef struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Path string `json:"path" yaml:"path" msgpack:"path"`
}

// TypeParam is a declared type parameter with its constraint expression.
type TypeParam struct {
	Name       string          `json:"name" yaml:"name" msgpack:"name"`
	Constraint string          `json:"constraint" yaml:"constraint" msgpack:"constraint"`
	Pos        schema.Position `json:"pos,omitempty" yaml:"pos,omitempty" msgpack:"pos,omitempty"`
}

// Field is a raw field declaration.
//
// Requiredness, Default and Validate may be given directly, or through Tag,
// which holds the value of a `stage:"..."` struct tag and takes precedence.
type Field struct {
	Name         string              `json:"name" yaml:"name" msgpack:"name"`
	Type         string              `json:"type" yaml:"type" msgpack:"type"`
	Tag          string              `json:"tag,omitempty" yaml:"tag,omitempty" msgpack:"tag,omitempty"`
	Requiredness schema.Requiredness `json:"requiredness,omitempty" yaml:"requiredness,omitempty" msgpack:"requiredness,omitempty"`
	Default      string              `json:"default,omitempty" yaml:"default,omitempty" msgpack:"default,omitempty"`
	Validate     string              `json:"validate,omitempty" yaml:"validate,omitempty" msgpack:"validate,omitempty"`
	Pos          schema.Position     `json:"pos,omitempty" yaml:"pos,omitempty" msgpack:"pos,omitempty"`
}

// Import is a file import as seen by the target declaration.
type Import struct {
	// Name is the identifier the file uses for the package.
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Path string `json:"path" yaml:"path" msgpack:"path"`
	// PkgName is the declared package name, when it differs from Name.
	PkgName string `json:"pkg_name,omitempty" yaml:"pkg_name,omitempty" msgpack:"pkg_name,omitempty"`
}

// Reserved is a package-level name declared outside generated files.
type Reserved struct {
	Name string          `json:"name" yaml:"name" msgpack:"name"`
	Pos  schema.Position `json:"pos,omitempty" yaml:"pos,omitempty" msgpack:"pos,omitempty"`
}

// Scope is the naming environment of a target.
type Scope struct {
	Imports  []Import
	Reserved []Reserved
}

// ImportMap returns the local-name to path mapping of the scope.
func (s *Scope) ImportMap() map[string]string {
	m := make(map[string]string, len(s.Imports))
	for _, im := range s.Imports {
		m[im.Name] = im.Path
	}
	return m
}

// Lookup returns the reserved entry for name.
func (s *Scope) Lookup(name string) (Reserved, bool) {
	i := slices.IndexFunc(s.Reserved, func(r Reserved) bool { return r.Name == name })
	if i < 0 {
		return Reserved{}, false
	}
	return s.Reserved[i], true
}

var _ TypeDescriptor = (*Target)(nil)

// QualifiedName implements TypeDescriptor.
func (t *Target) QualifiedName() string {
	if t.Pkg.Path == "" {
		return t.Name
	}
	return t.Pkg.Path + "." + t.Name
}

// Position implements TypeDescriptor.
func (t *Target) Position() schema.Position { return t.Pos }

// Package implements TypeDescriptor.
func (t *Target) Package() PackageRef { return t.Pkg }

// Params implements TypeDescriptor.
func (t *Target) Params() []*TypeParam { return t.TypeParams }

// Members implements TypeDescriptor.
func (t *Target) Members() []*Field { return t.Fields }

// Scope implements TypeDescriptor.
func (t *Target) Scope() *Scope {
	return &Scope{Imports: t.Imports, Reserved: t.Reserved}
}

// Placement implements TypeDescriptor.
func (t *Target) Placement() string { return t.Misplaced }

// Constructor implements TypeDescriptor.
func (t *Target) Constructor() *Constructor { return t.Ctor }

// Descriptors converts targets to their descriptor view.
func Descriptors(ts []*Target) []TypeDescriptor {
	ds := make([]TypeDescriptor, len(ts))
	for i, t := range ts {
		ds[i] = t
	}
	return ds
}

// OutputDir returns the directory generated code for t is written to.
func (t *Target) OutputDir() string { return t.Dir }
