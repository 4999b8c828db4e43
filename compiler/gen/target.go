package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strings"

	"github.com/syssam/stagegen/compiler/gen/golang"
	"github.com/syssam/stagegen/compiler/load"
	"github.com/syssam/stagegen/schema"
)

// BuildTarget is the validated model of a type the generator builds a staged
// construction API for.
type BuildTarget struct {
	Name       string
	Package    string
	PkgPath    string
	TypeParams []*TypeParam
	Fields     []*Field
	// Imports maps the names the declaring file uses for packages to their
	// import paths.
	Imports map[string]string
	// PkgNames maps import paths to declared package names.
	PkgNames map[string]string
	// Creator is set when Build calls a constructor function instead of
	// returning the assembled struct. Fields then are its parameters.
	Creator *Creator
	Dir     string
	Pos     schema.Position
}

// Creator is the constructor function of a function target.
type Creator struct {
	Func string
	// Result is the first result of Func and the value Build returns.
	Result *schema.TypeRef
	// Err reports whether Func returns an error as its second result.
	Err bool
	// Variadic reports whether the last parameter is spread into the call.
	Variadic bool
}

// TypeParam is a type parameter of a generic target.
type TypeParam struct {
	Name       string
	Constraint *schema.TypeRef
	Pos        schema.Position
}

// Field is one constructible property of a target.
type Field struct {
	Name         string
	Type         *schema.TypeRef
	TypeExpr     string
	Requiredness schema.Requiredness
	// Default is the default value expression; empty when none is declared.
	Default string
	// Validate references a func(T) error hook; empty when none is declared.
	Validate string
	Pos      schema.Position
}

// QualifiedName returns the import path qualified name of the target.
func (t *BuildTarget) QualifiedName() string {
	if t.PkgPath == "" {
		return t.Name
	}
	return t.PkgPath + "." + t.Name
}

// Mandatory returns the mandatory fields in declaration order.
func (t *BuildTarget) Mandatory() []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if f.IsMandatory() {
			fs = append(fs, f)
		}
	}
	return fs
}

// Terminal returns the optional and collection fields in declaration order.
func (t *BuildTarget) Terminal() []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if !f.IsMandatory() {
			fs = append(fs, f)
		}
	}
	return fs
}

// IsGeneric reports whether the target declares type parameters.
func (t *BuildTarget) IsGeneric() bool { return len(t.TypeParams) > 0 }

// IsMandatory reports whether f must be set through a stage.
func (f *Field) IsMandatory() bool { return f.Requiredness.OrDefault() == schema.Mandatory }

// IsOptional reports whether f falls back to a default.
func (f *Field) IsOptional() bool { return f.Requiredness == schema.Optional }

// IsCollection reports whether f accumulates elements.
func (f *Field) IsCollection() bool { return f.Requiredness == schema.Collection }

// NewTarget validates a type descriptor and builds its BuildTarget. Fields
// are checked in declaration order and the first failure is returned; the
// error carries the location of the offending declaration.
func NewTarget(d load.TypeDescriptor) (*BuildTarget, error) {
	pkg := d.Package()
	qn := d.QualifiedName()
	t := &BuildTarget{
		Name:     qn[strings.LastIndex(qn, ".")+1:],
		Package:  pkg.Name,
		PkgPath:  pkg.Path,
		Imports:  make(map[string]string),
		PkgNames: make(map[string]string),
		Pos:      d.Position(),
	}
	if od, ok := d.(interface{ OutputDir() string }); ok {
		t.Dir = od.OutputDir()
	}
	if t.Package == "" && t.PkgPath != "" {
		t.Package = path.Base(t.PkgPath)
	}
	if err := validName(t.Name); err != nil {
		return nil, NewSchemaError(InvalidName, t.Name, "", t.Pos, "invalid type name", err)
	}
	if p := d.Placement(); p != "" {
		return nil, NewSchemaError(InvalidPlacement, t.Name, "", t.Pos,
			fmt.Sprintf("the %s directive must annotate a struct type declaration or a constructor function, not %s", load.Directive, p), nil)
	}
	if err := validName(t.Package); err != nil {
		return nil, NewSchemaError(InvalidName, t.Name, "", t.Pos, "invalid package name", err)
	}
	scope := d.Scope()
	for _, im := range scope.Imports {
		t.Imports[im.Name] = im.Path
		name := im.PkgName
		if name == "" {
			name = im.Name
		}
		t.PkgNames[im.Path] = name
	}
	members := d.Members()
	ctor := d.Constructor()
	switch {
	case len(members) > 0:
	case ctor != nil:
		return nil, NewSchemaError(EmptyTarget, t.Name, "", t.Pos, "constructor declares no parameters", nil)
	default:
		return nil, NewSchemaError(EmptyTarget, t.Name, "", t.Pos, "build target declares no fields", nil)
	}
	x := &extractor{target: t, scope: scope}
	if err := x.typeParams(d.Params()); err != nil {
		return nil, err
	}
	if ctor != nil {
		if err := x.constructor(ctor); err != nil {
			return nil, err
		}
	}
	for _, m := range members {
		if err := x.field(m); err != nil {
			return nil, err
		}
	}
	if err := x.params(); err != nil {
		return nil, err
	}
	if err := x.generatedNames(); err != nil {
		return nil, err
	}
	return t, nil
}

// extractor carries the state of one NewTarget call.
type extractor struct {
	target *BuildTarget
	scope  *load.Scope
	fields map[string]*Field
	ops    map[string]*Field
}

func (x *extractor) resolver() schema.Resolver {
	r := schema.Resolver{Imports: x.target.Imports, LocalPkg: x.target.PkgPath}
	for _, tp := range x.target.TypeParams {
		r.TypeParams = append(r.TypeParams, tp.Name)
	}
	return r
}

func (x *extractor) typeParams(params []*load.TypeParam) error {
	t := x.target
	seen := make(map[string]*load.TypeParam)
	for _, p := range params {
		if err := validName(p.Name); err != nil {
			return NewSchemaError(InvalidName, t.Name, p.Name, p.Pos, "invalid type parameter name", err)
		}
		if prev, ok := seen[p.Name]; ok {
			return NewNamingConflictError(t.Name, p.Name, p.Pos, prev.Pos,
				fmt.Sprintf("type parameter %q redeclared for type %q", p.Name, t.Name))
		}
		seen[p.Name] = p
		t.TypeParams = append(t.TypeParams, &TypeParam{Name: p.Name, Pos: p.Pos})
	}
	r := x.resolver()
	for i, p := range params {
		constraint := p.Constraint
		if strings.TrimSpace(constraint) == "" {
			constraint = "any"
		}
		ref, err := schema.ParseTypeRef(constraint, r)
		if err != nil {
			return NewUnsupportedTypeError(t.Name, p.Name, constraint, p.Pos, "invalid type parameter constraint", err)
		}
		t.TypeParams[i].Constraint = ref
	}
	return nil
}

// constructor resolves the result of a function target. The target takes the
// name of the type the function returns.
func (x *extractor) constructor(c *load.Constructor) error {
	t := x.target
	fn := t.Name
	if isPrivate(fn) {
		return NewNamingConflictError(fn, fn, t.Pos, t.Pos,
			fmt.Sprintf("constructor %s collides with a local of the generated Build operation", fn))
	}
	switch {
	case len(c.Results) == 1:
	case len(c.Results) == 2 && strings.TrimSpace(c.Results[1]) == "error":
	default:
		return NewSchemaError(InvalidPlacement, fn, "", t.Pos,
			fmt.Sprintf("constructor %s must return T or (T, error)", fn), nil)
	}
	ref, err := schema.ParseTypeRef(c.Results[0], x.resolver())
	if err != nil {
		return NewUnsupportedTypeError(fn, "", c.Results[0], t.Pos, "invalid constructor result", err)
	}
	base := ref
	if base.Kind == schema.KindPointer {
		base = base.Elem
	}
	if base.Kind != schema.KindNamed || base.PkgPath != t.PkgPath {
		return NewSchemaError(InvalidPlacement, fn, "", t.Pos,
			fmt.Sprintf("constructor %s must return a type declared in package %s, not %s", fn, t.Package, c.Results[0]), nil)
	}
	t.Name = base.Name
	t.Creator = &Creator{Func: fn, Result: ref, Err: len(c.Results) == 2, Variadic: c.Variadic}
	return nil
}

func (x *extractor) field(m *load.Field) error {
	t := x.target
	if err := validName(m.Name); err != nil {
		msg := "invalid field name"
		if t.Creator != nil {
			msg = "invalid parameter name"
		}
		return NewSchemaError(InvalidName, t.Name, m.Name, m.Pos, msg, err)
	}
	if x.fields == nil {
		x.fields = make(map[string]*Field)
	}
	if prev, ok := x.fields[m.Name]; ok {
		return NewNamingConflictError(t.Name, m.Name, m.Pos, prev.Pos,
			fmt.Sprintf("field %q redeclared for type %q", m.Name, t.Name))
	}
	tag, err := m.Resolve()
	if err != nil {
		return NewSchemaError(InvalidTag, t.Name, m.Name, m.Pos, "", err)
	}
	f := &Field{
		Name:         m.Name,
		TypeExpr:     m.Type,
		Requiredness: tag.Requiredness,
		Default:      strings.TrimSpace(tag.Default),
		Validate:     strings.TrimSpace(tag.Validate),
		Pos:          m.Pos,
	}
	x.fields[f.Name] = f
	if f.Type, err = schema.ParseTypeRef(m.Type, x.resolver()); err != nil {
		return NewUnsupportedTypeError(t.Name, f.Name, m.Type, f.Pos, "", err)
	}
	if err := x.checkType(f); err != nil {
		return err
	}
	if t.Creator != nil && (f.IsOptional() || f.Validate != "") {
		return NewSchemaError(InvalidTag, t.Name, f.Name, f.Pos,
			fmt.Sprintf("constructor parameters cannot be optional or carry a validation hook; %s checks its own arguments", t.Creator.Func), nil)
	}
	if err := x.checkDefault(f); err != nil {
		return err
	}
	if err := x.checkHook(f); err != nil {
		return err
	}
	t.Fields = append(t.Fields, f)
	return nil
}

// checkType rejects types a setter signature cannot spell.
func (x *extractor) checkType(f *Field) error {
	t := x.target
	var msg string
	f.Type.Walk(func(r *schema.TypeRef) bool {
		switch {
		case msg != "":
		case r.Kind == schema.KindStruct:
			msg = "anonymous struct types are not supported; declare a named type"
		case r.Kind == schema.KindInterface && !r.IsEmptyInterface():
			msg = "interface literals with methods or type elements are not supported; declare a named interface"
		case r.Kind == schema.KindUnion || r.Tilde:
			msg = "type sets are only valid as constraints"
		case r.Kind == schema.KindNamed && r.PkgPath != t.PkgPath && !exported(r.Name):
			msg = fmt.Sprintf("unexported type %s from another package", r)
		case r.Kind == schema.KindNamed && r.PkgPath == t.PkgPath && isPrivate(r.Name):
			msg = fmt.Sprintf("type %s is shadowed by a local of the generated Build operation", r.Name)
		}
		return msg == ""
	})
	if msg != "" {
		return NewUnsupportedTypeError(t.Name, f.Name, f.TypeExpr, f.Pos, msg, nil)
	}
	if f.IsCollection() && f.Type.Kind != schema.KindSlice {
		return NewUnsupportedTypeError(t.Name, f.Name, f.TypeExpr, f.Pos, "collection fields must have a slice type", nil)
	}
	return nil
}

func (x *extractor) checkDefault(f *Field) error {
	t := x.target
	switch {
	case f.IsMandatory() && f.Default != "":
		return NewSchemaError(InvalidDefault, t.Name, f.Name, f.Pos, "mandatory fields cannot declare a default", nil)
	case f.IsOptional() && f.Default == "":
		return NewSchemaError(MissingDefault, t.Name, f.Name, f.Pos, "optional fields require an explicit default", nil)
	case f.Default == "":
		return nil
	}
	expr, err := parser.ParseExpr(f.Default)
	if err != nil {
		return NewSchemaError(InvalidDefault, t.Name, f.Name, f.Pos, fmt.Sprintf("malformed default %q", f.Default), err)
	}
	if name := shadowedName(expr); name != "" {
		return NewSchemaError(InvalidDefault, t.Name, f.Name, f.Pos,
			fmt.Sprintf("default %q refers to %s, which the generated Build operation shadows", f.Default, name), nil)
	}
	if _, err := golang.Source(f.Default, t.Imports); err != nil {
		return NewSchemaError(InvalidDefault, t.Name, f.Name, f.Pos, fmt.Sprintf("default %q cannot be generated", f.Default), err)
	}
	if f.IsCollection() && !emptyCollection(expr) {
		return NewSchemaError(InvalidDefault, t.Name, f.Name, f.Pos,
			fmt.Sprintf("collection default %q must be the empty collection", f.Default), nil)
	}
	return nil
}

// shadowedName returns the first identifier of x that a local of the
// generated Build operation would shadow. Selected names are skipped since
// they resolve through their operand.
func shadowedName(x ast.Expr) string {
	var name string
	var visit func(ast.Node) bool
	visit = func(n ast.Node) bool {
		if name != "" {
			return false
		}
		switch n := n.(type) {
		case *ast.SelectorExpr:
			ast.Inspect(n.X, visit)
			return false
		case *ast.Ident:
			if isPrivate(n.Name) {
				name = n.Name
			}
		}
		return true
	}
	ast.Inspect(x, visit)
	return name
}

// emptyCollection reports whether x is nil or a composite literal without
// elements.
func emptyCollection(x ast.Expr) bool {
	switch x := x.(type) {
	case *ast.Ident:
		return x.Name == "nil"
	case *ast.CompositeLit:
		return len(x.Elts) == 0
	case *ast.ParenExpr:
		return emptyCollection(x.X)
	}
	return false
}

// checkHook accepts a package-level function name, optionally qualified by an
// import of the declaring file.
func (x *extractor) checkHook(f *Field) error {
	if f.Validate == "" {
		return nil
	}
	t := x.target
	parts := strings.Split(f.Validate, ".")
	bad := func(msg string) error {
		return NewSchemaError(InvalidHook, t.Name, f.Name, f.Pos, fmt.Sprintf("validation hook %q %s", f.Validate, msg), nil)
	}
	for _, p := range parts {
		if validName(p) != nil {
			return bad("is not an identifier or qualified identifier")
		}
	}
	switch len(parts) {
	case 1:
		if isPrivate(parts[0]) {
			return bad("shadows a local of the generated Build operation")
		}
	case 2:
		if _, ok := t.Imports[parts[0]]; !ok {
			return bad(fmt.Sprintf("refers to package %q which the declaring file does not import", parts[0]))
		}
		if !exported(parts[1]) {
			return bad("refers to an unexported function of another package")
		}
	default:
		return bad("is not an identifier or qualified identifier")
	}
	return nil
}

// params checks what only function targets need: a variadic parameter comes
// last and is a collection, and no parameter names a generated method, since
// parameters become fields of the builder.
func (x *extractor) params() error {
	t := x.target
	if t.Creator == nil {
		return nil
	}
	if last := t.Fields[len(t.Fields)-1]; t.Creator.Variadic && !last.IsCollection() {
		return NewUnsupportedTypeError(t.Name, last.Name, last.TypeExpr, last.Pos, "variadic parameter must be a collection", nil)
	}
	methods := map[string]bool{"Build": true, "BuildX": true}
	for _, f := range t.Fields {
		methods[f.Operation()] = true
	}
	for _, f := range t.Fields {
		if methods[f.Name] {
			return NewNamingConflictError(t.Name, f.Name, f.Pos, t.Pos,
				fmt.Sprintf("parameter %s collides with a method of the generated builder", f.Name))
		}
	}
	return nil
}

// generatedNames rejects targets whose generated operations collide with
// each other, or whose generated types and functions collide with names the
// package already declares.
func (x *extractor) generatedNames() error {
	t := x.target
	x.ops = make(map[string]*Field)
	for _, f := range t.Fields {
		op := f.Operation()
		if prev, ok := x.ops[op]; ok {
			return NewNamingConflictError(t.Name, op, f.Pos, prev.Pos,
				fmt.Sprintf("fields %q and %q both generate operation %s", prev.Name, f.Name, op))
		}
		x.ops[op] = f
	}
	for _, n := range t.GeneratedNames() {
		if r, ok := x.scope.Lookup(n); ok {
			return NewNamingConflictError(t.Name, n, r.Pos, t.Pos,
				fmt.Sprintf("generated name %s for type %s is already declared in package %s", n, t.Name, t.Package))
		}
	}
	for _, tp := range t.TypeParams {
		if isPrivate(tp.Name) {
			return NewNamingConflictError(t.Name, tp.Name, tp.Pos, t.Pos,
				fmt.Sprintf("type parameter %s collides with a local of the generated operations", tp.Name))
		}
		for _, n := range t.GeneratedNames() {
			if tp.Name == n {
				return NewNamingConflictError(t.Name, n, tp.Pos, t.Pos,
					fmt.Sprintf("type parameter %s shadows a generated name", n))
			}
		}
		for _, f := range t.Fields {
			if f.Param() == tp.Name {
				return NewNamingConflictError(t.Name, tp.Name, f.Pos, tp.Pos,
					fmt.Sprintf("parameter of %s collides with type parameter %s", f.Operation(), tp.Name))
			}
		}
	}
	return nil
}

func validName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name cannot be empty")
	case name == "_":
		return fmt.Errorf("blank identifier is not allowed")
	case token.IsKeyword(name):
		return fmt.Errorf("%q is a Go keyword", name)
	case !token.IsIdentifier(name):
		return fmt.Errorf("%q is not a valid Go identifier", name)
	}
	return nil
}
