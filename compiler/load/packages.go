package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/syssam/stagegen/schema"
)

// Directive marks a struct type declaration or a constructor function as a
// build target.
const Directive = "//stagegen:builder"

// Config configures package loading.
type Config struct {
	// Dir is the working directory patterns are resolved against.
	Dir string
	// BuildFlags are passed to the build system, e.g. -tags.
	BuildFlags []string
}

// Load loads the packages matching patterns and returns every build target
// they declare. Packages are parsed but never type-checked, so a stale
// generated file that no longer compiles does not prevent regeneration.
// Listing and parse errors are reported.
func Load(ctx context.Context, cfg Config, patterns ...string) ([]*Target, error) {
	pcfg := &packages.Config{
		Context:    ctx,
		Mode:       packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedImports,
		Dir:        cfg.Dir,
		BuildFlags: cfg.BuildFlags,
	}
	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load: loading packages: %w", err)
	}
	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			if e.Kind != packages.TypeError {
				errs = append(errs, e)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	names, err := importNames(pcfg, pkgs)
	if err != nil {
		return nil, fmt.Errorf("load: resolving imports: %w", err)
	}
	var targets []*Target
	for _, pkg := range pkgs {
		if len(pkg.Syntax) == 0 {
			continue
		}
		targets = append(targets, Extract(pkg.Fset, pkg.Syntax, PackageRef{Name: pkg.Name, Path: pkg.PkgPath}, names)...)
	}
	return targets, nil
}

// importNames maps the import paths used by pkgs to package names. Without
// NeedDeps the imported packages carry only their IDs, so their names are
// listed in a second pass that asks for nothing but names.
func importNames(cfg *packages.Config, pkgs []*packages.Package) (map[string]string, error) {
	var (
		ids   []string
		paths = make(map[string][]string)
	)
	for _, pkg := range pkgs {
		for p, ip := range pkg.Imports {
			if _, ok := paths[ip.ID]; !ok {
				ids = append(ids, ip.ID)
			}
			paths[ip.ID] = append(paths[ip.ID], p)
		}
	}
	names := make(map[string]string)
	if len(ids) == 0 {
		return names, nil
	}
	deps, err := packages.Load(&packages.Config{
		Context:    cfg.Context,
		Mode:       packages.NeedName,
		Dir:        cfg.Dir,
		BuildFlags: cfg.BuildFlags,
	}, ids...)
	if err != nil {
		return nil, err
	}
	for _, dep := range deps {
		if dep.Name == "" {
			continue
		}
		for _, p := range paths[dep.ID] {
			names[p] = dep.Name
		}
	}
	return names, nil
}

// Extract returns the build targets declared in files. pkgNames maps import
// paths to package names; paths missing from it get a name guessed from the
// path. Generated files are skipped and do not contribute reserved names.
func Extract(fset *token.FileSet, files []*ast.File, pkg PackageRef, pkgNames map[string]string) []*Target {
	x := &extractor{fset: fset, pkg: pkg, pkgNames: pkgNames}
	for _, f := range files {
		if !ast.IsGenerated(f) {
			x.collectReserved(f)
		}
	}
	var targets []*Target
	for _, f := range files {
		if ast.IsGenerated(f) {
			continue
		}
		targets = append(targets, x.file(f)...)
	}
	return targets
}

type extractor struct {
	fset     *token.FileSet
	pkg      PackageRef
	pkgNames map[string]string
	reserved []Reserved
}

func (x *extractor) pos(p token.Pos) schema.Position {
	pp := x.fset.Position(p)
	return schema.Position{Filename: pp.Filename, Line: pp.Line, Column: pp.Column, Offset: pp.Offset}
}

func (x *extractor) collectReserved(f *ast.File) {
	add := func(id *ast.Ident) {
		if id != nil && id.Name != "_" {
			x.reserved = append(x.reserved, Reserved{Name: id.Name, Pos: x.pos(id.Pos())})
		}
	}
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				add(d.Name)
			}
		case *ast.GenDecl:
			for _, s := range d.Specs {
				switch s := s.(type) {
				case *ast.TypeSpec:
					add(s.Name)
				case *ast.ValueSpec:
					for _, n := range s.Names {
						add(n)
					}
				}
			}
		}
	}
}

func (x *extractor) imports(f *ast.File) []Import {
	var out []Import
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		pkgName, ok := x.pkgNames[p]
		if !ok {
			pkgName = guessName(p)
		}
		im := Import{Name: pkgName, Path: p}
		if spec.Name != nil {
			if spec.Name.Name == "_" || spec.Name.Name == "." {
				continue
			}
			im.Name = spec.Name.Name
			if im.Name != pkgName {
				im.PkgName = pkgName
			}
		}
		out = append(out, im)
	}
	return out
}

func (x *extractor) file(f *ast.File) []*Target {
	var (
		targets []*Target
		imports = x.imports(f)
		dir     = filepath.Dir(x.fset.Position(f.Package).Filename)
	)
	newTarget := func(name *ast.Ident) *Target {
		return &Target{
			Name:     name.Name,
			Pkg:      x.pkg,
			Dir:      dir,
			Imports:  imports,
			Reserved: x.reserved,
			Pos:      x.pos(name.Pos()),
		}
	}
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if hasDirective(d.Doc) {
				t := newTarget(d.Name)
				if d.Recv != nil {
					t.Misplaced = "method " + d.Name.Name
				} else {
					t.TypeParams = x.typeParams(d.Type.TypeParams)
					t.Fields, t.Ctor = x.constructor(d)
				}
				targets = append(targets, t)
			}
		case *ast.GenDecl:
			for _, s := range d.Specs {
				doc := specDoc(d, s)
				if !hasDirective(doc) {
					continue
				}
				switch s := s.(type) {
				case *ast.TypeSpec:
					t := newTarget(s.Name)
					if st, ok := s.Type.(*ast.StructType); ok && s.Assign == token.NoPos {
						t.TypeParams = x.typeParams(s.TypeParams)
						t.Fields = x.fields(st)
					} else {
						t.Misplaced = describeType(s)
					}
					targets = append(targets, t)
				case *ast.ValueSpec:
					t := newTarget(s.Names[0])
					t.Misplaced = d.Tok.String() + " " + s.Names[0].Name
					targets = append(targets, t)
				}
			}
		}
	}
	return targets
}

func (x *extractor) typeParams(fl *ast.FieldList) []*TypeParam {
	if fl == nil {
		return nil
	}
	var out []*TypeParam
	for _, f := range fl.List {
		for _, n := range f.Names {
			out = append(out, &TypeParam{
				Name:       n.Name,
				Constraint: types.ExprString(f.Type),
				Pos:        x.pos(n.Pos()),
			})
		}
	}
	return out
}

func (x *extractor) fields(st *ast.StructType) []*Field {
	var out []*Field
	for _, f := range st.Fields.List {
		var tag string
		if f.Tag != nil {
			if raw, err := strconv.Unquote(f.Tag.Value); err == nil {
				tag = reflect.StructTag(raw).Get(TagKey)
			}
		}
		if strings.TrimSpace(tag) == "-" {
			continue
		}
		typ := types.ExprString(f.Type)
		if len(f.Names) == 0 {
			out = append(out, &Field{Name: embeddedName(f.Type), Type: typ, Tag: tag, Pos: x.pos(f.Type.Pos())})
			continue
		}
		for _, n := range f.Names {
			if n.Name == "_" {
				continue
			}
			out = append(out, &Field{Name: n.Name, Type: typ, Tag: tag, Pos: x.pos(n.Pos())})
		}
	}
	return out
}

// constructor returns the parameters of fn as mandatory fields. A variadic
// parameter becomes a collection of its element type.
func (x *extractor) constructor(fn *ast.FuncDecl) ([]*Field, *Constructor) {
	var (
		fields []*Field
		c      = &Constructor{Func: fn.Name.Name}
	)
	for _, p := range fn.Type.Params.List {
		f := Field{Type: types.ExprString(p.Type), Requiredness: schema.Mandatory}
		if e, ok := p.Type.(*ast.Ellipsis); ok {
			f.Type = "[]" + types.ExprString(e.Elt)
			f.Requiredness = schema.Collection
			c.Variadic = true
		}
		if len(p.Names) == 0 {
			f.Pos = x.pos(p.Type.Pos())
			fields = append(fields, &f)
			continue
		}
		for _, n := range p.Names {
			f := f
			f.Name, f.Pos = n.Name, x.pos(n.Pos())
			fields = append(fields, &f)
		}
	}
	if fn.Type.Results != nil {
		for _, r := range fn.Type.Results.List {
			n := max(len(r.Names), 1)
			for range n {
				c.Results = append(c.Results, types.ExprString(r.Type))
			}
		}
	}
	return fields, c
}

func specDoc(d *ast.GenDecl, s ast.Spec) *ast.CommentGroup {
	var doc *ast.CommentGroup
	switch s := s.(type) {
	case *ast.TypeSpec:
		doc = s.Doc
	case *ast.ValueSpec:
		doc = s.Doc
	}
	if doc == nil && len(d.Specs) == 1 {
		doc = d.Doc
	}
	return doc
}

func hasDirective(cg *ast.CommentGroup) bool {
	if cg == nil {
		return false
	}
	for _, c := range cg.List {
		text := strings.TrimSpace(c.Text)
		if text == Directive || strings.HasPrefix(text, Directive+" ") {
			return true
		}
	}
	return false
}

func describeType(s *ast.TypeSpec) string {
	kind := "type"
	switch s.Type.(type) {
	case *ast.InterfaceType:
		kind = "interface type"
	case *ast.FuncType:
		kind = "func type"
	case *ast.MapType, *ast.ArrayType, *ast.ChanType:
		kind = "composite type"
	}
	if s.Assign != token.NoPos {
		kind = "alias"
	}
	return kind + " " + s.Name.Name
}

func embeddedName(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.StarExpr:
		return embeddedName(x.X)
	case *ast.SelectorExpr:
		return x.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(x.X)
	case *ast.IndexListExpr:
		return embeddedName(x.X)
	}
	return types.ExprString(x)
}

// guessName derives a package name from an import path the way most Go
// packages are named: the last element, ignoring major version suffixes,
// gopkg.in version selectors and a go- prefix.
func guessName(p string) string {
	elems := strings.Split(p, "/")
	name := elems[len(elems)-1]
	if isMajorVersion(name) && len(elems) > 1 {
		name = elems[len(elems)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.NewReplacer("-", "", ".", "").Replace(name)
	if name == "" {
		return path.Base(p)
	}
	return name
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}
