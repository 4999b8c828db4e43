// Package golang renders stagegen IR files as Go source using jennifer.
//
// The back end is stateless: every Render call builds a fresh jen.File, so a
// single Backend value can render the units of a round concurrently.
package golang

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/stagegen/compiler/ir"
	"github.com/syssam/stagegen/schema"
)

// Backend renders IR as gofmt-formatted Go source.
type Backend struct{}

// New returns the Go back end.
func New() *Backend { return &Backend{} }

// Name implements the generator back end interface.
func (*Backend) Name() string { return "go" }

// Render returns the formatted Go source of f.
func (b *Backend) Render(f *ir.File) ([]byte, error) {
	jf, err := b.File(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jf.Render(&buf); err != nil {
		return nil, fmt.Errorf("format %s: %w", f.Package, err)
	}
	return buf.Bytes(), nil
}

// File converts f to a jen.File without rendering it.
func (*Backend) File(f *ir.File) (*jen.File, error) {
	jf := jen.NewFilePathName(f.PkgPath, f.Package)
	if f.Header != "" {
		jf.HeaderComment(f.Header)
	}
	for p, name := range f.PkgNames {
		jf.ImportName(p, name)
	}
	for i, d := range f.Decls {
		if i > 0 {
			jf.Line()
		}
		code, doc, err := decl(d)
		if err != nil {
			return nil, err
		}
		if doc != "" {
			jf.Comment(doc)
		}
		jf.Add(code)
	}
	return jf, nil
}

func decl(d ir.Decl) (jen.Code, string, error) {
	switch d := d.(type) {
	case *ir.InterfaceDecl:
		return interfaceDecl(d)
	case *ir.StructDecl:
		return structDecl(d)
	case *ir.FuncDecl:
		return funcDecl(d)
	default:
		return nil, "", fmt.Errorf("unsupported declaration %T", d)
	}
}

func interfaceDecl(d *ir.InterfaceDecl) (jen.Code, string, error) {
	tps, err := typeParams(d.TypeParams)
	if err != nil {
		return nil, "", err
	}
	methods := make([]jen.Code, 0, len(d.Methods)*2)
	for _, m := range d.Methods {
		sig, err := signature(jen.Id(m.Name), m.Params, m.Results)
		if err != nil {
			return nil, "", fmt.Errorf("method %s.%s: %w", d.Name, m.Name, err)
		}
		if m.Doc != "" {
			methods = append(methods, jen.Comment(m.Doc))
		}
		methods = append(methods, sig)
	}
	stmt := jen.Type().Id(d.Name)
	if len(tps) > 0 {
		stmt.Types(tps...)
	}
	return stmt.Interface(methods...), d.Doc, nil
}

func structDecl(d *ir.StructDecl) (jen.Code, string, error) {
	tps, err := typeParams(d.TypeParams)
	if err != nil {
		return nil, "", err
	}
	fields := make([]jen.Code, 0, len(d.Fields))
	for _, f := range d.Fields {
		t, err := Type(f.Type)
		if err != nil {
			return nil, "", fmt.Errorf("field %s.%s: %w", d.Name, f.Name, err)
		}
		fields = append(fields, jen.Id(f.Name).Add(t))
	}
	stmt := jen.Type().Id(d.Name)
	if len(tps) > 0 {
		stmt.Types(tps...)
	}
	return stmt.Struct(fields...), d.Doc, nil
}

func funcDecl(d *ir.FuncDecl) (jen.Code, string, error) {
	stmt := jen.Func()
	if d.Recv != nil {
		t, err := Type(d.Recv.Type)
		if err != nil {
			return nil, "", fmt.Errorf("receiver of %s: %w", d.Name, err)
		}
		stmt.Params(jen.Id(d.Recv.Name).Add(t))
	}
	stmt.Id(d.Name)
	tps, err := typeParams(d.TypeParams)
	if err != nil {
		return nil, "", err
	}
	if len(tps) > 0 {
		stmt.Types(tps...)
	}
	if _, err := signature(stmt, d.Params, d.Results); err != nil {
		return nil, "", fmt.Errorf("func %s: %w", d.Name, err)
	}
	body, err := stmts(d.Body)
	if err != nil {
		return nil, "", fmt.Errorf("func %s: %w", d.Name, err)
	}
	return stmt.Block(body...), d.Doc, nil
}

// signature appends the parameter and result lists to s.
func signature(s *jen.Statement, params []ir.Param, results []*schema.TypeRef) (*jen.Statement, error) {
	ps := make([]jen.Code, 0, len(params))
	for _, p := range params {
		t, err := Type(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		ps = append(ps, jen.Id(p.Name).Add(t))
	}
	s.Params(ps...)
	rs, err := typeList(results)
	if err != nil {
		return nil, err
	}
	switch len(rs) {
	case 0:
	case 1:
		s.Add(rs[0])
	default:
		s.Params(rs...)
	}
	return s, nil
}

func typeParams(tps []ir.TypeParam) ([]jen.Code, error) {
	out := make([]jen.Code, 0, len(tps))
	for _, tp := range tps {
		c, err := Type(tp.Constraint)
		if err != nil {
			return nil, fmt.Errorf("constraint of %s: %w", tp.Name, err)
		}
		out = append(out, jen.Id(tp.Name).Add(c))
	}
	return out, nil
}
