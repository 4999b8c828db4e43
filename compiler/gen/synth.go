package gen

import (
	"fmt"
	"maps"

	"github.com/syssam/stagegen/compiler/ir"
	"github.com/syssam/stagegen/schema"
)

// Synthesize renders a stage plan into a generated artifact. It fails with an
// UnsupportedTypeError when a type parameter cannot be threaded through every
// stage, and with a GenerationError when the back end cannot render the IR.
func Synthesize(p *StagePlan, cfg *Config) (*Artifact, error) {
	t := p.Target
	f, err := BuildIR(p, cfg)
	if err != nil {
		return nil, err
	}
	filename := t.FileName(cfg.FileSuffix)
	src, err := cfg.backend().Render(f)
	if err != nil {
		ge := NewGenerationError("render", filename, "", err)
		ge.Type, ge.Pos = t.Name, t.Pos
		return nil, ge
	}
	dir := t.Dir
	if cfg.OutputDir != "" {
		dir = cfg.OutputDir
	}
	return &Artifact{
		Target:   t.QualifiedName(),
		Dir:      dir,
		Filename: filename,
		Names:    t.GeneratedNames(),
		File:     f,
		Source:   src,
		Pos:      t.Pos,
	}, nil
}

// BuildIR lowers a stage plan to the language-neutral IR.
func BuildIR(p *StagePlan, cfg *Config) (*ir.File, error) {
	s := &synth{plan: p, target: p.Target, cfg: cfg}
	if err := s.checkTypeParams(); err != nil {
		return nil, err
	}
	pkgNames := maps.Clone(s.target.PkgNames)
	if pkgNames == nil {
		pkgNames = make(map[string]string)
	}
	pkgNames[cfg.Runtime] = runtimeName(cfg.Runtime)
	s.file = &ir.File{
		Package:  s.target.Package,
		PkgPath:  s.target.PkgPath,
		Header:   cfg.Header,
		PkgNames: pkgNames,
	}
	s.contracts()
	s.implementation()
	return s.file, nil
}

type synth struct {
	plan   *StagePlan
	target *BuildTarget
	cfg    *Config
	file   *ir.File
}

// checkTypeParams verifies every type parameter can be declared on each
// stage contract and that field types only use declared parameters.
func (s *synth) checkTypeParams() error {
	t := s.target
	declared := make(map[string]bool)
	for _, tp := range t.TypeParams {
		declared[tp.Name] = true
	}
	undeclared := func(ref *schema.TypeRef) string {
		var name string
		ref.Walk(func(r *schema.TypeRef) bool {
			if name == "" && r.Kind == schema.KindTypeParam && !declared[r.Name] {
				name = r.Name
			}
			return name == ""
		})
		return name
	}
	for _, tp := range t.TypeParams {
		c := tp.Constraint
		switch {
		case c == nil:
		case c.Kind == schema.KindTypeParam:
			return NewUnsupportedTypeError(t.Name, tp.Name, c.String(), tp.Pos,
				"a type parameter cannot be used as the constraint of another", nil)
		case c.Kind == schema.KindInterface && c.Methods > 0:
			return NewUnsupportedTypeError(t.Name, tp.Name, c.String(), tp.Pos,
				"interface literal constraints with methods are not supported, declare a named interface instead", nil)
		case undeclared(c) != "":
			return NewUnsupportedTypeError(t.Name, tp.Name, c.String(), tp.Pos,
				fmt.Sprintf("constraint refers to undeclared type parameter %s", undeclared(c)), nil)
		}
	}
	for _, f := range t.Fields {
		if f.Type == nil {
			return NewUnsupportedTypeError(t.Name, f.Name, f.TypeExpr, f.Pos, "field has no type", nil)
		}
		if name := undeclared(f.Type); name != "" {
			return NewUnsupportedTypeError(t.Name, f.Name, f.Type.String(), f.Pos,
				fmt.Sprintf("type parameter %s is not declared by %s and cannot be threaded through its stages", name, t.Name), nil)
		}
	}
	return nil
}

func (s *synth) doc(format string, args ...any) string {
	if !s.cfg.FeatureEnabled(FeatureDocComments.Name) {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

func (s *synth) typeParams() []ir.TypeParam {
	var tps []ir.TypeParam
	for _, tp := range s.target.TypeParams {
		c := tp.Constraint
		if c == nil {
			c = schema.Basic("any")
		}
		tps = append(tps, ir.TypeParam{Name: tp.Name, Constraint: c.Clone()})
	}
	return tps
}

// local returns a reference to a type of the target package instantiated
// with the target's type parameters.
func (s *synth) local(name string) *schema.TypeRef {
	ref := schema.Named(s.target.PkgPath, name)
	for _, tp := range s.target.TypeParams {
		ref.Args = append(ref.Args, schema.Param(tp.Name))
	}
	return ref
}

func (s *synth) setterMethod(f *Field, next string) ir.Method {
	m := ir.Method{
		Name:    f.Operation(),
		Params:  []ir.Param{{Name: f.Param(), Type: f.Type.Clone()}},
		Results: []*schema.TypeRef{s.local(next)},
	}
	if f.IsCollection() {
		m.Params[0].Type = f.Type.Elem.Clone()
		m.Doc = s.doc("%s appends an element to the %s collection.", m.Name, f.Name)
	} else {
		m.Doc = s.doc("%s sets the %s field.", m.Name, f.Name)
	}
	return m
}

func (s *synth) buildMethods() []ir.Method {
	t := s.target
	result := schema.PointerTo(s.local(t.Name))
	doc := s.doc("Build applies defaults, runs validation hooks and returns the %s.", t.Name)
	docX := s.doc("BuildX is like Build but panics if a validation hook fails.")
	if c := t.Creator; c != nil {
		result = c.Result
		doc = s.doc("Build calls %s with the supplied arguments.", c.Func)
		docX = s.doc("BuildX is like Build but panics if %s fails.", c.Func)
	}
	ms := []ir.Method{{
		Name:    "Build",
		Doc:     doc,
		Results: []*schema.TypeRef{result.Clone(), schema.Basic("error")},
	}}
	if s.cfg.FeatureEnabled(FeatureMustBuild.Name) {
		ms = append(ms, ir.Method{
			Name:    "BuildX",
			Doc:     docX,
			Results: []*schema.TypeRef{result.Clone()},
		})
	}
	return ms
}

// contracts declares one interface per stage plus the terminal interface.
func (s *synth) contracts() {
	t, p := s.target, s.plan
	for _, st := range p.Stages {
		s.file.Decls = append(s.file.Decls, &ir.InterfaceDecl{
			Name:       st.Name,
			Doc:        s.doc("%s is stage %d of building a %s. It requires %s.", st.Name, st.Index, t.Name, st.Field.Name),
			TypeParams: s.typeParams(),
			Methods:    []ir.Method{s.setterMethod(st.Field, st.Next)},
		})
	}
	final := &ir.InterfaceDecl{
		Name:       p.Terminal.Name,
		Doc:        s.doc("%s is the final stage of building a %s. Optional fields and collections may be supplied in any order before Build.", p.Terminal.Name, t.Name),
		TypeParams: s.typeParams(),
	}
	for _, f := range p.Terminal.Fields {
		final.Methods = append(final.Methods, s.setterMethod(f, p.Terminal.Name))
	}
	final.Methods = append(final.Methods, s.buildMethods()...)
	s.file.Decls = append(s.file.Decls, final)
}

// implementation declares the builder type, the factory and one method per
// contract operation.
func (s *synth) implementation() {
	t, p := s.target, s.plan
	builder := &ir.StructDecl{
		Name:       t.BuilderName(),
		Doc:        s.doc("%s implements every stage of building a %s.", t.BuilderName(), t.Name),
		TypeParams: s.typeParams(),
	}
	if t.Creator != nil {
		// Constructor arguments are held until Build.
		for _, f := range t.Fields {
			builder.Fields = append(builder.Fields, ir.Param{Name: f.Name, Type: f.Type.Clone()})
		}
	} else {
		builder.Fields = append(builder.Fields, ir.Param{Name: "v", Type: s.local(t.Name)})
	}
	optional := p.Terminal.Optional()
	if len(optional) > 0 {
		builder.Fields = append(builder.Fields, ir.Param{
			Name: "set",
			Type: schema.ArrayOf(fmt.Sprint(len(optional)), schema.Basic("bool")),
		})
	}
	s.file.Decls = append(s.file.Decls, builder, &ir.FuncDecl{
		Name:       t.FactoryName(),
		Doc:        s.doc("%s returns the entry point for building a %s.", t.FactoryName(), t.Name),
		TypeParams: s.typeParams(),
		Results:    []*schema.TypeRef{s.local(p.Entry())},
		Body: []ir.Stmt{&ir.Return{Values: []ir.Expr{
			&ir.Unary{Op: "&", X: &ir.Composite{Type: s.local(t.BuilderName())}},
		}}},
	})
	for _, st := range p.Stages {
		s.method(s.setterMethod(st.Field, st.Next), s.assign(st.Field, -1))
	}
	for _, f := range p.Terminal.Fields {
		s.method(s.setterMethod(f, p.Terminal.Name), s.assign(f, indexOf(optional, f)))
	}
	for _, m := range s.buildMethods() {
		switch {
		case m.Name != "Build":
			s.method(m, s.buildXBody())
		case t.Creator != nil:
			s.method(m, s.callBody())
		default:
			s.method(m, s.buildBody(optional))
		}
	}
}

func (s *synth) method(m ir.Method, body []ir.Stmt) {
	s.file.Decls = append(s.file.Decls, &ir.FuncDecl{
		Name:    m.Name,
		Doc:     m.Doc,
		Recv:    &ir.Param{Name: "b", Type: schema.PointerTo(s.local(s.target.BuilderName()))},
		Params:  m.Params,
		Results: m.Results,
		Body:    body,
	})
}

func field(x ir.Expr, f *Field) ir.Expr { return ir.Sel(x, f.Name) }

// slot returns where the builder keeps the value of f.
func (s *synth) slot(f *Field) ir.Expr {
	if s.target.Creator != nil {
		return field(ir.Id("b"), f)
	}
	return field(ir.Sel(ir.Id("b"), "v"), f)
}

// assign returns the body of f's operation; set is the index of f in the
// builder's set array, or -1.
func (s *synth) assign(f *Field, set int) []ir.Stmt {
	slot := s.slot(f)
	var body []ir.Stmt
	if f.IsCollection() {
		body = append(body, &ir.Assign{Target: slot, Value: ir.BuiltinCall("append", slot, ir.Id(f.Param()))})
	} else {
		body = append(body, &ir.Assign{Target: slot, Value: ir.Id(f.Param())})
	}
	if set >= 0 {
		body = append(body, &ir.Assign{
			Target: &ir.Index{X: ir.Sel(ir.Id("b"), "set"), Index: &ir.Lit{Value: set}},
			Value:  &ir.Lit{Value: true},
		})
	}
	return append(body, &ir.Return{Values: []ir.Expr{ir.Id("b")}})
}

// buildBody substitutes defaults, snapshots collections, then runs hooks in
// declaration order. The instance is only returned after every hook passed.
func (s *synth) buildBody(optional []*Field) []ir.Stmt {
	t := s.target
	v := ir.Id("v")
	body := []ir.Stmt{&ir.Define{Names: []string{"v"}, Values: []ir.Expr{ir.Sel(ir.Id("b"), "v")}}}
	for _, f := range t.Fields {
		switch {
		case f.IsOptional():
			body = append(body, &ir.If{
				Cond: &ir.Unary{Op: "!", X: &ir.Index{X: ir.Sel(ir.Id("b"), "set"), Index: &ir.Lit{Value: indexOf(optional, f)}}},
				Then: []ir.Stmt{&ir.Assign{Target: field(v, f), Value: &ir.Source{Text: f.Default, Imports: t.Imports}}},
			})
		case f.IsCollection():
			src := field(ir.Sel(ir.Id("b"), "v"), f)
			body = append(body,
				&ir.Assign{Target: field(v, f), Value: ir.BuiltinCall("make", &ir.TypeExpr{Type: f.Type.Clone()}, ir.BuiltinCall("len", src))},
				&ir.ExprStmt{X: ir.BuiltinCall("copy", field(v, f), src)},
			)
		}
	}
	for _, f := range t.Fields {
		if f.Validate == "" {
			continue
		}
		body = append(body, &ir.If{
			Init: &ir.Define{Names: []string{"err"}, Values: []ir.Expr{
				ir.CallOf(&ir.Source{Text: f.Validate, Imports: t.Imports}, field(v, f)),
			}},
			Cond: &ir.Binary{X: ir.Id("err"), Op: "!=", Y: &ir.Nil{}},
			Then: []ir.Stmt{&ir.Return{Values: []ir.Expr{&ir.Nil{}, &ir.Unary{Op: "&", X: &ir.Composite{
				Type: schema.Named(s.cfg.Runtime, "ValidationHookError"),
				Elems: []ir.KeyValue{
					{Key: "Target", Value: &ir.Lit{Value: t.Name}},
					{Key: "Field", Value: &ir.Lit{Value: f.Name}},
					{Key: "Err", Value: ir.Id("err")},
				},
			}}}}},
		})
	}
	return append(body, &ir.Return{Values: []ir.Expr{&ir.Unary{Op: "&", X: v}, &ir.Nil{}}})
}

// callBody passes the held arguments to the constructor in declaration order.
// Collections are snapshotted first so later additions to the builder do not
// reach a value already built.
func (s *synth) callBody() []ir.Stmt {
	t, c := s.target, s.target.Creator
	var (
		body []ir.Stmt
		args = make([]ir.Expr, 0, len(t.Fields))
	)
	for _, f := range t.Fields {
		args = append(args, s.slot(f))
	}
	if len(t.Terminal()) > 0 {
		v := ir.Id("v")
		body = append(body, &ir.Define{Names: []string{"v"}, Values: []ir.Expr{&ir.Unary{Op: "*", X: ir.Id("b")}}})
		for i, f := range t.Fields {
			args[i] = field(v, f)
			if !f.IsCollection() {
				continue
			}
			body = append(body,
				&ir.Assign{Target: field(v, f), Value: ir.BuiltinCall("make", &ir.TypeExpr{Type: f.Type.Clone()}, ir.BuiltinCall("len", s.slot(f)))},
				&ir.ExprStmt{X: ir.BuiltinCall("copy", field(v, f), s.slot(f))},
			)
		}
	}
	// The constructor is instantiated with the target's type parameters.
	call := &ir.Call{Fun: &ir.TypeExpr{Type: s.local(c.Func)}, Args: args, Ellipsis: c.Variadic}
	if c.Err {
		return append(body, &ir.Return{Values: []ir.Expr{call}})
	}
	return append(body, &ir.Return{Values: []ir.Expr{call, &ir.Nil{}}})
}

func (s *synth) buildXBody() []ir.Stmt {
	return []ir.Stmt{
		&ir.Define{Names: []string{"v", "err"}, Values: []ir.Expr{ir.CallOf(ir.Sel(ir.Id("b"), "Build"))}},
		&ir.If{
			Cond: &ir.Binary{X: ir.Id("err"), Op: "!=", Y: &ir.Nil{}},
			Then: []ir.Stmt{&ir.ExprStmt{X: ir.BuiltinCall("panic", ir.Id("err"))}},
		},
		&ir.Return{Values: []ir.Expr{ir.Id("v")}},
	}
}

func indexOf(fs []*Field, f *Field) int {
	for i := range fs {
		if fs[i] == f {
			return i
		}
	}
	return -1
}
