package schema

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"strings"
)

// Kind is the shape of a TypeRef.
type Kind uint8

// TypeRef kinds.
const (
	KindInvalid Kind = iota
	KindBasic
	KindNamed
	KindTypeParam
	KindPointer
	KindSlice
	KindArray
	KindMap
	KindChan
	KindFunc
	KindInterface
	KindUnion
	KindStruct
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindBasic:     "basic",
	KindNamed:     "named",
	KindTypeParam: "typeparam",
	KindPointer:   "pointer",
	KindSlice:     "slice",
	KindArray:     "array",
	KindMap:       "map",
	KindChan:      "chan",
	KindFunc:      "func",
	KindInterface: "interface",
	KindUnion:     "union",
	KindStruct:    "struct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ChanDir is the direction of a channel type.
type ChanDir uint8

// Channel directions.
const (
	ChanBoth ChanDir = iota
	ChanSend
	ChanRecv
)

// TypeRef is a structured reference to a type as written in a declaration.
type TypeRef struct {
	Kind Kind `json:"kind"`
	// Name is set for basic, named and type parameter references.
	Name string `json:"name,omitempty"`
	// PkgPath is the import path of a named type; empty for builtins.
	PkgPath string     `json:"pkg,omitempty"`
	Args    []*TypeRef `json:"args,omitempty"`
	Elem    *TypeRef   `json:"elem,omitempty"`
	Key     *TypeRef   `json:"key,omitempty"`
	// Len is the array length expression.
	Len      string     `json:"len,omitempty"`
	Dir      ChanDir    `json:"dir,omitempty"`
	Params   []*TypeRef `json:"params,omitempty"`
	Results  []*TypeRef `json:"results,omitempty"`
	Variadic bool       `json:"variadic,omitempty"`
	// Terms are union members, or the embedded elements of an interface.
	Terms []*TypeRef `json:"terms,omitempty"`
	Tilde bool       `json:"tilde,omitempty"`
	// Methods counts explicit methods of an interface literal.
	Methods int `json:"methods,omitempty"`
}

// Basic returns a reference to a predeclared type such as int or any.
func Basic(name string) *TypeRef { return &TypeRef{Kind: KindBasic, Name: name} }

// Named returns a reference to a declared type.
func Named(pkgPath, name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: KindNamed, PkgPath: pkgPath, Name: name, Args: args}
}

// Param returns a reference to a type parameter.
func Param(name string) *TypeRef { return &TypeRef{Kind: KindTypeParam, Name: name} }

// PointerTo returns a pointer to elem.
func PointerTo(elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindPointer, Elem: elem} }

// SliceOf returns a slice of elem.
func SliceOf(elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindSlice, Elem: elem} }

// ArrayOf returns an array of elem with the given length expression.
func ArrayOf(n string, elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindArray, Len: n, Elem: elem}
}

// IsEmptyInterface reports whether t is any or interface{}.
func (t *TypeRef) IsEmptyInterface() bool {
	switch {
	case t == nil:
		return false
	case t.Kind == KindBasic && t.Name == "any":
		return true
	case t.Kind == KindInterface:
		return t.Methods == 0 && len(t.Terms) == 0
	}
	return false
}

// Walk calls fn for t and every type nested inside it, depth first.
// Traversal of a subtree stops when fn returns false.
func (t *TypeRef) Walk(fn func(*TypeRef) bool) {
	if t == nil || !fn(t) {
		return
	}
	for _, c := range t.children() {
		c.Walk(fn)
	}
}

func (t *TypeRef) children() []*TypeRef {
	var cs []*TypeRef
	if t.Key != nil {
		cs = append(cs, t.Key)
	}
	if t.Elem != nil {
		cs = append(cs, t.Elem)
	}
	cs = append(cs, t.Args...)
	cs = append(cs, t.Params...)
	cs = append(cs, t.Results...)
	return append(cs, t.Terms...)
}

// Clone returns a deep copy of t.
func (t *TypeRef) Clone() *TypeRef {
	if t == nil {
		return nil
	}
	c := *t
	c.Elem, c.Key = t.Elem.Clone(), t.Key.Clone()
	c.Args, c.Params = cloneAll(t.Args), cloneAll(t.Params)
	c.Results, c.Terms = cloneAll(t.Results), cloneAll(t.Terms)
	return &c
}

func cloneAll(ts []*TypeRef) []*TypeRef {
	if ts == nil {
		return nil
	}
	out := make([]*TypeRef, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

// String renders t in Go syntax, qualifying named types by the last element
// of their package path.
func (t *TypeRef) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *TypeRef) write(b *strings.Builder) {
	if t == nil {
		b.WriteString("<nil>")
		return
	}
	if t.Tilde {
		b.WriteByte('~')
	}
	switch t.Kind {
	case KindBasic, KindTypeParam:
		b.WriteString(t.Name)
	case KindNamed:
		if t.PkgPath != "" {
			b.WriteString(path.Base(t.PkgPath))
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
		writeList(b, "[", t.Args, "]")
	case KindPointer:
		b.WriteByte('*')
		t.Elem.write(b)
	case KindSlice:
		b.WriteString("[]")
		t.Elem.write(b)
	case KindArray:
		fmt.Fprintf(b, "[%s]", t.Len)
		t.Elem.write(b)
	case KindMap:
		b.WriteString("map[")
		t.Key.write(b)
		b.WriteByte(']')
		t.Elem.write(b)
	case KindChan:
		switch t.Dir {
		case ChanSend:
			b.WriteString("chan<- ")
		case ChanRecv:
			b.WriteString("<-chan ")
		default:
			b.WriteString("chan ")
		}
		t.Elem.write(b)
	case KindFunc:
		b.WriteString("func(")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			if t.Variadic && i == len(t.Params)-1 {
				b.WriteString("...")
				p.Elem.write(b)
				continue
			}
			p.write(b)
		}
		b.WriteByte(')')
		switch len(t.Results) {
		case 0:
		case 1:
			b.WriteByte(' ')
			t.Results[0].write(b)
		default:
			writeList(b, " (", t.Results, ")")
		}
	case KindInterface:
		if t.IsEmptyInterface() {
			b.WriteString("interface{}")
			return
		}
		b.WriteString("interface{ ")
		for i, e := range t.Terms {
			if i > 0 {
				b.WriteString("; ")
			}
			e.write(b)
		}
		if t.Methods > 0 {
			if len(t.Terms) > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(b, "/* %d methods */", t.Methods)
		}
		b.WriteString(" }")
	case KindUnion:
		for i, e := range t.Terms {
			if i > 0 {
				b.WriteString(" | ")
			}
			e.write(b)
		}
	case KindStruct:
		b.WriteString("struct{...}")
	default:
		b.WriteString("invalid")
	}
}

func writeList(b *strings.Builder, open string, ts []*TypeRef, end string) {
	if len(ts) == 0 {
		return
	}
	b.WriteString(open)
	for i, a := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		a.write(b)
	}
	b.WriteString(end)
}

// Resolver supplies the context needed to resolve identifiers in a type
// expression.
type Resolver struct {
	// Imports maps the local name of each import to its path.
	Imports map[string]string
	// TypeParams lists the type parameters in scope.
	TypeParams []string
	// LocalPkg is the import path of the declaring package.
	LocalPkg string
}

// ParseTypeRef parses a Go type expression into a TypeRef.
func ParseTypeRef(expr string, r Resolver) (*TypeRef, error) {
	x, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, fmt.Errorf("parse type %q: %w", expr, err)
	}
	return r.Resolve(x)
}

// Resolve converts a parsed type expression into a TypeRef.
func (r Resolver) Resolve(x ast.Expr) (*TypeRef, error) {
	switch x := x.(type) {
	case *ast.Ident:
		return r.ident(x.Name), nil
	case *ast.SelectorExpr:
		return r.selector(x)
	case *ast.ParenExpr:
		return r.Resolve(x.X)
	case *ast.StarExpr:
		elem, err := r.Resolve(x.X)
		if err != nil {
			return nil, err
		}
		return PointerTo(elem), nil
	case *ast.ArrayType:
		elem, err := r.Resolve(x.Elt)
		if err != nil {
			return nil, err
		}
		switch n := x.Len.(type) {
		case nil:
			return SliceOf(elem), nil
		case *ast.Ellipsis:
			return nil, fmt.Errorf("array length [...] is not allowed in a type")
		default:
			return ArrayOf(exprString(n), elem), nil
		}
	case *ast.MapType:
		key, err := r.Resolve(x.Key)
		if err != nil {
			return nil, err
		}
		elem, err := r.Resolve(x.Value)
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: KindMap, Key: key, Elem: elem}, nil
	case *ast.ChanType:
		elem, err := r.Resolve(x.Value)
		if err != nil {
			return nil, err
		}
		dir := ChanBoth
		switch x.Dir {
		case ast.SEND:
			dir = ChanSend
		case ast.RECV:
			dir = ChanRecv
		}
		return &TypeRef{Kind: KindChan, Dir: dir, Elem: elem}, nil
	case *ast.FuncType:
		return r.funcType(x)
	case *ast.InterfaceType:
		return r.interfaceType(x)
	case *ast.StructType:
		return &TypeRef{Kind: KindStruct}, nil
	case *ast.IndexExpr:
		return r.instance(x.X, []ast.Expr{x.Index})
	case *ast.IndexListExpr:
		return r.instance(x.X, x.Indices)
	case *ast.BinaryExpr:
		if x.Op != token.OR {
			return nil, fmt.Errorf("unexpected operator %s in type", x.Op)
		}
		return r.union(x)
	case *ast.UnaryExpr:
		if x.Op != token.TILDE {
			return nil, fmt.Errorf("unexpected operator %s in type", x.Op)
		}
		t, err := r.Resolve(x.X)
		if err != nil {
			return nil, err
		}
		t.Tilde = true
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported type expression %s", exprString(x))
	}
}

func (r Resolver) ident(name string) *TypeRef {
	for _, p := range r.TypeParams {
		if p == name {
			return Param(name)
		}
	}
	if obj, ok := types.Universe.Lookup(name).(*types.TypeName); ok {
		return Basic(obj.Name())
	}
	return Named(r.LocalPkg, name)
}

func (r Resolver) selector(x *ast.SelectorExpr) (*TypeRef, error) {
	id, ok := x.X.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("unsupported qualified type %s", exprString(x))
	}
	pkg, ok := r.Imports[id.Name]
	if !ok {
		return nil, fmt.Errorf("undefined package %q in type %s", id.Name, exprString(x))
	}
	return Named(pkg, x.Sel.Name), nil
}

func (r Resolver) instance(base ast.Expr, indices []ast.Expr) (*TypeRef, error) {
	t, err := r.Resolve(base)
	if err != nil {
		return nil, err
	}
	if t.Kind != KindNamed {
		return nil, fmt.Errorf("cannot instantiate non-named type %s", t)
	}
	for _, ix := range indices {
		a, err := r.Resolve(ix)
		if err != nil {
			return nil, err
		}
		t.Args = append(t.Args, a)
	}
	return t, nil
}

func (r Resolver) union(x *ast.BinaryExpr) (*TypeRef, error) {
	u := &TypeRef{Kind: KindUnion}
	for _, side := range []ast.Expr{x.X, x.Y} {
		t, err := r.Resolve(side)
		if err != nil {
			return nil, err
		}
		if t.Kind == KindUnion {
			u.Terms = append(u.Terms, t.Terms...)
			continue
		}
		u.Terms = append(u.Terms, t)
	}
	return u, nil
}

func (r Resolver) funcType(x *ast.FuncType) (*TypeRef, error) {
	fn := &TypeRef{Kind: KindFunc}
	if x.TypeParams != nil && len(x.TypeParams.List) > 0 {
		return nil, fmt.Errorf("function types cannot declare type parameters")
	}
	var err error
	if fn.Params, fn.Variadic, err = r.fields(x.Params); err != nil {
		return nil, err
	}
	if fn.Results, _, err = r.fields(x.Results); err != nil {
		return nil, err
	}
	return fn, nil
}

func (r Resolver) fields(fl *ast.FieldList) ([]*TypeRef, bool, error) {
	if fl == nil {
		return nil, false, nil
	}
	var (
		out      []*TypeRef
		variadic bool
	)
	for i, f := range fl.List {
		typ := f.Type
		if e, ok := typ.(*ast.Ellipsis); ok {
			if i != len(fl.List)-1 {
				return nil, false, fmt.Errorf("can only use ... with final parameter")
			}
			variadic, typ = true, e.Elt
		}
		t, err := r.Resolve(typ)
		if err != nil {
			return nil, false, err
		}
		if variadic {
			t = SliceOf(t)
		}
		n := max(len(f.Names), 1)
		for range n {
			out = append(out, t.Clone())
		}
	}
	return out, variadic, nil
}

func (r Resolver) interfaceType(x *ast.InterfaceType) (*TypeRef, error) {
	it := &TypeRef{Kind: KindInterface}
	for _, m := range x.Methods.List {
		if _, ok := m.Type.(*ast.FuncType); ok && len(m.Names) > 0 {
			it.Methods++
			continue
		}
		e, err := r.Resolve(m.Type)
		if err != nil {
			return nil, err
		}
		it.Terms = append(it.Terms, e)
	}
	return it, nil
}

func exprString(x ast.Expr) string {
	return types.ExprString(x)
}
