package golang

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"

	"github.com/dave/jennifer/jen"
)

// Source converts a user-written expression to jen code. Package selectors
// named in imports become qualified references, so the generated file
// imports what the snippet uses under whatever name jennifer picks.
func Source(text string, imports map[string]string) (*jen.Statement, error) {
	x, err := parser.ParseExpr(text)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", text, err)
	}
	c := &converter{imports: imports}
	s, err := c.expr(x)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", text, err)
	}
	return s, nil
}

type converter struct {
	imports map[string]string
}

func (c *converter) exprs(xs []ast.Expr) ([]jen.Code, error) {
	out := make([]jen.Code, 0, len(xs))
	for _, x := range xs {
		s, err := c.expr(x)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// optional converts x, or returns an empty placeholder for a nil x.
func (c *converter) optional(x ast.Expr) (jen.Code, error) {
	if x == nil {
		return jen.Empty(), nil
	}
	return c.expr(x)
}

func (c *converter) expr(x ast.Expr) (*jen.Statement, error) {
	switch x := x.(type) {
	case *ast.Ident:
		return jen.Id(x.Name), nil
	case *ast.BasicLit:
		// Literals keep their source spelling.
		return jen.Id(x.Value), nil
	case *ast.SelectorExpr:
		if id, ok := x.X.(*ast.Ident); ok {
			if p, ok := c.imports[id.Name]; ok {
				return jen.Qual(p, x.Sel.Name), nil
			}
		}
		base, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		return base.Dot(x.Sel.Name), nil
	case *ast.ParenExpr:
		inner, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		return jen.Parens(inner), nil
	case *ast.StarExpr:
		inner, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(inner), nil
	case *ast.UnaryExpr:
		inner, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		return jen.Op(x.Op.String()).Add(inner), nil
	case *ast.BinaryExpr:
		l, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		r, err := c.expr(x.Y)
		if err != nil {
			return nil, err
		}
		return l.Op(x.Op.String()).Add(r), nil
	case *ast.CallExpr:
		fun, err := c.expr(x.Fun)
		if err != nil {
			return nil, err
		}
		args, err := c.exprs(x.Args)
		if err != nil {
			return nil, err
		}
		if x.Ellipsis.IsValid() && len(args) > 0 {
			args[len(args)-1] = jen.Add(args[len(args)-1]).Op("...")
		}
		return fun.Call(args...), nil
	case *ast.IndexExpr:
		base, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		ix, err := c.expr(x.Index)
		if err != nil {
			return nil, err
		}
		return base.Index(ix), nil
	case *ast.IndexListExpr:
		base, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		ixs, err := c.exprs(x.Indices)
		if err != nil {
			return nil, err
		}
		return base.Types(ixs...), nil
	case *ast.SliceExpr:
		base, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		parts := make([]jen.Code, 0, 3)
		bounds := []ast.Expr{x.Low, x.High}
		if x.Slice3 {
			bounds = append(bounds, x.Max)
		}
		for _, b := range bounds {
			p, err := c.optional(b)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return base.Index(parts...), nil
	case *ast.TypeAssertExpr:
		base, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}
		t, err := c.expr(x.Type)
		if err != nil {
			return nil, err
		}
		return base.Assert(t), nil
	case *ast.CompositeLit:
		return c.composite(x)
	case *ast.ArrayType:
		n, err := c.optional(x.Len)
		if err != nil {
			return nil, err
		}
		e, err := c.expr(x.Elt)
		if err != nil {
			return nil, err
		}
		if x.Len == nil {
			return jen.Index().Add(e), nil
		}
		return jen.Index(n).Add(e), nil
	case *ast.MapType:
		k, err := c.expr(x.Key)
		if err != nil {
			return nil, err
		}
		v, err := c.expr(x.Value)
		if err != nil {
			return nil, err
		}
		return jen.Map(k).Add(v), nil
	case *ast.ChanType:
		e, err := c.expr(x.Value)
		if err != nil {
			return nil, err
		}
		switch x.Dir {
		case ast.SEND:
			return jen.Chan().Op("<-").Add(e), nil
		case ast.RECV:
			return jen.Op("<-").Chan().Add(e), nil
		}
		return jen.Chan().Add(e), nil
	case *ast.Ellipsis:
		// array length of [...]T
		return jen.Op("..."), nil
	case *ast.InterfaceType:
		if x.Methods != nil && len(x.Methods.List) > 0 {
			return nil, fmt.Errorf("unsupported interface literal %s", types.ExprString(x))
		}
		return jen.Interface(), nil
	case *ast.FuncLit:
		return nil, fmt.Errorf("function literals are not supported; declare a named function and refer to it")
	default:
		return nil, fmt.Errorf("unsupported construct %s", types.ExprString(x))
	}
}

func (c *converter) composite(x *ast.CompositeLit) (*jen.Statement, error) {
	s := &jen.Statement{}
	if x.Type != nil {
		t, err := c.expr(x.Type)
		if err != nil {
			return nil, err
		}
		s = t
	}
	elems := make([]jen.Code, 0, len(x.Elts))
	for _, e := range x.Elts {
		if kv, ok := e.(*ast.KeyValueExpr); ok {
			k, err := c.expr(kv.Key)
			if err != nil {
				return nil, err
			}
			v, err := c.expr(kv.Value)
			if err != nil {
				return nil, err
			}
			elems = append(elems, k.Op(":").Add(v))
			continue
		}
		v, err := c.expr(e)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return s.Values(elems...), nil
}
