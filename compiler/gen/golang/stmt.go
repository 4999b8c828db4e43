package golang

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/stagegen/compiler/ir"
)

func stmts(ss []ir.Stmt) ([]jen.Code, error) {
	out := make([]jen.Code, 0, len(ss))
	for _, s := range ss {
		c, err := stmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func stmt(s ir.Stmt) (*jen.Statement, error) {
	switch s := s.(type) {
	case *ir.Assign:
		t, err := Expr(s.Target)
		if err != nil {
			return nil, err
		}
		v, err := Expr(s.Value)
		if err != nil {
			return nil, err
		}
		return t.Op("=").Add(v), nil
	case *ir.Define:
		names := make([]jen.Code, 0, len(s.Names))
		for _, n := range s.Names {
			names = append(names, jen.Id(n))
		}
		vs, err := exprs(s.Values)
		if err != nil {
			return nil, err
		}
		return jen.List(names...).Op(":=").List(vs...), nil
	case *ir.Return:
		vs, err := exprs(s.Values)
		if err != nil {
			return nil, err
		}
		return jen.Return(vs...), nil
	case *ir.If:
		var conds []jen.Code
		if s.Init != nil {
			init, err := stmt(s.Init)
			if err != nil {
				return nil, err
			}
			conds = append(conds, init)
		}
		cond, err := Expr(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := stmts(s.Then)
		if err != nil {
			return nil, err
		}
		return jen.If(append(conds, cond)...).Block(then...), nil
	case *ir.ExprStmt:
		return Expr(s.X)
	default:
		return nil, fmt.Errorf("unsupported statement %T", s)
	}
}

func exprs(xs []ir.Expr) ([]jen.Code, error) {
	out := make([]jen.Code, 0, len(xs))
	for _, x := range xs {
		c, err := Expr(x)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Expr converts an IR expression to jen code.
func Expr(x ir.Expr) (*jen.Statement, error) {
	switch x := x.(type) {
	case *ir.Ident:
		return jen.Id(x.Name), nil
	case *ir.Selector:
		base, err := Expr(x.X)
		if err != nil {
			return nil, err
		}
		return base.Dot(x.Name), nil
	case *ir.Index:
		base, err := Expr(x.X)
		if err != nil {
			return nil, err
		}
		ix, err := Expr(x.Index)
		if err != nil {
			return nil, err
		}
		return base.Index(ix), nil
	case *ir.Call:
		args, err := exprs(x.Args)
		if err != nil {
			return nil, err
		}
		if x.Ellipsis && len(args) > 0 {
			args[len(args)-1] = jen.Add(args[len(args)-1]).Op("...")
		}
		if b, ok := x.Fun.(*ir.Builtin); ok {
			return builtin(b.Name, args)
		}
		fun, err := Expr(x.Fun)
		if err != nil {
			return nil, err
		}
		return fun.Call(args...), nil
	case *ir.Builtin:
		return jen.Id(x.Name), nil
	case *ir.Lit:
		return jen.Lit(x.Value), nil
	case *ir.Nil:
		return jen.Nil(), nil
	case *ir.Unary:
		v, err := Expr(x.X)
		if err != nil {
			return nil, err
		}
		return jen.Op(x.Op).Add(v), nil
	case *ir.Binary:
		l, err := Expr(x.X)
		if err != nil {
			return nil, err
		}
		r, err := Expr(x.Y)
		if err != nil {
			return nil, err
		}
		return l.Op(x.Op).Add(r), nil
	case *ir.Composite:
		t, err := Type(x.Type)
		if err != nil {
			return nil, err
		}
		elems := make([]jen.Code, 0, len(x.Elems))
		for _, kv := range x.Elems {
			v, err := Expr(kv.Value)
			if err != nil {
				return nil, err
			}
			elems = append(elems, jen.Id(kv.Key).Op(":").Add(v))
		}
		return t.Values(elems...), nil
	case *ir.TypeExpr:
		return Type(x.Type)
	case *ir.Source:
		return Source(x.Text, x.Imports)
	default:
		return nil, fmt.Errorf("unsupported expression %T", x)
	}
}

var builtinArity = map[string]int{"copy": 2, "len": 1, "panic": 1}

func builtin(name string, args []jen.Code) (*jen.Statement, error) {
	if n, ok := builtinArity[name]; ok && len(args) != n {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", name, n, len(args))
	}
	switch name {
	case "append":
		return jen.Append(args...), nil
	case "make":
		return jen.Make(args...), nil
	case "copy":
		return jen.Copy(args[0], args[1]), nil
	case "len":
		return jen.Len(args[0]), nil
	case "panic":
		return jen.Panic(args[0]), nil
	default:
		return nil, fmt.Errorf("unknown builtin %q", name)
	}
}
