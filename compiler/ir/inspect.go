package ir

// Inspect traverses the declarations, statements and expressions of f in
// depth-first order, calling fn for each node. Children of a node are
// skipped when fn returns false.
func Inspect(f *File, fn func(node any) bool) {
	for _, d := range f.Decls {
		inspectDecl(d, fn)
	}
}

func inspectDecl(d Decl, fn func(any) bool) {
	if !fn(d) {
		return
	}
	if fd, ok := d.(*FuncDecl); ok {
		inspectStmts(fd.Body, fn)
	}
}

func inspectStmts(ss []Stmt, fn func(any) bool) {
	for _, s := range ss {
		inspectStmt(s, fn)
	}
}

func inspectStmt(s Stmt, fn func(any) bool) {
	if s == nil || !fn(s) {
		return
	}
	switch s := s.(type) {
	case *Assign:
		inspectExpr(s.Target, fn)
		inspectExpr(s.Value, fn)
	case *Define:
		inspectExprs(s.Values, fn)
	case *Return:
		inspectExprs(s.Values, fn)
	case *If:
		inspectStmt(s.Init, fn)
		inspectExpr(s.Cond, fn)
		inspectStmts(s.Then, fn)
	case *ExprStmt:
		inspectExpr(s.X, fn)
	}
}

func inspectExprs(xs []Expr, fn func(any) bool) {
	for _, x := range xs {
		inspectExpr(x, fn)
	}
}

func inspectExpr(x Expr, fn func(any) bool) {
	if x == nil || !fn(x) {
		return
	}
	switch x := x.(type) {
	case *Selector:
		inspectExpr(x.X, fn)
	case *Index:
		inspectExpr(x.X, fn)
		inspectExpr(x.Index, fn)
	case *Call:
		inspectExpr(x.Fun, fn)
		inspectExprs(x.Args, fn)
	case *Unary:
		inspectExpr(x.X, fn)
	case *Binary:
		inspectExpr(x.X, fn)
		inspectExpr(x.Y, fn)
	case *Composite:
		for _, kv := range x.Elems {
			inspectExpr(kv.Value, fn)
		}
	}
}

// Interfaces returns the contract types declared in f, in order.
func (f *File) Interfaces() []*InterfaceDecl {
	var out []*InterfaceDecl
	for _, d := range f.Decls {
		if it, ok := d.(*InterfaceDecl); ok {
			out = append(out, it)
		}
	}
	return out
}

// Funcs returns the operations declared in f, in order.
func (f *File) Funcs() []*FuncDecl {
	var out []*FuncDecl
	for _, d := range f.Decls {
		if fd, ok := d.(*FuncDecl); ok {
			out = append(out, fd)
		}
	}
	return out
}

// Lookup returns the declaration named name, if any. Methods are not
// top-level names and are never returned.
func (f *File) Lookup(name string) Decl {
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *InterfaceDecl:
			if d.Name == name {
				return d
			}
		case *StructDecl:
			if d.Name == name {
				return d
			}
		case *FuncDecl:
			if d.Recv == nil && d.Name == name {
				return d
			}
		}
	}
	return nil
}
