// Package ir defines the language-neutral tree the synthesizer emits.
//
// A File is a list of declarations: contract types (InterfaceDecl), the
// implementation type (StructDecl) and operations (FuncDecl). Operation bodies
// are small statement and expression trees. Back ends render a File into
// concrete syntax; the tree itself never contains target-language text except
// inside Source expressions, which carry user-written snippets verbatim.
package ir

import "github.com/syssam/stagegen/schema"

// File is one generated source unit.
type File struct {
	Package string
	PkgPath string
	Header  string
	// PkgNames maps import paths to the package names they declare, for
	// paths whose last element is not the package name.
	PkgNames map[string]string
	Decls    []Decl
}

// Decl is a top-level declaration.
type Decl interface{ decl() }

// TypeParam is a type parameter with its constraint.
type TypeParam struct {
	Name       string
	Constraint *schema.TypeRef
}

// Param is a named parameter, result or struct field.
type Param struct {
	Name string
	Type *schema.TypeRef
}

// Method is an operation signature on a contract type.
type Method struct {
	Name    string
	Doc     string
	Params  []Param
	Results []*schema.TypeRef
}

// InterfaceDecl declares a contract type.
type InterfaceDecl struct {
	Name       string
	Doc        string
	TypeParams []TypeParam
	Methods    []Method
}

// StructDecl declares a record type.
type StructDecl struct {
	Name       string
	Doc        string
	TypeParams []TypeParam
	Fields     []Param
}

// FuncDecl declares an operation, optionally bound to a receiver.
type FuncDecl struct {
	Name       string
	Doc        string
	Recv       *Param
	TypeParams []TypeParam
	Params     []Param
	Results    []*schema.TypeRef
	Body       []Stmt
}

func (*InterfaceDecl) decl() {}
func (*StructDecl) decl()    {}
func (*FuncDecl) decl()      {}

// Stmt is a statement.
type Stmt interface{ stmt() }

type (
	// Assign stores Value into Target.
	Assign struct {
		Target Expr
		Value  Expr
	}

	// Define introduces local variables initialised from Values.
	Define struct {
		Names  []string
		Values []Expr
	}

	// Return leaves the operation with Values.
	Return struct {
		Values []Expr
	}

	// If runs Then when Cond holds. Init runs first and is scoped to the If.
	If struct {
		Init Stmt
		Cond Expr
		Then []Stmt
	}

	// ExprStmt evaluates X for its effect.
	ExprStmt struct {
		X Expr
	}
)

func (*Assign) stmt()   {}
func (*Define) stmt()   {}
func (*Return) stmt()   {}
func (*If) stmt()       {}
func (*ExprStmt) stmt() {}

// Expr is an expression.
type Expr interface{ expr() }

type (
	// Ident references a local name.
	Ident struct {
		Name string
	}

	// Selector selects Name from X.
	Selector struct {
		X    Expr
		Name string
	}

	// Index selects element Index of X.
	Index struct {
		X     Expr
		Index Expr
	}

	// Call invokes Fun. Builtin operations are Calls on a Builtin. Ellipsis
	// spreads the last argument into a variadic parameter.
	Call struct {
		Fun      Expr
		Args     []Expr
		Ellipsis bool
	}

	// Builtin names a language primitive: append, make, copy, len or panic.
	Builtin struct {
		Name string
	}

	// Lit is a literal string, bool or integer.
	Lit struct {
		Value any
	}

	// Nil is the absent value.
	Nil struct{}

	// Unary applies Op ("!", "&" or "*") to X.
	Unary struct {
		Op string
		X  Expr
	}

	// Binary combines X and Y with Op.
	Binary struct {
		X  Expr
		Op string
		Y  Expr
	}

	// Composite constructs a value of Type from keyed elements.
	Composite struct {
		Type  *schema.TypeRef
		Elems []KeyValue
	}

	// TypeExpr uses a type in expression position, e.g. as a make argument.
	TypeExpr struct {
		Type *schema.TypeRef
	}

	// Source is a user-written expression. Imports maps the package names the
	// snippet uses to their import paths.
	Source struct {
		Text    string
		Imports map[string]string
	}
)

// KeyValue is one element of a Composite.
type KeyValue struct {
	Key   string
	Value Expr
}

func (*Ident) expr()     {}
func (*Selector) expr()  {}
func (*Index) expr()     {}
func (*Call) expr()      {}
func (*Builtin) expr()   {}
func (*Lit) expr()       {}
func (*Nil) expr()       {}
func (*Unary) expr()     {}
func (*Binary) expr()    {}
func (*Composite) expr() {}
func (*TypeExpr) expr()  {}
func (*Source) expr()    {}

// Id returns an identifier expression.
func Id(name string) *Ident { return &Ident{Name: name} }

// Sel returns the selector chain x.names[0].names[1]...
func Sel(x Expr, names ...string) Expr {
	for _, n := range names {
		x = &Selector{X: x, Name: n}
	}
	return x
}

// CallOf returns a call of fun with args.
func CallOf(fun Expr, args ...Expr) *Call { return &Call{Fun: fun, Args: args} }

// BuiltinCall returns a call of the named builtin.
func BuiltinCall(name string, args ...Expr) *Call {
	return &Call{Fun: &Builtin{Name: name}, Args: args}
}
