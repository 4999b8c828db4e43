package gen

import (
	"fmt"
	"go/token"
	"go/types"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
)

// =============================================================================
// Naming helpers
// =============================================================================

// titleCase capitalizes the first letter of a string.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}

// pascal converts a field name to the form used inside operation names.
// Leading underscores are dropped: "_id" becomes "Id".
func pascal(s string) string {
	return titleCase(strings.TrimLeft(s, "_"))
}

// lowerFirst lower-cases the leading word of s, treating a run of capitals as
// an initialism: "Name" -> "name", "URL" -> "url", "HTTPServer" -> "httpServer".
func lowerFirst(s string) string {
	rs := []rune(s)
	i := 0
	for i < len(rs) && unicode.IsUpper(rs[i]) {
		i++
	}
	if i > 1 && string(rs[i:]) == "s" {
		// plural initialism: "IDs" -> "ids"
		i = len(rs)
	}
	switch {
	case i == 0:
		return s
	case i == 1 || i == len(rs):
		// single capital, or the whole word is an initialism
	default:
		// keep the capital that starts the next word
		i--
	}
	for j := 0; j < i; j++ {
		rs[j] = unicode.ToLower(rs[j])
	}
	return string(rs)
}

// snake converts a type name to a file name stem: "HTTPServer" -> "http_server".
func snake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) && i > 0 {
			prevLower := unicode.IsLower(rs[i-1]) || unicode.IsDigit(rs[i-1])
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if (prevLower || nextLower) && rs[i-1] != '_' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// singular returns the element name of a collection field.
func singular(s string) string {
	if sg := inflect.Singularize(s); sg != "" {
		return sg
	}
	return s
}

// privateNames are identifiers used by generated operation bodies.
var privateNames = names("b", "v", "err")

func isPrivate(name string) bool {
	_, ok := privateNames[name]
	return ok
}

func names(ids ...string) map[string]struct{} {
	m := make(map[string]struct{})
	for i := range ids {
		m[ids[i]] = struct{}{}
	}
	return m
}

// paramName returns the parameter name for a setter of name and ensures it
// doesn't conflict with Go keywords, predeclared identifiers and the locals of
// generated bodies.
func paramName(name string) string {
	p := lowerFirst(strings.TrimLeft(name, "_"))
	if p == "" {
		p = "value"
	}
	if isPrivate(p) || token.Lookup(p).IsKeyword() || types.Universe.Lookup(p) != nil {
		return "_" + p
	}
	return p
}

// exported reports whether an identifier starts with an upper-case letter.
func exported(s string) bool {
	return token.IsExported(s)
}

// runtimeName returns the package name of a runtime import path.
func runtimeName(p string) string {
	return path.Base(p)
}

// =============================================================================
// Generated names
// =============================================================================

// StageName returns the contract type name of the i-th stage, 1-based.
func (t *BuildTarget) StageName(i int) string {
	return fmt.Sprintf("%sStage%d", t.Name, i)
}

// FinalStageName returns the contract type name of the terminal stage.
func (t *BuildTarget) FinalStageName() string {
	return t.Name + "FinalStage"
}

// BuilderName returns the name of the unexported implementation type.
func (t *BuildTarget) BuilderName() string {
	return lowerFirst(t.Name) + "Builder"
}

// FactoryName returns the name of the entry point. It is exported exactly
// when the target type is.
func (t *BuildTarget) FactoryName() string {
	if exported(t.Name) {
		return "New" + t.Name + "Builder"
	}
	return "new" + titleCase(t.Name) + "Builder"
}

// FileName returns the name of the generated source file.
func (t *BuildTarget) FileName(suffix string) string {
	return snake(t.Name) + suffix
}

// GeneratedNames returns every package-level name generated for t.
func (t *BuildTarget) GeneratedNames() []string {
	var ns []string
	for i := range t.Mandatory() {
		ns = append(ns, t.StageName(i+1))
	}
	return append(ns, t.FinalStageName(), t.BuilderName(), t.FactoryName())
}

// Operation returns the name of the operation that supplies f: SetX for
// mandatory and optional fields, AddX with X singular for collections.
func (f *Field) Operation() string {
	if f.IsCollection() {
		return "Add" + pascal(singular(f.Name))
	}
	return "Set" + pascal(f.Name)
}

// Param returns the parameter name used by f's operation.
func (f *Field) Param() string {
	if f.IsCollection() {
		return paramName(singular(f.Name))
	}
	return paramName(f.Name)
}
