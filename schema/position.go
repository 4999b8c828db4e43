package schema

import (
	"fmt"
	"path/filepath"
)

// Position describes a location in a source file.
// The zero value is an unknown position.
type Position struct {
	Filename string `json:"file,omitempty" yaml:"file,omitempty" msgpack:"file,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line,omitempty"`
	Column   int    `json:"column,omitempty" yaml:"column,omitempty" msgpack:"column,omitempty"`
	Offset   int    `json:"offset,omitempty" yaml:"offset,omitempty" msgpack:"offset,omitempty"`
}

// IsValid reports whether the position carries a line number.
func (p Position) IsValid() bool { return p.Line > 0 }

// String renders the position as file:line:column, omitting unknown parts.
func (p Position) String() string {
	s := p.Filename
	if p.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d", p.Line)
		if p.Column > 0 {
			s += fmt.Sprintf(":%d", p.Column)
		}
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Rel returns a copy of p with the filename made relative to base when possible.
func (p Position) Rel(base string) Position {
	if p.Filename == "" || base == "" || !filepath.IsAbs(p.Filename) {
		return p
	}
	if rel, err := filepath.Rel(base, p.Filename); err == nil {
		p.Filename = rel
	}
	return p
}

// Less orders positions by file, then line, then column.
func (p Position) Less(q Position) bool {
	if p.Filename != q.Filename {
		return p.Filename < q.Filename
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}
