package gen

import (
	"path/filepath"

	"github.com/syssam/stagegen/compiler/ir"
	"github.com/syssam/stagegen/schema"
)

// Artifact is the generated source unit for one target.
type Artifact struct {
	// Target is the qualified name of the target type.
	Target   string
	Dir      string
	Filename string
	// Names are the package-level names the artifact declares.
	Names  []string
	File   *ir.File
	Source []byte
	// Pos is the declaration of the target.
	Pos schema.Position
}

// Path returns the location the artifact is written to.
func (a *Artifact) Path() string {
	return filepath.Join(a.Dir, a.Filename)
}
