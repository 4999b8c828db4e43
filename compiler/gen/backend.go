package gen

import (
	"github.com/syssam/stagegen/compiler/gen/golang"
	"github.com/syssam/stagegen/compiler/ir"
)

// Backend renders a synthesized IR file into source text in a target
// language. Implementations must be safe for concurrent use; one Backend
// renders every unit of a round.
type Backend interface {
	// Name identifies the back end in logs and diagnostics.
	Name() string
	// Render returns the formatted source of f.
	Render(f *ir.File) ([]byte, error)
}

var defaultBackend Backend = golang.New()
