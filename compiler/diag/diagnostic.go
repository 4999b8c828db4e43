package diag

import (
	"errors"
	"strings"

	"github.com/syssam/stagegen/schema"
)

// Note is secondary information attached to a diagnostic.
type Note struct {
	Pos schema.Position `json:"pos"`
	Msg string          `json:"message"`
}

// Diagnostic is a single reported failure.
type Diagnostic struct {
	Severity Severity        `json:"severity"`
	Code     Code            `json:"code"`
	Target   string          `json:"target"`
	Message  string          `json:"message"`
	Primary  schema.Position `json:"pos"`
	Notes    []Note          `json:"notes,omitempty"`
}

// String renders the diagnostic on one line without notes.
func (d Diagnostic) String() string {
	return d.Primary.String() + ": " + d.Severity.String() + "[" + string(d.Code) + "]: " + d.Message
}

// WithNote returns a copy of d with a note appended.
func (d Diagnostic) WithNote(pos schema.Position, msg string) Diagnostic {
	d.Notes = append(append([]Note(nil), d.Notes...), Note{Pos: pos, Msg: msg})
	return d
}

type (
	coded interface {
		Code() Code
	}
	positioned interface {
		Position() schema.Position
	}
	related interface {
		Related() []Note
	}
)

// FromError converts err into an error diagnostic for target. Codes,
// positions and notes are taken from err when it provides them; otherwise the
// diagnostic is placed at fallback. FromError never fails and never returns
// a diagnostic without a message.
func FromError(target string, fallback schema.Position, err error) Diagnostic {
	d := Diagnostic{
		Severity: SevError,
		Code:     UnknownCode,
		Target:   target,
		Primary:  fallback,
		Message:  "unknown error",
	}
	if err == nil {
		return d
	}
	if msg := strings.TrimPrefix(err.Error(), "stagegen: "); msg != "" {
		d.Message = msg
	}
	var c coded
	if errors.As(err, &c) {
		d.Code = c.Code()
	}
	var p positioned
	if errors.As(err, &p) && p.Position().IsValid() {
		d.Primary = p.Position()
	}
	var r related
	if errors.As(err, &r) {
		d.Notes = append(d.Notes, r.Related()...)
	}
	return d
}
