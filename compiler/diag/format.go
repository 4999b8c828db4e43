package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

// PrettyOpts configures Pretty.
type PrettyOpts struct {
	// Color enables ANSI colouring.
	Color bool
	// Base makes absolute file names relative to it.
	Base string
	// Max limits the number of printed diagnostics; zero means no limit.
	Max int
}

// Pretty writes diagnostics in the familiar compiler layout:
//
//	<file>:<line>:<col>: error[<code>]: <message>
//	    <file>:<line>:<col>: note: <note>
//
// followed by a summary line.
func Pretty(w io.Writer, ds []Diagnostic, opts PrettyOpts) error {
	var (
		sev  = color.New(color.FgRed, color.Bold)
		note = color.New(color.FgCyan)
		loc  = color.New(color.Bold)
	)
	for _, c := range []*color.Color{sev, note, loc} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	shown := ds
	if opts.Max > 0 && len(shown) > opts.Max {
		shown = shown[:opts.Max]
	}
	for _, d := range shown {
		label := fmt.Sprintf("%s[%s]:", d.Severity, d.Code)
		if _, err := fmt.Fprintf(w, "%s %s %s\n", loc.Sprint(d.Primary.Rel(opts.Base).String()+":"), sev.Sprint(label), d.Message); err != nil {
			return err
		}
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "    %s %s %s\n", loc.Sprint(n.Pos.Rel(opts.Base).String()+":"), note.Sprint("note:"), n.Msg); err != nil {
				return err
			}
		}
	}
	if hidden := len(ds) - len(shown); hidden > 0 {
		if _, err := fmt.Fprintf(w, "... and %d more\n", hidden); err != nil {
			return err
		}
	}
	if len(ds) > 0 {
		_, err := fmt.Fprintf(w, "%d %s\n", len(ds), plural(len(ds), "error", "errors"))
		return err
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Output is the document written by JSON.
type Output struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Count       int          `json:"count"`
}

// JSON writes diagnostics as a JSON document.
func JSON(w io.Writer, ds []Diagnostic) error {
	if ds == nil {
		ds = []Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Output{Diagnostics: ds, Count: len(ds)})
}
