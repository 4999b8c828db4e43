package diag

import (
	"slices"
	"sync"
)

// Reporter receives diagnostics.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

// Report implements Reporter.
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Sink collects diagnostics from concurrent units. A diagnostic is appended
// as a whole under the lock, so fields of different diagnostics never mix.
type Sink struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewSink returns an empty sink.
func NewSink() *Sink { return &Sink{} }

// Report implements Reporter.
func (s *Sink) Report(d Diagnostic) {
	s.mu.Lock()
	s.items = append(s.items, d)
	s.mu.Unlock()
}

// Len returns the number of collected diagnostics.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// HasErrors reports whether any error diagnostic was collected.
func (s *Sink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

// Items returns a sorted copy of the collected diagnostics.
func (s *Sink) Items() []Diagnostic {
	s.mu.Lock()
	items := slices.Clone(s.items)
	s.mu.Unlock()
	Sort(items)
	return items
}

// Sort orders diagnostics by file, line, column, code, then target, so that
// output does not depend on unit scheduling.
func Sort(ds []Diagnostic) {
	slices.SortStableFunc(ds, func(a, b Diagnostic) int {
		switch {
		case a.Primary.Less(b.Primary):
			return -1
		case b.Primary.Less(a.Primary):
			return 1
		case a.Code != b.Code:
			if a.Code < b.Code {
				return -1
			}
			return 1
		case a.Target < b.Target:
			return -1
		case a.Target > b.Target:
			return 1
		}
		return 0
	})
}
