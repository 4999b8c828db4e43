package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevNote marks secondary information attached to another diagnostic.
	SevNote Severity = iota
	// SevError is the severity of every generator diagnostic.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevNote:
		return "note"
	case SevError:
		return "error"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
