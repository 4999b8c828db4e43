package schema

import "fmt"

// Requiredness classifies how a field participates in staged construction.
type Requiredness string

const (
	// Mandatory fields get one stage each and must be set before Build.
	Mandatory Requiredness = "mandatory"
	// Optional fields are set on the final stage and fall back to a default.
	Optional Requiredness = "optional"
	// Collection fields are accumulated element by element on the final stage.
	Collection Requiredness = "collection"
)

// ParseRequiredness parses a requiredness tag. The empty string is Mandatory.
func ParseRequiredness(s string) (Requiredness, error) {
	switch r := Requiredness(s); r {
	case "":
		return Mandatory, nil
	case Mandatory, Optional, Collection:
		return r, nil
	default:
		return "", fmt.Errorf("unknown requiredness %q (want mandatory, optional or collection)", s)
	}
}

// OrDefault returns r, or Mandatory when r is empty.
func (r Requiredness) OrDefault() Requiredness {
	if r == "" {
		return Mandatory
	}
	return r
}

// String implements fmt.Stringer.
func (r Requiredness) String() string { return string(r.OrDefault()) }
