package load

import (
	"fmt"
	"strings"

	"github.com/syssam/stagegen/schema"
)

// TagKey is the struct tag key read from target fields.
const TagKey = "stage"

// Tag is a parsed stage struct tag.
//
// The tag grammar is
//
//	<requiredness>[,validate=<hook>][,default=<expr>]
//
// where default must come last and consumes the remainder of the tag, so the
// expression may contain commas. A tag of "-" excludes the field.
type Tag struct {
	Skip         bool
	Requiredness schema.Requiredness
	Validate     string
	Default      string
}

// ParseTag parses the value of a stage struct tag.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if s == "-" {
		return Tag{Skip: true}, nil
	}
	kind, rest, _ := strings.Cut(s, ",")
	r, err := schema.ParseRequiredness(strings.TrimSpace(kind))
	if err != nil {
		return Tag{}, err
	}
	tag := Tag{Requiredness: r}
	for rest != "" {
		rest = strings.TrimLeft(rest, " \t")
		if expr, ok := strings.CutPrefix(rest, "default="); ok {
			if strings.TrimSpace(expr) == "" {
				return Tag{}, fmt.Errorf("empty default expression")
			}
			tag.Default = expr
			break
		}
		var opt string
		opt, rest, _ = strings.Cut(rest, ",")
		key, val, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "validate":
			if val == "" {
				return Tag{}, fmt.Errorf("empty validate hook")
			}
			if tag.Validate != "" {
				return Tag{}, fmt.Errorf("validate given twice")
			}
			tag.Validate = val
		case "":
		default:
			return Tag{}, fmt.Errorf("unknown option %q", key)
		}
	}
	return tag, nil
}

// Resolve returns the field's requiredness, default and hook, reading them
// from the stage tag when one is present.
func (f *Field) Resolve() (Tag, error) {
	if f.Tag == "" {
		r, err := schema.ParseRequiredness(string(f.Requiredness))
		if err != nil {
			return Tag{}, err
		}
		return Tag{Requiredness: r, Default: f.Default, Validate: f.Validate}, nil
	}
	tag, err := ParseTag(f.Tag)
	if err != nil {
		return Tag{}, fmt.Errorf("invalid %s tag %q: %w", TagKey, f.Tag, err)
	}
	return tag, nil
}
