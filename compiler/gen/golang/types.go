package golang

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/stagegen/schema"
)

// Type converts a type reference to jen code. Named types are emitted with
// Qual so the file's import block is derived from the types it uses.
func Type(t *schema.TypeRef) (*jen.Statement, error) {
	if t == nil {
		return nil, fmt.Errorf("missing type")
	}
	s := &jen.Statement{}
	if t.Tilde {
		s.Op("~")
	}
	switch t.Kind {
	case schema.KindBasic, schema.KindTypeParam:
		return s.Id(t.Name), nil
	case schema.KindNamed:
		if t.PkgPath == "" {
			s.Id(t.Name)
		} else {
			s.Qual(t.PkgPath, t.Name)
		}
		if len(t.Args) > 0 {
			args, err := typeList(t.Args)
			if err != nil {
				return nil, err
			}
			s.Types(args...)
		}
		return s, nil
	case schema.KindPointer:
		return elem(s.Op("*"), t.Elem)
	case schema.KindSlice:
		return elem(s.Index(), t.Elem)
	case schema.KindArray:
		return elem(s.Index(jen.Id(t.Len)), t.Elem)
	case schema.KindMap:
		k, err := Type(t.Key)
		if err != nil {
			return nil, err
		}
		return elem(s.Map(k), t.Elem)
	case schema.KindChan:
		switch t.Dir {
		case schema.ChanSend:
			s.Chan().Op("<-")
		case schema.ChanRecv:
			s.Op("<-").Chan()
		default:
			s.Chan()
		}
		return elem(s, t.Elem)
	case schema.KindFunc:
		return funcType(s, t)
	case schema.KindInterface:
		if t.Methods > 0 {
			return nil, fmt.Errorf("interface literal with methods cannot be rendered")
		}
		terms, err := typeList(t.Terms)
		if err != nil {
			return nil, err
		}
		return s.Interface(terms...), nil
	case schema.KindUnion:
		terms, err := typeList(t.Terms)
		if err != nil {
			return nil, err
		}
		return s.Union(terms...), nil
	default:
		return nil, fmt.Errorf("cannot render %s type %s", t.Kind, t)
	}
}

func elem(s *jen.Statement, e *schema.TypeRef) (*jen.Statement, error) {
	c, err := Type(e)
	if err != nil {
		return nil, err
	}
	return s.Add(c), nil
}

func funcType(s *jen.Statement, t *schema.TypeRef) (*jen.Statement, error) {
	params := make([]jen.Code, 0, len(t.Params))
	for i, p := range t.Params {
		if t.Variadic && i == len(t.Params)-1 {
			c, err := Type(p.Elem)
			if err != nil {
				return nil, err
			}
			params = append(params, jen.Op("...").Add(c))
			continue
		}
		c, err := Type(p)
		if err != nil {
			return nil, err
		}
		params = append(params, c)
	}
	s.Func().Params(params...)
	results, err := typeList(t.Results)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
	case 1:
		s.Add(results[0])
	default:
		s.Params(results...)
	}
	return s, nil
}

func typeList(ts []*schema.TypeRef) ([]jen.Code, error) {
	out := make([]jen.Code, 0, len(ts))
	for _, t := range ts {
		c, err := Type(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
