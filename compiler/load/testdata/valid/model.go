package valid

import (
	"strings"
	tm "time"
)

// Person is a build target with every kind of field.
//
//stagegen:builder
type Person struct {
	Name     string
	Age      int      `stage:"mandatory,validate=checkAge"`
	Nickname string   `stage:"optional,default=strings.ToUpper(\"anon\")"`
	Tags     []string `stage:"collection"`
	Timeout  tm.Duration `stage:"optional,default=5 * tm.Second"`
	cache    map[string]int `stage:"-"`
}

func checkAge(age int) error { return nil }

func (p *Person) Shout() string { return strings.ToUpper(p.Name) }

// Box is generic.
//
//stagegen:builder
type Box[T any, K comparable] struct {
	Value T
	Keys  []K `stage:"collection"`
}

// Shape is not a struct.
//
//stagegen:builder
type Shape interface{ Area() float64 }

// Plain has no directive.
type Plain struct{ X int }
