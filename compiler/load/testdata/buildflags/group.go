//go:build !hidegroups

package buildflags

// Group is excluded by the hidegroups build tag.
//
//stagegen:builder
type Group struct {
	Name string
}
