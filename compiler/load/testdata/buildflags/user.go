package buildflags

// User is always loaded.
//
//stagegen:builder
type User struct {
	Name string
}
