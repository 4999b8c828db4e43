package stale

// Person lost a field since its builder was generated.
//
//stagegen:builder
type Person struct {
	Name string
}
