package failure

//stagegen:builder
type Broken struct {
	Name string
