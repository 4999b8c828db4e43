// Package stagegen is the runtime support package of generated staged
// builders.
//
// Generated code imports it for ValidationHookError, which Build returns when
// a field's validation hook rejects a value:
//
//	p, err := model.NewPersonBuilder().
//	    SetName("Ada").
//	    SetAge(-1).
//	    Build()
//	if stagegen.IsValidationHookError(err) {
//	    // p is nil
//	}
//
// The generator itself lives in compiler/gen and the command in
// cmd/stagegen.
package stagegen
