package stagegen

import (
	"errors"
	"fmt"
)

// ErrValidationHook is matched by every ValidationHookError.
var ErrValidationHook = errors.New("stagegen: validation hook failed")

// ValidationHookError is returned by a generated Build operation when a
// field's validation hook rejects the value it was given. No instance is
// returned alongside it.
type ValidationHookError struct {
	Target string // Type being built
	Field  string // Field whose hook failed
	Err    error  // Error returned by the hook
}

// Error returns the error string.
func (e *ValidationHookError) Error() string {
	return fmt.Sprintf("stagegen: validation hook for field %s.%s failed: %v", e.Target, e.Field, e.Err)
}

// Unwrap returns the error returned by the hook.
func (e *ValidationHookError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrValidationHook.
func (e *ValidationHookError) Is(err error) bool {
	return err == ErrValidationHook
}

// NewValidationHookError returns a new ValidationHookError.
func NewValidationHookError(target, field string, err error) *ValidationHookError {
	return &ValidationHookError{Target: target, Field: field, Err: err}
}

// IsValidationHookError returns true if the error is a ValidationHookError.
func IsValidationHookError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationHookError
	return errors.As(err, &e)
}

// AsValidationHookError returns the ValidationHookError in err's chain.
func AsValidationHookError(err error) (*ValidationHookError, bool) {
	var e *ValidationHookError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
