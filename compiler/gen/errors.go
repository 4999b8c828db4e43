package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/stagegen/compiler/diag"
	"github.com/syssam/stagegen/schema"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates a malformed target or field declaration.
	ErrInvalidSchema = errors.New("stagegen: invalid schema")
	// ErrNamingConflict indicates a duplicate or colliding name.
	ErrNamingConflict = errors.New("stagegen: naming conflict")
	// ErrUnsupportedType indicates a type that cannot be threaded through stages.
	ErrUnsupportedType = errors.New("stagegen: unsupported type")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("stagegen: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("stagegen: code generation failed")
)

// SchemaErrorKind distinguishes the kinds of SchemaError.
type SchemaErrorKind uint8

// Schema error kinds.
const (
	EmptyTarget SchemaErrorKind = iota + 1
	InvalidDefault
	MissingDefault
	InvalidHook
	InvalidName
	InvalidPlacement
	InvalidTag
)

var schemaKinds = map[SchemaErrorKind]struct {
	name string
	code diag.Code
}{
	EmptyTarget:      {"EmptyTarget", diag.SchemaEmptyTarget},
	InvalidDefault:   {"InvalidDefault", diag.SchemaInvalidDefault},
	MissingDefault:   {"MissingDefault", diag.SchemaMissingDefault},
	InvalidHook:      {"InvalidHook", diag.SchemaInvalidHook},
	InvalidName:      {"InvalidName", diag.SchemaInvalidName},
	InvalidPlacement: {"InvalidPlacement", diag.SchemaInvalidPlacement},
	InvalidTag:       {"InvalidTag", diag.SchemaInvalidTag},
}

func (k SchemaErrorKind) String() string {
	if s, ok := schemaKinds[k]; ok {
		return s.name
	}
	return fmt.Sprintf("SchemaErrorKind(%d)", k)
}

// SchemaError represents a malformed target or field declaration.
type SchemaError struct {
	Kind    SchemaErrorKind
	Type    string // Target type name
	Field   string // Field name (if applicable)
	Message string
	Pos     schema.Position
	Cause   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("stagegen: schema error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// Code returns the diagnostic code of the error kind.
func (e *SchemaError) Code() diag.Code {
	if s, ok := schemaKinds[e.Kind]; ok {
		return s.code
	}
	return diag.UnknownCode
}

// Position returns the offending declaration.
func (e *SchemaError) Position() schema.Position { return e.Pos }

// NewSchemaError creates a new SchemaError.
func NewSchemaError(kind SchemaErrorKind, typeName, fieldName string, pos schema.Position, message string, cause error) *SchemaError {
	return &SchemaError{
		Kind:    kind,
		Type:    typeName,
		Field:   fieldName,
		Message: message,
		Pos:     pos,
		Cause:   cause,
	}
}

// NamingConflictError reports two declarations, or a declaration and a
// generated name, that claim the same identifier.
type NamingConflictError struct {
	Type string
	// Name is the conflicting identifier.
	Name    string
	Message string
	// Pos is the later declaration, Prev the one it collides with.
	Pos  schema.Position
	Prev schema.Position
}

// Error implements the error interface.
func (e *NamingConflictError) Error() string {
	var b strings.Builder
	b.WriteString("stagegen: naming conflict")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else {
		fmt.Fprintf(&b, ": %q redeclared", e.Name)
	}
	if e.Prev.IsValid() {
		fmt.Fprintf(&b, " (previous declaration at %s)", e.Prev)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for NamingConflictError.
func (e *NamingConflictError) Is(target error) bool {
	return target == ErrNamingConflict
}

// Code implements the diagnostic code accessor.
func (e *NamingConflictError) Code() diag.Code { return diag.NamingConflict }

// Position returns the later of the two declarations.
func (e *NamingConflictError) Position() schema.Position { return e.Pos }

// Related points at the earlier declaration.
func (e *NamingConflictError) Related() []diag.Note {
	if !e.Prev.IsValid() {
		return nil
	}
	return []diag.Note{{Pos: e.Prev, Msg: fmt.Sprintf("%q previously declared here", e.Name)}}
}

// Positions returns both declaration sites, later first.
func (e *NamingConflictError) Positions() []schema.Position {
	return []schema.Position{e.Pos, e.Prev}
}

// NewNamingConflictError creates a new NamingConflictError.
func NewNamingConflictError(typeName, name string, pos, prev schema.Position, message string) *NamingConflictError {
	return &NamingConflictError{
		Type:    typeName,
		Name:    name,
		Message: message,
		Pos:     pos,
		Prev:    prev,
	}
}

// UnsupportedTypeError reports a declared type or type parameter that
// generated stages cannot express.
type UnsupportedTypeError struct {
	Type     string
	Field    string // Field or type parameter name
	TypeExpr string
	Message  string
	Pos      schema.Position
	Cause    error
}

// Error implements the error interface.
func (e *UnsupportedTypeError) Error() string {
	var b strings.Builder
	b.WriteString("stagegen: unsupported type")
	if e.TypeExpr != "" {
		fmt.Fprintf(&b, " %q", e.TypeExpr)
	}
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *UnsupportedTypeError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for UnsupportedTypeError.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// Code implements the diagnostic code accessor.
func (e *UnsupportedTypeError) Code() diag.Code { return diag.TypeUnsupported }

// Position returns the declaration using the type.
func (e *UnsupportedTypeError) Position() schema.Position { return e.Pos }

// NewUnsupportedTypeError creates a new UnsupportedTypeError.
func NewUnsupportedTypeError(typeName, field, typeExpr string, pos schema.Position, message string, cause error) *UnsupportedTypeError {
	return &UnsupportedTypeError{
		Type:     typeName,
		Field:    field,
		TypeExpr: typeExpr,
		Message:  message,
		Pos:      pos,
		Cause:    cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("stagegen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("stagegen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a failure to render or write generated code.
type GenerationError struct {
	Phase   string // "synthesize", "render" or "write"
	Type    string
	File    string
	Message string
	Pos     schema.Position
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("stagegen: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.Type != "" {
		b.WriteString(" for type ")
		b.WriteString(e.Type)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// Code implements the diagnostic code accessor.
func (e *GenerationError) Code() diag.Code { return diag.GenerateFailed }

// Position returns the target declaration.
func (e *GenerationError) Position() schema.Position { return e.Pos }

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsNamingConflictError reports whether the error is a NamingConflictError.
func IsNamingConflictError(err error) bool {
	var conflictErr *NamingConflictError
	return errors.As(err, &conflictErr)
}

// IsUnsupportedTypeError reports whether the error is an UnsupportedTypeError.
func IsUnsupportedTypeError(err error) bool {
	var typeErr *UnsupportedTypeError
	return errors.As(err, &typeErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
