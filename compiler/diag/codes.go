package diag

// Code classifies a diagnostic.
type Code string

// Diagnostic codes.
const (
	UnknownCode Code = "unknown"

	SchemaEmptyTarget      Code = "schema/empty-target"
	SchemaInvalidDefault   Code = "schema/invalid-default"
	SchemaMissingDefault   Code = "schema/missing-default"
	SchemaInvalidHook      Code = "schema/invalid-hook"
	SchemaInvalidName      Code = "schema/invalid-name"
	SchemaInvalidPlacement Code = "schema/invalid-placement"
	SchemaInvalidTag       Code = "schema/invalid-tag"

	NamingConflict Code = "naming/conflict"

	TypeUnsupported Code = "type/unsupported"

	GenerateFailed Code = "generate/failed"
)

var codeTitles = map[Code]string{
	UnknownCode:            "unclassified failure",
	SchemaEmptyTarget:      "build target declares no fields",
	SchemaInvalidDefault:   "default expression not allowed or malformed",
	SchemaMissingDefault:   "optional field requires a default",
	SchemaInvalidHook:      "malformed validation hook reference",
	SchemaInvalidName:      "name is not a valid identifier",
	SchemaInvalidPlacement: "directive must annotate a struct type or a constructor",
	SchemaInvalidTag:       "malformed stage tag",
	NamingConflict:         "duplicate or colliding name",
	TypeUnsupported:        "type cannot be threaded through stages",
	GenerateFailed:         "rendering generated code failed",
}

// Title returns a short description of the code.
func (c Code) Title() string {
	if t, ok := codeTitles[c]; ok {
		return t
	}
	return codeTitles[UnknownCode]
}
