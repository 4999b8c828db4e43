package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stagegen/compiler/load"
	"github.com/syssam/stagegen/schema"
)

func at(line int) schema.Position {
	return schema.Position{Filename: "person.go", Line: line, Column: 2}
}

// personTarget returns a valid descriptor exercising every requiredness.
func personTarget() *load.Target {
	return &load.Target{
		Name: "Person",
		Pkg:  load.PackageRef{Name: "model", Path: "example.com/model"},
		Dir:  "model",
		Pos:  at(10),
		Imports: []load.Import{
			{Name: "time", Path: "time"},
			{Name: "str", Path: "strings", PkgName: "strings"},
		},
		Fields: []*load.Field{
			{Name: "Name", Type: "string", Tag: "mandatory,validate=validName", Pos: at(11)},
			{Name: "Age", Type: "int", Pos: at(12)},
			{Name: "Nickname", Type: "string", Tag: `optional,default="anonymous"`, Pos: at(13)},
			{Name: "Timeout", Type: "time.Duration", Tag: "optional,default=30 * time.Second", Pos: at(14)},
			{Name: "Tags", Type: "[]string", Requiredness: schema.Collection, Pos: at(15)},
		},
	}
}

func TestNewTarget(t *testing.T) {
	bt, err := NewTarget(personTarget())
	require.NoError(t, err)

	assert.Equal(t, "Person", bt.Name)
	assert.Equal(t, "model", bt.Package)
	assert.Equal(t, "example.com/model.Person", bt.QualifiedName())
	assert.Equal(t, "model", bt.Dir)
	assert.Equal(t, at(10), bt.Pos)
	assert.False(t, bt.IsGeneric())
	assert.Equal(t, map[string]string{"time": "time", "str": "strings"}, bt.Imports)
	assert.Equal(t, map[string]string{"time": "time", "strings": "strings"}, bt.PkgNames)

	require.Len(t, bt.Fields, 5)
	var mandatory, terminal []string
	for _, f := range bt.Mandatory() {
		mandatory = append(mandatory, f.Name)
	}
	for _, f := range bt.Terminal() {
		terminal = append(terminal, f.Name)
	}
	assert.Equal(t, []string{"Name", "Age"}, mandatory)
	assert.Equal(t, []string{"Nickname", "Timeout", "Tags"}, terminal)

	name := bt.Fields[0]
	assert.True(t, name.IsMandatory())
	assert.Equal(t, "validName", name.Validate)
	assert.Equal(t, schema.Basic("string"), name.Type)

	timeout := bt.Fields[3]
	assert.True(t, timeout.IsOptional())
	assert.Equal(t, "30 * time.Second", timeout.Default)
	assert.Equal(t, schema.Named("time", "Duration"), timeout.Type)

	tags := bt.Fields[4]
	assert.True(t, tags.IsCollection())
	assert.Equal(t, schema.SliceOf(schema.Basic("string")), tags.Type)
}

func TestNewTargetGeneric(t *testing.T) {
	d := &load.Target{
		Name: "Pair",
		Pkg:  load.PackageRef{Path: "example.com/pair"},
		TypeParams: []*load.TypeParam{
			{Name: "K", Constraint: "comparable"},
			{Name: "V"},
		},
		Fields: []*load.Field{
			{Name: "Key", Type: "K"},
			{Name: "Value", Type: "V"},
			{Name: "Index", Type: "map[K]V", Tag: "optional,default=nil"},
		},
	}
	bt, err := NewTarget(d)
	require.NoError(t, err)

	assert.Equal(t, "pair", bt.Package, "package name falls back to the last path element")
	require.Len(t, bt.TypeParams, 2)
	assert.Equal(t, schema.Basic("comparable"), bt.TypeParams[0].Constraint)
	assert.Equal(t, schema.Basic("any"), bt.TypeParams[1].Constraint)
	assert.Equal(t, schema.Param("K"), bt.Fields[0].Type)
	assert.Equal(t, schema.KindMap, bt.Fields[2].Type.Kind)
}

func TestNewTargetSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*load.Target)
		kind   SchemaErrorKind
		pos    schema.Position
	}{
		{
			name:   "no fields",
			mutate: func(d *load.Target) { d.Fields = nil },
			kind:   EmptyTarget,
			pos:    at(10),
		},
		{
			name:   "directive on a method",
			mutate: func(d *load.Target) { d.Misplaced = "method String" },
			kind:   InvalidPlacement,
			pos:    at(10),
		},
		{
			name:   "keyword type name",
			mutate: func(d *load.Target) { d.Name = "func" },
			kind:   InvalidName,
			pos:    at(10),
		},
		{
			name:   "blank field name",
			mutate: func(d *load.Target) { d.Fields[1].Name = "_" },
			kind:   InvalidName,
			pos:    at(12),
		},
		{
			name:   "unknown requiredness",
			mutate: func(d *load.Target) { d.Fields[1].Tag = "required" },
			kind:   InvalidTag,
			pos:    at(12),
		},
		{
			name:   "mandatory with default",
			mutate: func(d *load.Target) { d.Fields[1].Tag = "mandatory,default=1" },
			kind:   InvalidDefault,
			pos:    at(12),
		},
		{
			name:   "optional without default",
			mutate: func(d *load.Target) { d.Fields[2].Tag = "optional" },
			kind:   MissingDefault,
			pos:    at(13),
		},
		{
			name:   "malformed default",
			mutate: func(d *load.Target) { d.Fields[2].Tag = "optional,default=1 +" },
			kind:   InvalidDefault,
			pos:    at(13),
		},
		{
			name:   "function literal default",
			mutate: func(d *load.Target) { d.Fields[2].Tag = `optional,default=func() string { return "x" }()` },
			kind:   InvalidDefault,
			pos:    at(13),
		},
		{
			name:   "default names a generated local",
			mutate: func(d *load.Target) { d.Fields[2].Tag = "optional,default=v" },
			kind:   InvalidDefault,
			pos:    at(13),
		},
		{
			name:   "default calls through a generated local",
			mutate: func(d *load.Target) { d.Fields[2].Tag = "optional,default=str.Repeat(b, 2)" },
			kind:   InvalidDefault,
			pos:    at(13),
		},
		{
			name:   "default selects from a generated local",
			mutate: func(d *load.Target) { d.Fields[2].Tag = "optional,default=err.Error()" },
			kind:   InvalidDefault,
			pos:    at(13),
		},
		{
			name:   "non-empty collection default",
			mutate: func(d *load.Target) { d.Fields[4].Default = `[]string{"a"}` },
			kind:   InvalidDefault,
			pos:    at(15),
		},
		{
			name:   "hook is not an identifier",
			mutate: func(d *load.Target) { d.Fields[0].Tag = "mandatory,validate=a.b.c" },
			kind:   InvalidHook,
			pos:    at(11),
		},
		{
			name:   "hook shadows a generated local",
			mutate: func(d *load.Target) { d.Fields[0].Tag = "mandatory,validate=err" },
			kind:   InvalidHook,
			pos:    at(11),
		},
		{
			name:   "hook from an unimported package",
			mutate: func(d *load.Target) { d.Fields[0].Tag = "mandatory,validate=check.Name" },
			kind:   InvalidHook,
			pos:    at(11),
		},
		{
			name:   "unexported hook from another package",
			mutate: func(d *load.Target) { d.Fields[0].Tag = "mandatory,validate=str.check" },
			kind:   InvalidHook,
			pos:    at(11),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := personTarget()
			tt.mutate(d)
			bt, err := NewTarget(d)

			require.Error(t, err)
			assert.Nil(t, bt)
			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.kind, se.Kind, err.Error())
			assert.Equal(t, tt.pos, se.Position())
		})
	}
}

func TestNewTargetEmptyCollectionDefaults(t *testing.T) {
	for _, def := range []string{"nil", "[]string{}", "([]string{})"} {
		t.Run(def, func(t *testing.T) {
			d := personTarget()
			d.Fields[4].Default = def
			_, err := NewTarget(d)
			require.NoError(t, err)
		})
	}
}

func TestNewTargetDefaults(t *testing.T) {
	tests := []struct {
		typ, def string
	}{
		{"chan int", "make(chan int)"},
		{"chan<- int", "make(chan<- int, 1)"},
		{"int", "len([...]int{1, 2})"},
		{"int", "str.Count(\"bvb\", \"v\")"},
		{"time.Duration", "time.Duration(len(str.Fields(\"a b\"))) * time.Second"},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			d := personTarget()
			d.Fields[2].Type = tt.typ
			d.Fields[2].Tag = "optional,default=" + tt.def
			bt, err := NewTarget(d)
			require.NoError(t, err)
			assert.Equal(t, tt.def, bt.Fields[2].Default)
		})
	}
}

func TestNewTargetUnsupportedTypes(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		req  schema.Requiredness
	}{
		{"anonymous struct", "struct{ X int }", schema.Mandatory},
		{"interface with methods", "interface{ M() }", schema.Mandatory},
		{"type set", "~int", schema.Mandatory},
		{"undefined package", "pkg.Thing", schema.Mandatory},
		{"unexported foreign type", "str.builder", schema.Mandatory},
		{"collection of map", "map[string]int", schema.Collection},
		{"malformed", "[]", schema.Mandatory},
		{"local type named like a generated local", "v", schema.Mandatory},
		{"collection of a type named like a generated local", "[]b", schema.Collection},
		{"nested type named like a generated local", "map[string]err", schema.Mandatory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := personTarget()
			d.Fields[1].Type = tt.typ
			d.Fields[1].Requiredness = tt.req
			_, err := NewTarget(d)

			require.Error(t, err)
			var ue *UnsupportedTypeError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, "Age", ue.Field)
			assert.Equal(t, at(12), ue.Position())
		})
	}
}

func TestNewTargetNamingConflicts(t *testing.T) {
	t.Run("duplicate field", func(t *testing.T) {
		d := personTarget()
		d.Fields = append(d.Fields,
			&load.Field{Name: "age", Type: "int", Pos: at(16)},
			&load.Field{Name: "age", Type: "int", Pos: at(17)},
		)
		_, err := NewTarget(d)

		var ce *NamingConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "age", ce.Name)
		assert.Equal(t, []schema.Position{at(17), at(16)}, ce.Positions())
	})

	t.Run("fields generating the same operation", func(t *testing.T) {
		d := personTarget()
		d.Fields = append(d.Fields, &load.Field{Name: "name", Type: "string", Pos: at(16)})
		_, err := NewTarget(d)

		var ce *NamingConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "SetName", ce.Name)
		assert.Equal(t, at(16), ce.Pos)
		assert.Equal(t, at(11), ce.Prev)
	})

	t.Run("generated name already declared", func(t *testing.T) {
		d := personTarget()
		d.Reserved = []load.Reserved{{Name: "NewPersonBuilder", Pos: at(40)}}
		_, err := NewTarget(d)

		var ce *NamingConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "NewPersonBuilder", ce.Name)
		assert.Equal(t, at(40), ce.Pos)
		assert.Equal(t, at(10), ce.Prev)
	})

	t.Run("unrelated reserved names", func(t *testing.T) {
		d := personTarget()
		d.Reserved = []load.Reserved{{Name: "validName"}, {Name: "Person"}}
		_, err := NewTarget(d)
		require.NoError(t, err)
	})

	t.Run("duplicate type parameter", func(t *testing.T) {
		d := personTarget()
		d.TypeParams = []*load.TypeParam{{Name: "T", Pos: at(9)}, {Name: "T", Pos: at(9)}}
		_, err := NewTarget(d)
		assert.True(t, IsNamingConflictError(err))
	})

	t.Run("type parameter shadows a local", func(t *testing.T) {
		d := personTarget()
		d.TypeParams = []*load.TypeParam{{Name: "b", Pos: at(9)}}
		_, err := NewTarget(d)
		assert.True(t, IsNamingConflictError(err))
	})

	t.Run("type parameter shadows a setter parameter", func(t *testing.T) {
		d := personTarget()
		d.TypeParams = []*load.TypeParam{{Name: "age", Pos: at(9)}}
		_, err := NewTarget(d)

		var ce *NamingConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, at(12), ce.Pos)
		assert.Equal(t, at(9), ce.Prev)
	})
}

func TestNewTargetFirstFailureWins(t *testing.T) {
	d := personTarget()
	d.Fields[1].Tag = "optional"
	d.Fields[3].Type = "struct{}"
	_, err := NewTarget(d)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, MissingDefault, se.Kind)
	assert.Equal(t, "Age", se.Field)
}

func connPos(col int) schema.Position {
	return schema.Position{Filename: "conn.go", Line: 20, Column: col}
}

// connTarget returns a constructor target: func NewConn(host string, port
// int, opts ...string) (*Conn, error).
func connTarget() *load.Target {
	return &load.Target{
		Name: "NewConn",
		Pkg:  load.PackageRef{Name: "netx", Path: "example.com/netx"},
		Pos:  connPos(6),
		Ctor: &load.Constructor{Func: "NewConn", Results: []string{"*Conn", "error"}, Variadic: true},
		Fields: []*load.Field{
			{Name: "host", Type: "string", Requiredness: schema.Mandatory, Pos: connPos(14)},
			{Name: "port", Type: "int", Requiredness: schema.Mandatory, Pos: connPos(27)},
			{Name: "opts", Type: "[]string", Requiredness: schema.Collection, Pos: connPos(37)},
		},
	}
}

func TestNewTargetConstructor(t *testing.T) {
	bt, err := NewTarget(connTarget())
	require.NoError(t, err)

	assert.Equal(t, "Conn", bt.Name, "a constructor target is named after its result")
	assert.Equal(t, "example.com/netx.Conn", bt.QualifiedName())
	require.NotNil(t, bt.Creator)
	assert.Equal(t, "NewConn", bt.Creator.Func)
	assert.True(t, bt.Creator.Err)
	assert.True(t, bt.Creator.Variadic)
	assert.Equal(t, schema.KindPointer, bt.Creator.Result.Kind)
	assert.Equal(t, "Conn", bt.Creator.Result.Elem.Name)

	require.Len(t, bt.Mandatory(), 2)
	require.Len(t, bt.Terminal(), 1)
	assert.Equal(t, "AddOpt", bt.Terminal()[0].Operation())
	assert.Equal(t, []string{"ConnStage1", "ConnStage2", "ConnFinalStage", "connBuilder", "NewConnBuilder"}, bt.GeneratedNames())

	t.Run("value result without error", func(t *testing.T) {
		d := connTarget()
		d.Ctor.Results = []string{"Conn"}
		d.Ctor.Variadic = false
		d.Fields = d.Fields[:2]
		bt, err := NewTarget(d)
		require.NoError(t, err)
		assert.False(t, bt.Creator.Err)
		assert.Equal(t, schema.KindNamed, bt.Creator.Result.Kind)
	})
}

func TestNewTargetConstructorErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*load.Target)
		check  func(*testing.T, error)
	}{
		{
			name:   "no parameters",
			mutate: func(d *load.Target) { d.Fields = nil },
			check:  schemaKind(EmptyTarget, connPos(6)),
		},
		{
			name:   "no results",
			mutate: func(d *load.Target) { d.Ctor.Results = nil },
			check:  schemaKind(InvalidPlacement, connPos(6)),
		},
		{
			name:   "second result is not an error",
			mutate: func(d *load.Target) { d.Ctor.Results = []string{"*Conn", "bool"} },
			check:  schemaKind(InvalidPlacement, connPos(6)),
		},
		{
			name:   "result is not a local named type",
			mutate: func(d *load.Target) { d.Ctor.Results = []string{"int"} },
			check:  schemaKind(InvalidPlacement, connPos(6)),
		},
		{
			name:   "unnamed parameter",
			mutate: func(d *load.Target) { d.Fields[1].Name = "" },
			check:  schemaKind(InvalidName, connPos(27)),
		},
		{
			name:   "optional parameter",
			mutate: func(d *load.Target) { d.Fields[1].Tag = "optional,default=80" },
			check:  schemaKind(InvalidTag, connPos(27)),
		},
		{
			name:   "parameter with a hook",
			mutate: func(d *load.Target) { d.Fields[0].Tag = "mandatory,validate=checkHost" },
			check:  schemaKind(InvalidTag, connPos(14)),
		},
		{
			name:   "variadic parameter that is not a collection",
			mutate: func(d *load.Target) { d.Fields = d.Fields[:2] },
			check: func(t *testing.T, err error) {
				var ue *UnsupportedTypeError
				require.ErrorAs(t, err, &ue)
				assert.Equal(t, connPos(27), ue.Position())
			},
		},
		{
			name:   "parameter named like a builder method",
			mutate: func(d *load.Target) { d.Fields[0].Name = "Build" },
			check: func(t *testing.T, err error) {
				var ce *NamingConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, "Build", ce.Name)
				assert.Equal(t, connPos(14), ce.Pos)
			},
		},
		{
			name: "constructor named like a generated local",
			mutate: func(d *load.Target) {
				d.Name = "v"
				d.Ctor.Func = "v"
			},
			check: func(t *testing.T, err error) {
				assert.True(t, IsNamingConflictError(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := connTarget()
			tt.mutate(d)
			bt, err := NewTarget(d)
			require.Error(t, err)
			assert.Nil(t, bt)
			tt.check(t, err)
		})
	}
}

func schemaKind(kind SchemaErrorKind, pos schema.Position) func(*testing.T, error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, kind, se.Kind, err.Error())
		assert.Equal(t, pos, se.Position())
	}
}
