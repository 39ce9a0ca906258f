package table

import (
	"fmt"

	"github.com/ssargent/dbckit/pkg/codec"
	"github.com/ssargent/dbckit/pkg/key"
	"github.com/ssargent/dbckit/pkg/schema"
)

// EnumValue is a decoded enum column.
type EnumValue struct {
	Type  string
	Name  string
	Value int64
}

func (e EnumValue) String() string {
	return e.Name
}

// NewEnumValue resolves name against e.
func NewEnumValue(e *schema.Enum, name string) (EnumValue, error) {
	v, ok := e.Value(name)
	if !ok {
		return EnumValue{}, fmt.Errorf("enum %s has no value %q", e.Name, name)
	}
	return EnumValue{Type: e.Name, Name: name, Value: v}, nil
}

// ValueTypeError reports a row value whose Go type does not match its field.
type ValueTypeError struct {
	Field string
	Want  string
	Got   any
}

func (e *ValueTypeError) Error() string {
	return fmt.Sprintf("field %s: expected %s, got %T", e.Field, e.Want, e.Got)
}

// ArrayLengthError reports an array value of the wrong length.
type ArrayLengthError struct {
	Field string
	Want  int
	Got   int
}

func (e *ArrayLengthError) Error() string {
	return fmt.Sprintf("field %s: expected %d elements, got %d", e.Field, e.Want, e.Got)
}

// RowMap returns row as a name → value map suitable for JSON or YAML output.
// Keys become plain integers, enums their names and localized strings a map
// of populated locales.
func (t *Table) RowMap(row Row) map[string]any {
	m := make(map[string]any, len(row))
	for i, f := range t.Schema.Fields {
		if i >= len(row) {
			break
		}
		m[f.Name] = present(row[i])
	}
	return m
}

func present(v any) any {
	switch x := v.(type) {
	case key.Key[int32]:
		return x.ID
	case key.Key[uint32]:
		return x.ID
	case key.ForeignKey[int32]:
		return x.ID
	case key.ForeignKey[uint32]:
		return x.ID
	case EnumValue:
		return x.Name
	case codec.LocalizedString:
		return x.Map()
	case codec.ExtendedLocalizedString:
		return x.Map()
	case []key.ForeignKey[int32]:
		out := make([]int32, len(x))
		for i, k := range x {
			out[i] = k.ID
		}
		return out
	case []key.ForeignKey[uint32]:
		out := make([]uint32, len(x))
		for i, k := range x {
			out[i] = k.ID
		}
		return out
	case []EnumValue:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = e.Name
		}
		return out
	}
	return v
}
