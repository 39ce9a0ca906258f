// Package schema describes DBC table layouts declaratively.
//
// A Schema is an ordered list of typed fields. The table codec interprets it at
// read and write time, so supporting a new table means writing a YAML file
// rather than generating code.
package schema

import (
	"errors"
	"fmt"

	"github.com/ssargent/dbckit/pkg/codec"
)

// Field is one column, or a fixed-size array of columns, of a table.
type Field struct {
	Name string    `yaml:"name"`
	Kind FieldKind `yaml:"type"`
	// Len is the array length; 0 means a scalar.
	Len int `yaml:"len,omitempty"`
	// Base is the storage kind of a key or enum column.
	Base FieldKind `yaml:"base,omitempty"`
	// References names the target table of a foreign key.
	References string `yaml:"references,omitempty"`
	// Enum names the enumeration of an enum column.
	Enum string `yaml:"enum,omitempty"`
}

// IsArray reports whether the field holds a fixed-size array.
func (f Field) IsArray() bool {
	return f.Len > 0
}

// Count is the number of values the field stores.
func (f Field) Count() int {
	if f.Len > 0 {
		return f.Len
	}
	return 1
}

// Storage is the kind actually written to disk for one value.
func (f Field) Storage() FieldKind {
	switch f.Kind {
	case KindPrimaryKey, KindForeignKey, KindEnum:
		return f.Base
	}
	return f.Kind
}

// Size is the number of bytes the field occupies in a record.
func (f Field) Size() uint32 {
	return f.Storage().Width() * uint32(f.Count())
}

// Columns is the number of header columns the field contributes.
func (f Field) Columns() uint32 {
	return f.Kind.Columns() * uint32(f.Count())
}

// Enum is a named set of integer discriminants.
type Enum struct {
	Name   string           `yaml:"name"`
	Base   FieldKind        `yaml:"base,omitempty"`
	Values map[string]int64 `yaml:"values"`

	names map[int64]string
}

// Lookup returns the name of v, if v is a known discriminant.
func (e *Enum) Lookup(v int64) (string, bool) {
	if e.names == nil {
		e.index()
	}
	name, ok := e.names[v]
	return name, ok
}

// Value returns the discriminant called name.
func (e *Enum) Value(name string) (int64, bool) {
	v, ok := e.Values[name]
	return v, ok
}

func (e *Enum) index() {
	e.names = make(map[int64]string, len(e.Values))
	for name, v := range e.Values {
		if prev, ok := e.names[v]; !ok || name < prev {
			e.names[v] = name
		}
	}
}

// Schema is the layout of one DBC table.
type Schema struct {
	Name string `yaml:"name"`
	File string `yaml:"file,omitempty"`
	// StringPolicy applies to string_ref fields.
	StringPolicy codec.StringPolicy `yaml:"string_policy,omitempty"`
	// LocalizedPolicy applies to string_ref_loc fields.
	LocalizedPolicy codec.StringPolicy `yaml:"localized_policy,omitempty"`
	// ExpectedRecordSize and ExpectedFieldCount pin the header constants. When
	// zero they are derived from Fields.
	ExpectedRecordSize uint32  `yaml:"record_size,omitempty"`
	ExpectedFieldCount uint32  `yaml:"field_count,omitempty"`
	Enums              []*Enum `yaml:"enums,omitempty"`
	Fields             []Field `yaml:"fields"`
}

// FileName is the file the table is stored in, File or else Name + ".dbc".
func (s *Schema) FileName() string {
	if s.File != "" {
		return s.File
	}
	return s.Name + ".dbc"
}

// RecordSize is the byte width of one record.
func (s *Schema) RecordSize() uint32 {
	if s.ExpectedRecordSize != 0 {
		return s.ExpectedRecordSize
	}
	return s.layoutSize()
}

// FieldCount is the number of header columns of one record.
func (s *Schema) FieldCount() uint32 {
	if s.ExpectedFieldCount != 0 {
		return s.ExpectedFieldCount
	}
	return s.layoutColumns()
}

func (s *Schema) layoutSize() uint32 {
	var n uint32
	for _, f := range s.Fields {
		n += f.Size()
	}
	return n
}

func (s *Schema) layoutColumns() uint32 {
	var n uint32
	for _, f := range s.Fields {
		n += f.Columns()
	}
	return n
}

// FieldIndex returns the position of the field called name, or -1.
func (s *Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// PrimaryKey returns the index of the primary key field, or -1 if the table has none.
func (s *Schema) PrimaryKey() int {
	for i, f := range s.Fields {
		if f.Kind == KindPrimaryKey {
			return i
		}
	}
	return -1
}

// Enum returns the enumeration called name.
func (s *Schema) Enum(name string) (*Enum, bool) {
	for _, e := range s.Enums {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Validate checks the schema for internal consistency and fills in defaults.
// Once a schema has passed, further calls change nothing.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return errors.New("schema: name is required")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s: no fields", s.Name)
	}

	for _, e := range s.Enums {
		if e.Base == KindInvalid {
			e.Base = KindInt32
		}
		if !e.Base.IsInteger() {
			return fmt.Errorf("schema %s: enum %s: base %s is not an integer type", s.Name, e.Name, e.Base)
		}
		if e.names == nil {
			e.index()
		}
	}

	seen := make(map[string]bool, len(s.Fields))
	primary := -1
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("schema %s: field %d has no name", s.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema %s: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = true

		if err := s.validateField(f); err != nil {
			return fmt.Errorf("schema %s: field %s: %w", s.Name, f.Name, err)
		}
		if f.Kind == KindPrimaryKey {
			if primary >= 0 {
				return fmt.Errorf("schema %s: more than one primary key (%s, %s)", s.Name, s.Fields[primary].Name, f.Name)
			}
			primary = i
		}
	}

	if s.ExpectedRecordSize != 0 && s.ExpectedRecordSize != s.layoutSize() {
		return fmt.Errorf("schema %s: record_size %d does not match field layout of %d bytes", s.Name, s.ExpectedRecordSize, s.layoutSize())
	}
	if s.ExpectedFieldCount != 0 && s.ExpectedFieldCount != s.layoutColumns() {
		return fmt.Errorf("schema %s: field_count %d does not match field layout of %d columns", s.Name, s.ExpectedFieldCount, s.layoutColumns())
	}
	return nil
}

func (s *Schema) validateField(f *Field) error {
	if f.Len < 0 {
		return fmt.Errorf("negative array length %d", f.Len)
	}
	switch f.Kind {
	case KindInvalid:
		return errors.New("missing type")
	case KindLocalized, KindExtendedLocalized:
		if f.IsArray() {
			return errors.New("arrays of localized strings are not supported")
		}
	case KindPrimaryKey, KindForeignKey:
		if f.Base == KindInvalid {
			f.Base = KindInt32
		}
		if f.Base != KindInt32 && f.Base != KindUint32 {
			return fmt.Errorf("key base must be int32 or uint32, got %s", f.Base)
		}
		if f.Kind == KindPrimaryKey && f.IsArray() {
			return errors.New("primary key cannot be an array")
		}
		if f.Kind == KindForeignKey && f.References == "" {
			return errors.New("foreign key needs a references table")
		}
	case KindEnum:
		e, ok := s.Enum(f.Enum)
		if !ok {
			return fmt.Errorf("unknown enum %q", f.Enum)
		}
		if f.Base == KindInvalid {
			f.Base = e.Base
		}
		if !f.Base.IsInteger() {
			return fmt.Errorf("enum base %s is not an integer type", f.Base)
		}
	default:
		if f.Base != KindInvalid {
			return fmt.Errorf("base is only valid for keys and enums")
		}
	}
	return nil
}
