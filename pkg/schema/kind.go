package schema

import (
	"fmt"
	"strings"

	"github.com/ssargent/dbckit/pkg/codec"
)

// FieldKind is the on-disk encoding of a column.
type FieldKind int

const (
	KindInvalid FieldKind = iota
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindFloat
	KindBool
	KindBool32
	KindStringRef
	KindLocalized
	KindExtendedLocalized
	KindPrimaryKey
	KindForeignKey
	KindEnum
)

var kindNames = map[FieldKind]string{
	KindInt8:              "int8",
	KindUint8:             "uint8",
	KindInt16:             "int16",
	KindUint16:            "uint16",
	KindInt32:             "int32",
	KindUint32:            "uint32",
	KindFloat:             "float",
	KindBool:              "bool",
	KindBool32:            "bool32",
	KindStringRef:         "string_ref",
	KindLocalized:         "string_ref_loc",
	KindExtendedLocalized: "extended_string_ref_loc",
	KindPrimaryKey:        "primary_key",
	KindForeignKey:        "foreign_key",
	KindEnum:              "enum",
}

func (k FieldKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// ParseFieldKind maps a schema type name to its kind.
func ParseFieldKind(s string) (FieldKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	switch s {
	case "float32":
		return KindFloat, nil
	case "string":
		return KindStringRef, nil
	case "string_ref_loc_extended":
		return KindExtendedLocalized, nil
	}
	return KindInvalid, fmt.Errorf("unknown field type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FieldKind) UnmarshalText(text []byte) error {
	v, err := ParseFieldKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// IsInteger reports whether k can back a key or enum column.
func (k FieldKind) IsInteger() bool {
	switch k {
	case KindInt8, KindUint8, KindInt16, KindUint16, KindInt32, KindUint32:
		return true
	}
	return false
}

// IsLocalized reports whether k is one of the string_ref_loc variants.
func (k FieldKind) IsLocalized() bool {
	return k == KindLocalized || k == KindExtendedLocalized
}

// Width is the size in bytes of one value of k. Keys and enums report the
// width of their base kind, which the caller resolves.
func (k FieldKind) Width() uint32 {
	switch k {
	case KindInt8, KindUint8, KindBool:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat, KindBool32, KindStringRef, KindPrimaryKey, KindForeignKey:
		return 4
	case KindLocalized:
		return codec.LocalizedStringSize
	case KindExtendedLocalized:
		return codec.ExtendedLocalizedStringSize
	}
	return 0
}

// Columns is the number of header columns one value of k occupies.
func (k FieldKind) Columns() uint32 {
	switch k {
	case KindLocalized:
		return codec.LocaleCount + 1
	case KindExtendedLocalized:
		return codec.ExtendedLocaleCount + 1
	}
	return 1
}
