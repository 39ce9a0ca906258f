// Package table reads and writes whole DBC files against a declarative schema.
//
// Decoding validates the header against the schema, then walks each
// fixed-size record field by field. Encoding does the inverse, collecting
// strings into a single string block with the schema's write policies.
//
// Values in a Row follow the schema's field order and use these Go types:
//
//	int8, uint8, int16, uint16, int32, uint32   integer columns
//	float32                                     float
//	bool                                        bool, bool32
//	string                                      string_ref
//	codec.LocalizedString                       string_ref_loc
//	codec.ExtendedLocalizedString               extended_string_ref_loc
//	key.Key[int32], key.Key[uint32]             primary_key
//	key.ForeignKey[int32], key.ForeignKey[uint32] foreign_key
//	EnumValue                                   enum
//
// Array fields hold a slice of the element type with exactly Len elements.
package table

import (
	"math"

	"github.com/ssargent/dbckit/pkg/codec"
	"github.com/ssargent/dbckit/pkg/key"
	"github.com/ssargent/dbckit/pkg/logging"
	"github.com/ssargent/dbckit/pkg/schema"
)

// Row is one record's values in schema field order.
type Row []any

// Table is a decoded DBC file.
type Table struct {
	Schema *schema.Schema
	// Header is the header the table was decoded from; Encode recomputes it.
	Header codec.Header
	Rows   []Row
}

// New creates an empty table for s.
func New(s *schema.Schema) *Table {
	return &Table{Schema: s}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append adds rows to the end of the table.
func (t *Table) Append(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

type rawKey interface {
	Raw() int64
}

// rowKey returns the primary key of row widened to int64. Rows without a
// primary key value never match.
func (t *Table) rowKey(pk int) func(Row) int64 {
	return func(r Row) int64 {
		if pk >= len(r) {
			return math.MinInt64
		}
		if k, ok := r[pk].(rawKey); ok {
			return k.Raw()
		}
		return math.MinInt64
	}
}

// Get returns the first row whose primary key equals id. It is a linear scan.
func (t *Table) Get(id int64) (Row, bool) {
	pk := t.Schema.PrimaryKey()
	if pk < 0 {
		return nil, false
	}
	return key.GetBy(t.Rows, id, t.rowKey(pk))
}

// GetMut returns a pointer to the first matching row for in-place edits.
func (t *Table) GetMut(id int64) (*Row, bool) {
	pk := t.Schema.PrimaryKey()
	if pk < 0 {
		return nil, false
	}
	return key.GetMutBy(t.Rows, id, t.rowKey(pk))
}

// Field returns the value of the field called name in row.
func (t *Table) Field(row Row, name string) (any, bool) {
	i := t.Schema.FieldIndex(name)
	if i < 0 || i >= len(row) {
		return nil, false
	}
	return row[i], true
}

// Option configures Decode, Read, Encode and Write.
type Option func(*options)

type options struct {
	logger          *logging.Logger
	stringPolicy    *codec.StringPolicy
	localizedPolicy *codec.StringPolicy
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.NoopLogger()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithLogger sets the logger. Pass nil to disable logging.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = logging.NoopLogger()
		}
		o.logger = l
	}
}

// WithStringPolicy overrides the schema's policy for string_ref fields when encoding.
func WithStringPolicy(p codec.StringPolicy) Option {
	return func(o *options) {
		o.stringPolicy = &p
	}
}

// WithLocalizedPolicy overrides the schema's policy for localized fields when encoding.
func WithLocalizedPolicy(p codec.StringPolicy) Option {
	return func(o *options) {
		o.localizedPolicy = &p
	}
}
