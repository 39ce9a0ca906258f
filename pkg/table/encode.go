package table

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/ssargent/dbckit/pkg/codec"
	"github.com/ssargent/dbckit/pkg/key"
	"github.com/ssargent/dbckit/pkg/schema"
)

// Encode serializes the table: header, rows, then the string block.
//
// string_ref fields use the schema's StringPolicy and localized fields its
// LocalizedPolicy unless overridden by options. Both append into one string
// block in row order, field order.
func (t *Table) Encode(opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	if t.Schema == nil {
		return nil, errNilSchema
	}
	log := o.logger.WithTable(t.Schema.Name)

	strPolicy, locPolicy := t.Schema.StringPolicy, t.Schema.LocalizedPolicy
	if o.stringPolicy != nil {
		strPolicy = *o.stringPolicy
	}
	if o.localizedPolicy != nil {
		locPolicy = *o.localizedPolicy
	}

	out, h, err := t.encode(strPolicy, locPolicy)
	policy := fmt.Sprintf("%s/%s", strPolicy, locPolicy)
	log.LogEncode(context.Background(), h.RecordCount, h.StringBlockSize, policy, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Write encodes the table and writes it to w in a single call.
func (t *Table) Write(w io.Writer, opts ...Option) error {
	data, err := t.Encode(opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

func (t *Table) encode(strPolicy, locPolicy codec.StringPolicy) ([]byte, codec.Header, error) {
	s := t.Schema
	if err := checkSchema(s); err != nil {
		return nil, codec.Header{}, err
	}
	if uint64(len(t.Rows)) > math.MaxUint32 {
		return nil, codec.Header{}, fmt.Errorf("too many rows: %d", len(t.Rows))
	}

	recordSize := s.RecordSize()
	sb := codec.NewStringBlockBuilder()
	enc := &encoder{
		schema: s,
		strs:   sb.Policy(strPolicy),
		locs:   sb.Policy(locPolicy),
		w:      codec.NewWriter(len(t.Rows) * int(recordSize)),
	}

	for i, row := range t.Rows {
		if len(row) != len(s.Fields) {
			return nil, codec.Header{}, fmt.Errorf("record %d: expected %d values, got %d", i, len(s.Fields), len(row))
		}
		start := enc.w.Len()
		for j, f := range s.Fields {
			if err := enc.field(f, row[j]); err != nil {
				return nil, codec.Header{}, fmt.Errorf("record %d: %w", i, err)
			}
		}
		if n := enc.w.Len() - start; n != int(recordSize) {
			return nil, codec.Header{}, fmt.Errorf("record %d: encoded %d bytes, record size is %d", i, n, recordSize)
		}
	}

	block := sb.Finish()
	h := codec.Header{
		RecordCount:     uint32(len(t.Rows)),
		FieldCount:      s.FieldCount(),
		RecordSize:      recordSize,
		StringBlockSize: uint32(len(block)),
	}
	hb := codec.WriteHeader(h)

	out := make([]byte, 0, codec.HeaderSize+enc.w.Len()+len(block))
	out = append(out, hb[:]...)
	out = append(out, enc.w.Bytes()...)
	out = append(out, block...)
	return out, h, nil
}

type encoder struct {
	schema *schema.Schema
	strs   codec.StringWriter
	locs   codec.StringWriter
	w      *codec.Writer
}

func (e *encoder) field(f schema.Field, v any) error {
	if !f.IsArray() {
		return e.scalar(f, v)
	}

	w := e.w
	switch f.Kind {
	case schema.KindInt8:
		return writeSlice(w, f, v, w.WriteInt8)
	case schema.KindUint8:
		return writeSlice(w, f, v, w.WriteUint8)
	case schema.KindInt16:
		return writeSlice(w, f, v, w.WriteInt16)
	case schema.KindUint16:
		return writeSlice(w, f, v, w.WriteUint16)
	case schema.KindInt32:
		return writeSlice(w, f, v, w.WriteInt32)
	case schema.KindUint32:
		return writeSlice(w, f, v, w.WriteUint32)
	case schema.KindFloat:
		return writeSlice(w, f, v, w.WriteFloat32)
	case schema.KindBool:
		return writeSlice(w, f, v, func(b bool) { w.WriteInt8(boolInt8(b)) })
	case schema.KindBool32:
		return writeSlice(w, f, v, func(b bool) { w.WriteInt32(int32(boolInt8(b))) })
	case schema.KindStringRef:
		return writeSlice(w, f, v, func(s string) { codec.WriteStringRef(w, e.strs, s) })
	case schema.KindForeignKey:
		if f.Base == schema.KindUint32 {
			return writeSlice(w, f, v, func(k key.ForeignKey[uint32]) { w.WriteUint32(k.ID) })
		}
		return writeSlice(w, f, v, func(k key.ForeignKey[int32]) { w.WriteInt32(k.ID) })
	case schema.KindEnum:
		values, ok := v.([]EnumValue)
		if !ok {
			return &ValueTypeError{Field: f.Name, Want: "[]table.EnumValue", Got: v}
		}
		if len(values) != f.Len {
			return &ArrayLengthError{Field: f.Name, Want: f.Len, Got: len(values)}
		}
		for _, ev := range values {
			if err := e.enum(f, ev); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("field %s: unsupported array of %s", f.Name, f.Kind)
}

func (e *encoder) scalar(f schema.Field, v any) error {
	w := e.w
	switch f.Kind {
	case schema.KindInt8:
		return writeValue(w, f, v, w.WriteInt8)
	case schema.KindUint8:
		return writeValue(w, f, v, w.WriteUint8)
	case schema.KindInt16:
		return writeValue(w, f, v, w.WriteInt16)
	case schema.KindUint16:
		return writeValue(w, f, v, w.WriteUint16)
	case schema.KindInt32:
		return writeValue(w, f, v, w.WriteInt32)
	case schema.KindUint32:
		return writeValue(w, f, v, w.WriteUint32)
	case schema.KindFloat:
		return writeValue(w, f, v, w.WriteFloat32)
	case schema.KindBool:
		return writeValue(w, f, v, func(b bool) { w.WriteInt8(boolInt8(b)) })
	case schema.KindBool32:
		return writeValue(w, f, v, func(b bool) { w.WriteInt32(int32(boolInt8(b))) })
	case schema.KindStringRef:
		return writeValue(w, f, v, func(s string) { codec.WriteStringRef(w, e.strs, s) })
	case schema.KindLocalized:
		return writeValue(w, f, v, func(s codec.LocalizedString) { s.WriteTo(w, e.locs) })
	case schema.KindExtendedLocalized:
		return writeValue(w, f, v, func(s codec.ExtendedLocalizedString) { s.WriteTo(w, e.locs) })
	case schema.KindPrimaryKey:
		if f.Base == schema.KindUint32 {
			return writeValue(w, f, v, func(k key.Key[uint32]) { w.WriteUint32(k.ID) })
		}
		return writeValue(w, f, v, func(k key.Key[int32]) { w.WriteInt32(k.ID) })
	case schema.KindForeignKey:
		if f.Base == schema.KindUint32 {
			return writeValue(w, f, v, func(k key.ForeignKey[uint32]) { w.WriteUint32(k.ID) })
		}
		return writeValue(w, f, v, func(k key.ForeignKey[int32]) { w.WriteInt32(k.ID) })
	case schema.KindEnum:
		ev, ok := v.(EnumValue)
		if !ok {
			return &ValueTypeError{Field: f.Name, Want: "table.EnumValue", Got: v}
		}
		return e.enum(f, ev)
	}
	return fmt.Errorf("field %s: unsupported field type %s", f.Name, f.Kind)
}

func (e *encoder) enum(f schema.Field, ev EnumValue) error {
	en, err := enumFor(e.schema, f)
	if err != nil {
		return fmt.Errorf("field %s: %w", f.Name, err)
	}
	if _, ok := en.Lookup(ev.Value); !ok {
		return fmt.Errorf("field %s: %w", f.Name, &codec.InvalidDiscriminantError{Type: en.Name, Value: ev.Value})
	}
	return writeInt(e.w, f.Name, f.Base, ev.Value)
}

func writeValue[T any](w *codec.Writer, f schema.Field, v any, write func(T)) error {
	x, ok := v.(T)
	if !ok {
		return &ValueTypeError{Field: f.Name, Want: fmt.Sprintf("%T", *new(T)), Got: v}
	}
	write(x)
	return nil
}

func writeSlice[T any](w *codec.Writer, f schema.Field, v any, write func(T)) error {
	xs, ok := v.([]T)
	if !ok {
		return &ValueTypeError{Field: f.Name, Want: fmt.Sprintf("%T", []T(nil)), Got: v}
	}
	if len(xs) != f.Len {
		return &ArrayLengthError{Field: f.Name, Want: f.Len, Got: len(xs)}
	}
	codec.WriteArray(w, xs, write)
	return nil
}

func writeInt(w *codec.Writer, field string, kind schema.FieldKind, v int64) error {
	var lo, hi int64
	switch kind {
	case schema.KindInt8:
		lo, hi = math.MinInt8, math.MaxInt8
	case schema.KindUint8:
		lo, hi = 0, math.MaxUint8
	case schema.KindInt16:
		lo, hi = math.MinInt16, math.MaxInt16
	case schema.KindUint16:
		lo, hi = 0, math.MaxUint16
	case schema.KindInt32:
		lo, hi = math.MinInt32, math.MaxInt32
	case schema.KindUint32:
		lo, hi = 0, math.MaxUint32
	default:
		return fmt.Errorf("field %s: unsupported integer type %s", field, kind)
	}
	if v < lo || v > hi {
		return fmt.Errorf("field %s: value %d does not fit %s", field, v, kind)
	}
	switch kind {
	case schema.KindInt8:
		w.WriteInt8(int8(v))
	case schema.KindUint8:
		w.WriteUint8(uint8(v))
	case schema.KindInt16:
		w.WriteInt16(int16(v))
	case schema.KindUint16:
		w.WriteUint16(uint16(v))
	case schema.KindInt32:
		w.WriteInt32(int32(v))
	case schema.KindUint32:
		w.WriteUint32(uint32(v))
	}
	return nil
}

func boolInt8(b bool) int8 {
	if b {
		return 1
	}
	return 0
}
