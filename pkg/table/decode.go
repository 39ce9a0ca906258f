package table

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/dbckit/pkg/codec"
	"github.com/ssargent/dbckit/pkg/key"
	"github.com/ssargent/dbckit/pkg/schema"
)

var errNilSchema = errors.New("nil schema")

// ErrTrailingData is returned by Decode when bytes follow the string block.
var ErrTrailingData = errors.New("trailing data after string block")

// maxBodySize bounds the allocation Read makes from header values.
const maxBodySize = 1 << 31

// Read decodes a whole DBC file from r. It reads exactly the bytes the
// header describes and leaves anything after the string block unread.
func Read(r io.Reader, s *schema.Schema, opts ...Option) (*Table, error) {
	if err := checkSchema(s); err != nil {
		return nil, err
	}

	var hb [codec.HeaderSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	h, err := codec.ParseHeader(hb)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(s.RecordSize(), s.FieldCount()); err != nil {
		return nil, err
	}

	size := h.RowBytes() + uint64(h.StringBlockSize)
	if size > maxBodySize {
		return nil, fmt.Errorf("table body of %d bytes exceeds limit", size)
	}
	data := make([]byte, codec.HeaderSize+size)
	copy(data, hb[:])
	if _, err := io.ReadFull(r, data[codec.HeaderSize:]); err != nil {
		return nil, fmt.Errorf("failed to read table body: %w", err)
	}
	return Decode(data, s, opts...)
}

// Decode decodes a complete DBC file held in memory. data must end exactly
// at the end of the string block; extra bytes fail with ErrTrailingData.
// Schemas built in code are validated first, as Parse would.
func Decode(data []byte, s *schema.Schema, opts ...Option) (*Table, error) {
	o := buildOptions(opts)
	if s == nil {
		return nil, errNilSchema
	}
	log := o.logger.WithTable(s.Name)

	t, err := decode(data, s)
	if err != nil {
		log.LogDecode(context.Background(), 0, 0, 0, err)
		return nil, err
	}
	log.LogDecode(context.Background(), t.Header.RecordCount, t.Header.FieldCount, t.Header.StringBlockSize, nil)
	return t, nil
}

// MustDecode is Decode for data embedded in the binary at build time. It
// panics on any error and must not be used on runtime input.
func MustDecode(data []byte, s *schema.Schema) *Table {
	t, err := decode(data, s)
	if err != nil {
		name := "<nil>"
		if s != nil {
			name = s.Name
		}
		panic(fmt.Sprintf("embedded table %s: %v", name, err))
	}
	return t
}

func decode(data []byte, s *schema.Schema) (*Table, error) {
	if err := checkSchema(s); err != nil {
		return nil, err
	}
	r := codec.NewReader(data)
	h, err := codec.ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(s.RecordSize(), s.FieldCount()); err != nil {
		return nil, err
	}

	rowBytes := h.RowBytes()
	if uint64(r.Remaining()) < rowBytes+uint64(h.StringBlockSize) {
		return nil, fmt.Errorf("%w: header describes %d bytes, file has %d", codec.ErrUnexpectedEOF, h.FileSize(), len(data))
	}
	if uint64(r.Remaining()) > rowBytes+uint64(h.StringBlockSize) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, uint64(r.Remaining())-rowBytes-uint64(h.StringBlockSize))
	}

	rowData, _ := r.ReadBytes(int(rowBytes))
	blockData, _ := r.ReadBytes(int(h.StringBlockSize))
	block := codec.StringBlock(blockData)

	t := &Table{Schema: s, Header: h, Rows: make([]Row, 0, h.RecordCount)}
	for i := uint32(0); i < h.RecordCount; i++ {
		start := uint64(i) * uint64(h.RecordSize)
		rr := codec.NewReader(rowData[start : start+uint64(h.RecordSize)])
		row, err := decodeRow(rr, block, s)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func decodeRow(r *codec.Reader, block codec.StringBlock, s *schema.Schema) (Row, error) {
	row := make(Row, len(s.Fields))
	for i, f := range s.Fields {
		v, err := decodeField(r, block, s, f)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		row[i] = v
	}
	return row, nil
}

func decodeField(r *codec.Reader, block codec.StringBlock, s *schema.Schema, f schema.Field) (any, error) {
	if !f.IsArray() {
		return decodeScalar(r, block, s, f)
	}

	n := f.Len
	switch f.Kind {
	case schema.KindInt8:
		return codec.ReadArray(r, n, r.ReadInt8)
	case schema.KindUint8:
		return codec.ReadArray(r, n, r.ReadUint8)
	case schema.KindInt16:
		return codec.ReadArray(r, n, r.ReadInt16)
	case schema.KindUint16:
		return codec.ReadArray(r, n, r.ReadUint16)
	case schema.KindInt32:
		return codec.ReadArray(r, n, r.ReadInt32)
	case schema.KindUint32:
		return codec.ReadArray(r, n, r.ReadUint32)
	case schema.KindFloat:
		return codec.ReadArray(r, n, r.ReadFloat32)
	case schema.KindBool:
		return codec.ReadArray(r, n, func() (bool, error) {
			v, err := r.ReadInt8()
			return v != 0, err
		})
	case schema.KindBool32:
		return codec.ReadArray(r, n, func() (bool, error) {
			v, err := r.ReadInt32()
			return v != 0, err
		})
	case schema.KindStringRef:
		return codec.ReadArray(r, n, func() (string, error) {
			return codec.ReadStringRef(r, block)
		})
	case schema.KindForeignKey:
		if f.Base == schema.KindUint32 {
			return codec.ReadArray(r, n, func() (key.ForeignKey[uint32], error) {
				v, err := r.ReadUint32()
				return key.NewForeign(f.References, v), err
			})
		}
		return codec.ReadArray(r, n, func() (key.ForeignKey[int32], error) {
			v, err := r.ReadInt32()
			return key.NewForeign(f.References, v), err
		})
	case schema.KindEnum:
		e, err := enumFor(s, f)
		if err != nil {
			return nil, err
		}
		return codec.ReadArray(r, n, func() (EnumValue, error) {
			return decodeEnum(r, e, f.Base)
		})
	}
	return nil, fmt.Errorf("unsupported array of %s", f.Kind)
}

func decodeScalar(r *codec.Reader, block codec.StringBlock, s *schema.Schema, f schema.Field) (any, error) {
	switch f.Kind {
	case schema.KindInt8:
		return r.ReadInt8()
	case schema.KindUint8:
		return r.ReadUint8()
	case schema.KindInt16:
		return r.ReadInt16()
	case schema.KindUint16:
		return r.ReadUint16()
	case schema.KindInt32:
		return r.ReadInt32()
	case schema.KindUint32:
		return r.ReadUint32()
	case schema.KindFloat:
		return r.ReadFloat32()
	case schema.KindBool:
		v, err := r.ReadInt8()
		return v != 0, err
	case schema.KindBool32:
		v, err := r.ReadInt32()
		return v != 0, err
	case schema.KindStringRef:
		return codec.ReadStringRef(r, block)
	case schema.KindLocalized:
		return codec.ReadLocalized(r, block)
	case schema.KindExtendedLocalized:
		return codec.ReadExtendedLocalized(r, block)
	case schema.KindPrimaryKey:
		if f.Base == schema.KindUint32 {
			v, err := r.ReadUint32()
			return key.New(v), err
		}
		v, err := r.ReadInt32()
		return key.New(v), err
	case schema.KindForeignKey:
		if f.Base == schema.KindUint32 {
			v, err := r.ReadUint32()
			return key.NewForeign(f.References, v), err
		}
		v, err := r.ReadInt32()
		return key.NewForeign(f.References, v), err
	case schema.KindEnum:
		e, err := enumFor(s, f)
		if err != nil {
			return nil, err
		}
		return decodeEnum(r, e, f.Base)
	}
	return nil, fmt.Errorf("unsupported field type %s", f.Kind)
}

func decodeEnum(r *codec.Reader, e *schema.Enum, base schema.FieldKind) (EnumValue, error) {
	v, err := readInt(r, base)
	if err != nil {
		return EnumValue{}, err
	}
	name, ok := e.Lookup(v)
	if !ok {
		return EnumValue{}, &codec.InvalidDiscriminantError{Type: e.Name, Value: v}
	}
	return EnumValue{Type: e.Name, Name: name, Value: v}, nil
}

func readInt(r *codec.Reader, kind schema.FieldKind) (int64, error) {
	switch kind {
	case schema.KindInt8:
		v, err := r.ReadInt8()
		return int64(v), err
	case schema.KindUint8:
		v, err := r.ReadUint8()
		return int64(v), err
	case schema.KindInt16:
		v, err := r.ReadInt16()
		return int64(v), err
	case schema.KindUint16:
		v, err := r.ReadUint16()
		return int64(v), err
	case schema.KindInt32:
		v, err := r.ReadInt32()
		return int64(v), err
	case schema.KindUint32:
		v, err := r.ReadUint32()
		return int64(v), err
	}
	return 0, fmt.Errorf("unsupported integer type %s", kind)
}

// checkSchema runs Validate so that layouts assembled in code get the same
// defaults and checks as parsed ones.
func checkSchema(s *schema.Schema) error {
	if s == nil {
		return errNilSchema
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	return nil
}

func enumFor(s *schema.Schema, f schema.Field) (*schema.Enum, error) {
	e, ok := s.Enum(f.Enum)
	if !ok {
		return nil, fmt.Errorf("unknown enum %q", f.Enum)
	}
	return e, nil
}
