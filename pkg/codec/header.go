package codec

import (
	"encoding/binary"
	"fmt"
)

const (
	// Magic identifies a DBC file.
	Magic = "WDBC"
	// HeaderSize is the fixed size of the file header in bytes.
	HeaderSize = 20
)

// Header is the fixed 20-byte prefix of every DBC file.
type Header struct {
	RecordCount     uint32
	FieldCount      uint32
	RecordSize      uint32
	StringBlockSize uint32
}

// HeaderField names the header value that failed validation.
type HeaderField int

const (
	HeaderMagic HeaderField = iota
	HeaderRecordSize
	HeaderFieldCount
)

func (f HeaderField) String() string {
	switch f {
	case HeaderMagic:
		return "magic"
	case HeaderRecordSize:
		return "record size"
	case HeaderFieldCount:
		return "field count"
	default:
		return fmt.Sprintf("HeaderField(%d)", int(f))
	}
}

// InvalidHeaderError reports a header that does not match the caller's schema.
// For HeaderMagic, Expected and Actual hold the little-endian magic words.
type InvalidHeaderError struct {
	Field    HeaderField
	Expected uint32
	Actual   uint32
}

func (e *InvalidHeaderError) Error() string {
	if e.Field == HeaderMagic {
		return fmt.Sprintf("invalid header: magic: expected %q, got %q", magicString(e.Expected), magicString(e.Actual))
	}
	return fmt.Sprintf("invalid header: %s: expected %d, got %d", e.Field, e.Expected, e.Actual)
}

var magicWord = binary.LittleEndian.Uint32([]byte(Magic))

func magicString(v uint32) string {
	return string(binary.LittleEndian.AppendUint32(nil, v))
}

// ParseHeader decodes the magic tag and the four little-endian counters.
// It does not compare against any schema; see Header.Validate.
func ParseHeader(b [HeaderSize]byte) (Header, error) {
	if got := binary.LittleEndian.Uint32(b[0:4]); got != magicWord {
		return Header{}, &InvalidHeaderError{Field: HeaderMagic, Expected: magicWord, Actual: got}
	}
	return Header{
		RecordCount:     binary.LittleEndian.Uint32(b[4:8]),
		FieldCount:      binary.LittleEndian.Uint32(b[8:12]),
		RecordSize:      binary.LittleEndian.Uint32(b[12:16]),
		StringBlockSize: binary.LittleEndian.Uint32(b[16:20]),
	}, nil
}

// ReadHeader consumes HeaderSize bytes from r and parses them.
func ReadHeader(r *Reader) (Header, error) {
	b, err := r.ReadBytes(HeaderSize)
	if err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	return ParseHeader([HeaderSize]byte(b))
}

// WriteHeader is the exact inverse of ParseHeader.
func WriteHeader(h Header) [HeaderSize]byte {
	var b [HeaderSize]byte
	copy(b[0:4], Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.RecordCount)
	binary.LittleEndian.PutUint32(b[8:12], h.FieldCount)
	binary.LittleEndian.PutUint32(b[12:16], h.RecordSize)
	binary.LittleEndian.PutUint32(b[16:20], h.StringBlockSize)
	return b
}

// Validate compares the header against the schema constants the caller expects.
// Record size is checked before field count.
func (h Header) Validate(expectedRecordSize, expectedFieldCount uint32) error {
	if h.RecordSize != expectedRecordSize {
		return &InvalidHeaderError{Field: HeaderRecordSize, Expected: expectedRecordSize, Actual: h.RecordSize}
	}
	if h.FieldCount != expectedFieldCount {
		return &InvalidHeaderError{Field: HeaderFieldCount, Expected: expectedFieldCount, Actual: h.FieldCount}
	}
	return nil
}

// RowBytes is the size of the row region following the header.
func (h Header) RowBytes() uint64 {
	return uint64(h.RecordCount) * uint64(h.RecordSize)
}

// FileSize is the total encoded size described by the header.
func (h Header) FileSize() uint64 {
	return HeaderSize + h.RowBytes() + uint64(h.StringBlockSize)
}
