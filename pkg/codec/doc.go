// Package codec implements the binary primitives of the DBC table format.
//
// # File Format
//
// A DBC file is a fixed header, a block of fixed-size rows and a trailing
// string block, little-endian throughout:
//
//	[Magic "WDBC"(4)][RecordCount(4)][FieldCount(4)][RecordSize(4)][StringBlockSize(4)]
//	[RecordCount * RecordSize bytes of rows]
//	[StringBlockSize bytes: 0x00, then NUL-terminated UTF-8 strings]
//
// String-typed fields store a u32 byte offset into the string block. Offset 0
// is the empty string. Localized fields (string_ref_loc) store 8 or 16 such
// offsets followed by a u32 mask of active locales, 36 or 68 bytes in total.
//
// # Reading
//
// Reader is a cursor over an in-memory buffer. Every read consumes exactly the
// width of its type and fails with an error wrapping ErrUnexpectedEOF when the
// buffer is too short:
//
//	r := codec.NewReader(data)
//	h, err := codec.ReadHeader(r)
//	if err != nil {
//	    return err
//	}
//	if err := h.Validate(expectedRecordSize, expectedFieldCount); err != nil {
//	    return err // *codec.InvalidHeaderError with Expected and Actual
//	}
//
// # Writing
//
// Writer never fails. String offsets are assigned by a StringWriter, which
// comes in two policies:
//
//   - legacy: every non-empty occurrence is appended, duplicates included
//   - cache: identical content is appended once and its offset reused
//
// Files produced by different tools use different policies, so re-encoding a
// file byte-for-byte requires choosing the same one. A StringBlockBuilder can
// hand out both views over one block when a table mixes them.
//
// # Fail-fast Variants
//
// MustResolve panics instead of returning an error. It exists only for data
// embedded into a binary at build time; runtime parsing always returns errors.
package codec
