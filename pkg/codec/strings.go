package codec

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// InvalidUTF8Error reports a string block entry that is not valid UTF-8.
type InvalidUTF8Error struct {
	Offset uint32
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("string at offset %d is not valid UTF-8", e.Offset)
}

// OffsetOutOfRangeError reports a string_ref pointing past the string block.
type OffsetOutOfRangeError struct {
	Offset uint32
	Size   int
}

func (e *OffsetOutOfRangeError) Error() string {
	return fmt.Sprintf("string offset %d out of range for block of %d bytes", e.Offset, e.Size)
}

// UnterminatedStringError reports a string that runs to the end of the block
// without a NUL terminator.
type UnterminatedStringError struct {
	Offset uint32
}

func (e *UnterminatedStringError) Error() string {
	return fmt.Sprintf("string at offset %d is not NUL-terminated", e.Offset)
}

// StringBlock is the trailing region of a DBC file holding NUL-terminated strings.
type StringBlock []byte

// Resolve returns the string starting at offset. Offset 0 is always the empty
// string and never touches the block.
func (b StringBlock) Resolve(offset uint32) (string, error) {
	if offset == 0 {
		return "", nil
	}
	if uint64(offset) >= uint64(len(b)) {
		return "", &OffsetOutOfRangeError{Offset: offset, Size: len(b)}
	}
	rest := b[offset:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return "", &UnterminatedStringError{Offset: offset}
	}
	if !utf8.Valid(rest[:end]) {
		return "", &InvalidUTF8Error{Offset: offset}
	}
	return string(rest[:end]), nil
}

// MustResolve is Resolve for embedded data; it panics on any error.
func (b StringBlock) MustResolve(offset uint32) string {
	s, err := b.Resolve(offset)
	if err != nil {
		panic(err)
	}
	return s
}

// ReadStringRef reads a u32 offset from r and resolves it against b.
func ReadStringRef(r *Reader, b StringBlock) (string, error) {
	off, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	return b.Resolve(off)
}

// StringPolicy selects how a writer assigns string block offsets.
type StringPolicy int

const (
	// PolicyLegacy appends every non-empty occurrence, duplicates included.
	PolicyLegacy StringPolicy = iota
	// PolicyCache assigns each distinct content once and reuses its offset.
	PolicyCache
)

func (p StringPolicy) String() string {
	switch p {
	case PolicyLegacy:
		return "legacy"
	case PolicyCache:
		return "cache"
	default:
		return fmt.Sprintf("StringPolicy(%d)", int(p))
	}
}

// ParseStringPolicy accepts "legacy" or "cache". The empty string means legacy.
func ParseStringPolicy(s string) (StringPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy":
		return PolicyLegacy, nil
	case "cache", "dedup":
		return PolicyCache, nil
	default:
		return 0, fmt.Errorf("unknown string policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p StringPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *StringPolicy) UnmarshalText(text []byte) error {
	v, err := ParseStringPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// StringWriter assigns string block offsets during a single write call.
type StringWriter interface {
	// Assign returns the offset for s, appending it to the block if needed.
	// The empty string is always offset 0.
	Assign(s string) uint32
	// Finish returns the complete string block, leading NUL included.
	Finish() []byte
}

// StringBlockBuilder accumulates one string block. Both write policies can
// append into the same builder; only strings assigned through the cache view
// are eligible for reuse.
type StringBlockBuilder struct {
	buf   []byte
	next  uint32
	cache map[string]uint32
}

// NewStringBlockBuilder creates an empty builder. The first assigned offset is 1.
func NewStringBlockBuilder() *StringBlockBuilder {
	return &StringBlockBuilder{
		next:  1,
		cache: make(map[string]uint32),
	}
}

func (b *StringBlockBuilder) appendString(s string) uint32 {
	off := b.next
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
	b.next += uint32(len(s)) + 1
	return off
}

// Size returns the length the finished block will have.
func (b *StringBlockBuilder) Size() uint32 {
	return b.next
}

// Finish returns the leading NUL followed by every appended string.
func (b *StringBlockBuilder) Finish() []byte {
	out := make([]byte, 0, len(b.buf)+1)
	out = append(out, 0)
	return append(out, b.buf...)
}

// Legacy returns a view that appends every non-empty string.
func (b *StringBlockBuilder) Legacy() StringWriter {
	return legacyStrings{b}
}

// Cached returns a view that deduplicates by content.
func (b *StringBlockBuilder) Cached() StringWriter {
	return cachedStrings{b}
}

// Policy returns the view for p.
func (b *StringBlockBuilder) Policy(p StringPolicy) StringWriter {
	if p == PolicyCache {
		return b.Cached()
	}
	return b.Legacy()
}

type legacyStrings struct {
	b *StringBlockBuilder
}

func (l legacyStrings) Assign(s string) uint32 {
	if s == "" {
		return 0
	}
	return l.b.appendString(s)
}

func (l legacyStrings) Finish() []byte {
	return l.b.Finish()
}

type cachedStrings struct {
	b *StringBlockBuilder
}

func (c cachedStrings) Assign(s string) uint32 {
	if s == "" {
		return 0
	}
	if off, ok := c.b.cache[s]; ok {
		return off
	}
	off := c.b.appendString(s)
	c.b.cache[s] = off
	return off
}

func (c cachedStrings) Finish() []byte {
	return c.b.Finish()
}

// NewLegacyStrings returns a standalone append-only StringWriter.
func NewLegacyStrings() StringWriter {
	return NewStringBlockBuilder().Legacy()
}

// NewCachedStrings returns a standalone deduplicating StringWriter.
func NewCachedStrings() StringWriter {
	return NewStringBlockBuilder().Cached()
}

// WriteStringRef assigns s through sw and writes the resulting offset.
func WriteStringRef(w *Writer, sw StringWriter, s string) {
	w.WriteUint32(sw.Assign(s))
}
