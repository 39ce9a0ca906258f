package codec

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	// LocaleCount is the number of slots in a compact localized string.
	LocaleCount = 8
	// ExtendedLocaleCount is the number of slots in an extended localized string.
	ExtendedLocaleCount = 16

	// LocalizedStringSize is the on-disk size of a compact localized string.
	LocalizedStringSize = (LocaleCount + 1) * 4
	// ExtendedLocalizedStringSize is the on-disk size of an extended localized string.
	ExtendedLocalizedStringSize = (ExtendedLocaleCount + 1) * 4
)

// Locale is a slot index in a localized string.
type Locale int

const (
	EnGB Locale = iota
	KoKR
	FrFR
	DeDE
	EnCN
	EnTW
	EsES
	EsMX
	RuRU
	JaJP
	PtPT
	ItIT
	Unknown12
	Unknown13
	Unknown14
	Unknown15
)

var localeNames = [ExtendedLocaleCount]string{
	"enGB", "koKR", "frFR", "deDE", "enCN", "enTW", "esES", "esMX",
	"ruRU", "jaJP", "ptPT", "itIT", "unknown12", "unknown13", "unknown14", "unknown15",
}

func (l Locale) String() string {
	if l < 0 || int(l) >= len(localeNames) {
		return fmt.Sprintf("Locale(%d)", int(l))
	}
	return localeNames[l]
}

// ParseLocale accepts the short names returned by Locale.String, case-insensitively.
func ParseLocale(s string) (Locale, error) {
	for i, name := range localeNames {
		if strings.EqualFold(name, s) {
			return Locale(i), nil
		}
	}
	return 0, fmt.Errorf("unknown locale %q", s)
}

// LocalizedString is a string_ref_loc field: eight per-locale strings and a
// bitmask of active locales.
type LocalizedString struct {
	Locales [LocaleCount]string
	Flags   uint32
}

// Get returns the string for l, or "" if l has no slot in the compact layout.
func (s LocalizedString) Get(l Locale) string {
	if l < 0 || int(l) >= LocaleCount {
		return ""
	}
	return s.Locales[l]
}

// Default returns the first slot.
func (s LocalizedString) Default() string {
	return s.Locales[EnGB]
}

// Map returns the populated slots keyed by locale name plus the mask.
func (s LocalizedString) Map() map[string]any {
	return localizedMap(s.Locales[:], s.Flags)
}

// StringIndices assigns every slot through sw and returns the 36 encoded bytes.
func (s LocalizedString) StringIndices(sw StringWriter) [LocalizedStringSize]byte {
	var out [LocalizedStringSize]byte
	putIndices(out[:], s.Locales[:], s.Flags, sw)
	return out
}

// WriteTo appends the encoded field to w.
func (s LocalizedString) WriteTo(w *Writer, sw StringWriter) {
	b := s.StringIndices(sw)
	w.WriteBytes(b[:])
}

// ReadLocalized consumes exactly 36 bytes and resolves each slot against block.
func ReadLocalized(r *Reader, block StringBlock) (LocalizedString, error) {
	var s LocalizedString
	flags, err := readSlots(r, block, s.Locales[:])
	if err != nil {
		return LocalizedString{}, err
	}
	s.Flags = flags
	return s, nil
}

// ExtendedLocalizedString is the sixteen-slot variant of LocalizedString.
type ExtendedLocalizedString struct {
	Locales [ExtendedLocaleCount]string
	Flags   uint32
}

// Get returns the string for l.
func (s ExtendedLocalizedString) Get(l Locale) string {
	if l < 0 || int(l) >= ExtendedLocaleCount {
		return ""
	}
	return s.Locales[l]
}

// Default returns the first slot.
func (s ExtendedLocalizedString) Default() string {
	return s.Locales[EnGB]
}

// Map returns the populated slots keyed by locale name plus the mask.
func (s ExtendedLocalizedString) Map() map[string]any {
	return localizedMap(s.Locales[:], s.Flags)
}

// StringIndices assigns every slot through sw and returns the 68 encoded bytes.
func (s ExtendedLocalizedString) StringIndices(sw StringWriter) [ExtendedLocalizedStringSize]byte {
	var out [ExtendedLocalizedStringSize]byte
	putIndices(out[:], s.Locales[:], s.Flags, sw)
	return out
}

// WriteTo appends the encoded field to w.
func (s ExtendedLocalizedString) WriteTo(w *Writer, sw StringWriter) {
	b := s.StringIndices(sw)
	w.WriteBytes(b[:])
}

// ReadExtendedLocalized consumes exactly 68 bytes and resolves each slot against block.
func ReadExtendedLocalized(r *Reader, block StringBlock) (ExtendedLocalizedString, error) {
	var s ExtendedLocalizedString
	flags, err := readSlots(r, block, s.Locales[:])
	if err != nil {
		return ExtendedLocalizedString{}, err
	}
	s.Flags = flags
	return s, nil
}

// readSlots fills slots and returns the mask. The full field width is checked
// up front so a truncated field consumes nothing.
func readSlots(r *Reader, block StringBlock, slots []string) (uint32, error) {
	raw, err := r.ReadBytes((len(slots) + 1) * 4)
	if err != nil {
		return 0, fmt.Errorf("localized string: %w", err)
	}
	for i := range slots {
		off := binary.LittleEndian.Uint32(raw[i*4:])
		s, err := block.Resolve(off)
		if err != nil {
			return 0, fmt.Errorf("localized string slot %s: %w", Locale(i), err)
		}
		slots[i] = s
	}
	return binary.LittleEndian.Uint32(raw[len(slots)*4:]), nil
}

func putIndices(out []byte, slots []string, flags uint32, sw StringWriter) {
	for i, s := range slots {
		binary.LittleEndian.PutUint32(out[i*4:], sw.Assign(s))
	}
	binary.LittleEndian.PutUint32(out[len(slots)*4:], flags)
}

func localizedMap(slots []string, flags uint32) map[string]any {
	m := make(map[string]any, len(slots)+1)
	for i, s := range slots {
		if s != "" {
			m[Locale(i).String()] = s
		}
	}
	m["flags"] = flags
	return m
}
