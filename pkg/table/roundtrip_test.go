package table

import (
	"errors"
	"testing"

	"github.com/ssargent/dbckit/pkg/codec"
	"github.com/ssargent/dbckit/pkg/key"
	"github.com/ssargent/dbckit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spellSchema = `
name: Spell
file: Spell.dbc
enums:
  - name: SpellSchool
    base: uint8
    values: {Physical: 0, Holy: 1, Fire: 2}
  - name: PowerType
    values: {Mana: 0, Rage: 1, Energy: 3}
fields:
  - {name: id, type: primary_key, base: uint32}
  - {name: school, type: enum, enum: SpellSchool}
  - {name: power, type: enum, enum: PowerType, len: 2}
  - {name: level, type: int16}
  - {name: max_level, type: uint16}
  - {name: flags, type: uint8}
  - {name: delta, type: int8}
  - {name: speed, type: float}
  - {name: passive, type: bool}
  - {name: channeled, type: bool32}
  - {name: reagents, type: int32, len: 3}
  - {name: counts, type: uint32, len: 2}
  - {name: coords, type: float, len: 2}
  - {name: small, type: int8, len: 2}
  - {name: tiny, type: uint8, len: 2}
  - {name: shorts, type: int16, len: 2}
  - {name: ushorts, type: uint16, len: 2}
  - {name: toggles, type: bool, len: 2}
  - {name: toggles32, type: bool32, len: 2}
  - {name: icon, type: foreign_key, references: SpellIcon}
  - {name: map, type: foreign_key, base: uint32, references: Map}
  - {name: triggers, type: foreign_key, references: Spell, len: 2}
  - {name: utriggers, type: foreign_key, base: uint32, references: Spell, len: 2}
  - {name: name, type: string_ref_loc}
  - {name: rank, type: extended_string_ref_loc}
  - {name: texture, type: string_ref}
  - {name: aliases, type: string_ref, len: 2}
`

func spellRow(t testing.TB, s *schema.Schema, id uint32, texture string) Row {
	t.Helper()
	school, _ := s.Enum("SpellSchool")
	power, _ := s.Enum("PowerType")
	fire, err := NewEnumValue(school, "Fire")
	require.NoError(t, err)
	mana, err := NewEnumValue(power, "Mana")
	require.NoError(t, err)
	energy, err := NewEnumValue(power, "Energy")
	require.NoError(t, err)

	name := codec.LocalizedString{Flags: 0x00FF_FFFE}
	name.Locales[codec.EnGB] = "Fireball"
	name.Locales[codec.DeDE] = "Feuerball"
	name.Locales[codec.EsES] = "Bola de Fuego"
	name.Locales[codec.EsMX] = "Bola de Fuego"

	rank := codec.ExtendedLocalizedString{Flags: 0xFFFF}
	rank.Locales[codec.EnGB] = "Rank 1"
	rank.Locales[codec.RuRU] = "Уровень 1"

	return Row{
		key.New(id),
		fire,
		[]EnumValue{mana, energy},
		int16(-12),
		uint16(60),
		uint8(0x80),
		int8(-1),
		float32(24.5),
		true,
		false,
		[]int32{1, -2, 3},
		[]uint32{4000000000, 0},
		[]float32{1.25, -3.5},
		[]int8{-128, 127},
		[]uint8{0, 255},
		[]int16{-32768, 32767},
		[]uint16{0, 65535},
		[]bool{true, false},
		[]bool{false, true},
		key.NewForeign("SpellIcon", int32(185)),
		key.NewForeign("Map", uint32(0)),
		[]key.ForeignKey[int32]{key.NewForeign("Spell", int32(0)), key.NewForeign("Spell", int32(-7))},
		[]key.ForeignKey[uint32]{key.NewForeign("Spell", uint32(133)), key.NewForeign("Spell", uint32(0))},
		name,
		rank,
		texture,
		[]string{"", texture},
	}
}

func spellTable(t testing.TB) *Table {
	s := mustSchema(t, spellSchema)
	tbl := New(s)
	tbl.Append(
		spellRow(t, s, 133, `Interface\Icons\Spell_Fire_FlameBolt`),
		spellRow(t, s, 143, `Interface\Icons\Spell_Fire_FlameBolt`),
		spellRow(t, s, 145, ""),
	)
	return tbl
}

func TestRoundTrip_BothPolicies(t *testing.T) {
	for _, p := range []codec.StringPolicy{codec.PolicyLegacy, codec.PolicyCache} {
		t.Run(p.String(), func(t *testing.T) {
			tbl := spellTable(t)

			data, err := tbl.Encode(WithStringPolicy(p), WithLocalizedPolicy(p))
			require.NoError(t, err)

			got, err := Decode(data, tbl.Schema)
			require.NoError(t, err)
			assert.Equal(t, tbl.Rows, got.Rows)
			assert.Equal(t, uint64(len(data)), got.Header.FileSize())
			assert.Equal(t, tbl.Schema.RecordSize(), got.Header.RecordSize)

			// Re-encoding the decoded table reproduces the same bytes.
			again, err := got.Encode(WithStringPolicy(p), WithLocalizedPolicy(p))
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestEncode_PolicyChangesStringBlock(t *testing.T) {
	tbl := spellTable(t)

	legacy, err := tbl.Encode(WithStringPolicy(codec.PolicyLegacy), WithLocalizedPolicy(codec.PolicyLegacy))
	require.NoError(t, err)
	cached, err := tbl.Encode(WithStringPolicy(codec.PolicyCache), WithLocalizedPolicy(codec.PolicyCache))
	require.NoError(t, err)

	lt, err := Decode(legacy, tbl.Schema)
	require.NoError(t, err)
	ct, err := Decode(cached, tbl.Schema)
	require.NoError(t, err)

	assert.Less(t, ct.Header.StringBlockSize, lt.Header.StringBlockSize)
	assert.Equal(t, lt.Rows, ct.Rows)
}

func TestEncode_StringOffsets(t *testing.T) {
	s := mustSchema(t, "name: Names\nfields: [{name: a, type: string_ref}]")
	tbl := New(s)
	tbl.Append(Row{"Orgrimmar"}, Row{""}, Row{"Orgrimmar"})

	legacy, err := tbl.Encode(WithStringPolicy(codec.PolicyLegacy))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 11, 0, 0, 0}, legacy[20:32])
	assert.Equal(t, []byte("\x00Orgrimmar\x00Orgrimmar\x00"), legacy[32:])

	cached, err := tbl.Encode(WithStringPolicy(codec.PolicyCache))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0}, cached[20:32])
	assert.Equal(t, []byte("\x00Orgrimmar\x00"), cached[32:])
}

func TestEncode_MixedPoliciesInOneTable(t *testing.T) {
	s := mustSchema(t, `
name: Mixed
string_policy: legacy
localized_policy: cache
fields:
  - {name: internal, type: string_ref}
  - {name: display, type: string_ref_loc}
`)
	loc := codec.LocalizedString{}
	loc.Locales[codec.EnGB] = "x"
	loc.Locales[codec.FrFR] = "x"

	tbl := New(s)
	tbl.Append(Row{"x", loc}, Row{"x", loc})

	data, err := tbl.Encode()
	require.NoError(t, err)

	// legacy "x" at 1, cached "x" at 3, legacy "x" again at 5; the cache
	// never reuses strings written by the legacy policy.
	block := data[20+2*40:]
	assert.Equal(t, []byte("\x00x\x00x\x00x\x00"), block)

	r := codec.NewReader(data[20:])
	off, _ := r.ReadUint32()
	assert.Equal(t, uint32(1), off)
	enGB, _ := r.ReadUint32()
	_, _ = r.ReadUint32()
	frFR, _ := r.ReadUint32()
	assert.Equal(t, uint32(3), enGB)
	assert.Equal(t, uint32(3), frFR)

	got, err := Decode(data, s)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows, got.Rows)
}

func TestDecode_InvalidDiscriminant(t *testing.T) {
	s := mustSchema(t, `
name: Lock
enums: [{name: LockType, values: {None: 0, Item: 1}}]
fields:
  - {name: id, type: primary_key}
  - {name: type, type: enum, enum: LockType}
`)
	w := codec.NewWriter(0)
	h := codec.WriteHeader(codec.Header{RecordCount: 1, FieldCount: 2, RecordSize: 8, StringBlockSize: 1})
	w.WriteBytes(h[:])
	w.WriteInt32(1)
	w.WriteInt32(7)
	w.WriteUint8(0)

	_, err := Decode(w.Bytes(), s)
	var dErr *codec.InvalidDiscriminantError
	require.True(t, errors.As(err, &dErr), "got %v", err)
	assert.Equal(t, "LockType", dErr.Type)
	assert.Equal(t, int64(7), dErr.Value)
	assert.Contains(t, err.Error(), "record 0")
	assert.Contains(t, err.Error(), "field type")
}

func TestDecode_BadStringRef(t *testing.T) {
	s := mustSchema(t, "name: Names\nfields: [{name: a, type: string_ref}]")
	w := codec.NewWriter(0)
	h := codec.WriteHeader(codec.Header{RecordCount: 1, FieldCount: 1, RecordSize: 4, StringBlockSize: 4})
	w.WriteBytes(h[:])
	w.WriteUint32(1)
	w.WriteBytes([]byte{0, 0xff, 0xfe, 0})

	_, err := Decode(w.Bytes(), s)
	var uErr *codec.InvalidUTF8Error
	assert.True(t, errors.As(err, &uErr), "got %v", err)
}

func TestEncode_ValueErrors(t *testing.T) {
	tbl := spellTable(t)

	t.Run("wrong type", func(t *testing.T) {
		bad := spellTable(t)
		bad.Rows[1][3] = int32(5) // level is int16
		_, err := bad.Encode()
		var vErr *ValueTypeError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, "level", vErr.Field)
		assert.Equal(t, "int16", vErr.Want)
		assert.Contains(t, err.Error(), "record 1")
	})

	t.Run("array length", func(t *testing.T) {
		bad := spellTable(t)
		bad.Rows[0][10] = []int32{1}
		_, err := bad.Encode()
		var aErr *ArrayLengthError
		require.True(t, errors.As(err, &aErr), "got %v", err)
		assert.Equal(t, 3, aErr.Want)
		assert.Equal(t, 1, aErr.Got)
	})

	t.Run("short row", func(t *testing.T) {
		bad := spellTable(t)
		bad.Rows[2] = bad.Rows[2][:4]
		_, err := bad.Encode()
		assert.ErrorContains(t, err, "expected 27 values")
	})

	t.Run("unknown enum value", func(t *testing.T) {
		bad := spellTable(t)
		bad.Rows[0][1] = EnumValue{Type: "SpellSchool", Name: "Shadow", Value: 5}
		_, err := bad.Encode()
		var dErr *codec.InvalidDiscriminantError
		assert.True(t, errors.As(err, &dErr), "got %v", err)
	})

	_, err := tbl.Encode()
	assert.NoError(t, err)
}

func TestRowMap(t *testing.T) {
	tbl := spellTable(t)
	m := tbl.RowMap(tbl.Rows[0])

	assert.Equal(t, uint32(133), m["id"])
	assert.Equal(t, "Fire", m["school"])
	assert.Equal(t, []string{"Mana", "Energy"}, m["power"])
	assert.Equal(t, int32(185), m["icon"])
	assert.Equal(t, []int32{0, -7}, m["triggers"])
	assert.Equal(t, []uint32{133, 0}, m["utriggers"])
	assert.Equal(t, "Fireball", m["name"].(map[string]any)["enGB"])
	assert.Equal(t, []int32{1, -2, 3}, m["reagents"])
	assert.Len(t, m, len(tbl.Schema.Fields))
}
