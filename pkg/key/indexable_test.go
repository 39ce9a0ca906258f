package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spellRow struct {
	ID   Int32Key
	Name string
}

func (r spellRow) PrimaryKey() Int32Key {
	return r.ID
}

func TestGet_LinearScan(t *testing.T) {
	rows := []spellRow{
		{ID: New[int32](133), Name: "Fireball"},
		{ID: New[int32](116), Name: "Frostbolt"},
		{ID: New[int32](133), Name: "Shadowed Fireball"},
	}

	row, ok := Get(rows, New[int32](116))
	require.True(t, ok)
	assert.Equal(t, "Frostbolt", row.Name)

	// The first match wins.
	row, ok = Get(rows, New[int32](133))
	require.True(t, ok)
	assert.Equal(t, "Fireball", row.Name)

	_, ok = Get(rows, New[int32](1))
	assert.False(t, ok)

	_, ok = Get([]spellRow(nil), New[int32](1))
	assert.False(t, ok)
}

func TestGetMut_EditsInPlace(t *testing.T) {
	rows := []spellRow{{ID: New[int32](1), Name: "a"}, {ID: New[int32](2), Name: "b"}}

	row, ok := GetMut(rows, New[int32](2))
	require.True(t, ok)
	row.Name = "changed"
	assert.Equal(t, "changed", rows[1].Name)

	row, ok = GetMut(rows, New[int32](3))
	assert.False(t, ok)
	assert.Nil(t, row)
}
