package api

import (
	"testing"

	"github.com/ssargent/dbckit/pkg/codec"
	"github.com/ssargent/dbckit/pkg/key"
	"github.com/ssargent/dbckit/pkg/schema"
	"github.com/ssargent/dbckit/pkg/table"
	"github.com/stretchr/testify/require"
)

const lockSchemaYAML = `
name: Lock
file: Lock.dbc
enums: [{name: LockType, values: {None: 0, Item: 1}}]
fields:
  - {name: id, type: primary_key}
  - {name: type, type: enum, enum: LockType}
  - {name: name, type: string_ref_loc}
`

const iconSchemaYAML = `
name: SpellIcon
fields:
  - {name: id, type: primary_key}
  - {name: texture, type: string_ref}
`

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	lock, err := schema.Parse([]byte(lockSchemaYAML))
	require.NoError(t, err)
	icon, err := schema.Parse([]byte(iconSchemaYAML))
	require.NoError(t, err)
	reg, err := schema.NewRegistry(lock, icon)
	require.NoError(t, err)
	return reg
}

// lockTable builds a Lock table with one row per id.
func lockTable(t *testing.T, reg *schema.Registry, ids ...int32) *table.Table {
	t.Helper()
	s, ok := reg.Lookup("Lock")
	require.True(t, ok)
	e, _ := s.Enum("LockType")

	tbl := table.New(s)
	for _, id := range ids {
		v, err := table.NewEnumValue(e, "Item")
		require.NoError(t, err)
		name := codec.LocalizedString{}
		name.Locales[codec.EnGB] = "Lock"
		tbl.Append(table.Row{key.New(id), v, name})
	}
	return tbl
}

func lockFile(t *testing.T, reg *schema.Registry, ids ...int32) []byte {
	t.Helper()
	data, err := lockTable(t, reg, ids...).Encode()
	require.NoError(t, err)
	return data
}
