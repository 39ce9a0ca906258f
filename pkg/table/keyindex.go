package table

import (
	"math"

	"github.com/ssargent/dbckit/pkg/index"
)

// KeyIndex answers primary key lookups without scanning. It is a snapshot
// of the rows at build time and must be rebuilt after rows change.
type KeyIndex struct {
	t    *Table
	tree *index.Tree[int64, int]
}

// IndexByKey builds a KeyIndex. When ids repeat, the first row wins, the
// same as Get.
func (t *Table) IndexByKey() *KeyIndex {
	ix := &KeyIndex{t: t, tree: index.New[int64, int](index.DefaultOrder)}
	pk := t.Schema.PrimaryKey()
	if pk < 0 {
		return ix
	}
	keyOf := t.rowKey(pk)
	for i, row := range t.Rows {
		if k := keyOf(row); k != math.MinInt64 {
			ix.tree.Insert(k, i)
		}
	}
	return ix
}

// Get returns the row with primary key id.
func (ix *KeyIndex) Get(id int64) (Row, bool) {
	i, ok := ix.tree.Search(id)
	if !ok || i >= len(ix.t.Rows) {
		return nil, false
	}
	return ix.t.Rows[i], true
}

// Len returns the number of distinct keys.
func (ix *KeyIndex) Len() int {
	return ix.tree.Len()
}
