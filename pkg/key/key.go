// Package key provides typed row identifiers and linear-scan lookup for DBC tables.
//
// Keys are stored in files as plain int32 or uint32 columns; the types here only
// tag them in memory. Foreign keys name the table they point at but nothing
// checks that the target row exists: zero and dangling references are valid data.
package key

import "fmt"

// ID is the set of integer widths a key can wrap.
type ID interface {
	~int32 | ~uint32
}

// Key identifies a row by its primary key column.
type Key[T ID] struct {
	ID T
}

// Int32Key is a primary key backed by a signed column.
type Int32Key = Key[int32]

// Uint32Key is a primary key backed by an unsigned column.
type Uint32Key = Key[uint32]

// New wraps id.
func New[T ID](id T) Key[T] {
	return Key[T]{ID: id}
}

// Raw returns the id widened to int64, which holds every value of both widths.
func (k Key[T]) Raw() int64 {
	return int64(k.ID)
}

// IsZero reports whether the key is the zero id.
func (k Key[T]) IsZero() bool {
	return k.ID == 0
}

func (k Key[T]) String() string {
	return fmt.Sprintf("%d", k.ID)
}

// ForeignKey references a row of another table by id.
type ForeignKey[T ID] struct {
	Table string
	ID    T
}

// NewForeign wraps id as a reference into table.
func NewForeign[T ID](table string, id T) ForeignKey[T] {
	return ForeignKey[T]{Table: table, ID: id}
}

// Key returns the referenced primary key.
func (f ForeignKey[T]) Key() Key[T] {
	return Key[T]{ID: f.ID}
}

// Raw returns the id widened to int64.
func (f ForeignKey[T]) Raw() int64 {
	return int64(f.ID)
}

func (f ForeignKey[T]) String() string {
	return fmt.Sprintf("%s(%d)", f.Table, f.ID)
}
