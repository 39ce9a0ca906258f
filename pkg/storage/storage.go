// Package storage archives raw DBC files as time-ordered revisions in pebble.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/dbckit/pkg/codec"
)

// ErrNotFound is returned when a table has no matching revision.
var ErrNotFound = errors.New("revision not found")

const (
	revPrefix = "rev/"
	idLen     = len(ksuid.KSUID{})
)

// Revision describes one archived file.
type Revision struct {
	Table  string
	ID     ksuid.KSUID
	Size   int
	Header codec.Header
}

// Time is when the revision was archived.
func (r Revision) Time() time.Time {
	return r.ID.Time()
}

// Archive stores every version of a table ever put, keyed by
// rev/<table>/<ksuid>. KSUIDs sort by time so a prefix scan lists revisions
// oldest first.
type Archive struct {
	db    *pebble.DB
	write *pebble.WriteOptions

	mu   sync.Mutex
	last map[string]ksuid.KSUID
}

// Option configures an Archive.
type Option func(*Archive)

// WithSync controls whether writes are fsynced before Put returns.
func WithSync(sync bool) Option {
	return func(a *Archive) {
		if sync {
			a.write = pebble.Sync
		} else {
			a.write = pebble.NoSync
		}
	}
}

// Open opens or creates an archive in dir.
func Open(dir string, opts ...Option) (*Archive, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", dir, err)
	}
	a := &Archive{db: db, write: pebble.Sync, last: make(map[string]ksuid.KSUID)}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Close flushes and closes the underlying store.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Put stores data as a new revision of table. data must be a complete DBC
// file: its header is parsed and its length checked against it.
func (a *Archive) Put(table string, data []byte) (Revision, error) {
	if err := validTable(table); err != nil {
		return Revision{}, err
	}
	h, err := fileHeader(data)
	if err != nil {
		return Revision{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Revisions created within the same second must still sort after
	// the previous one.
	id := ksuid.New()
	prev, ok := a.last[table]
	if !ok {
		if rev, err := a.Head(table); err == nil {
			prev, ok = rev.ID, true
		}
	}
	if ok && ksuid.Compare(id, prev) <= 0 {
		id = prev.Next()
	}

	if err := a.db.Set(revKey(table, id), data, a.write); err != nil {
		return Revision{}, fmt.Errorf("failed to store revision: %w", err)
	}
	a.last[table] = id
	return Revision{Table: table, ID: id, Size: len(data), Header: h}, nil
}

// Get returns the bytes of one revision.
func (a *Archive) Get(table string, id ksuid.KSUID) ([]byte, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	value, closer, err := a.db.Get(revKey(table, id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read revision: %w", err)
	}
	defer closer.Close()
	return bytes.Clone(value), nil
}

// Latest returns the newest revision of table and its bytes.
func (a *Archive) Latest(table string) (Revision, []byte, error) {
	if err := validTable(table); err != nil {
		return Revision{}, nil, err
	}
	rev, err := a.Head(table)
	if err != nil {
		return Revision{}, nil, err
	}
	data, err := a.Get(table, rev.ID)
	if err != nil {
		return Revision{}, nil, err
	}
	return rev, data, nil
}

// Head returns the newest revision of table without reading its bytes.
func (a *Archive) Head(table string) (Revision, error) {
	if err := validTable(table); err != nil {
		return Revision{}, err
	}
	lower, upper := bounds(revPrefix + table + "/")
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return Revision{}, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	if !iter.Last() {
		return Revision{}, fmt.Errorf("%w: %s", ErrNotFound, table)
	}
	return decodeRevision(iter.Key(), iter.Value())
}

// List returns the revisions of table, oldest first. An empty table name
// lists every table.
func (a *Archive) List(table string) ([]Revision, error) {
	prefix := revPrefix
	if table != "" {
		if err := validTable(table); err != nil {
			return nil, err
		}
		prefix += table + "/"
	}

	lower, upper := bounds(prefix)
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var revs []Revision
	for iter.First(); iter.Valid(); iter.Next() {
		rev, err := decodeRevision(iter.Key(), iter.Value())
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	return revs, iter.Error()
}

// Tables returns the names of all archived tables in key order.
func (a *Archive) Tables() ([]string, error) {
	revs, err := a.List("")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, r := range revs {
		if len(names) == 0 || names[len(names)-1] != r.Table {
			names = append(names, r.Table)
		}
	}
	return names, nil
}

// Delete removes one revision.
func (a *Archive) Delete(table string, id ksuid.KSUID) error {
	if _, err := a.Get(table, id); err != nil {
		return err
	}
	if err := a.db.Delete(revKey(table, id), a.write); err != nil {
		return fmt.Errorf("failed to delete revision: %w", err)
	}
	a.mu.Lock()
	delete(a.last, table)
	a.mu.Unlock()
	return nil
}

func validTable(table string) error {
	if table == "" || strings.ContainsAny(table, "/\x00") {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

func fileHeader(data []byte) (codec.Header, error) {
	h, err := codec.ReadHeader(codec.NewReader(data))
	if err != nil {
		return codec.Header{}, err
	}
	if uint64(len(data)) != h.FileSize() {
		return codec.Header{}, fmt.Errorf("file is %d bytes, header describes %d", len(data), h.FileSize())
	}
	return h, nil
}

func revKey(table string, id ksuid.KSUID) []byte {
	k := make([]byte, 0, len(revPrefix)+len(table)+1+idLen)
	k = append(k, revPrefix...)
	k = append(k, table...)
	k = append(k, '/')
	return append(k, id.Bytes()...)
}

// bounds returns the key range covering every key starting with prefix.
// prefix always ends in '/', so bumping that byte gives the upper bound.
func bounds(prefix string) ([]byte, []byte) {
	lower := []byte(prefix)
	upper := bytes.Clone(lower)
	upper[len(upper)-1]++
	return lower, upper
}

func decodeRevision(k, v []byte) (Revision, error) {
	rest := bytes.TrimPrefix(k, []byte(revPrefix))
	if len(rest) < idLen+2 {
		return Revision{}, fmt.Errorf("malformed archive key %q", k)
	}
	table := string(rest[:len(rest)-idLen-1])
	id, err := ksuid.FromBytes(rest[len(rest)-idLen:])
	if err != nil {
		return Revision{}, fmt.Errorf("malformed archive key %q: %w", k, err)
	}
	rev := Revision{Table: table, ID: id, Size: len(v)}
	if h, err := codec.ReadHeader(codec.NewReader(v)); err == nil {
		rev.Header = h
	}
	return rev, nil
}
