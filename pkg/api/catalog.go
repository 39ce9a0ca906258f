package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/dbckit/pkg/schema"
	"github.com/ssargent/dbckit/pkg/storage"
	"github.com/ssargent/dbckit/pkg/table"
)

// ArchiveCatalog serves the newest archived revision of each table. Decoded
// tables are cached until a newer revision appears.
type ArchiveCatalog struct {
	archive *storage.Archive
	schemas *schema.Registry
	opts    []table.Option

	mu    sync.Mutex
	cache map[string]*LoadedTable
}

// NewArchiveCatalog creates a catalog over archive, decoding with schemas.
func NewArchiveCatalog(archive *storage.Archive, schemas *schema.Registry, opts ...table.Option) *ArchiveCatalog {
	return &ArchiveCatalog{
		archive: archive,
		schemas: schemas,
		opts:    opts,
		cache:   make(map[string]*LoadedTable),
	}
}

// Names lists the registered schemas.
func (c *ArchiveCatalog) Names() []string {
	return c.schemas.Names()
}

// Load returns the newest revision of name.
func (c *ArchiveCatalog) Load(name string) (*LoadedTable, error) {
	s, ok := c.schemas.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: no schema for %s", ErrTableNotFound, name)
	}
	lt, err := c.load(s)
	if err != nil {
		return nil, &LoadError{Table: s.Name, Err: err}
	}
	return lt, nil
}

func (c *ArchiveCatalog) load(s *schema.Schema) (*LoadedTable, error) {
	head, err := c.archive.Head(s.Name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s has no archived revision", ErrTableNotFound, s.Name)
	}
	if err != nil {
		return nil, err
	}
	rev := head.ID.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if lt, ok := c.cache[s.Name]; ok && lt.Revision == rev {
		return lt, nil
	}

	data, err := c.archive.Get(s.Name, head.ID)
	if err != nil {
		return nil, err
	}
	t, err := table.Decode(data, s, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s revision %s: %w", s.Name, rev, err)
	}
	lt := newLoadedTable(t, rev)
	c.cache[s.Name] = lt
	return lt, nil
}

// DirCatalog serves DBC files from a directory, reloading a file when its
// modification time changes.
type DirCatalog struct {
	dir     string
	schemas *schema.Registry
	opts    []table.Option

	mu    sync.Mutex
	cache map[string]*LoadedTable
}

// NewDirCatalog creates a catalog over the files in dir.
func NewDirCatalog(dir string, schemas *schema.Registry, opts ...table.Option) *DirCatalog {
	return &DirCatalog{
		dir:     dir,
		schemas: schemas,
		opts:    opts,
		cache:   make(map[string]*LoadedTable),
	}
}

// Names lists the registered schemas.
func (c *DirCatalog) Names() []string {
	return c.schemas.Names()
}

// Load reads <dir>/<schema file>.
func (c *DirCatalog) Load(name string) (*LoadedTable, error) {
	s, ok := c.schemas.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: no schema for %s", ErrTableNotFound, name)
	}
	lt, err := c.load(s)
	if err != nil {
		return nil, &LoadError{Table: s.Name, Err: err}
	}
	return lt, nil
}

func (c *DirCatalog) load(s *schema.Schema) (*LoadedTable, error) {
	path := filepath.Join(c.dir, s.FileName())
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	rev := fi.ModTime().UTC().Format(time.RFC3339Nano)

	c.mu.Lock()
	defer c.mu.Unlock()
	if lt, ok := c.cache[s.Name]; ok && lt.Revision == rev {
		return lt, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := table.Read(f, s, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	lt := newLoadedTable(t, rev)
	c.cache[s.Name] = lt
	return lt, nil
}
