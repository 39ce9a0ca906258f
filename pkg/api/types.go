package api

import (
	"errors"
	"time"

	"github.com/ssargent/dbckit/pkg/logging"
	"github.com/ssargent/dbckit/pkg/table"
)

// ErrTableNotFound is returned by a Catalog for names it cannot serve.
var ErrTableNotFound = errors.New("table not found")

// LoadError is returned by a Catalog for a table it has a schema for but
// could not load. Table is the schema name, not the name that was asked for.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string { return e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Addr        string
	APIKey      string // empty disables authentication
	CORSOrigins []string
	// Logger overrides the starter's logger when set.
	Logger *logging.Logger
}

// LoadedTable is a decoded table plus where it came from.
type LoadedTable struct {
	Table    *table.Table
	Revision string
	LoadedAt time.Time
	// Index is built at load time; nil falls back to a linear scan.
	Index *table.KeyIndex
}

func newLoadedTable(t *table.Table, rev string) *LoadedTable {
	return &LoadedTable{Table: t, Revision: rev, LoadedAt: time.Now(), Index: t.IndexByKey()}
}

// Get looks a row up by primary key.
func (lt *LoadedTable) Get(id int64) (table.Row, bool) {
	if lt.Index != nil {
		return lt.Index.Get(id)
	}
	return lt.Table.Get(id)
}

// TableInfo summarizes a table for listings.
type TableInfo struct {
	Name            string `json:"name"`
	File            string `json:"file"`
	Revision        string `json:"revision,omitempty"`
	Records         uint32 `json:"records"`
	Fields          uint32 `json:"fields"`
	RecordSize      uint32 `json:"record_size"`
	StringBlockSize uint32 `json:"string_block_size"`
}

// TableResponse is one page of rows.
type TableResponse struct {
	TableInfo
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
	Rows   []map[string]any `json:"rows"`
}

func infoFor(lt *LoadedTable) TableInfo {
	t := lt.Table
	return TableInfo{
		Name:            t.Schema.Name,
		File:            t.Schema.FileName(),
		Revision:        lt.Revision,
		Records:         uint32(t.Len()),
		Fields:          t.Schema.FieldCount(),
		RecordSize:      t.Schema.RecordSize(),
		StringBlockSize: t.Header.StringBlockSize,
	}
}
