// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/dbckit/pkg/storage"
)

// Catalog resolves table names to decoded tables.
type Catalog interface {
	// Names lists every table the catalog knows a schema for.
	Names() []string

	// Load returns the current contents of a table. Unknown tables and
	// tables without data yield an error wrapping ErrTableNotFound.
	Load(name string) (*LoadedTable, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled
	StartServer(ctx context.Context, catalog Catalog, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}

// ArchiveFactory opens revision archives
type ArchiveFactory interface {
	// OpenArchive opens or creates the archive stored in dir
	OpenArchive(dir string) (*storage.Archive, error)
}
