// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/ssargent/dbckit/pkg/logging"
	"github.com/ssargent/dbckit/pkg/storage"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct {
	logger *logging.Logger
}

// NewServerFactory creates a new server factory. A nil logger discards output.
func NewServerFactory(logger *logging.Logger) ServerFactory {
	if logger == nil {
		logger = logging.NoopLogger()
	}
	return &DefaultServerFactory{logger: logger}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{logger: f.logger}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	logger *logging.Logger
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, catalog Catalog, config ServerConfig) error {
	logger := s.logger
	if config.Logger != nil {
		logger = config.Logger
	}
	return StartServer(ctx, catalog, config, logger)
}

// DefaultArchiveFactory opens pebble archives with fsync enabled
type DefaultArchiveFactory struct{}

// NewArchiveFactory creates a new archive factory
func NewArchiveFactory() ArchiveFactory {
	return &DefaultArchiveFactory{}
}

// OpenArchive opens or creates the archive stored in dir
func (f *DefaultArchiveFactory) OpenArchive(dir string) (*storage.Archive, error) {
	return storage.Open(dir)
}
