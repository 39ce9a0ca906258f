// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/dbckit/pkg/api" //nolint:depguard
	"github.com/ssargent/dbckit/pkg/logging"
)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory  api.ServerFactory
	archiveFactory api.ArchiveFactory
}

// NewContainer creates a new dependency injection container
func NewContainer(logger *logging.Logger) *Container {
	return &Container{
		serverFactory:  api.NewServerFactory(logger),
		archiveFactory: api.NewArchiveFactory(),
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// GetArchiveFactory returns the archive factory
func (c *Container) GetArchiveFactory() api.ArchiveFactory {
	return c.archiveFactory
}

// SetArchiveFactory allows overriding the archive factory (for testing)
func (c *Container) SetArchiveFactory(factory api.ArchiveFactory) {
	c.archiveFactory = factory
}
