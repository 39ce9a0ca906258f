/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/dbckit/cmd/dbc/cmd"
	"github.com/ssargent/dbckit/pkg/di"
	"github.com/ssargent/dbckit/pkg/logging"
)

func main() {
	// Commands replace this logger with the configured one once flags are parsed
	container := di.NewContainer(logging.NewLogger(nil))

	// Inject dependencies into cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
