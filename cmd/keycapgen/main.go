// Command keycapgen renders catalogs of keycap variants through the OpenSCAD
// keycap playground.
package main

import (
	"context"
	"os"

	"github.com/rshade/keycapgen/internal/cli"
	"github.com/rshade/keycapgen/pkg/version"
)

func run() error {
	root := cli.NewRootCmd(version.GetVersion())
	return root.ExecuteContext(context.Background())
}

func main() {
	// Cobra has already printed the error.
	if err := run(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
