// Command readwell turns PDFs into clean, readable markdown.
package main

import (
	"os"

	"github.com/custodia-labs/readwell/internal/adapters/driving/cli"
	"github.com/custodia-labs/readwell/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBuilder(app.Build)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
