// Command tablevc is the version-controlled table server and its CLI.
package main

import (
	"os"

	"github.com/tablevc/tablevc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
