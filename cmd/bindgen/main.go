// Command bindgen generates registration code for declaration blocks.
package main

import (
	"os"

	"github.com/roach88/bindgen/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
