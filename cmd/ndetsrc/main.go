// Command ndetsrc generates primary particles for detector simulations.
package main

import (
	"os"

	"github.com/roach88/ndetsrc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
