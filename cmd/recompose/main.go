// Command recompose runs, tests and inspects composition scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/recompose/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
