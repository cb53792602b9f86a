// Command callchain rewrites map/filter call chains into a single filter
// followed by a single map.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/callchain/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.IsQuiet(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
