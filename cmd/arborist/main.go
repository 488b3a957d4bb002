// Command arborist is the CLI entry point (SPEC_FULL.md §6): a thin
// wrapper around internal/cli's cobra command tree, following the
// teacher's own cmd/funxy panic-recovery shape around main().
package main

import (
	"fmt"
	"os"

	"github.com/arborist-lang/arborist/internal/cli"
)

func main() {
	os.Exit(run())
}

// run holds main's logic as a testable, exit-code-returning function
// so cmd/arborist's testscript harness can register it as a command;
// the harness runs it by re-executing the test binary.
func run() int {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "arborist: internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "arborist: %v\n", err)
		return 1
	}
	return 0
}
