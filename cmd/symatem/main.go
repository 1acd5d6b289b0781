// Command symatem compiles operator-graph programs to LLVM IR.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Symatem/Compiler/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Cobra usage errors (bad flags, wrong arg count) are not formatted by commands.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
