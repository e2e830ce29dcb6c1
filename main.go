package main

import (
	"os"

	"github.com/huntdream/jsoncrack/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and returns the process exit code.
func run(args []string) int {
	if len(args) == 0 {
		args = []string{"--help"}
	}
	return cli.Run(args, os.Stdin, os.Stdout, os.Stderr)
}
