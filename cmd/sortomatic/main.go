package main

import (
	"os"

	"github.com/sortomatic/sortomatic/internal/sortoerr"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return sortoerr.CodeOf(err)
	}
	return sortoerr.ExitOK
}
