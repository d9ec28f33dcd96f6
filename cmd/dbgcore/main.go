package main

import (
	"os"

	"github.com/go-delve/dbgcore/cmd/dbgcore/cmds"
	"github.com/go-delve/dbgcore/pkg/version"
)

// Build is the git sha of this binaries build.
var Build string

func main() {
	if Build != "" {
		version.DbgcoreVersion.Build = Build
	}

	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
