package main

import (
	"os"

	"github.com/beelab/dancereview/cmd"
	"github.com/beelab/dancereview/internal/buildinfo"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = "dev"
	buildDate = ""
)

func main() {
	info := buildinfo.NewContext(version, buildDate)
	if err := cmd.RootCommand(info).Execute(); err != nil {
		os.Exit(1)
	}
}
